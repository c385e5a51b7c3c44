package code

// HTTP状态码.
const (
	// StatusOK - 200: 成功.
	StatusOK = 200
	// StatusBadRequest - 400: 请求参数错误.
	StatusBadRequest = 400
	// StatusUnauthorized - 401: 未授权.
	StatusUnauthorized = 401
	// StatusForbidden - 403: 禁止访问.
	StatusForbidden = 403
	// StatusNotFound - 404: 资源不存在.
	StatusNotFound = 404
	// StatusRequestEntityTooLarge - 413: 请求体过大.
	StatusRequestEntityTooLarge = 413
	// StatusUnprocessableEntity - 422: 请求参数无法处理.
	StatusUnprocessableEntity = 422
	// StatusTooManyRequests - 429: 请求过多.
	StatusTooManyRequests = 429
	// StatusInternalServerError - 500: 服务器内部错误.
	StatusInternalServerError = 500
	// StatusBadGateway - 502: 上游服务错误.
	StatusBadGateway = 502
)

// 通用错误码 (100xxx).
const (
	// ErrSuccess - 200: 成功.
	ErrSuccess int = iota + 100000
	// ErrUnknown - 500: 未知错误.
	ErrUnknown
	// ErrBind - 422: 请求参数绑定错误.
	ErrBind
	// ErrValidation - 422: 请求参数验证错误.
	ErrValidation
	// ErrTokenInvalid - 401: 令牌无效.
	ErrTokenInvalid
	// ErrTooManyRequests - 429: 请求频率过高.
	ErrTooManyRequests
)

// 认证相关错误码 (101xxx).
const (
	// ErrPasswordIncorrect - 401: 邮箱或密码错误.
	ErrPasswordIncorrect int = iota + 101000
	// ErrUserInactive - 403: 用户已停用.
	ErrUserInactive
	// ErrPermissionDenied - 403: 权限不足.
	ErrPermissionDenied
	// ErrOAuthDisabled - 401: OAuth登录未启用.
	ErrOAuthDisabled
	// ErrOAuthTokenInvalid - 401: OAuth令牌无效.
	ErrOAuthTokenInvalid
)

// 用户相关错误码 (102xxx).
const (
	// ErrUserNotFound - 404: 用户不存在.
	ErrUserNotFound int = iota + 102000
	// ErrUserAlreadyExist - 400: 用户已存在.
	ErrUserAlreadyExist
	// ErrUserSelfDelete - 403: 不能删除当前登录用户.
	ErrUserSelfDelete
)

// 房间与设备类型相关错误码 (103xxx).
const (
	// ErrRoomNotFound - 404: 房间不存在.
	ErrRoomNotFound int = iota + 103000
	// ErrRoomAlreadyExist - 400: 房间已存在.
	ErrRoomAlreadyExist
	// ErrDeviceTypeNotFound - 404: 设备类型不存在.
	ErrDeviceTypeNotFound
	// ErrDeviceTypeAlreadyExist - 400: 设备类型已存在.
	ErrDeviceTypeAlreadyExist
)

// 设备相关错误码 (104xxx).
const (
	// ErrDeviceNotFound - 404: 设备不存在.
	ErrDeviceNotFound int = iota + 104000
	// ErrDeviceAlreadyExist - 400: 设备已存在.
	ErrDeviceAlreadyExist
	// ErrDeviceRefInvalid - 400: 设备引用的资源不存在.
	ErrDeviceRefInvalid
	// ErrDeviceExportFailed - 500: 设备导出失败.
	ErrDeviceExportFailed
)

// 数据库相关错误码 (105xxx).
const (
	// ErrDatabase - 500: 数据库错误.
	ErrDatabase int = iota + 105000
	// ErrRecordNotFound - 404: 记录不存在.
	ErrRecordNotFound
)

// 技能相关错误码 (106xxx).
const (
	// ErrSkillNotFound - 404: 技能不存在.
	ErrSkillNotFound int = iota + 106000
	// ErrSkillAlreadyExist - 400: 技能已存在.
	ErrSkillAlreadyExist
)

// 图片与对象存储相关错误码 (107xxx).
const (
	// ErrImageNotFound - 404: 图片不存在.
	ErrImageNotFound int = iota + 107000
	// ErrImageInvalidType - 400: 文件不是图片.
	ErrImageInvalidType
	// ErrImageTooLarge - 413: 图片超过大小限制.
	ErrImageTooLarge
	// ErrStorageFailed - 500: 对象存储操作失败.
	ErrStorageFailed
	// ErrPresignFailed - 500: 生成预签名URL失败.
	ErrPresignFailed
)

// 同步任务与Immich相关错误码 (108xxx).
const (
	// ErrSyncJobNotFound - 404: 同步任务不存在.
	ErrSyncJobNotFound int = iota + 108000
	// ErrSyncJobAlreadyExist - 400: 同步任务已存在.
	ErrSyncJobAlreadyExist
	// ErrSyncJobQueryRequired - 422: SMART策略必须提供查询语句.
	ErrSyncJobQueryRequired
	// ErrImmichUnavailable - 502: Immich服务不可用.
	ErrImmichUnavailable
)

// MQTT相关错误码 (109xxx).
const (
	// ErrMQTTPublishFailed - 500: MQTT消息发布失败.
	ErrMQTTPublishFailed int = iota + 109000
	// ErrMQTTNotConnected - 500: MQTT未连接.
	ErrMQTTNotConnected
)
