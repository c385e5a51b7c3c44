package code

// 错误码消息映射
var codeMessageMap = map[int]string{
	// 通用错误码
	ErrSuccess:         "成功",
	ErrUnknown:         "未知错误",
	ErrBind:            "请求参数绑定错误",
	ErrValidation:      "请求参数验证错误",
	ErrTokenInvalid:    "无效的认证令牌",
	ErrTooManyRequests: "请求频率过高",

	// 认证相关错误码
	ErrPasswordIncorrect: "邮箱或密码错误",
	ErrUserInactive:      "用户已停用",
	ErrPermissionDenied:  "权限不足",
	ErrOAuthDisabled:     "OAuth登录未启用",
	ErrOAuthTokenInvalid: "OAuth令牌无效",

	// 用户相关错误码
	ErrUserNotFound:     "用户不存在",
	ErrUserAlreadyExist: "该邮箱已被注册",
	ErrUserSelfDelete:   "不能删除当前登录用户",

	// 房间与设备类型相关错误码
	ErrRoomNotFound:           "房间不存在",
	ErrRoomAlreadyExist:       "房间已存在",
	ErrDeviceTypeNotFound:     "设备类型不存在",
	ErrDeviceTypeAlreadyExist: "设备类型已存在",

	// 设备相关错误码
	ErrDeviceNotFound:     "设备不存在",
	ErrDeviceAlreadyExist: "设备已存在",
	ErrDeviceRefInvalid:   "设备引用的资源不存在",
	ErrDeviceExportFailed: "设备导出失败",

	// 数据库相关错误码
	ErrDatabase:       "数据库错误",
	ErrRecordNotFound: "记录不存在",

	// 技能相关错误码
	ErrSkillNotFound:     "技能不存在",
	ErrSkillAlreadyExist: "技能已存在",

	// 图片与对象存储相关错误码
	ErrImageNotFound:    "图片不存在",
	ErrImageInvalidType: "文件必须是图片",
	ErrImageTooLarge:    "图片超过大小限制(最大10MB)",
	ErrStorageFailed:    "对象存储操作失败",
	ErrPresignFailed:    "生成预签名URL失败",

	// 同步任务与Immich相关错误码
	ErrSyncJobNotFound:      "同步任务不存在",
	ErrSyncJobAlreadyExist:  "同名同步任务已存在",
	ErrSyncJobQueryRequired: "SMART策略必须提供查询语句",
	ErrImmichUnavailable:    "Immich服务不可用",

	// MQTT相关错误码
	ErrMQTTPublishFailed: "MQTT消息发布失败",
	ErrMQTTNotConnected:  "MQTT未连接",
}

// 错误码HTTP状态码映射
var codeStatusMap = map[int]int{
	// 通用错误码
	ErrSuccess:         StatusOK,
	ErrUnknown:         StatusInternalServerError,
	ErrBind:            StatusUnprocessableEntity,
	ErrValidation:      StatusUnprocessableEntity,
	ErrTokenInvalid:    StatusUnauthorized,
	ErrTooManyRequests: StatusTooManyRequests,

	// 认证相关错误码
	ErrPasswordIncorrect: StatusUnauthorized,
	ErrUserInactive:      StatusForbidden,
	ErrPermissionDenied:  StatusForbidden,
	ErrOAuthDisabled:     StatusUnauthorized,
	ErrOAuthTokenInvalid: StatusUnauthorized,

	// 用户相关错误码
	ErrUserNotFound:     StatusNotFound,
	ErrUserAlreadyExist: StatusBadRequest,
	ErrUserSelfDelete:   StatusForbidden,

	// 房间与设备类型相关错误码
	ErrRoomNotFound:           StatusNotFound,
	ErrRoomAlreadyExist:       StatusBadRequest,
	ErrDeviceTypeNotFound:     StatusNotFound,
	ErrDeviceTypeAlreadyExist: StatusBadRequest,

	// 设备相关错误码
	ErrDeviceNotFound:     StatusNotFound,
	ErrDeviceAlreadyExist: StatusBadRequest,
	ErrDeviceRefInvalid:   StatusBadRequest,
	ErrDeviceExportFailed: StatusInternalServerError,

	// 数据库相关错误码
	ErrDatabase:       StatusInternalServerError,
	ErrRecordNotFound: StatusNotFound,

	// 技能相关错误码
	ErrSkillNotFound:     StatusNotFound,
	ErrSkillAlreadyExist: StatusBadRequest,

	// 图片与对象存储相关错误码
	ErrImageNotFound:    StatusNotFound,
	ErrImageInvalidType: StatusBadRequest,
	ErrImageTooLarge:    StatusRequestEntityTooLarge,
	ErrStorageFailed:    StatusInternalServerError,
	ErrPresignFailed:    StatusInternalServerError,

	// 同步任务与Immich相关错误码
	ErrSyncJobNotFound:      StatusNotFound,
	ErrSyncJobAlreadyExist:  StatusBadRequest,
	ErrSyncJobQueryRequired: StatusUnprocessableEntity,
	ErrImmichUnavailable:    StatusBadGateway,

	// MQTT相关错误码
	ErrMQTTPublishFailed: StatusInternalServerError,
	ErrMQTTNotConnected:  StatusInternalServerError,
}

// GetMessage 获取错误码对应的消息
func GetMessage(code int) string {
	if msg, ok := codeMessageMap[code]; ok {
		return msg
	}
	return "未知错误"
}

// GetStatus 获取错误码对应的HTTP状态码
func GetStatus(code int) int {
	if status, ok := codeStatusMap[code]; ok {
		return status
	}
	return StatusInternalServerError
}
