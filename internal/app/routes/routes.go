package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "github.com/stkr22/private-assistant-web-ui/docs"
	"github.com/stkr22/private-assistant-web-ui/internal/app/controllers"
	"github.com/stkr22/private-assistant-web-ui/internal/app/middleware"
	"github.com/stkr22/private-assistant-web-ui/internal/domain/services/container"
	"github.com/stkr22/private-assistant-web-ui/internal/infrastructure/config"
)

// SetupRouter 初始化并返回配置好的路由
func SetupRouter(db *gorm.DB, cfg *config.Config, redisClient *redis.Client) *gin.Engine {
	// 初始化 Gin
	r := gin.Default()

	// 添加 CORS 中间件，只放行配置过的前端来源
	allowedOrigins := make(map[string]struct{}, len(cfg.CORSOrigins))
	for _, origin := range cfg.CORSOrigins {
		allowedOrigins[origin] = struct{}{}
	}
	r.Use(func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if _, ok := allowedOrigins[origin]; ok {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, Accept, Origin, Cache-Control, X-Requested-With")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		}
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})
	// 创建服务容器
	serviceContainer := container.NewServiceContainer(db, cfg, redisClient)
	// 初始化中间件
	middleware.InitAuthMiddleware(cfg, db)
	// 添加 Swagger 文档路由
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 注册路由
	registerRoutes(r, serviceContainer)
	return r
}

// registerRoutes 配置所有API路由
func registerRoutes(
	r *gin.Engine,
	container *container.ServiceContainer,
) {
	// API 路由根路径
	api := r.Group("/api")
	// 注册公共路由
	registerPublicRoutes(api, container)
	// 注册需要认证的路由
	registerAuthenticatedRoutes(api, container)
}

// purgeOnWrite 写操作成功后清空响应缓存，避免列表读到旧数据
func purgeOnWrite(handler gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		handler(c)
		if c.Writer.Status() < 400 {
			middleware.PurgeCache()
		}
	}
}

// registerPublicRoutes 注册公共路由
func registerPublicRoutes(
	api *gin.RouterGroup,
	container *container.ServiceContainer,
) {
	// 添加IP限流中间件 - 每秒允许10个请求，最多突发20个请求
	api.Use(middleware.IPRateLimiter(10, 20))

	// 健康检查路由
	healthController := controllers.NewHealthCheckController(container)
	api.GET("/ping", healthController.Ping)
	api.GET("/health", healthController.Ping) // 兼容Docker健康检查的路由

	// 认证路由，oauth-config供登录页在认证前读取
	api.POST("/auth/login", controllers.HandleAuthFunc(container, "login"))
	api.GET("/auth/oauth-config", middleware.Cache(5*time.Minute), controllers.HandleAuthFunc(container, "getOAuthConfig"))
}

// registerAuthenticatedRoutes 注册需要认证的路由
func registerAuthenticatedRoutes(
	api *gin.RouterGroup,
	container *container.ServiceContainer,
) {
	// 添加认证中间件
	auth := api.Group("/")
	auth.Use(middleware.Authenticate())

	// 添加通用限流中间件 - 每秒30个请求，最多突发50个请求
	auth.Use(middleware.IPRateLimiter(30, 50))

	// 当前用户信息，按用户变化的响应不走缓存
	auth.GET("/auth/me", controllers.HandleAuthFunc(container, "getCurrentUser"))

	// 用户管理路由，列表和写操作仅超级用户可用，
	// 详情接口由控制器做本人或超级用户校验
	userGroup := auth.Group("/users")
	userGroup.GET("", middleware.RequireSuperuser(), controllers.HandleUserFunc(container, "getUsers"))
	userGroup.GET("/:id", controllers.HandleUserFunc(container, "getUser"))
	userGroup.POST("", middleware.RequireSuperuser(), controllers.HandleUserFunc(container, "createUser"))
	userGroup.PUT("/:id", middleware.RequireSuperuser(), controllers.HandleUserFunc(container, "updateUser"))
	userGroup.DELETE("/:id", middleware.RequireSuperuser(), controllers.HandleUserFunc(container, "deleteUser"))

	// 房间路由
	roomGroup := auth.Group("/rooms")
	roomGroup.GET("", middleware.Cache(5*time.Minute), controllers.HandleRoomFunc(container, "getRooms"))
	roomGroup.GET("/:id", middleware.Cache(5*time.Minute), controllers.HandleRoomFunc(container, "getRoom"))
	roomGroup.POST("", purgeOnWrite(controllers.HandleRoomFunc(container, "createRoom")))
	roomGroup.PUT("/:id", purgeOnWrite(controllers.HandleRoomFunc(container, "updateRoom")))
	roomGroup.DELETE("/:id", purgeOnWrite(controllers.HandleRoomFunc(container, "deleteRoom")))
	roomGroup.GET("/:id/devices", middleware.Cache(1*time.Minute), controllers.HandleRoomFunc(container, "getRoomDevices"))

	// 设备类型路由
	deviceTypeGroup := auth.Group("/device-types")
	deviceTypeGroup.GET("", middleware.Cache(5*time.Minute), controllers.HandleDeviceTypeFunc(container, "getDeviceTypes"))
	deviceTypeGroup.GET("/:id", middleware.Cache(5*time.Minute), controllers.HandleDeviceTypeFunc(container, "getDeviceType"))
	deviceTypeGroup.POST("", purgeOnWrite(controllers.HandleDeviceTypeFunc(container, "createDeviceType")))
	deviceTypeGroup.PUT("/:id", purgeOnWrite(controllers.HandleDeviceTypeFunc(container, "updateDeviceType")))
	deviceTypeGroup.DELETE("/:id", purgeOnWrite(controllers.HandleDeviceTypeFunc(container, "deleteDeviceType")))

	// 技能路由，PUT同时承担技能心跳上报，这些接口不走缓存
	skillGroup := auth.Group("/skills")
	skillGroup.GET("", controllers.HandleSkillFunc(container, "getSkills"))
	skillGroup.GET("/:id", controllers.HandleSkillFunc(container, "getSkill"))
	skillGroup.POST("", controllers.HandleSkillFunc(container, "createSkill"))
	skillGroup.PUT("/:id", controllers.HandleSkillFunc(container, "updateSkill"))
	skillGroup.DELETE("/:id", controllers.HandleSkillFunc(container, "deleteSkill"))

	// 技能监控路由，判活状态需要实时读取
	auth.GET("/monitoring/skills", controllers.HandleSkillFunc(container, "getMonitoringSkills"))

	// 全局设备路由
	deviceGroup := auth.Group("/devices")
	{
		deviceGroup.GET("", middleware.Cache(30*time.Second), controllers.HandleDeviceFunc(container, "getDevices"))
		deviceGroup.GET("/export", controllers.HandleDeviceFunc(container, "exportDevices"))
		deviceGroup.GET("/:id", middleware.Cache(30*time.Second), controllers.HandleDeviceFunc(container, "getDevice"))
		deviceGroup.POST("", purgeOnWrite(controllers.HandleDeviceFunc(container, "createDevice")))
		deviceGroup.PUT("/:id", purgeOnWrite(controllers.HandleDeviceFunc(container, "updateDevice")))
		deviceGroup.DELETE("/:id", purgeOnWrite(controllers.HandleDeviceFunc(container, "deleteDevice")))
	}

	// 相框图片路由，预签名URL每次实时生成
	imageGroup := auth.Group("/picture-display/images")
	imageGroup.GET("", middleware.Cache(30*time.Second), controllers.HandleImageFunc(container, "getImages"))
	imageGroup.GET("/:id", middleware.Cache(1*time.Minute), controllers.HandleImageFunc(container, "getImage"))
	imageGroup.GET("/:id/url", controllers.HandleImageFunc(container, "getImageURL"))
	imageGroup.POST("/upload", purgeOnWrite(controllers.HandleImageFunc(container, "uploadImage")))
	imageGroup.PUT("/:id", purgeOnWrite(controllers.HandleImageFunc(container, "updateImage")))
	imageGroup.DELETE("/:id", purgeOnWrite(controllers.HandleImageFunc(container, "deleteImage")))

	// Immich同步任务路由，预览直连Immich不走缓存
	syncJobGroup := auth.Group("/immich-sync-jobs")
	syncJobGroup.GET("", middleware.Cache(1*time.Minute), controllers.HandleSyncJobFunc(container, "getSyncJobs"))
	syncJobGroup.GET("/:id", middleware.Cache(1*time.Minute), controllers.HandleSyncJobFunc(container, "getSyncJob"))
	syncJobGroup.POST("", purgeOnWrite(controllers.HandleSyncJobFunc(container, "createSyncJob")))
	syncJobGroup.PUT("/:id", purgeOnWrite(controllers.HandleSyncJobFunc(container, "updateSyncJob")))
	syncJobGroup.DELETE("/:id", purgeOnWrite(controllers.HandleSyncJobFunc(container, "deleteSyncJob")))
	syncJobGroup.POST("/:id/preview", controllers.HandleSyncJobFunc(container, "previewSyncJob"))
}
