package container

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"github.com/stkr22/private-assistant-web-ui/internal/domain/services"
	"github.com/stkr22/private-assistant-web-ui/internal/infrastructure/config"
)

// ServiceContainer 管理所有服务的依赖注入
type ServiceContainer struct {
	db     *gorm.DB
	config *config.Config
	redis  *redis.Client

	// 认证服务
	jwtService   services.InterfaceJWTService
	oauthService services.InterfaceOAuthService

	// 数据存储服务
	redisService   services.InterfaceRedisService
	storageService services.InterfaceStorageService

	// MQTT通知服务
	mqttService services.InterfaceMQTTService

	// 外部图库服务
	immichService services.InterfaceImmichService

	// 业务服务
	userService       services.InterfaceUserService
	roomService       services.InterfaceRoomService
	deviceTypeService services.InterfaceDeviceTypeService
	skillService      services.InterfaceSkillService
	deviceService     services.InterfaceDeviceService
	imageService      services.InterfaceImageService
	syncJobService    services.InterfaceSyncJobService

	mu sync.RWMutex
}

// NewServiceContainer 创建新的服务容器
func NewServiceContainer(db *gorm.DB, cfg *config.Config, redisClient *redis.Client) *ServiceContainer {
	if db == nil {
		panic("数据库连接为空")
	}

	if cfg == nil {
		panic("配置为空")
	}

	// 测试Redis连接
	if redisClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Printf("Redis连接测试失败: %v，将不使用Redis缓存", err)
		}
	}

	container := &ServiceContainer{
		db:     db,
		config: cfg,
		redis:  redisClient,
	}
	container.initializeServices()
	return container
}

// initializeServices 初始化所有服务
func (c *ServiceContainer) initializeServices() {
	c.mu.Lock()
	defer c.mu.Unlock()

	// 初始化Redis服务
	c.redisService = services.NewRedisService(c.config)

	// 初始化用户与认证服务
	c.userService = services.NewUserService(c.db, c.config)
	c.jwtService = services.NewJWTService(c.config, c.db)
	c.oauthService = services.NewOAuthService(c.config, c.redisService, c.userService)

	// 初始化对象存储服务，MinIO端点配置错误时启动即失败
	storageService, err := services.NewStorageService(c.config)
	if err != nil {
		panic("对象存储初始化失败: " + err.Error())
	}
	c.storageService = storageService

	// 启动时确保存储桶存在，MinIO暂不可用时只告警
	bucketCtx, cancelBucket := context.WithTimeout(context.Background(), 5*time.Second)
	if err := c.storageService.EnsureBucket(bucketCtx); err != nil {
		log.Printf("MinIO存储桶检查失败: %v", err)
	}
	cancelBucket()

	// 初始化MQTT通知服务
	c.mqttService = services.NewMQTTService(c.config)

	// 连接MQTT服务器
	if err := c.mqttService.Connect(); err != nil {
		log.Printf("MQTT服务连接失败: %v", err)
	}

	// 初始化Immich桥接服务
	c.immichService = services.NewImmichService(c.config)

	// 初始化业务服务
	c.roomService = services.NewRoomService(c.db, c.config)
	c.deviceTypeService = services.NewDeviceTypeService(c.db, c.config)
	c.skillService = services.NewSkillService(c.db, c.config)
	c.deviceService = services.NewDeviceService(c.db, c.config, c.mqttService)
	c.imageService = services.NewImageService(c.db, c.config, c.storageService)
	c.syncJobService = services.NewSyncJobService(c.db, c.config)
}

// GetService 获取指定名称的服务
func (c *ServiceContainer) GetService(name string) interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch name {
	case "config":
		return c.config
	case "db":
		return c.db
	case "jwt":
		return c.jwtService
	case "oauth":
		return c.oauthService
	case "redis":
		return c.redisService
	case "storage":
		return c.storageService
	case "mqtt":
		return c.mqttService
	case "immich":
		return c.immichService
	case "user":
		return c.userService
	case "room":
		return c.roomService
	case "device_type":
		return c.deviceTypeService
	case "skill":
		return c.skillService
	case "device":
		return c.deviceService
	case "image":
		return c.imageService
	case "sync_job":
		return c.syncJobService
	default:
		return nil
	}
}

// GetDB 获取数据库连接
func (c *ServiceContainer) GetDB() *gorm.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}
