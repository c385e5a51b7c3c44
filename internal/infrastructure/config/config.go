package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

var (
	config     *Config
	configOnce sync.Once
)

// Config stores all configuration of the application
type Config struct {
	// Environment type: local / staging / production
	Environment string

	// Database
	DBDriver        string // "postgres"(默认) 或 "mysql"
	DBHost          string
	DBPort          string
	DBUser          string
	DBPassword      string
	DBName          string
	DBMigrationMode string // 数据库迁移模式: "auto"(默认), "drop"(删除重建)

	// Server
	ServerPort string

	// CORS允许的前端来源
	CORSOrigins []string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// MQTT配置
	MQTTEnabled           bool   // 是否启用MQTT发布
	MQTTBrokerURL         string // MQTT服务器地址，如 tcp://broker.example.com:1883
	MQTTClientID          string // MQTT客户端ID
	MQTTUsername          string // MQTT用户名
	MQTTPassword          string // MQTT密码
	MQTTQoS               int    // 服务质量 (0, 1, 2)
	MQTTRetained          bool   // 是否保留消息
	MQTTDeviceUpdateTopic string // 设备注册表变更通知主题

	// MinIO对象存储
	MinioEndpoint   string
	MinioAccessKey  string
	MinioSecretKey  string
	MinioBucketName string
	MinioSecure     bool

	// OAuth / OIDC
	OAuthEnabled  bool
	OAuthIssuer   string
	OAuthClientID string

	// Immich桥接服务
	ImmichBaseURL string
	ImmichAPIKey  string

	// JWT Authentication
	JWTSecretKey             string
	AccessTokenExpireMinutes int

	// 初始超级用户
	FirstSuperuser         string
	FirstSuperuserPassword string

	// 技能心跳判活窗口(秒)
	SkillAliveWindowSeconds int
}

// LoadConfig loads config from environment variables
func LoadConfig() *Config {
	environment := strings.ToLower(getEnv("ENVIRONMENT", "local"))

	cfg := &Config{
		Environment: environment,

		// Database config - POSTGRES_前缀沿用原部署的compose变量，DB_DRIVER=mysql时同样生效
		DBDriver:        strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DBHost:          getEnv("POSTGRES_HOST", "localhost"),
		DBPort:          getEnv("POSTGRES_PORT", "5432"),
		DBUser:          getEnvRequired("POSTGRES_USER"),
		DBPassword:      getEnv("POSTGRES_PASSWORD", ""),
		DBName:          getEnv("POSTGRES_DB", "app"),
		DBMigrationMode: getEnv("DB_MIGRATION_MODE", "auto"),

		// Server config
		ServerPort: getEnv("SERVER_PORT", "8080"),

		// CORS config - 逗号分隔的来源列表
		CORSOrigins: splitAndTrim(getEnv("BACKEND_CORS_ORIGINS", "http://localhost:5173")),

		// Redis config
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// MQTT配置
		MQTTEnabled:           getEnvAsBool("MQTT_ENABLED", true),
		MQTTBrokerURL:         getEnv("MQTT_BROKER_URL", "tcp://localhost:1883"),
		MQTTClientID:          getEnv("MQTT_CLIENT_ID", "assistant_web_ui"),
		MQTTUsername:          getEnv("MQTT_USERNAME", ""),
		MQTTPassword:          getEnv("MQTT_PASSWORD", ""),
		MQTTQoS:               getEnvAsInt("MQTT_QOS", 1),
		MQTTRetained:          getEnvAsBool("MQTT_RETAINED", false),
		MQTTDeviceUpdateTopic: getEnv("MQTT_DEVICE_UPDATE_TOPIC", "assistant/global_device_update"),

		// MinIO配置
		MinioEndpoint:   getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey:  getEnv("MINIO_ACCESS_KEY", "minioadmin"),
		MinioSecretKey:  getEnv("MINIO_SECRET_KEY", "minioadmin"),
		MinioBucketName: getEnv("MINIO_BUCKET_NAME", "assistant-images"),
		MinioSecure:     getEnvAsBool("MINIO_SECURE", false),

		// OAuth配置
		OAuthEnabled:  !getEnvAsBool("DISABLE_OAUTH", false),
		OAuthIssuer:   getEnv("OAUTH_ISSUER", ""),
		OAuthClientID: getEnv("OAUTH_CLIENT_ID", ""),

		// Immich桥接配置
		ImmichBaseURL: getEnv("IMMICH_BASE_URL", ""),
		ImmichAPIKey:  getEnv("IMMICH_API_KEY", ""),

		// JWT Config
		JWTSecretKey:             getEnv("SECRET_KEY", "assistant-secret-key-change-in-production"),
		AccessTokenExpireMinutes: getEnvAsInt("ACCESS_TOKEN_EXPIRE_MINUTES", 60*24*8),

		// 初始超级用户
		FirstSuperuser:         getEnv("FIRST_SUPERUSER", ""),
		FirstSuperuserPassword: getEnv("FIRST_SUPERUSER_PASSWORD", ""),

		// 技能判活窗口
		SkillAliveWindowSeconds: getEnvAsInt("SKILL_ALIVE_WINDOW_SECONDS", 300),
	}

	// OAuth启用时必须提供issuer和client_id，否则自动降级为禁用
	if cfg.OAuthEnabled && (cfg.OAuthIssuer == "" || cfg.OAuthClientID == "") {
		fmt.Println("Warning: OAUTH_ISSUER/OAUTH_CLIENT_ID not set, OAuth login disabled")
		cfg.OAuthEnabled = false
	}

	return cfg
}

// GetConfig returns the application configuration as a singleton
func GetConfig() *Config {
	configOnce.Do(func() {
		config = LoadConfig()
	})
	return config
}

// GetDSN returns the database connection string for the configured driver
func (c *Config) GetDSN() string {
	if c.DBDriver == "mysql" {
		return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?charset=utf8mb4&parseTime=True&loc=Local&allowNativePasswords=true&multiStatements=true"
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

// Helper function to get environment variable with default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// Helper function to get environment variable as integer with default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variable as boolean with default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// 逗号分隔列表的辅助函数，来源统一去掉尾部斜杠
func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, strings.TrimRight(v, "/"))
		}
	}
	return out
}

// 要求必须提供环境变量的辅助函数
func getEnvRequired(key string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	panic(fmt.Sprintf("Required environment variable %s is not set", key))
}
