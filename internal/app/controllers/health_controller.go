package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/stkr22/private-assistant-web-ui/internal/domain/services"
	"github.com/stkr22/private-assistant-web-ui/internal/domain/services/container"
	"github.com/stkr22/private-assistant-web-ui/internal/error/response"
)

// HealthCheckController 健康检查控制器
type HealthCheckController struct {
	Container *container.ServiceContainer
}

// NewHealthCheckController 创建健康检查控制器实例
func NewHealthCheckController(container *container.ServiceContainer) *HealthCheckController {
	return &HealthCheckController{
		Container: container,
	}
}

// Ping 健康检查端点
// @Summary 健康检查
// @Description 返回服务整体状态和各依赖组件的健康情况
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *HealthCheckController) Ping(c *gin.Context) {
	status := "ok"
	components := gin.H{}

	// 数据库连通性
	dbStatus := "healthy"
	sqlDB, err := h.Container.GetDB().DB()
	if err != nil || sqlDB.Ping() != nil {
		dbStatus = "unhealthy"
		status = "degraded"
	}
	components["database"] = dbStatus

	// Redis为可选组件，失联时只降级缓存不影响主流程
	redisStatus := "healthy"
	redisService := h.Container.GetService("redis").(services.InterfaceRedisService)
	if err := redisService.HealthCheck(); err != nil {
		redisStatus = "unhealthy"
	}
	components["redis"] = redisStatus

	// MQTT断连时设备变更通知会丢失
	mqttStatus := "healthy"
	mqttService := h.Container.GetService("mqtt").(services.InterfaceMQTTService)
	if !mqttService.IsHealthy() {
		mqttStatus = "unhealthy"
	}
	components["mqtt"] = mqttStatus

	response.Success(c, gin.H{
		"status":     status,
		"components": components,
	})
}
