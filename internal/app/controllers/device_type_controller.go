package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/stkr22/private-assistant-web-ui/internal/domain/models"
	"github.com/stkr22/private-assistant-web-ui/internal/domain/services"
	"github.com/stkr22/private-assistant-web-ui/internal/domain/services/container"
	"github.com/stkr22/private-assistant-web-ui/internal/error/code"
	"github.com/stkr22/private-assistant-web-ui/internal/error/response"
)

// InterfaceDeviceTypeController 定义设备类型控制器接口
type InterfaceDeviceTypeController interface {
	GetDeviceTypes()
	GetDeviceType()
	CreateDeviceType()
	UpdateDeviceType()
	DeleteDeviceType()
}

// DeviceTypeController 处理设备类型相关的请求
type DeviceTypeController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewDeviceTypeController 创建一个新的设备类型控制器
func NewDeviceTypeController(ctx *gin.Context, container *container.ServiceContainer) *DeviceTypeController {
	return &DeviceTypeController{
		Ctx:       ctx,
		Container: container,
	}
}

// DeviceTypeRequest 表示设备类型请求
type DeviceTypeRequest struct {
	Name string `json:"name" binding:"required,max=255" example:"light"`
}

// HandleDeviceTypeFunc 返回一个处理设备类型请求的Gin处理函数
func HandleDeviceTypeFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewDeviceTypeController(ctx, container)

		switch method {
		case "getDeviceTypes":
			controller.GetDeviceTypes()
		case "getDeviceType":
			controller.GetDeviceType()
		case "createDeviceType":
			controller.CreateDeviceType()
		case "updateDeviceType":
			controller.UpdateDeviceType()
		case "deleteDeviceType":
			controller.DeleteDeviceType()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}

// 1. GetDeviceTypes 获取所有设备类型列表
// @Summary 获取所有设备类型
// @Description 获取系统中所有设备类型的列表，按名称排序
// @Tags DeviceType
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码，默认为1"
// @Param page_size query int false "每页条数，默认为10"
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} ErrorResponse
// @Router /device_types [get]
func (c *DeviceTypeController) GetDeviceTypes() {
	// 获取分页参数
	page, _ := strconv.Atoi(c.Ctx.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.Ctx.DefaultQuery("page_size", "10"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	deviceTypeService := c.Container.GetService("device_type").(services.InterfaceDeviceTypeService)
	deviceTypes, total, err := deviceTypeService.GetAllDeviceTypes(page, pageSize)
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "获取设备类型列表失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, gin.H{
		"total":       total,
		"page":        page,
		"page_size":   pageSize,
		"total_pages": (total + int64(pageSize) - 1) / int64(pageSize),
		"data":        deviceTypes,
	})
}

// 2. GetDeviceType 获取单个设备类型详情
// @Summary 获取设备类型详情
// @Description 根据ID获取设备类型详细信息
// @Tags DeviceType
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "设备类型ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /device_types/{id} [get]
func (c *DeviceTypeController) GetDeviceType() {
	typeID, err := uuid.Parse(c.Ctx.Param("id"))
	if err != nil {
		response.ParamError(c.Ctx, "无效的设备类型ID")
		return
	}

	deviceTypeService := c.Container.GetService("device_type").(services.InterfaceDeviceTypeService)
	deviceType, err := deviceTypeService.GetDeviceTypeByID(typeID)
	if err != nil {
		response.NotFound(c.Ctx, "设备类型不存在: "+err.Error())
		return
	}

	response.Success(c.Ctx, deviceType)
}

// 3. CreateDeviceType 创建新设备类型
// @Summary 创建设备类型
// @Description 创建一个新的设备类型，名称全局唯一
// @Tags DeviceType
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param device_type body DeviceTypeRequest true "设备类型信息"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Router /device_types [post]
func (c *DeviceTypeController) CreateDeviceType() {
	var req DeviceTypeRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数: "+err.Error(), nil)
		return
	}

	deviceType := &models.DeviceType{
		Name: req.Name,
	}

	deviceTypeService := c.Container.GetService("device_type").(services.InterfaceDeviceTypeService)
	if err := deviceTypeService.CreateDeviceType(deviceType); err != nil {
		if errors.Is(err, services.ErrDeviceTypeNameTaken) {
			response.FailWithMessage(c.Ctx, code.ErrDeviceTypeAlreadyExist, err.Error(), nil)
			return
		}
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "创建设备类型失败: "+err.Error(), nil)
		return
	}

	c.Ctx.Status(http.StatusCreated)
	response.Success(c.Ctx, deviceType)
}

// 4. UpdateDeviceType 更新设备类型信息
// @Summary 更新设备类型
// @Description 更新设备类型名称
// @Tags DeviceType
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "设备类型ID"
// @Param device_type body DeviceTypeRequest true "设备类型信息"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /device_types/{id} [put]
func (c *DeviceTypeController) UpdateDeviceType() {
	typeID, err := uuid.Parse(c.Ctx.Param("id"))
	if err != nil {
		response.ParamError(c.Ctx, "无效的设备类型ID")
		return
	}

	var req DeviceTypeRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数: "+err.Error(), nil)
		return
	}

	updates := map[string]interface{}{
		"name": req.Name,
	}

	deviceTypeService := c.Container.GetService("device_type").(services.InterfaceDeviceTypeService)
	deviceType, err := deviceTypeService.UpdateDeviceType(typeID, updates)
	if err != nil {
		if errors.Is(err, services.ErrDeviceTypeNotFound) {
			response.NotFound(c.Ctx, "设备类型不存在")
			return
		}
		if errors.Is(err, services.ErrDeviceTypeNameTaken) {
			response.FailWithMessage(c.Ctx, code.ErrDeviceTypeAlreadyExist, err.Error(), nil)
			return
		}
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "更新设备类型失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, deviceType)
}

// 5. DeleteDeviceType 删除设备类型
// @Summary 删除设备类型
// @Description 删除指定设备类型，仍被设备引用时拒绝删除
// @Tags DeviceType
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "设备类型ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /device_types/{id} [delete]
func (c *DeviceTypeController) DeleteDeviceType() {
	typeID, err := uuid.Parse(c.Ctx.Param("id"))
	if err != nil {
		response.ParamError(c.Ctx, "无效的设备类型ID")
		return
	}

	deviceTypeService := c.Container.GetService("device_type").(services.InterfaceDeviceTypeService)
	if err := deviceTypeService.DeleteDeviceType(typeID); err != nil {
		if errors.Is(err, services.ErrDeviceTypeNotFound) {
			response.NotFound(c.Ctx, "设备类型不存在")
			return
		}
		if errors.Is(err, services.ErrDeviceTypeInUse) {
			response.FailWithMessage(c.Ctx, code.ErrDeviceRefInvalid, err.Error(), nil)
			return
		}
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "删除设备类型失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, gin.H{"message": "设备类型已删除"})
}
