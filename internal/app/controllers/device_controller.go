package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/stkr22/private-assistant-web-ui/internal/domain/models"
	"github.com/stkr22/private-assistant-web-ui/internal/domain/services"
	"github.com/stkr22/private-assistant-web-ui/internal/domain/services/container"
	"github.com/stkr22/private-assistant-web-ui/internal/error/code"
	"github.com/stkr22/private-assistant-web-ui/internal/error/response"
)

// InterfaceDeviceController 定义设备控制器接口
type InterfaceDeviceController interface {
	GetDevices()
	GetDevice()
	CreateDevice()
	UpdateDevice()
	DeleteDevice()
	ExportDevices()
}

// DeviceController 处理全局设备相关的请求
type DeviceController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewDeviceController 创建一个新的设备控制器
func NewDeviceController(ctx *gin.Context, container *container.ServiceContainer) *DeviceController {
	return &DeviceController{
		Ctx:       ctx,
		Container: container,
	}
}

// DeviceRequest 表示创建设备请求
type DeviceRequest struct {
	Name             string                 `json:"name" binding:"required,max=255" example:"ceiling light"`
	DeviceTypeID     uuid.UUID              `json:"device_type_id" binding:"required"`
	RoomID           *uuid.UUID             `json:"room_id"`
	SkillID          uuid.UUID              `json:"skill_id" binding:"required"`
	Pattern          []string               `json:"pattern"`
	DeviceAttributes map[string]interface{} `json:"device_attributes"`
}

// DeviceUpdateRequest 表示更新设备请求，未提供的字段保持原值
// room_id传全零UUID表示清除房间归属
type DeviceUpdateRequest struct {
	Name             *string                 `json:"name" binding:"omitempty,max=255"`
	DeviceTypeID     *uuid.UUID              `json:"device_type_id"`
	RoomID           *uuid.UUID              `json:"room_id"`
	SkillID          *uuid.UUID              `json:"skill_id"`
	Pattern          *[]string               `json:"pattern"`
	DeviceAttributes *map[string]interface{} `json:"device_attributes"`
}

// HandleDeviceFunc 返回一个处理设备请求的Gin处理函数
func HandleDeviceFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewDeviceController(ctx, container)

		switch method {
		case "getDevices":
			controller.GetDevices()
		case "getDevice":
			controller.GetDevice()
		case "createDevice":
			controller.CreateDevice()
		case "updateDevice":
			controller.UpdateDevice()
		case "deleteDevice":
			controller.DeleteDevice()
		case "exportDevices":
			controller.ExportDevices()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}

// 1. GetDevices 获取所有设备列表
// @Summary 获取所有设备
// @Description 获取全局设备注册表，支持分页和按名称搜索
// @Tags Device
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码，默认为1"
// @Param page_size query int false "每页条数，默认为10"
// @Param search query string false "按名称搜索"
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} ErrorResponse
// @Router /devices [get]
func (c *DeviceController) GetDevices() {
	// 获取分页参数
	page, _ := strconv.Atoi(c.Ctx.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.Ctx.DefaultQuery("page_size", "10"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}
	search := c.Ctx.Query("search")

	deviceService := c.Container.GetService("device").(services.InterfaceDeviceService)
	devices, total, err := deviceService.GetAllDevices(page, pageSize, search)
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "获取设备列表失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, gin.H{
		"total":       total,
		"page":        page,
		"page_size":   pageSize,
		"total_pages": (total + int64(pageSize) - 1) / int64(pageSize),
		"data":        devices,
	})
}

// 2. GetDevice 获取单个设备详情
// @Summary 获取设备详情
// @Description 根据ID获取设备详细信息，包含类型、房间和技能
// @Tags Device
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "设备ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /devices/{id} [get]
func (c *DeviceController) GetDevice() {
	deviceID, err := uuid.Parse(c.Ctx.Param("id"))
	if err != nil {
		response.ParamError(c.Ctx, "无效的设备ID")
		return
	}

	deviceService := c.Container.GetService("device").(services.InterfaceDeviceService)
	device, err := deviceService.GetDeviceByID(deviceID)
	if err != nil {
		response.NotFound(c.Ctx, "设备不存在: "+err.Error())
		return
	}

	response.Success(c.Ctx, device)
}

// 3. CreateDevice 创建新设备
// @Summary 创建设备
// @Description 注册一个新的全局设备，并发布注册表变更通知
// @Tags Device
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param device body DeviceRequest true "设备信息"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Router /devices [post]
func (c *DeviceController) CreateDevice() {
	var req DeviceRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数: "+err.Error(), nil)
		return
	}

	// 唤醒词和属性默认空集合
	if req.Pattern == nil {
		req.Pattern = []string{}
	}
	if req.DeviceAttributes == nil {
		req.DeviceAttributes = map[string]interface{}{}
	}

	device := &models.GlobalDevice{
		Name:         req.Name,
		DeviceTypeID: req.DeviceTypeID,
		RoomID:       req.RoomID,
		SkillID:      req.SkillID,
	}

	pattern, err := marshalJSONField(req.Pattern)
	if err != nil {
		response.ParamError(c.Ctx, "无效的唤醒词列表")
		return
	}
	device.Pattern = pattern

	attributes, err := marshalJSONField(req.DeviceAttributes)
	if err != nil {
		response.ParamError(c.Ctx, "无效的设备属性")
		return
	}
	device.DeviceAttributes = attributes

	deviceService := c.Container.GetService("device").(services.InterfaceDeviceService)
	if err := deviceService.CreateDevice(device); err != nil {
		if isDeviceRefError(err) {
			response.FailWithMessage(c.Ctx, code.ErrDeviceRefInvalid, err.Error(), nil)
			return
		}
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "创建设备失败: "+err.Error(), nil)
		return
	}

	c.Ctx.Status(http.StatusCreated)
	response.Success(c.Ctx, device)
}

// 4. UpdateDevice 更新设备信息
// @Summary 更新设备
// @Description 更新设备信息，并发布注册表变更通知
// @Tags Device
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "设备ID"
// @Param device body DeviceUpdateRequest true "设备信息"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /devices/{id} [put]
func (c *DeviceController) UpdateDevice() {
	deviceID, err := uuid.Parse(c.Ctx.Param("id"))
	if err != nil {
		response.ParamError(c.Ctx, "无效的设备ID")
		return
	}

	var req DeviceUpdateRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数: "+err.Error(), nil)
		return
	}

	// 创建更新映射
	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.DeviceTypeID != nil {
		updates["device_type_id"] = *req.DeviceTypeID
	}
	if req.RoomID != nil {
		if *req.RoomID == uuid.Nil {
			// 全零UUID表示清除房间归属
			updates["room_id"] = nil
		} else {
			updates["room_id"] = req.RoomID
		}
	}
	if req.SkillID != nil {
		updates["skill_id"] = *req.SkillID
	}
	if req.Pattern != nil {
		pattern, err := marshalJSONField(*req.Pattern)
		if err != nil {
			response.ParamError(c.Ctx, "无效的唤醒词列表")
			return
		}
		updates["pattern"] = pattern
	}
	if req.DeviceAttributes != nil {
		attributes, err := marshalJSONField(*req.DeviceAttributes)
		if err != nil {
			response.ParamError(c.Ctx, "无效的设备属性")
			return
		}
		updates["device_attributes"] = attributes
	}

	deviceService := c.Container.GetService("device").(services.InterfaceDeviceService)
	device, err := deviceService.UpdateDevice(deviceID, updates)
	if err != nil {
		if errors.Is(err, services.ErrDeviceNotFound) {
			response.NotFound(c.Ctx, "设备不存在")
			return
		}
		if isDeviceRefError(err) {
			response.FailWithMessage(c.Ctx, code.ErrDeviceRefInvalid, err.Error(), nil)
			return
		}
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "更新设备失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, device)
}

// 5. DeleteDevice 删除设备
// @Summary 删除设备
// @Description 删除指定设备及其关联的同步任务，并发布注册表变更通知
// @Tags Device
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "设备ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /devices/{id} [delete]
func (c *DeviceController) DeleteDevice() {
	deviceID, err := uuid.Parse(c.Ctx.Param("id"))
	if err != nil {
		response.ParamError(c.Ctx, "无效的设备ID")
		return
	}

	deviceService := c.Container.GetService("device").(services.InterfaceDeviceService)
	if err := deviceService.DeleteDevice(deviceID); err != nil {
		if errors.Is(err, services.ErrDeviceNotFound) {
			response.NotFound(c.Ctx, "设备不存在")
			return
		}
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "删除设备失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, gin.H{"message": "设备已删除"})
}

// 6. ExportDevices 导出设备注册表
// @Summary 导出设备
// @Description 将设备注册表导出为xlsx文件
// @Tags Device
// @Accept json
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Success 200 {file} binary
// @Failure 500 {object} ErrorResponse
// @Router /devices/export [get]
func (c *DeviceController) ExportDevices() {
	deviceService := c.Container.GetService("device").(services.InterfaceDeviceService)
	data, err := deviceService.ExportDevices()
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDeviceExportFailed, "导出设备失败: "+err.Error(), nil)
		return
	}

	fileName := fmt.Sprintf("global_devices_%s.xlsx", time.Now().Format("20060102"))
	c.Ctx.Header("Content-Disposition", "attachment; filename="+fileName)
	c.Ctx.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// marshalJSONField 把请求字段序列化为JSON列值
func marshalJSONField(value interface{}) (datatypes.JSON, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(data), nil
}

// isDeviceRefError 判断是否为设备引用校验错误
func isDeviceRefError(err error) bool {
	return errors.Is(err, services.ErrDeviceTypeNotFound) ||
		errors.Is(err, services.ErrRoomNotFound) ||
		errors.Is(err, services.ErrSkillNotFound)
}
