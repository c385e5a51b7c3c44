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

// InterfaceRoomController 定义房间控制器接口
type InterfaceRoomController interface {
	GetRooms()
	GetRoom()
	CreateRoom()
	UpdateRoom()
	DeleteRoom()
	GetRoomDevices()
}

// RoomController 处理房间相关的请求
type RoomController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewRoomController 创建一个新的房间控制器
func NewRoomController(ctx *gin.Context, container *container.ServiceContainer) *RoomController {
	return &RoomController{
		Ctx:       ctx,
		Container: container,
	}
}

// RoomRequest 表示房间请求
type RoomRequest struct {
	Name string `json:"name" binding:"required,max=255" example:"living room"`
}

// HandleRoomFunc 返回一个处理房间请求的Gin处理函数
func HandleRoomFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewRoomController(ctx, container)

		switch method {
		case "getRooms":
			controller.GetRooms()
		case "getRoom":
			controller.GetRoom()
		case "createRoom":
			controller.CreateRoom()
		case "updateRoom":
			controller.UpdateRoom()
		case "deleteRoom":
			controller.DeleteRoom()
		case "getRoomDevices":
			controller.GetRoomDevices()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}

// 1. GetRooms 获取所有房间列表
// @Summary 获取所有房间
// @Description 获取系统中所有房间的列表，按名称排序
// @Tags Room
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码，默认为1"
// @Param page_size query int false "每页条数，默认为10"
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} ErrorResponse
// @Router /rooms [get]
func (c *RoomController) GetRooms() {
	// 获取分页参数
	page, _ := strconv.Atoi(c.Ctx.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.Ctx.DefaultQuery("page_size", "10"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	roomService := c.Container.GetService("room").(services.InterfaceRoomService)
	rooms, total, err := roomService.GetAllRooms(page, pageSize)
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "获取房间列表失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, gin.H{
		"total":       total,
		"page":        page,
		"page_size":   pageSize,
		"total_pages": (total + int64(pageSize) - 1) / int64(pageSize),
		"data":        rooms,
	})
}

// 2. GetRoom 获取单个房间详情
// @Summary 获取房间详情
// @Description 根据ID获取房间详细信息
// @Tags Room
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "房间ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /rooms/{id} [get]
func (c *RoomController) GetRoom() {
	roomID, err := uuid.Parse(c.Ctx.Param("id"))
	if err != nil {
		response.ParamError(c.Ctx, "无效的房间ID")
		return
	}

	roomService := c.Container.GetService("room").(services.InterfaceRoomService)
	room, err := roomService.GetRoomByID(roomID)
	if err != nil {
		response.NotFound(c.Ctx, "房间不存在: "+err.Error())
		return
	}

	response.Success(c.Ctx, room)
}

// 3. CreateRoom 创建新房间
// @Summary 创建房间
// @Description 创建一个新的房间，名称全局唯一
// @Tags Room
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param room body RoomRequest true "房间信息"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Router /rooms [post]
func (c *RoomController) CreateRoom() {
	var req RoomRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数: "+err.Error(), nil)
		return
	}

	room := &models.Room{
		Name: req.Name,
	}

	roomService := c.Container.GetService("room").(services.InterfaceRoomService)
	if err := roomService.CreateRoom(room); err != nil {
		if errors.Is(err, services.ErrRoomNameTaken) {
			response.FailWithMessage(c.Ctx, code.ErrRoomAlreadyExist, err.Error(), nil)
			return
		}
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "创建房间失败: "+err.Error(), nil)
		return
	}

	c.Ctx.Status(http.StatusCreated)
	response.Success(c.Ctx, room)
}

// 4. UpdateRoom 更新房间信息
// @Summary 更新房间
// @Description 更新房间名称
// @Tags Room
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "房间ID"
// @Param room body RoomRequest true "房间信息"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /rooms/{id} [put]
func (c *RoomController) UpdateRoom() {
	roomID, err := uuid.Parse(c.Ctx.Param("id"))
	if err != nil {
		response.ParamError(c.Ctx, "无效的房间ID")
		return
	}

	var req RoomRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数: "+err.Error(), nil)
		return
	}

	updates := map[string]interface{}{
		"name": req.Name,
	}

	roomService := c.Container.GetService("room").(services.InterfaceRoomService)
	room, err := roomService.UpdateRoom(roomID, updates)
	if err != nil {
		if errors.Is(err, services.ErrRoomNotFound) {
			response.NotFound(c.Ctx, "房间不存在")
			return
		}
		if errors.Is(err, services.ErrRoomNameTaken) {
			response.FailWithMessage(c.Ctx, code.ErrRoomAlreadyExist, err.Error(), nil)
			return
		}
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "更新房间失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, room)
}

// 5. DeleteRoom 删除房间
// @Summary 删除房间
// @Description 删除指定房间，房间内设备的房间归属被置空
// @Tags Room
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "房间ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /rooms/{id} [delete]
func (c *RoomController) DeleteRoom() {
	roomID, err := uuid.Parse(c.Ctx.Param("id"))
	if err != nil {
		response.ParamError(c.Ctx, "无效的房间ID")
		return
	}

	roomService := c.Container.GetService("room").(services.InterfaceRoomService)
	if err := roomService.DeleteRoom(roomID); err != nil {
		if errors.Is(err, services.ErrRoomNotFound) {
			response.NotFound(c.Ctx, "房间不存在")
			return
		}
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "删除房间失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, gin.H{"message": "房间已删除"})
}

// 6. GetRoomDevices 获取房间内的设备列表
// @Summary 获取房间设备
// @Description 获取指定房间内的所有设备
// @Tags Room
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "房间ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /rooms/{id}/devices [get]
func (c *RoomController) GetRoomDevices() {
	roomID, err := uuid.Parse(c.Ctx.Param("id"))
	if err != nil {
		response.ParamError(c.Ctx, "无效的房间ID")
		return
	}

	roomService := c.Container.GetService("room").(services.InterfaceRoomService)
	devices, err := roomService.GetRoomDevices(roomID)
	if err != nil {
		if errors.Is(err, services.ErrRoomNotFound) {
			response.NotFound(c.Ctx, "房间不存在")
			return
		}
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "获取房间设备失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, devices)
}
