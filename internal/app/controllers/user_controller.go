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

// InterfaceUserController 定义用户控制器接口
type InterfaceUserController interface {
	GetUsers()
	GetUser()
	CreateUser()
	UpdateUser()
	DeleteUser()
}

// UserController 处理用户相关的请求
type UserController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewUserController 创建一个新的用户控制器
func NewUserController(ctx *gin.Context, container *container.ServiceContainer) *UserController {
	return &UserController{
		Ctx:       ctx,
		Container: container,
	}
}

// CreateUserRequest 表示创建用户请求
type CreateUserRequest struct {
	Email       string `json:"email" binding:"required,email" example:"user@example.com"`
	Password    string `json:"password" binding:"required,min=8,max=40"`
	FullName    string `json:"full_name" example:"张三"`
	IsActive    *bool  `json:"is_active"`
	IsSuperuser bool   `json:"is_superuser"`
}

// UpdateUserRequest 表示更新用户请求，未提供的字段保持原值
type UpdateUserRequest struct {
	Email       *string `json:"email" binding:"omitempty,email"`
	Password    *string `json:"password" binding:"omitempty,min=8,max=40"`
	FullName    *string `json:"full_name"`
	IsActive    *bool   `json:"is_active"`
	IsSuperuser *bool   `json:"is_superuser"`
}

// HandleUserFunc 返回一个处理用户请求的Gin处理函数
func HandleUserFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewUserController(ctx, container)

		switch method {
		case "getUsers":
			controller.GetUsers()
		case "getUser":
			controller.GetUser()
		case "createUser":
			controller.CreateUser()
		case "updateUser":
			controller.UpdateUser()
		case "deleteUser":
			controller.DeleteUser()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}

// 1. GetUsers 获取所有用户列表
// @Summary 获取所有用户
// @Description 获取系统中所有用户的列表，仅超级管理员可用
// @Tags User
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码，默认为1"
// @Param page_size query int false "每页条数，默认为10"
// @Param search query string false "按邮箱或姓名搜索"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /users [get]
func (c *UserController) GetUsers() {
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

	userService := c.Container.GetService("user").(services.InterfaceUserService)
	users, total, err := userService.GetAllUsers(page, pageSize, search)
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "获取用户列表失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, gin.H{
		"total":       total,
		"page":        page,
		"page_size":   pageSize,
		"total_pages": (total + int64(pageSize) - 1) / int64(pageSize),
		"data":        users,
	})
}

// 2. GetUser 获取单个用户详情
// @Summary 获取用户详情
// @Description 根据ID获取用户详细信息，普通用户只能查看自己
// @Tags User
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "用户ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /users/{id} [get]
func (c *UserController) GetUser() {
	userID, err := uuid.Parse(c.Ctx.Param("id"))
	if err != nil {
		response.ParamError(c.Ctx, "无效的用户ID")
		return
	}

	// 普通用户只能查看自己的信息
	currentUserID, _ := c.Ctx.Get("userID")
	currentID, _ := currentUserID.(uuid.UUID)
	isSuperuser, _ := c.Ctx.Get("isSuperuser")
	if su, ok := isSuperuser.(bool); !ok || !su {
		if currentID != userID {
			response.Forbidden(c.Ctx)
			return
		}
	}

	userService := c.Container.GetService("user").(services.InterfaceUserService)
	user, err := userService.GetUserByID(userID)
	if err != nil {
		response.NotFound(c.Ctx, "用户不存在: "+err.Error())
		return
	}

	response.Success(c.Ctx, user)
}

// 3. CreateUser 创建新用户
// @Summary 创建用户
// @Description 创建一个新的用户，仅超级管理员可用
// @Tags User
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param user body CreateUserRequest true "用户信息"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /users [post]
func (c *UserController) CreateUser() {
	var req CreateUserRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数: "+err.Error(), nil)
		return
	}

	user := &models.User{
		Email:       req.Email,
		IsActive:    true,
		IsSuperuser: req.IsSuperuser,
	}
	if req.FullName != "" {
		user.FullName = &req.FullName
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	userService := c.Container.GetService("user").(services.InterfaceUserService)
	if err := userService.CreateUser(user, req.Password); err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			response.FailWithMessage(c.Ctx, code.ErrUserAlreadyExist, err.Error(), nil)
			return
		}
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "创建用户失败: "+err.Error(), nil)
		return
	}

	c.Ctx.Status(http.StatusCreated)
	response.Success(c.Ctx, user)
}

// 4. UpdateUser 更新用户信息
// @Summary 更新用户
// @Description 更新用户信息，仅超级管理员可用
// @Tags User
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "用户ID"
// @Param user body UpdateUserRequest true "用户信息"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /users/{id} [put]
func (c *UserController) UpdateUser() {
	userID, err := uuid.Parse(c.Ctx.Param("id"))
	if err != nil {
		response.ParamError(c.Ctx, "无效的用户ID")
		return
	}

	var req UpdateUserRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数: "+err.Error(), nil)
		return
	}

	// 创建更新映射
	updates := make(map[string]interface{})
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Password != nil {
		updates["password"] = *req.Password
	}
	if req.FullName != nil {
		updates["full_name"] = *req.FullName
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.IsSuperuser != nil {
		updates["is_superuser"] = *req.IsSuperuser
	}

	userService := c.Container.GetService("user").(services.InterfaceUserService)
	user, err := userService.UpdateUser(userID, updates)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			response.NotFound(c.Ctx, "用户不存在")
			return
		}
		if errors.Is(err, services.ErrEmailTaken) {
			response.FailWithMessage(c.Ctx, code.ErrUserAlreadyExist, err.Error(), nil)
			return
		}
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "更新用户失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, user)
}

// 5. DeleteUser 删除用户
// @Summary 删除用户
// @Description 删除指定用户，不允许删除自己，仅超级管理员可用
// @Tags User
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "用户ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /users/{id} [delete]
func (c *UserController) DeleteUser() {
	userID, err := uuid.Parse(c.Ctx.Param("id"))
	if err != nil {
		response.ParamError(c.Ctx, "无效的用户ID")
		return
	}

	currentUserID, _ := c.Ctx.Get("userID")
	currentID, _ := currentUserID.(uuid.UUID)

	userService := c.Container.GetService("user").(services.InterfaceUserService)
	if err := userService.DeleteUser(userID, currentID); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			response.NotFound(c.Ctx, "用户不存在")
			return
		}
		if errors.Is(err, services.ErrSelfDelete) {
			response.FailWithMessage(c.Ctx, code.ErrUserSelfDelete, err.Error(), nil)
			return
		}
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "删除用户失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, gin.H{"message": "用户已删除"})
}
