package controllers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/stkr22/private-assistant-web-ui/internal/domain/models"
	"github.com/stkr22/private-assistant-web-ui/internal/domain/services"
	"github.com/stkr22/private-assistant-web-ui/internal/domain/services/container"
	"github.com/stkr22/private-assistant-web-ui/internal/error/code"
	"github.com/stkr22/private-assistant-web-ui/internal/error/response"
)

// InterfaceAuthController 定义认证控制器接口
type InterfaceAuthController interface {
	Login()
	GetCurrentUser()
	GetOAuthConfig()
}

// AuthController 处理认证相关的请求
type AuthController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewAuthController 创建一个新的认证控制器
func NewAuthController(ctx *gin.Context, container *container.ServiceContainer) *AuthController {
	return &AuthController{
		Ctx:       ctx,
		Container: container,
	}
}

// LoginRequest 表示登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"admin@example.com"`
	Password string `json:"password" binding:"required" example:"changethis"`
}

// LoginResponse 表示登录响应
type LoginResponse struct {
	Code    int         `json:"code" example:"100000"`
	Message string      `json:"message" example:"成功"`
	Data    interface{} `json:"data"`
}

// LoginData 表示登录成功后返回的数据
type LoginData struct {
	AccessToken string `json:"access_token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	TokenType   string `json:"token_type" example:"bearer"`
}

// ErrorResponse 表示错误响应
type ErrorResponse struct {
	Code    int         `json:"code" example:"100002"`
	Message string      `json:"message" example:"请求参数绑定错误"`
	Data    interface{} `json:"data"`
}

// HandleAuthFunc 返回一个处理认证请求的Gin处理函数
func HandleAuthFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewAuthController(ctx, container)

		switch method {
		case "login":
			controller.Login()
		case "getCurrentUser":
			controller.GetCurrentUser()
		case "getOAuthConfig":
			controller.GetOAuthConfig()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}

// 1. Login 邮箱密码登录
// @Summary 用户登录
// @Description 使用邮箱和密码登录，返回访问令牌
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "登录凭证"
// @Success 200 {object} LoginResponse{data=LoginData}
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /auth/login [post]
func (c *AuthController) Login() {
	var req LoginRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数: "+err.Error(), nil)
		return
	}

	jwtService := c.Container.GetService("jwt").(services.InterfaceJWTService)
	result, err := jwtService.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			response.FailWithMessage(c.Ctx, code.ErrPasswordIncorrect, err.Error(), nil)
			return
		}
		if errors.Is(err, services.ErrInactiveUser) {
			response.FailWithMessage(c.Ctx, code.ErrUserInactive, err.Error(), nil)
			return
		}
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "登录失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, result)
}

// 2. GetCurrentUser 获取当前登录用户
// @Summary 获取当前用户
// @Description 返回当前令牌对应的用户信息
// @Tags Auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} ErrorResponse
// @Router /auth/me [get]
func (c *AuthController) GetCurrentUser() {
	value, exists := c.Ctx.Get("currentUser")
	user, ok := value.(*models.User)
	if !exists || !ok {
		response.Unauthorized(c.Ctx)
		return
	}

	response.Success(c.Ctx, user)
}

// 3. GetOAuthConfig 获取OIDC公开配置
// @Summary 获取OAuth配置
// @Description 返回前端发起OIDC登录所需的公开配置
// @Tags Auth
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /auth/oauth-config [get]
func (c *AuthController) GetOAuthConfig() {
	oauthService := c.Container.GetService("oauth").(services.InterfaceOAuthService)
	response.Success(c.Ctx, oauthService.GetOAuthConfig())
}
