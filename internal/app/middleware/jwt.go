package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stkr22/private-assistant-web-ui/internal/domain/models"
	"github.com/stkr22/private-assistant-web-ui/internal/domain/services"
	"github.com/stkr22/private-assistant-web-ui/internal/infrastructure/config"
)

var (
	jwtService   services.InterfaceJWTService
	oauthService services.InterfaceOAuthService
	userService  services.InterfaceUserService
)

// InitAuthMiddleware 初始化认证中间件
func InitAuthMiddleware(cfg *config.Config, db *gorm.DB) {
	userService = services.NewUserService(db, cfg)
	jwtService = services.NewJWTService(cfg, db)
	oauthService = services.NewOAuthService(cfg, services.NewRedisService(cfg), userService)
}

// Authenticate 通用的认证中间件，本地令牌和OAuth令牌均可通过
func Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "Authorization header is required",
				"data":    nil,
			})
			c.Abort()
			return
		}

		// 检查是否是Bearer token
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "Authorization header format must be Bearer {token}",
				"data":    nil,
			})
			c.Abort()
			return
		}

		tokenString := parts[1]
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "Invalid token format",
				"data":    nil,
			})
			c.Abort()
			return
		}

		var user *models.User

		// 按iss声明区分OAuth令牌和本地令牌
		if oauthService.IsOAuthToken(tokenString) {
			claims, err := oauthService.ValidateOAuthToken(tokenString)
			if err != nil {
				c.JSON(http.StatusUnauthorized, gin.H{
					"code":    401,
					"message": "Invalid token: " + err.Error(),
					"data":    nil,
				})
				c.Abort()
				return
			}

			user, err = oauthService.ResolveOAuthUser(claims, tokenString)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{
					"code":    400,
					"message": "Could not resolve OAuth user: " + err.Error(),
					"data":    nil,
				})
				c.Abort()
				return
			}
			c.Set("claims", claims)
		} else {
			claims, err := jwtService.ExtractClaims(tokenString)
			if err != nil {
				c.JSON(http.StatusUnauthorized, gin.H{
					"code":    401,
					"message": "Invalid or expired token",
					"data":    nil,
				})
				c.Abort()
				return
			}

			userID, err := uuid.Parse(claims.Subject)
			if err != nil {
				c.JSON(http.StatusUnauthorized, gin.H{
					"code":    401,
					"message": "Invalid token claims",
					"data":    nil,
				})
				c.Abort()
				return
			}

			user, err = userService.GetUserByID(userID)
			if err != nil {
				c.JSON(http.StatusNotFound, gin.H{
					"code":    404,
					"message": "User not found",
					"data":    nil,
				})
				c.Abort()
				return
			}
			c.Set("claims", claims)
		}

		if !user.IsActive {
			c.JSON(http.StatusForbidden, gin.H{
				"code":    403,
				"message": "Inactive user",
				"data":    nil,
			})
			c.Abort()
			return
		}

		// 存储用户信息到上下文
		c.Set("userID", user.ID)
		c.Set("currentUser", user)
		c.Set("isSuperuser", user.IsSuperuser)
		c.Next()
	}
}

// RequireSuperuser 验证超级管理员权限，需在Authenticate之后使用
func RequireSuperuser() gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get("isSuperuser")
		isSuperuser, ok := value.(bool)
		if !exists || !ok || !isSuperuser {
			c.JSON(http.StatusForbidden, gin.H{
				"code":    403,
				"message": "The user doesn't have enough privileges",
				"data":    nil,
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
