package services

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	jwt "github.com/golang-jwt/jwt/v4"

	"github.com/stkr22/private-assistant-web-ui/internal/domain/models"
	"github.com/stkr22/private-assistant-web-ui/internal/infrastructure/config"
	"github.com/stkr22/private-assistant-web-ui/pkg/logger"
)

const (
	// JWKSCacheKey JWKS文档的Redis缓存键
	JWKSCacheKey = "oauth:jwks"
	// JWKSCacheDuration JWKS缓存时长
	JWKSCacheDuration = time.Hour
	// OAuthTokenLeeway 时间声明校验允许的时钟偏移
	OAuthTokenLeeway = 120 * time.Second
)

// OAuth相关的业务错误
var (
	ErrOAuthDisabled     = errors.New("OAuth认证未启用")
	ErrOAuthTokenInvalid = errors.New("OAuth令牌无效")
	ErrOAuthEmailMissing = errors.New("无法确定OAuth用户的邮箱，请确认授权请求包含email scope")
)

// jwksDocument OAuth提供方公开的JSON Web Key Set
type jwksDocument struct {
	Keys []jwksKey `json:"keys"`
}

// jwksKey JWKS中的单个RSA公钥
type jwksKey struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// userinfoResponse OIDC userinfo端点响应
type userinfoResponse struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// OAuthConfigInfo 提供给前端发起OIDC流程的公开配置
type OAuthConfigInfo struct {
	Enabled  bool   `json:"enabled"`
	Issuer   string `json:"issuer,omitempty"`
	ClientID string `json:"client_id,omitempty"`
}

// InterfaceOAuthService 定义OAuth/OIDC认证服务接口
type InterfaceOAuthService interface {
	IsOAuthToken(tokenString string) bool
	ValidateOAuthToken(tokenString string) (jwt.MapClaims, error)
	ResolveOAuthUser(claims jwt.MapClaims, rawToken string) (*models.User, error)
	GetOAuthConfig() OAuthConfigInfo
}

// OAuthService 提供OIDC令牌校验与用户自动开通服务
type OAuthService struct {
	Config      *config.Config
	HTTPClient  *resty.Client
	Redis       InterfaceRedisService
	UserService InterfaceUserService
}

// NewOAuthService 创建一个新的OAuth服务
func NewOAuthService(cfg *config.Config, redisService InterfaceRedisService, userService InterfaceUserService) InterfaceOAuthService {
	client := resty.New().
		SetTimeout(10 * time.Second).
		SetHeader("Accept", "application/json")

	return &OAuthService{
		Config:      cfg,
		HTTPClient:  client,
		Redis:       redisService,
		UserService: userService,
	}
}

// 1 IsOAuthToken 不验证签名，只从iss声明判断是否为OAuth提供方签发的令牌
func (s *OAuthService) IsOAuthToken(tokenString string) bool {
	if !s.Config.OAuthEnabled || s.Config.OAuthIssuer == "" {
		return false
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return false
	}

	iss, _ := claims["iss"].(string)
	if iss == "" {
		return false
	}
	return strings.TrimRight(iss, "/") == strings.TrimRight(s.Config.OAuthIssuer, "/")
}

// 2 ValidateOAuthToken 用提供方JWKS验证RS256签名并校验声明
func (s *OAuthService) ValidateOAuthToken(tokenString string) (jwt.MapClaims, error) {
	if !s.Config.OAuthEnabled || s.Config.OAuthIssuer == "" {
		return nil, ErrOAuthDisabled
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithoutClaimsValidation(),
	)
	if _, err := parser.ParseWithClaims(tokenString, claims, s.jwksKeyFunc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOAuthTokenInvalid, err)
	}

	// 时间声明手动校验，容忍2分钟时钟偏移
	now := time.Now()
	if !claims.VerifyExpiresAt(now.Add(-OAuthTokenLeeway).Unix(), true) {
		return nil, fmt.Errorf("%w: token expired", ErrOAuthTokenInvalid)
	}
	if !claims.VerifyNotBefore(now.Add(OAuthTokenLeeway).Unix(), false) {
		return nil, fmt.Errorf("%w: token not valid yet", ErrOAuthTokenInvalid)
	}

	iss, _ := claims["iss"].(string)
	if strings.TrimRight(iss, "/") != strings.TrimRight(s.Config.OAuthIssuer, "/") {
		return nil, fmt.Errorf("%w: issuer mismatch", ErrOAuthTokenInvalid)
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, fmt.Errorf("%w: missing sub claim", ErrOAuthTokenInvalid)
	}

	// aud存在时必须包含client_id
	if s.Config.OAuthClientID != "" {
		if aud, ok := claims["aud"]; ok {
			if !audienceContains(aud, s.Config.OAuthClientID) {
				return nil, fmt.Errorf("%w: invalid audience", ErrOAuthTokenInvalid)
			}
		}
	}

	logger.Info("OAuth令牌校验通过: sub=%s", sub)
	return claims, nil
}

// 3 ResolveOAuthUser 根据令牌声明查找或自动开通用户，邮箱缺失时回退到userinfo端点
func (s *OAuthService) ResolveOAuthUser(claims jwt.MapClaims, rawToken string) (*models.User, error) {
	if !s.Config.OAuthEnabled {
		return nil, ErrOAuthDisabled
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, fmt.Errorf("%w: missing sub claim", ErrOAuthTokenInvalid)
	}

	// 已绑定的用户直接返回，不再请求userinfo
	if user, err := s.UserService.GetUserByOAuthSubject(sub); err == nil {
		return user, nil
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	email, _ := claims["email"].(string)
	fullName, _ := claims["name"].(string)

	if email == "" {
		info, err := s.fetchUserinfo(rawToken)
		if err != nil {
			logger.Warning("获取userinfo失败: %v", err)
		} else {
			email = info.Email
			if fullName == "" {
				fullName = info.Name
			}
			logger.Info("已从userinfo获取用户信息: sub=%s email=%s", sub, email)
		}
	}

	if email == "" {
		return nil, ErrOAuthEmailMissing
	}

	provider := providerFromIssuer(s.Config.OAuthIssuer)
	return s.UserService.ProvisionOAuthUser(provider, sub, email, fullName)
}

// 4 GetOAuthConfig 返回前端发起OIDC流程所需的公开配置
func (s *OAuthService) GetOAuthConfig() OAuthConfigInfo {
	return OAuthConfigInfo{
		Enabled:  s.Config.OAuthEnabled,
		Issuer:   s.Config.OAuthIssuer,
		ClientID: s.Config.OAuthClientID,
	}
}

// jwksKeyFunc 根据令牌头中的kid从JWKS选择验签公钥
func (s *OAuthService) jwksKeyFunc(token *jwt.Token) (interface{}, error) {
	kid, _ := token.Header["kid"].(string)

	jwks, err := s.fetchJWKS()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch jwks: %w", err)
	}

	for _, key := range jwks.Keys {
		if key.Kty != "RSA" {
			continue
		}
		if kid != "" && key.Kid != kid {
			continue
		}
		return parseRSAPublicKey(key)
	}

	return nil, fmt.Errorf("no matching jwks key for kid %q", kid)
}

// fetchJWKS 获取提供方JWKS，优先走Redis缓存，缓存失效时间1小时
func (s *OAuthService) fetchJWKS() (*jwksDocument, error) {
	var doc jwksDocument

	if cached, err := s.Redis.GetString(JWKSCacheKey); err == nil && cached != "" {
		if err := json.Unmarshal([]byte(cached), &doc); err == nil {
			return &doc, nil
		}
	}

	// Zitadel的JWKS路径是/oauth/v2/keys而不是标准的/.well-known/jwks.json
	jwksURL := strings.TrimRight(s.Config.OAuthIssuer, "/") + "/oauth/v2/keys"
	logger.Info("正在获取JWKS: %s", jwksURL)

	resp, err := s.HTTPClient.R().SetResult(&doc).Get(jwksURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch jwks from %s: %w", jwksURL, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("jwks endpoint returned status %d", resp.StatusCode())
	}

	if data, err := json.Marshal(&doc); err == nil {
		if err := s.Redis.SetString(JWKSCacheKey, string(data), JWKSCacheDuration); err != nil {
			logger.Warning("缓存JWKS失败: %v", err)
		}
	}

	logger.Info("已获取%d个JWKS公钥", len(doc.Keys))
	return &doc, nil
}

// fetchUserinfo 调用OIDC userinfo端点补全邮箱和姓名
func (s *OAuthService) fetchUserinfo(rawToken string) (*userinfoResponse, error) {
	userinfoURL := strings.TrimRight(s.Config.OAuthIssuer, "/") + "/oidc/v1/userinfo"

	var info userinfoResponse
	resp, err := s.HTTPClient.R().
		SetAuthToken(rawToken).
		SetResult(&info).
		Get(userinfoURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch userinfo: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("userinfo endpoint returned status %d", resp.StatusCode())
	}

	return &info, nil
}

// parseRSAPublicKey 从JWKS的n/e参数构造RSA公钥
func parseRSAPublicKey(key jwksKey) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(key.N)
	if err != nil {
		return nil, fmt.Errorf("invalid modulus in jwks key %s: %w", key.Kid, err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(key.E)
	if err != nil {
		return nil, fmt.Errorf("invalid exponent in jwks key %s: %w", key.Kid, err)
	}

	e := 0
	for _, b := range eBytes {
		e = e<<8 | int(b)
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: e,
	}, nil
}

// audienceContains 判断aud声明（字符串或数组）是否包含client_id
func audienceContains(aud interface{}, clientID string) bool {
	switch v := aud.(type) {
	case string:
		return v == clientID
	case []interface{}:
		for _, item := range v {
			if sv, ok := item.(string); ok && sv == clientID {
				return true
			}
		}
	case []string:
		for _, sv := range v {
			if sv == clientID {
				return true
			}
		}
	}
	return false
}

// providerFromIssuer 从issuer地址提取提供方名称，去掉www前缀
func providerFromIssuer(issuer string) string {
	u, err := url.Parse(issuer)
	if err != nil || u.Host == "" {
		return "oauth"
	}
	return strings.TrimPrefix(u.Host, "www.")
}
