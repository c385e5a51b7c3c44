package services

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	jwt "github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/stkr22/private-assistant-web-ui/internal/domain/models"
	"github.com/stkr22/private-assistant-web-ui/internal/infrastructure/config"
)

// oauthTestEnv 组装OAuth测试所需的假提供方、Redis和数据库
type oauthTestEnv struct {
	mock   sqlmock.Sqlmock
	key    *rsa.PrivateKey
	issuer string
	svc    InterfaceOAuthService

	jwksHits      int
	userinfoHits  int
	userinfoAuth  string
	userinfoEmail string
	userinfoName  string
}

// setupOAuthServiceTest 启动伪造的OIDC提供方，JWKS和userinfo端点都由httptest提供
func setupOAuthServiceTest(t *testing.T) *oauthTestEnv {
	env := &oauthTestEnv{}

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	env.key = key

	mux := http.NewServeMux()
	// Zitadel风格的JWKS路径
	mux.HandleFunc("/oauth/v2/keys", func(w http.ResponseWriter, r *http.Request) {
		env.jwksHits++
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(jwksDocument{Keys: []jwksKey{{
			Kty: "RSA",
			Kid: "test-kid",
			Use: "sig",
			Alg: "RS256",
			N:   base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes()),
			E:   "AQAB",
		}}})
	})
	mux.HandleFunc("/oidc/v1/userinfo", func(w http.ResponseWriter, r *http.Request) {
		env.userinfoHits++
		env.userinfoAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(userinfoResponse{Email: env.userinfoEmail, Name: env.userinfoName})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	env.issuer = server.URL

	mr := miniredis.RunT(t)
	redisService := &RedisService{
		Client: redis.NewClient(&redis.Options{Addr: mr.Addr()}),
		Ctx:    context.Background(),
	}

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	env.mock = mock

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	cfg := &config.Config{
		OAuthEnabled:  true,
		OAuthIssuer:   server.URL,
		OAuthClientID: "web-ui-client",
	}
	env.svc = NewOAuthService(cfg, redisService, NewUserService(db, cfg))
	return env
}

// signOAuthToken 用伪造提供方的私钥签发RS256令牌
func signOAuthToken(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = "test-kid"
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

// ============================================
// 令牌来源判断测试
// ============================================

func TestIsOAuthToken_DisabledConfig(t *testing.T) {
	svc := NewOAuthService(&config.Config{}, nil, nil)

	assert.False(t, svc.IsOAuthToken("whatever"))
}

func TestIsOAuthToken_MatchesIssuer(t *testing.T) {
	env := setupOAuthServiceTest(t)

	// iss带结尾斜杠也应匹配
	matching := signOAuthToken(t, env.key, jwt.MapClaims{"iss": env.issuer + "/", "sub": "u1"})
	assert.True(t, env.svc.IsOAuthToken(matching))

	foreign := signOAuthToken(t, env.key, jwt.MapClaims{"iss": "https://other-idp.example.com", "sub": "u1"})
	assert.False(t, env.svc.IsOAuthToken(foreign))

	assert.False(t, env.svc.IsOAuthToken("not-a-jwt"))
}

// ============================================
// 签名和声明校验测试
// ============================================

func TestValidateOAuthToken_SuccessAndJWKSCache(t *testing.T) {
	env := setupOAuthServiceTest(t)

	claims := jwt.MapClaims{
		"iss": env.issuer,
		"sub": "user-1",
		"aud": "web-ui-client",
		"exp": time.Now().Add(time.Hour).Unix(),
	}

	got, err := env.svc.ValidateOAuthToken(signOAuthToken(t, env.key, claims))
	require.NoError(t, err)
	assert.Equal(t, "user-1", got["sub"])
	assert.Equal(t, 1, env.jwksHits)

	// 第二次校验应命中Redis缓存的JWKS
	_, err = env.svc.ValidateOAuthToken(signOAuthToken(t, env.key, claims))
	require.NoError(t, err)
	assert.Equal(t, 1, env.jwksHits)
}

func TestValidateOAuthToken_Expired(t *testing.T) {
	env := setupOAuthServiceTest(t)

	// 过期超出2分钟容忍窗口
	token := signOAuthToken(t, env.key, jwt.MapClaims{
		"iss": env.issuer,
		"sub": "user-1",
		"exp": time.Now().Add(-10 * time.Minute).Unix(),
	})

	_, err := env.svc.ValidateOAuthToken(token)
	assert.ErrorIs(t, err, ErrOAuthTokenInvalid)
}

func TestValidateOAuthToken_WrongAudience(t *testing.T) {
	env := setupOAuthServiceTest(t)

	token := signOAuthToken(t, env.key, jwt.MapClaims{
		"iss": env.issuer,
		"sub": "user-1",
		"aud": "some-other-client",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	_, err := env.svc.ValidateOAuthToken(token)
	assert.ErrorIs(t, err, ErrOAuthTokenInvalid)
}

func TestValidateOAuthToken_IssuerMismatch(t *testing.T) {
	env := setupOAuthServiceTest(t)

	// 签名有效但iss不是配置的提供方
	token := signOAuthToken(t, env.key, jwt.MapClaims{
		"iss": "https://evil.example.com",
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	_, err := env.svc.ValidateOAuthToken(token)
	assert.ErrorIs(t, err, ErrOAuthTokenInvalid)
}

func TestValidateOAuthToken_RejectsHMACSignature(t *testing.T) {
	env := setupOAuthServiceTest(t)

	hmacToken := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss": env.issuer,
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := hmacToken.SignedString([]byte("forged-secret"))
	require.NoError(t, err)

	_, err = env.svc.ValidateOAuthToken(signed)
	assert.ErrorIs(t, err, ErrOAuthTokenInvalid)
}

// ============================================
// 用户解析和自动开通测试
// ============================================

func TestResolveOAuthUser_ExistingSubject(t *testing.T) {
	env := setupOAuthServiceTest(t)
	userID := uuid.New()
	subject := "sub-existing"

	env.mock.ExpectQuery(`SELECT \* FROM "users" WHERE oauth_subject = \$1`).
		WithArgs(subject, 1).
		WillReturnRows(userRows(models.User{
			BaseModel:    models.BaseModel{ID: userID},
			Email:        "carol@example.com",
			IsActive:     true,
			OAuthSubject: &subject,
		}))

	user, err := env.svc.ResolveOAuthUser(jwt.MapClaims{"sub": subject}, "raw-token")

	require.NoError(t, err)
	assert.Equal(t, userID, user.ID)
	assert.Zero(t, env.userinfoHits, "已绑定的用户不应触发userinfo请求")

	require.NoError(t, env.mock.ExpectationsWereMet())
}

func TestResolveOAuthUser_FetchesEmailFromUserinfo(t *testing.T) {
	env := setupOAuthServiceTest(t)
	env.userinfoEmail = "erin@example.com"
	env.userinfoName = "Erin"
	subject := "sub-new"

	// 首次按sub查找，之后自动开通流程内部会再查一次sub和email
	env.mock.ExpectQuery(`SELECT \* FROM "users" WHERE oauth_subject = \$1`).
		WithArgs(subject, 1).
		WillReturnRows(userRows())
	env.mock.ExpectQuery(`SELECT \* FROM "users" WHERE oauth_subject = \$1`).
		WithArgs(subject, 1).
		WillReturnRows(userRows())
	env.mock.ExpectQuery(`SELECT \* FROM "users" WHERE email = \$1`).
		WithArgs("erin@example.com", 1).
		WillReturnRows(userRows())
	env.mock.ExpectBegin()
	env.mock.ExpectExec(`INSERT INTO "users"`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	env.mock.ExpectCommit()

	user, err := env.svc.ResolveOAuthUser(jwt.MapClaims{"sub": subject}, "raw-token")

	require.NoError(t, err)
	assert.Equal(t, "erin@example.com", user.Email)
	require.NotNil(t, user.FullName)
	assert.Equal(t, "Erin", *user.FullName)
	assert.Equal(t, 1, env.userinfoHits)
	assert.Equal(t, "Bearer raw-token", env.userinfoAuth)

	issuerURL, err := url.Parse(env.issuer)
	require.NoError(t, err)
	require.NotNil(t, user.OAuthProvider)
	assert.Equal(t, issuerURL.Host, *user.OAuthProvider)

	require.NoError(t, env.mock.ExpectationsWereMet())
}

func TestResolveOAuthUser_EmailMissing(t *testing.T) {
	env := setupOAuthServiceTest(t)
	subject := "sub-no-email"

	env.mock.ExpectQuery(`SELECT \* FROM "users" WHERE oauth_subject = \$1`).
		WithArgs(subject, 1).
		WillReturnRows(userRows())

	_, err := env.svc.ResolveOAuthUser(jwt.MapClaims{"sub": subject}, "raw-token")

	assert.ErrorIs(t, err, ErrOAuthEmailMissing)
	assert.Equal(t, 1, env.userinfoHits, "声明缺少邮箱时应回退到userinfo")

	require.NoError(t, env.mock.ExpectationsWereMet())
}

// ============================================
// 公开配置测试
// ============================================

func TestGetOAuthConfig(t *testing.T) {
	env := setupOAuthServiceTest(t)

	info := env.svc.GetOAuthConfig()
	assert.True(t, info.Enabled)
	assert.Equal(t, env.issuer, info.Issuer)
	assert.Equal(t, "web-ui-client", info.ClientID)

	disabled := NewOAuthService(&config.Config{}, nil, nil).GetOAuthConfig()
	assert.False(t, disabled.Enabled)
}
