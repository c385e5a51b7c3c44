package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stkr22/private-assistant-web-ui/internal/error/code"
)

// performRequest 发起一次测试请求，remoteAddr非空时覆盖客户端地址
func performRequest(router *gin.Engine, method, path, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// errorBody 限流响应体
type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ============================================
// 令牌桶测试
// ============================================

func TestTokenBucket_ConsumesAndRefills(t *testing.T) {
	tb := NewTokenBucket(50, 2)

	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow(), "桶耗尽后应拒绝")

	// 每秒50个令牌，100ms足够填回1个以上
	time.Sleep(100 * time.Millisecond)
	assert.True(t, tb.Allow())
}

// ============================================
// 限流中间件测试
// ============================================

// 限流器按键全局保存，每个测试使用独立的IP和路径避免互相干扰

func TestIPRateLimiter_BlocksAfterBurst(t *testing.T) {
	router := gin.New()
	router.GET("/limited", IPRateLimiter(0.001, 2), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	first := performRequest(router, http.MethodGet, "/limited", "198.51.100.10:51234")
	assert.Equal(t, http.StatusOK, first.Code)

	second := performRequest(router, http.MethodGet, "/limited", "198.51.100.10:51234")
	assert.Equal(t, http.StatusOK, second.Code)

	third := performRequest(router, http.MethodGet, "/limited", "198.51.100.10:51234")
	assert.Equal(t, http.StatusTooManyRequests, third.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(third.Body.Bytes(), &body))
	assert.Equal(t, code.ErrTooManyRequests, body.Code)
	assert.Equal(t, "请求频率过高，请稍后再试", body.Message)

	// 其他IP不受影响
	other := performRequest(router, http.MethodGet, "/limited", "198.51.100.11:51234")
	assert.Equal(t, http.StatusOK, other.Code)
}

func TestPathRateLimiter_SharedAcrossClients(t *testing.T) {
	router := gin.New()
	router.GET("/export", PathRateLimiter(0.001, 1), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	first := performRequest(router, http.MethodGet, "/export", "198.51.100.20:51234")
	assert.Equal(t, http.StatusOK, first.Code)

	// 路径级限流对所有客户端共享同一个桶
	second := performRequest(router, http.MethodGet, "/export", "198.51.100.21:51234")
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestCombinedRateLimiter_SeparatesPaths(t *testing.T) {
	router := gin.New()
	limiter := CombinedRateLimiter(0.001, 1)
	router.GET("/combined-a", limiter, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	router.GET("/combined-b", limiter, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	addr := "198.51.100.30:51234"

	assert.Equal(t, http.StatusOK, performRequest(router, http.MethodGet, "/combined-a", addr).Code)
	assert.Equal(t, http.StatusTooManyRequests, performRequest(router, http.MethodGet, "/combined-a", addr).Code)

	// 同一IP访问其他路径仍然放行
	assert.Equal(t, http.StatusOK, performRequest(router, http.MethodGet, "/combined-b", addr).Code)
}
