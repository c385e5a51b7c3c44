package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stkr22/private-assistant-web-ui/internal/error/code"
	"github.com/stkr22/private-assistant-web-ui/internal/error/response"
)

// TokenBucket 简单的令牌桶限流器
type TokenBucket struct {
	rate       float64   // 每秒填充的令牌数
	capacity   int       // 桶的容量
	tokens     float64   // 当前令牌数
	lastRefill time.Time // 上次填充时间
	mu         sync.Mutex
}

// NewTokenBucket 创建新的令牌桶限流器
func NewTokenBucket(rate float64, capacity int) *TokenBucket {
	return &TokenBucket{
		rate:       rate,
		capacity:   capacity,
		tokens:     float64(capacity),
		lastRefill: time.Now(),
	}
}

// Allow 尝试获取令牌
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(tb.lastRefill).Seconds()
	tb.lastRefill = now

	// 填充令牌
	tb.tokens += elapsed * tb.rate
	if tb.tokens > float64(tb.capacity) {
		tb.tokens = float64(tb.capacity)
	}

	if tb.tokens >= 1 {
		tb.tokens--
		return true
	}

	return false
}

// limiterEntry 限流器及其最近使用时间
type limiterEntry struct {
	bucket   *TokenBucket
	lastSeen time.Time
}

var (
	limiters   = make(map[string]*limiterEntry)
	limitersMu sync.Mutex
)

// limiterIdleExpiry 空闲限流器的回收时间
const limiterIdleExpiry = 1 * time.Hour

// getLimiter 获取或创建指定键的限流器
func getLimiter(key string, rate float64, burst int) *TokenBucket {
	limitersMu.Lock()
	defer limitersMu.Unlock()

	entry, exists := limiters[key]
	if !exists {
		entry = &limiterEntry{bucket: NewTokenBucket(rate, burst)}
		limiters[key] = entry
	}
	entry.lastSeen = time.Now()
	return entry.bucket
}

// rateLimit 按键限流，超出时返回429
func rateLimit(keyFunc func(*gin.Context) string, rate float64, burst int) gin.HandlerFunc {
	return func(c *gin.Context) {
		limiter := getLimiter(keyFunc(c), rate, burst)
		if !limiter.Allow() {
			response.FailWithMessage(c, code.ErrTooManyRequests, "请求频率过高，请稍后再试", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

// IPRateLimiter 按客户端IP限流
func IPRateLimiter(rate float64, burst int) gin.HandlerFunc {
	return rateLimit(func(c *gin.Context) string {
		return "ip:" + c.ClientIP()
	}, rate, burst)
}

// PathRateLimiter 按请求路径限流
func PathRateLimiter(rate float64, burst int) gin.HandlerFunc {
	return rateLimit(func(c *gin.Context) string {
		return "path:" + c.Request.URL.Path
	}, rate, burst)
}

// CombinedRateLimiter 按IP和路径组合限流
func CombinedRateLimiter(rate float64, burst int) gin.HandlerFunc {
	return rateLimit(func(c *gin.Context) string {
		return "ip:" + c.ClientIP() + ":path:" + c.Request.URL.Path
	}, rate, burst)
}

// 定期回收空闲的限流器
func init() {
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			cleanIdleLimiters()
		}
	}()
}

// cleanIdleLimiters 清理超过空闲时间未使用的限流器
func cleanIdleLimiters() {
	cutoff := time.Now().Add(-limiterIdleExpiry)

	limitersMu.Lock()
	defer limitersMu.Unlock()
	for key, entry := range limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(limiters, key)
		}
	}
}
