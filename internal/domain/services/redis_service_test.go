package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupRedisServiceTest 用miniredis替代真实Redis
func setupRedisServiceTest(t *testing.T) (*miniredis.Miniredis, InterfaceRedisService) {
	mr := miniredis.RunT(t)

	svc := &RedisService{
		Client: redis.NewClient(&redis.Options{Addr: mr.Addr()}),
		Ctx:    context.Background(),
	}
	return mr, svc
}

// ============================================
// 缓存读写测试
// ============================================

func TestRedisSetGet_JSONRoundTrip(t *testing.T) {
	type cachedStatus struct {
		Name  string `json:"name"`
		Alive bool   `json:"alive"`
	}

	mr, svc := setupRedisServiceTest(t)

	require.NoError(t, svc.Set("skill:lights", cachedStatus{Name: "lights", Alive: true}, time.Minute))

	var got cachedStatus
	require.NoError(t, svc.Get("skill:lights", &got))
	assert.Equal(t, cachedStatus{Name: "lights", Alive: true}, got)

	assert.Equal(t, time.Minute, mr.TTL("skill:lights"))
}

func TestRedisGetString_MissingKey(t *testing.T) {
	_, svc := setupRedisServiceTest(t)

	_, err := svc.GetString("does-not-exist")
	assert.ErrorIs(t, err, redis.Nil)
}

func TestRedisDelete(t *testing.T) {
	_, svc := setupRedisServiceTest(t)

	require.NoError(t, svc.SetString("oauth:jwks", `{"keys":[]}`, time.Hour))
	require.NoError(t, svc.Delete("oauth:jwks"))

	_, err := svc.GetString("oauth:jwks")
	assert.ErrorIs(t, err, redis.Nil)
}

func TestRedisSetString_Expires(t *testing.T) {
	mr, svc := setupRedisServiceTest(t)

	require.NoError(t, svc.SetString("ephemeral", "value", time.Minute))

	got, err := svc.GetString("ephemeral")
	require.NoError(t, err)
	assert.Equal(t, "value", got)

	mr.FastForward(2 * time.Minute)

	_, err = svc.GetString("ephemeral")
	assert.ErrorIs(t, err, redis.Nil)
}

// ============================================
// 健康检查测试
// ============================================

func TestRedisHealthCheck(t *testing.T) {
	mr, svc := setupRedisServiceTest(t)

	require.NoError(t, svc.HealthCheck())

	mr.Close()
	assert.Error(t, svc.HealthCheck())
}
