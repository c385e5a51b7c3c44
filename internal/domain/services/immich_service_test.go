package services

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stkr22/private-assistant-web-ui/internal/domain/models"
	"github.com/stkr22/private-assistant-web-ui/internal/infrastructure/config"
)

// setupImmichServiceTest 用httptest服务器替代Immich实例
func setupImmichServiceTest(t *testing.T, handler http.HandlerFunc) InterfaceImmichService {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewImmichService(&config.Config{
		ImmichBaseURL: server.URL,
		ImmichAPIKey:  "test-key",
	})
}

// ============================================
// 预览试跑测试
// ============================================

func TestPreviewSyncJob_NotConfigured(t *testing.T) {
	svc := NewImmichService(&config.Config{})

	_, err := svc.PreviewSyncJob(&models.ImmichSyncJob{Name: "any", Count: 5})

	assert.ErrorIs(t, err, ErrImmichNotConfigured)
}

func TestPreviewSyncJob_RandomStrategy(t *testing.T) {
	var gotPath, gotAPIKey string
	var gotBody map[string]any

	svc := setupImmichServiceTest(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAPIKey = r.Header.Get("x-api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"a1"},{"id":"a2"},{"id":"a3"}]`))
	})

	preview, err := svc.PreviewSyncJob(&models.ImmichSyncJob{
		Name:                "bedroom-frame-daily",
		Strategy:            models.SyncStrategyRandom,
		Count:               5,
		OverfetchMultiplier: 3,
	})

	require.NoError(t, err)
	assert.Equal(t, "/api/search/random", gotPath)
	assert.Equal(t, "test-key", gotAPIKey)
	// RANDOM策略不超量获取
	assert.Equal(t, float64(5), gotBody["size"])
	assert.Equal(t, 5, preview.FetchSize)
	assert.Equal(t, 3, preview.MatchedCount)
	assert.Equal(t, []string{"a1", "a2", "a3"}, preview.SampleAssetIDs)
}

func TestPreviewSyncJob_SmartOverfetches(t *testing.T) {
	var gotPath string
	var gotBody map[string]any

	svc := setupImmichServiceTest(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		items := make([]map[string]string, 0, 12)
		for i := 0; i < 12; i++ {
			items = append(items, map[string]string{"id": fmt.Sprintf("asset-%02d", i)})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"assets": map[string]any{"total": 40, "count": 12, "items": items},
		})
	})

	query := "mountain sunset"
	preview, err := svc.PreviewSyncJob(&models.ImmichSyncJob{
		Name:                "hallway-smart",
		Strategy:            models.SyncStrategySmart,
		Query:               &query,
		Count:               4,
		OverfetchMultiplier: 3,
	})

	require.NoError(t, err)
	assert.Equal(t, "/api/search/smart", gotPath)
	assert.Equal(t, "mountain sunset", gotBody["query"])
	// SMART策略按倍数超量获取，给下游颜色过滤留余量
	assert.Equal(t, float64(12), gotBody["size"])
	assert.Equal(t, 12, preview.FetchSize)
	assert.Equal(t, 4, preview.RequestedCount)
	assert.Equal(t, 40, preview.MatchedCount)
	assert.Len(t, preview.SampleAssetIDs, PreviewSampleLimit)

	_, hasQuery := gotBody["albumIds"]
	assert.False(t, hasQuery, "未设置的过滤条件不应出现在请求体里")
}

func TestPreviewSyncJob_ForwardsFilters(t *testing.T) {
	var gotBody map[string]any

	svc := setupImmichServiceTest(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	})

	favorite := true
	city := "Berlin"
	_, err := svc.PreviewSyncJob(&models.ImmichSyncJob{
		Name:       "filtered-job",
		Strategy:   models.SyncStrategyRandom,
		Count:      5,
		AlbumIDs:   []byte(`["album-1","album-2"]`),
		IsFavorite: &favorite,
		City:       &city,
	})

	require.NoError(t, err)
	assert.Equal(t, []any{"album-1", "album-2"}, gotBody["albumIds"])
	assert.Equal(t, true, gotBody["isFavorite"])
	assert.Equal(t, "Berlin", gotBody["city"])
}

func TestPreviewSyncJob_UpstreamError(t *testing.T) {
	svc := setupImmichServiceTest(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := svc.PreviewSyncJob(&models.ImmichSyncJob{
		Name:     "broken-job",
		Strategy: models.SyncStrategyRandom,
		Count:    5,
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}
