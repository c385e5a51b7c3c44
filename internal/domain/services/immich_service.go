package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"gorm.io/datatypes"

	"github.com/stkr22/private-assistant-web-ui/internal/domain/models"
	"github.com/stkr22/private-assistant-web-ui/internal/infrastructure/config"
	"github.com/stkr22/private-assistant-web-ui/pkg/logger"
)

// PreviewSampleLimit 预览结果中返回的资产ID上限
const PreviewSampleLimit = 10

// Immich相关的业务错误
var (
	ErrImmichNotConfigured = errors.New("未配置Immich服务地址")
)

// ImmichAsset Immich资产摘要
type ImmichAsset struct {
	ID               string `json:"id"`
	OriginalFileName string `json:"originalFileName,omitempty"`
}

// smartSearchResponse Immich智能搜索响应
type smartSearchResponse struct {
	Assets struct {
		Total int           `json:"total"`
		Count int           `json:"count"`
		Items []ImmichAsset `json:"items"`
	} `json:"assets"`
}

// SyncJobPreview 同步任务预览结果
type SyncJobPreview struct {
	Strategy       models.SyncStrategy `json:"strategy"`
	RequestedCount int                 `json:"requested_count"`
	FetchSize      int                 `json:"fetch_size"`
	MatchedCount   int                 `json:"matched_count"`
	SampleAssetIDs []string            `json:"sample_asset_ids"`
}

// InterfaceImmichService 定义Immich桥接服务接口
type InterfaceImmichService interface {
	PreviewSyncJob(job *models.ImmichSyncJob) (*SyncJobPreview, error)
}

// ImmichService 提供Immich图库查询相关的服务
type ImmichService struct {
	Client *resty.Client
	Config *config.Config
}

// NewImmichService 创建一个新的Immich桥接服务
func NewImmichService(cfg *config.Config) InterfaceImmichService {
	client := resty.New().
		SetBaseURL(cfg.ImmichBaseURL).
		SetTimeout(30 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("x-api-key", cfg.ImmichAPIKey)

	return &ImmichService{
		Client: client,
		Config: cfg,
	}
}

// 1 PreviewSyncJob 按任务定义构造搜索请求并试跑，返回命中数量和资产ID样本
// 颜色评分过滤由相框技能自己执行，这里只负责查询参数化
func (s *ImmichService) PreviewSyncJob(job *models.ImmichSyncJob) (*SyncJobPreview, error) {
	if s.Config.ImmichBaseURL == "" {
		return nil, ErrImmichNotConfigured
	}

	fetchSize := job.Count
	if job.Strategy == models.SyncStrategySmart {
		// SMART策略超量获取，留给下游颜色过滤筛选余量
		fetchSize = job.Count * job.OverfetchMultiplier
	}

	var assets []ImmichAsset
	var total int
	var err error
	if job.Strategy == models.SyncStrategySmart {
		assets, total, err = s.smartSearch(job, fetchSize)
	} else {
		assets, total, err = s.randomSearch(job, fetchSize)
	}
	if err != nil {
		return nil, err
	}

	sample := make([]string, 0, PreviewSampleLimit)
	for _, asset := range assets {
		if len(sample) >= PreviewSampleLimit {
			break
		}
		sample = append(sample, asset.ID)
	}

	return &SyncJobPreview{
		Strategy:       job.Strategy,
		RequestedCount: job.Count,
		FetchSize:      fetchSize,
		MatchedCount:   total,
		SampleAssetIDs: sample,
	}, nil
}

// smartSearch 调用Immich CLIP语义搜索
func (s *ImmichService) smartSearch(job *models.ImmichSyncJob, size int) ([]ImmichAsset, int, error) {
	body := s.buildSearchFilters(job)
	if job.Query != nil {
		body["query"] = *job.Query
	}
	body["size"] = size

	logger.Info("调用Immich智能搜索: job=%s size=%d", job.Name, size)

	var result smartSearchResponse
	resp, err := s.Client.R().
		SetBody(body).
		SetResult(&result).
		Post("/api/search/smart")
	if err != nil {
		return nil, 0, fmt.Errorf("failed to call immich smart search: %w", err)
	}
	if resp.IsError() {
		return nil, 0, fmt.Errorf("immich smart search returned status %d", resp.StatusCode())
	}

	return result.Assets.Items, result.Assets.Total, nil
}

// randomSearch 调用Immich随机搜索，响应为资产数组
func (s *ImmichService) randomSearch(job *models.ImmichSyncJob, size int) ([]ImmichAsset, int, error) {
	body := s.buildSearchFilters(job)
	body["size"] = size

	logger.Info("调用Immich随机搜索: job=%s size=%d", job.Name, size)

	var assets []ImmichAsset
	resp, err := s.Client.R().
		SetBody(body).
		SetResult(&assets).
		Post("/api/search/random")
	if err != nil {
		return nil, 0, fmt.Errorf("failed to call immich random search: %w", err)
	}
	if resp.IsError() {
		return nil, 0, fmt.Errorf("immich random search returned status %d", resp.StatusCode())
	}

	return assets, len(assets), nil
}

// buildSearchFilters 把任务的过滤条件转换成Immich搜索请求体
func (s *ImmichService) buildSearchFilters(job *models.ImmichSyncJob) map[string]any {
	body := map[string]any{}

	if ids := jsonStringList(job.AlbumIDs); len(ids) > 0 {
		body["albumIds"] = ids
	}
	if ids := jsonStringList(job.PersonIDs); len(ids) > 0 {
		body["personIds"] = ids
	}
	if ids := jsonStringList(job.TagIDs); len(ids) > 0 {
		body["tagIds"] = ids
	}
	if job.IsFavorite != nil {
		body["isFavorite"] = *job.IsFavorite
	}
	if job.City != nil && *job.City != "" {
		body["city"] = *job.City
	}
	if job.State != nil && *job.State != "" {
		body["state"] = *job.State
	}
	if job.Country != nil && *job.Country != "" {
		body["country"] = *job.Country
	}
	if job.TakenAfter != nil {
		body["takenAfter"] = job.TakenAfter.Format(time.RFC3339)
	}
	if job.TakenBefore != nil {
		body["takenBefore"] = job.TakenBefore.Format(time.RFC3339)
	}
	if job.Rating != nil {
		body["rating"] = *job.Rating
	}

	return body
}

// jsonStringList 解析JSON列字段为字符串切片，解析失败返回空
func jsonStringList(data datatypes.JSON) []string {
	if len(data) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return nil
	}
	return list
}
