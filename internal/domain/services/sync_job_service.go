package services

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stkr22/private-assistant-web-ui/internal/domain/models"
	"github.com/stkr22/private-assistant-web-ui/internal/infrastructure/config"
)

// 同步任务相关的业务错误
var (
	ErrSyncJobNotFound      = errors.New("同步任务不存在")
	ErrSyncJobNameTaken     = errors.New("同名同步任务已存在")
	ErrSyncJobQueryRequired = errors.New("SMART策略必须提供查询语句")
)

// InterfaceSyncJobService 定义Immich同步任务服务接口
type InterfaceSyncJobService interface {
	GetAllSyncJobs(page, pageSize int) ([]models.ImmichSyncJob, int64, error)
	GetSyncJobByID(id uuid.UUID) (*models.ImmichSyncJob, error)
	CreateSyncJob(job *models.ImmichSyncJob) error
	UpdateSyncJob(id uuid.UUID, updates map[string]interface{}) (*models.ImmichSyncJob, error)
	DeleteSyncJob(id uuid.UUID) error
}

// SyncJobService 提供Immich同步任务相关的服务
type SyncJobService struct {
	DB     *gorm.DB
	Config *config.Config
}

// NewSyncJobService 创建一个新的同步任务服务
func NewSyncJobService(db *gorm.DB, cfg *config.Config) InterfaceSyncJobService {
	return &SyncJobService{
		DB:     db,
		Config: cfg,
	}
}

// 1 GetAllSyncJobs 获取所有同步任务，按名称排序分页
func (s *SyncJobService) GetAllSyncJobs(page, pageSize int) ([]models.ImmichSyncJob, int64, error) {
	var jobs []models.ImmichSyncJob
	var total int64

	if err := s.DB.Model(&models.ImmichSyncJob{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := s.DB.Order("name").Limit(pageSize).Offset(offset).
		Find(&jobs).Error; err != nil {
		return nil, 0, err
	}

	return jobs, total, nil
}

// 2 GetSyncJobByID 根据ID获取同步任务
func (s *SyncJobService) GetSyncJobByID(id uuid.UUID) (*models.ImmichSyncJob, error) {
	var job models.ImmichSyncJob
	if err := s.DB.First(&job, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSyncJobNotFound
		}
		return nil, err
	}
	return &job, nil
}

// 3 CreateSyncJob 创建新同步任务，校验名称唯一、目标设备存在和SMART查询
func (s *SyncJobService) CreateSyncJob(job *models.ImmichSyncJob) error {
	if job.Strategy == "" {
		job.Strategy = models.SyncStrategyRandom
	}
	if job.Strategy == models.SyncStrategySmart && (job.Query == nil || *job.Query == "") {
		return ErrSyncJobQueryRequired
	}

	// 检查名称唯一性
	var count int64
	if err := s.DB.Model(&models.ImmichSyncJob{}).Where("name = ?", job.Name).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrSyncJobNameTaken
	}

	// 检查目标设备存在
	if err := s.DB.Model(&models.GlobalDevice{}).Where("id = ?", job.TargetDeviceID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrDeviceNotFound
	}

	return s.DB.Create(job).Error
}

// 4 UpdateSyncJob 更新同步任务，合并后的策略和查询仍需满足SMART约束
func (s *SyncJobService) UpdateSyncJob(id uuid.UUID, updates map[string]interface{}) (*models.ImmichSyncJob, error) {
	job, err := s.GetSyncJobByID(id)
	if err != nil {
		return nil, err
	}

	// 名称变更时检查唯一性
	if name, ok := updates["name"].(string); ok && name != job.Name {
		var count int64
		if err := s.DB.Model(&models.ImmichSyncJob{}).
			Where("name = ? AND id != ?", name, id).Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, ErrSyncJobNameTaken
		}
	}

	// 目标设备变更时检查存在
	if deviceID, ok := updates["target_device_id"].(uuid.UUID); ok {
		var count int64
		if err := s.DB.Model(&models.GlobalDevice{}).Where("id = ?", deviceID).Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, ErrDeviceNotFound
		}
	}

	// 数据库不强制SMART查询约束，这里用合并后的值校验
	newStrategy := job.Strategy
	if v, ok := updates["strategy"].(models.SyncStrategy); ok {
		newStrategy = v
	}
	newQuery := job.Query
	if v, ok := updates["query"].(*string); ok {
		newQuery = v
	}
	if newStrategy == models.SyncStrategySmart && (newQuery == nil || *newQuery == "") {
		return nil, ErrSyncJobQueryRequired
	}

	if err := s.DB.Model(job).Updates(updates).Error; err != nil {
		return nil, err
	}

	return s.GetSyncJobByID(id)
}

// 5 DeleteSyncJob 删除同步任务
func (s *SyncJobService) DeleteSyncJob(id uuid.UUID) error {
	job, err := s.GetSyncJobByID(id)
	if err != nil {
		return err
	}
	return s.DB.Delete(job).Error
}
