package services

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stkr22/private-assistant-web-ui/internal/domain/models"
	"github.com/stkr22/private-assistant-web-ui/internal/infrastructure/config"
)

// 设备类型相关的业务错误
var (
	ErrDeviceTypeNotFound  = errors.New("设备类型不存在")
	ErrDeviceTypeNameTaken = errors.New("设备类型已存在")
	ErrDeviceTypeInUse     = errors.New("设备类型正在被设备使用")
)

// InterfaceDeviceTypeService 定义设备类型服务接口
type InterfaceDeviceTypeService interface {
	GetAllDeviceTypes(page, pageSize int) ([]models.DeviceType, int64, error)
	GetDeviceTypeByID(id uuid.UUID) (*models.DeviceType, error)
	CreateDeviceType(deviceType *models.DeviceType) error
	UpdateDeviceType(id uuid.UUID, updates map[string]interface{}) (*models.DeviceType, error)
	DeleteDeviceType(id uuid.UUID) error
}

// DeviceTypeService 提供设备类型相关的服务
type DeviceTypeService struct {
	DB     *gorm.DB
	Config *config.Config
}

// NewDeviceTypeService 创建一个新的设备类型服务
func NewDeviceTypeService(db *gorm.DB, cfg *config.Config) InterfaceDeviceTypeService {
	return &DeviceTypeService{
		DB:     db,
		Config: cfg,
	}
}

// 1 GetAllDeviceTypes 获取所有设备类型，支持分页，按名称排序
func (s *DeviceTypeService) GetAllDeviceTypes(page, pageSize int) ([]models.DeviceType, int64, error) {
	var deviceTypes []models.DeviceType
	var total int64

	// 获取总数
	if err := s.DB.Model(&models.DeviceType{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// 分页查询
	offset := (page - 1) * pageSize
	if err := s.DB.Order("name").Limit(pageSize).Offset(offset).Find(&deviceTypes).Error; err != nil {
		return nil, 0, err
	}

	return deviceTypes, total, nil
}

// 2 GetDeviceTypeByID 根据ID获取设备类型
func (s *DeviceTypeService) GetDeviceTypeByID(id uuid.UUID) (*models.DeviceType, error) {
	var deviceType models.DeviceType
	if err := s.DB.First(&deviceType, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDeviceTypeNotFound
		}
		return nil, err
	}
	return &deviceType, nil
}

// 3 CreateDeviceType 创建新设备类型
func (s *DeviceTypeService) CreateDeviceType(deviceType *models.DeviceType) error {
	// 验证名称唯一性
	var count int64
	if err := s.DB.Model(&models.DeviceType{}).Where("name = ?", deviceType.Name).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrDeviceTypeNameTaken
	}

	return s.DB.Create(deviceType).Error
}

// 4 UpdateDeviceType 更新设备类型
func (s *DeviceTypeService) UpdateDeviceType(id uuid.UUID, updates map[string]interface{}) (*models.DeviceType, error) {
	deviceType, err := s.GetDeviceTypeByID(id)
	if err != nil {
		return nil, err
	}

	// 如果更新名称，需要检查唯一性
	if name, ok := updates["name"].(string); ok && name != deviceType.Name {
		var count int64
		if err := s.DB.Model(&models.DeviceType{}).Where("name = ? AND id != ?", name, id).Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, ErrDeviceTypeNameTaken
		}
	}

	if err := s.DB.Model(deviceType).Updates(updates).Error; err != nil {
		return nil, err
	}

	return s.GetDeviceTypeByID(id)
}

// 5 DeleteDeviceType 删除设备类型，被设备引用时拒绝删除
func (s *DeviceTypeService) DeleteDeviceType(id uuid.UUID) error {
	deviceType, err := s.GetDeviceTypeByID(id)
	if err != nil {
		return err
	}

	// 检查是否有设备引用此类型
	var deviceCount int64
	if err := s.DB.Model(&models.GlobalDevice{}).Where("device_type_id = ?", id).Count(&deviceCount).Error; err != nil {
		return err
	}
	if deviceCount > 0 {
		return ErrDeviceTypeInUse
	}

	return s.DB.Delete(deviceType).Error
}
