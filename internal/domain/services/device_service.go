package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/stkr22/private-assistant-web-ui/internal/domain/models"
	"github.com/stkr22/private-assistant-web-ui/internal/infrastructure/config"
	"github.com/stkr22/private-assistant-web-ui/pkg/logger"
)

// 设备相关的业务错误
var (
	ErrDeviceNotFound = errors.New("设备不存在")
)

// InterfaceDeviceService 定义设备服务接口
type InterfaceDeviceService interface {
	GetAllDevices(page, pageSize int, search string) ([]models.GlobalDevice, int64, error)
	GetDeviceByID(id uuid.UUID) (*models.GlobalDevice, error)
	CreateDevice(device *models.GlobalDevice) error
	UpdateDevice(id uuid.UUID, updates map[string]interface{}) (*models.GlobalDevice, error)
	DeleteDevice(id uuid.UUID) error
	ExportDevices() ([]byte, error)
}

// DeviceService 提供全局设备注册表相关的服务
type DeviceService struct {
	DB     *gorm.DB
	Config *config.Config
	MQTT   InterfaceMQTTService
}

// NewDeviceService 创建一个新的设备服务
func NewDeviceService(db *gorm.DB, cfg *config.Config, mqttService InterfaceMQTTService) InterfaceDeviceService {
	return &DeviceService{
		DB:     db,
		Config: cfg,
		MQTT:   mqttService,
	}
}

// 1 GetAllDevices 获取所有设备，支持分页和按名称搜索
func (s *DeviceService) GetAllDevices(page, pageSize int, search string) ([]models.GlobalDevice, int64, error) {
	var devices []models.GlobalDevice
	var total int64

	query := s.DB.Model(&models.GlobalDevice{})

	if search != "" {
		query = query.Where("name LIKE ?", "%"+search+"%")
	}

	// 获取总数
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// 分页查询，预加载关联
	offset := (page - 1) * pageSize
	if err := query.Preload("DeviceType").Preload("Room").Preload("Skill").
		Order("name").Limit(pageSize).Offset(offset).Find(&devices).Error; err != nil {
		return nil, 0, err
	}

	return devices, total, nil
}

// 2 GetDeviceByID 根据ID获取设备
func (s *DeviceService) GetDeviceByID(id uuid.UUID) (*models.GlobalDevice, error) {
	var device models.GlobalDevice
	if err := s.DB.Preload("DeviceType").Preload("Room").Preload("Skill").
		First(&device, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDeviceNotFound
		}
		return nil, err
	}
	return &device, nil
}

// 3 CreateDevice 创建新设备，校验引用的类型/房间/技能存在后发布注册表变更通知
func (s *DeviceService) CreateDevice(device *models.GlobalDevice) error {
	if err := s.validateReferences(device.DeviceTypeID, device.RoomID, device.SkillID); err != nil {
		return err
	}

	if err := s.DB.Create(device).Error; err != nil {
		return err
	}

	s.notifyDeviceUpdate(device.ID, DeviceActionCreated)
	return nil
}

// 4 UpdateDevice 更新设备信息，校验新引用后发布注册表变更通知
func (s *DeviceService) UpdateDevice(id uuid.UUID, updates map[string]interface{}) (*models.GlobalDevice, error) {
	device, err := s.GetDeviceByID(id)
	if err != nil {
		return nil, err
	}

	// 校验更新中的引用
	deviceTypeID := device.DeviceTypeID
	if v, ok := updates["device_type_id"].(uuid.UUID); ok {
		deviceTypeID = v
	}
	roomID := device.RoomID
	if v, ok := updates["room_id"].(*uuid.UUID); ok {
		roomID = v
	}
	skillID := device.SkillID
	if v, ok := updates["skill_id"].(uuid.UUID); ok {
		skillID = v
	}
	if err := s.validateReferences(deviceTypeID, roomID, skillID); err != nil {
		return nil, err
	}

	if err := s.DB.Model(device).Updates(updates).Error; err != nil {
		return nil, err
	}

	s.notifyDeviceUpdate(id, DeviceActionUpdated)
	return s.GetDeviceByID(id)
}

// 5 DeleteDevice 删除设备并发布注册表变更通知，关联的同步任务一并删除
func (s *DeviceService) DeleteDevice(id uuid.UUID) error {
	device, err := s.GetDeviceByID(id)
	if err != nil {
		return err
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		// 删除以此设备为目标的同步任务
		if err := tx.Where("target_device_id = ?", id).Delete(&models.ImmichSyncJob{}).Error; err != nil {
			return err
		}
		return tx.Delete(device).Error
	})
	if err != nil {
		return err
	}

	s.notifyDeviceUpdate(id, DeviceActionDeleted)
	return nil
}

// 6 ExportDevices 导出设备注册表为xlsx
func (s *DeviceService) ExportDevices() ([]byte, error) {
	var devices []models.GlobalDevice
	if err := s.DB.Preload("DeviceType").Preload("Room").Preload("Skill").
		Order("name").Find(&devices).Error; err != nil {
		return nil, err
	}

	f := excelize.NewFile()

	sheetName := "Devices"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	// 表头样式
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	headers := []string{"Name", "Device Type", "Room", "Skill", "Patterns", "Created At"}
	widths := []float64{25, 18, 18, 18, 50, 22}
	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
		colName, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(sheetName, colName, colName, widths[col]); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	// 写入数据，从第2行开始
	for rowIdx, device := range devices {
		row := rowIdx + 2

		roomName := ""
		if device.Room != nil {
			roomName = device.Room.Name
		}
		typeName := ""
		if device.DeviceType != nil {
			typeName = device.DeviceType.Name
		}
		skillName := ""
		if device.Skill != nil {
			skillName = device.Skill.Name
		}

		patterns := ""
		if len(device.Pattern) > 0 {
			var patternList []string
			if err := json.Unmarshal(device.Pattern, &patternList); err == nil {
				for i, p := range patternList {
					if i > 0 {
						patterns += ", "
					}
					patterns += p
				}
			}
		}

		values := []interface{}{
			device.Name,
			typeName,
			roomName,
			skillName,
			patterns,
			device.CreatedAt.Format(time.RFC3339),
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to convert coordinates: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set cell value at row %d: %w", row, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// validateReferences 校验设备引用的类型/房间/技能存在
func (s *DeviceService) validateReferences(deviceTypeID uuid.UUID, roomID *uuid.UUID, skillID uuid.UUID) error {
	var count int64
	if err := s.DB.Model(&models.DeviceType{}).Where("id = ?", deviceTypeID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrDeviceTypeNotFound
	}

	if roomID != nil {
		if err := s.DB.Model(&models.Room{}).Where("id = ?", *roomID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrRoomNotFound
		}
	}

	if err := s.DB.Model(&models.Skill{}).Where("id = ?", skillID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrSkillNotFound
	}

	return nil
}

// notifyDeviceUpdate 发布注册表变更通知，发布失败只记录日志不影响请求
func (s *DeviceService) notifyDeviceUpdate(deviceID uuid.UUID, action string) {
	if err := s.MQTT.PublishDeviceUpdate(deviceID.String(), action); err != nil {
		logger.Error("发布设备%s通知失败: %v", action, err)
	}
}
