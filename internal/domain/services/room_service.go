package services

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stkr22/private-assistant-web-ui/internal/domain/models"
	"github.com/stkr22/private-assistant-web-ui/internal/infrastructure/config"
)

// 房间相关的业务错误
var (
	ErrRoomNotFound  = errors.New("房间不存在")
	ErrRoomNameTaken = errors.New("房间已存在")
)

// InterfaceRoomService 定义房间服务接口
type InterfaceRoomService interface {
	GetAllRooms(page, pageSize int) ([]models.Room, int64, error)
	GetRoomByID(id uuid.UUID) (*models.Room, error)
	CreateRoom(room *models.Room) error
	UpdateRoom(id uuid.UUID, updates map[string]interface{}) (*models.Room, error)
	DeleteRoom(id uuid.UUID) error
	GetRoomDevices(roomID uuid.UUID) ([]models.GlobalDevice, error)
}

// RoomService 提供房间相关的服务
type RoomService struct {
	DB     *gorm.DB
	Config *config.Config
}

// NewRoomService 创建一个新的房间服务
func NewRoomService(db *gorm.DB, cfg *config.Config) InterfaceRoomService {
	return &RoomService{
		DB:     db,
		Config: cfg,
	}
}

// 1 GetAllRooms 获取所有房间列表，支持分页，按名称排序
func (s *RoomService) GetAllRooms(page, pageSize int) ([]models.Room, int64, error) {
	var rooms []models.Room
	var total int64

	// 获取总数
	if err := s.DB.Model(&models.Room{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// 分页查询
	offset := (page - 1) * pageSize
	if err := s.DB.Order("name").Limit(pageSize).Offset(offset).Find(&rooms).Error; err != nil {
		return nil, 0, err
	}

	return rooms, total, nil
}

// 2 GetRoomByID 根据ID获取房间
func (s *RoomService) GetRoomByID(id uuid.UUID) (*models.Room, error) {
	var room models.Room
	if err := s.DB.First(&room, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return &room, nil
}

// 3 CreateRoom 创建新房间
func (s *RoomService) CreateRoom(room *models.Room) error {
	// 验证房间名称唯一性
	var count int64
	if err := s.DB.Model(&models.Room{}).Where("name = ?", room.Name).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrRoomNameTaken
	}

	return s.DB.Create(room).Error
}

// 4 UpdateRoom 更新房间信息
func (s *RoomService) UpdateRoom(id uuid.UUID, updates map[string]interface{}) (*models.Room, error) {
	room, err := s.GetRoomByID(id)
	if err != nil {
		return nil, err
	}

	// 如果更新名称，需要检查唯一性
	if name, ok := updates["name"].(string); ok && name != room.Name {
		var count int64
		if err := s.DB.Model(&models.Room{}).Where("name = ? AND id != ?", name, id).Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, ErrRoomNameTaken
		}
	}

	if err := s.DB.Model(room).Updates(updates).Error; err != nil {
		return nil, err
	}

	return s.GetRoomByID(id)
}

// 5 DeleteRoom 删除房间，房间内设备的room_id会被置空
func (s *RoomService) DeleteRoom(id uuid.UUID) error {
	room, err := s.GetRoomByID(id)
	if err != nil {
		return err
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		// 解除房间内设备的关联
		if err := tx.Model(&models.GlobalDevice{}).Where("room_id = ?", id).Update("room_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(room).Error
	})
}

// 6 GetRoomDevices 获取房间内的所有设备
func (s *RoomService) GetRoomDevices(roomID uuid.UUID) ([]models.GlobalDevice, error) {
	if _, err := s.GetRoomByID(roomID); err != nil {
		return nil, err
	}

	var devices []models.GlobalDevice
	if err := s.DB.Where("room_id = ?", roomID).Order("name").Find(&devices).Error; err != nil {
		return nil, err
	}
	return devices, nil
}
