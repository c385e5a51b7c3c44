package models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// GlobalDevice represents devices in the assistant's global registry
type GlobalDevice struct {
	BaseModel
	Name             string         `gorm:"type:varchar(255);not null" json:"name"`
	DeviceTypeID     uuid.UUID      `gorm:"type:uuid;not null" json:"device_type_id"`
	RoomID           *uuid.UUID     `gorm:"type:uuid" json:"room_id"` // 可为空，公共区域设备无房间
	SkillID          uuid.UUID      `gorm:"type:uuid;not null" json:"skill_id"`
	Pattern          datatypes.JSON `json:"pattern"`           // MQTT主题模式列表
	DeviceAttributes datatypes.JSON `json:"device_attributes"` // 自由格式的设备属性

	// Relations - 关联关系
	DeviceType *DeviceType `gorm:"foreignKey:DeviceTypeID" json:"device_type,omitempty"` // 设备类型（多对一）
	Room       *Room       `gorm:"foreignKey:RoomID" json:"room,omitempty"`              // 所在房间（多对一）
	Skill      *Skill      `gorm:"foreignKey:SkillID" json:"skill,omitempty"`            // 负责的技能（多对一）
}
