package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SyncStrategy represents the image selection strategy of a sync job
type SyncStrategy string

const (
	SyncStrategyRandom SyncStrategy = "RANDOM"
	SyncStrategySmart  SyncStrategy = "SMART" // CLIP语义搜索
)

// ImmichSyncJob represents a recurring image sync definition against Immich
type ImmichSyncJob struct {
	BaseModel
	Name                string       `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	TargetDeviceID      uuid.UUID    `gorm:"type:uuid;not null" json:"target_device_id"`
	Strategy            SyncStrategy `gorm:"type:varchar(20);default:'RANDOM'" json:"strategy"`
	Query               *string      `gorm:"type:varchar(500)" json:"query"` // SMART策略的语义查询
	Count               int          `gorm:"default:10" json:"count"`
	RandomPick          bool         `gorm:"default:false" json:"random_pick"`
	OverfetchMultiplier int          `gorm:"default:3" json:"overfetch_multiplier"`
	MinColorScore       float64      `gorm:"default:0.5" json:"min_color_score"` // 0表示禁用颜色过滤
	IsActive            bool         `gorm:"default:true" json:"is_active"`

	// Immich过滤条件，全部可选
	AlbumIDs    datatypes.JSON `json:"album_ids"`
	PersonIDs   datatypes.JSON `json:"person_ids"`
	TagIDs      datatypes.JSON `json:"tag_ids"`
	IsFavorite  *bool          `json:"is_favorite"`
	City        *string        `gorm:"type:varchar(255)" json:"city"`
	State       *string        `gorm:"type:varchar(255)" json:"state"`
	Country     *string        `gorm:"type:varchar(255)" json:"country"`
	TakenAfter  *time.Time     `json:"taken_after"`
	TakenBefore *time.Time     `json:"taken_before"`
	Rating      *int           `json:"rating"`

	// Relations - 关联关系
	TargetDevice *GlobalDevice `gorm:"foreignKey:TargetDeviceID" json:"target_device,omitempty"` // 同步目标设备（多对一）
}
