package models

// Room 表示设备所在的房间
type Room struct {
	BaseModel
	Name string `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`

	// Relations - 关联关系
	Devices []GlobalDevice `gorm:"foreignKey:RoomID" json:"devices,omitempty"` // 房间内的设备（一对多）
}
