package models

// DeviceType 表示设备类型，如 light / curtain / thermostat
type DeviceType struct {
	BaseModel
	Name string `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`

	// Relations - 关联关系
	Devices []GlobalDevice `gorm:"foreignKey:DeviceTypeID" json:"devices,omitempty"` // 此类型下的设备（一对多）
}
