package models

// Image represents picture-display images stored in MinIO
type Image struct {
	BaseModel
	SourceName             string  `gorm:"type:varchar(255);not null" json:"source_name"` // 上传时的原始文件名
	StoragePath            string  `gorm:"type:varchar(512);not null" json:"storage_path"`
	Title                  *string `gorm:"type:varchar(255)" json:"title"`
	Description            *string `gorm:"type:text" json:"description"`
	Tags                   *string `gorm:"type:varchar(512)" json:"tags"` // 逗号分隔
	DisplayDurationSeconds int     `gorm:"default:3600" json:"display_duration_seconds"`
	Priority               int     `gorm:"default:0" json:"priority"`
}
