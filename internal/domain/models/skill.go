package models

import "time"

// Skill 表示助手生态中注册的技能进程，由技能自身通过心跳维护LastSeen
type Skill struct {
	BaseModel
	Name     string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	LastSeen *time.Time `json:"last_seen"` // 最近一次心跳时间，nil表示从未上报

	// Relations - 关联关系
	Devices []GlobalDevice `gorm:"foreignKey:SkillID" json:"devices,omitempty"` // 此技能管理的设备（一对多）
}
