package models

// User represents web-ui accounts, covering both password login and
// OAuth-provisioned identities
type User struct {
	BaseModel
	Email          string  `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	FullName       *string `gorm:"type:varchar(255)" json:"full_name"`
	HashedPassword *string `gorm:"type:varchar(255)" json:"-"` // OAuth用户可以没有密码
	IsActive       bool    `gorm:"default:true" json:"is_active"`
	IsSuperuser    bool    `gorm:"default:false" json:"is_superuser"`
	OAuthProvider  *string `gorm:"type:varchar(50)" json:"-"`
	OAuthSubject   *string `gorm:"type:varchar(255);uniqueIndex" json:"-"` // OIDC sub声明
}
