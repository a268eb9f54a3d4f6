package model

import "time"

// User 平台用户（身份由外部 IdP 解析，这里保存映射后的内部记录）
type User struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	Username  string `gorm:"type:varchar(64);uniqueIndex;not null"`
	Email     string `gorm:"type:varchar(128);uniqueIndex;not null"`
	Password  string `gorm:"type:varchar(128);not null"` // bcrypt hash
	OrgID     string `gorm:"type:varchar(36);index:idx_user_org"`
	Role      string `gorm:"type:varchar(16);default:member"` // member, admin
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (User) TableName() string { return "users" }

// Organization 企业/组织
type Organization struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	Name      string `gorm:"type:varchar(128);uniqueIndex;not null"`
	Industry  string `gorm:"type:varchar(64);index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Organization) TableName() string { return "organizations" }
