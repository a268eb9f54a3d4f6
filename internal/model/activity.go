package model

import "time"

// ActivityLog 互动行为流水（append-only，按 entity_id 路由分表）
type ActivityLog struct {
	ID         string    `gorm:"primaryKey;type:varchar(36)"`
	EntityType string    `gorm:"type:varchar(16);not null"`
	// 索引不指定名字：分表场景下由 GORM 按实际表名生成，避免跨表撞名
	EntityID   string    `gorm:"type:varchar(36);index;not null"`
	UserID     string    `gorm:"type:varchar(36);index"`
	Action     string    `gorm:"type:varchar(16);not null"` // view, like, unlike, save, unsave
	CreatedAt  time.Time `gorm:"index;not null;default:CURRENT_TIMESTAMP"`
}

// TableName 指定表名（用于单表实现；分表实现按路由生成表名）
func (ActivityLog) TableName() string {
	return "activity_logs"
}
