package model

import "time"

// 实体类型
const (
	EntityUseCase = "usecase"
	EntityTopic   = "topic"
	EntityReply   = "reply"
)

// 互动类型
const (
	KindView = "view"
	KindLike = "like"
	KindSave = "save"
)

// EngagementRecord 用户-实体互动事实，用于去重与 toggle 状态判断
// 复合唯一键，保证每个 (entity, user, kind) 至多一条记录
// ux_engage = (entity_type, entity_id, user_id, kind)
type EngagementRecord struct {
	ID           string `gorm:"primaryKey;type:varchar(36)"`
	EntityType   string `gorm:"type:varchar(16);uniqueIndex:ux_engage;not null"`
	EntityID     string `gorm:"type:varchar(36);uniqueIndex:ux_engage;index:idx_engage_entity;not null"`
	UserID       string `gorm:"type:varchar(36);uniqueIndex:ux_engage;index:idx_engage_user;not null"`
	Kind         string `gorm:"type:varchar(8);uniqueIndex:ux_engage;not null"`
	LastViewedAt time.Time // 窗口内重复浏览时刷新，不重复计数
	CreatedAt    time.Time
}

func (EngagementRecord) TableName() string { return "engagement_records" }

// Bookmark 收藏记录，冗余目标标题/分类便于列表页免 join
// 快照在创建时落库，目标改名不回填
type Bookmark struct {
	ID             string `gorm:"primaryKey;type:varchar(36)"`
	UserID         string `gorm:"type:varchar(36);uniqueIndex:ux_bookmark;index:idx_bookmark_user;not null"`
	EntityType     string `gorm:"type:varchar(16);uniqueIndex:ux_bookmark;not null"`
	EntityID       string `gorm:"type:varchar(36);uniqueIndex:ux_bookmark;not null"`
	TargetTitle    string `gorm:"type:varchar(200)"`
	TargetCategory string `gorm:"type:varchar(64)"`
	CreatedAt      time.Time
}

func (Bookmark) TableName() string { return "bookmarks" }
