package model

import "time"

// Notification 站内通知
type Notification struct {
	ID         string `gorm:"primaryKey;type:varchar(36)"`
	UserID     string `gorm:"type:varchar(36);index:idx_notify_user;not null"`
	Type       string `gorm:"type:varchar(32);not null"` // milestone, new_content
	EntityType string `gorm:"type:varchar(16)"`
	EntityID   string `gorm:"type:varchar(36);index:idx_notify_entity"`
	Payload    string `gorm:"type:text"`
	ReadAt     *time.Time
	CreatedAt  time.Time
}

func (Notification) TableName() string { return "notifications" }

// NotificationOutbox 内容发布事件外发盒，由投递 worker 轮询消费
type NotificationOutbox struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)"`
	EntityType  string    `gorm:"type:varchar(16);not null"`
	EntityID    string    `gorm:"type:varchar(36);uniqueIndex"`
	AuthorID    string    `gorm:"type:varchar(36);index:idx_outbox_author"`
	Event       string    `gorm:"type:varchar(32);not null"` // published
	CreatedAt   time.Time `gorm:"index"`
	Status      string    `gorm:"type:varchar(16);index"` // pending, processing, done
	ProcessedAt *time.Time
	Delivered   int64
}

func (NotificationOutbox) TableName() string { return "notification_outbox" }
