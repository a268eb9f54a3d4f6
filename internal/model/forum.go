package model

import "time"

// Topic 论坛主题帖
type Topic struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	AuthorID  string `gorm:"type:varchar(36);index:idx_topic_author;not null"`
	Title     string `gorm:"type:varchar(200);not null"`
	Body      string `gorm:"type:text"`
	Category  string `gorm:"type:varchar(64);index:idx_topic_category"`
	Views     int64  `gorm:"not null;default:0"`
	Likes     int64  `gorm:"not null;default:0"`
	Saves     int64  `gorm:"not null;default:0"`
	Replies   int64  `gorm:"not null;default:0"`
	CreatedAt time.Time `gorm:"index:idx_topic_created"`
	UpdatedAt time.Time
}

func (Topic) TableName() string { return "topics" }

// Reply 主题下的回帖
type Reply struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	TopicID   string `gorm:"type:varchar(36);index:idx_reply_topic;not null"`
	AuthorID  string `gorm:"type:varchar(36);index:idx_reply_author;not null"`
	Body      string `gorm:"type:text"`
	Views     int64  `gorm:"not null;default:0"`
	Likes     int64  `gorm:"not null;default:0"`
	Saves     int64  `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Reply) TableName() string { return "replies" }
