package model

import "time"

// UseCase 工业应用案例（case study）
// 计数字段为冗余统计，与 engagement_records 通过事务同步更新
type UseCase struct {
	ID           string `gorm:"primaryKey;type:varchar(36)"`
	AuthorID     string `gorm:"type:varchar(36);index:idx_usecase_author;not null"`
	OrgID        string `gorm:"type:varchar(36);index:idx_usecase_org"`
	Title        string `gorm:"type:varchar(200);not null"`
	Summary      string `gorm:"type:text"`
	Category     string `gorm:"type:varchar(64);index:idx_usecase_category"`
	Industry     string `gorm:"type:varchar(64);index:idx_usecase_industry"`
	Technologies string `gorm:"type:text"` // 归一化后逗号分隔
	Tags         string `gorm:"type:text"`
	ROIPercent   *float64
	Views        int64 `gorm:"not null;default:0"`
	Likes        int64 `gorm:"not null;default:0"`
	Saves        int64 `gorm:"not null;default:0"`
	Comments     int64 `gorm:"not null;default:0"`
	PublishedAt  time.Time `gorm:"index:idx_usecase_published"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (UseCase) TableName() string { return "use_cases" }
