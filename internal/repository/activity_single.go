package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/sme-community/internal/model"
)

// SingleTableActivityRepository 单表流水实现
type SingleTableActivityRepository struct {
	db *gorm.DB
}

// NewSingleTableActivityRepository 创建单表流水仓储
func NewSingleTableActivityRepository(db *gorm.DB) ActivityRepository {
	return &SingleTableActivityRepository{db: db}
}

// Append 追加流水
func (r *SingleTableActivityRepository) Append(ctx context.Context, log *model.ActivityLog) error {
	if log.ID == "" {
		log.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Create(log).Error
}

// ListByEntity 查询某实体最近的流水
func (r *SingleTableActivityRepository) ListByEntity(ctx context.Context, entityType, entityID string, limit int) ([]*model.ActivityLog, error) {
	var logs []*model.ActivityLog
	err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

// CountByEntity 统计某实体的流水条数
func (r *SingleTableActivityRepository) CountByEntity(ctx context.Context, entityType, entityID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.ActivityLog{}).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Count(&count).Error
	return count, err
}

// Count 统计全部流水条数
func (r *SingleTableActivityRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.Model(&model.ActivityLog{}).Count(&count).Error
	return count, err
}

// InitSchema 初始化流水表
func (r *SingleTableActivityRepository) InitSchema() error {
	if err := r.db.AutoMigrate(&model.ActivityLog{}); err != nil {
		return fmt.Errorf("failed to migrate activity_logs table: %w", err)
	}
	return nil
}
