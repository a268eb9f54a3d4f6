package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/sme-community/internal/model"
)

// EngagementRepository 互动事实仓储：(entity, user, kind) 成员关系
type EngagementRepository interface {
	// Create 幂等插入；唯一键冲突时不报错，返回是否真正插入
	Create(ctx context.Context, rec *model.EngagementRecord) (bool, error)
	// Delete 删除成员记录，返回是否删除了记录
	Delete(ctx context.Context, entityType, entityID, userID, kind string) (bool, error)
	Exists(ctx context.Context, entityType, entityID, userID, kind string) (bool, error)
	// Get 查询成员记录；不存在返回 gorm.ErrRecordNotFound
	Get(ctx context.Context, entityType, entityID, userID, kind string) (*model.EngagementRecord, error)
	// RefreshViewedAt 窗口内重复浏览刷新时间戳（不计数）
	RefreshViewedAt(ctx context.Context, id string, t time.Time) error
	// CountByKind 按 kind 统计某实体的成员记录数（用于对账）
	CountByKind(ctx context.Context, entityType, entityID, kind string) (int64, error)
	// WithTx 返回绑定到事务的仓储
	WithTx(tx *gorm.DB) EngagementRepository
}

type engagementRepository struct {
	db *gorm.DB
}

func NewEngagementRepository(db *gorm.DB) EngagementRepository {
	return &engagementRepository{db: db}
}

func (r *engagementRepository) WithTx(tx *gorm.DB) EngagementRepository {
	return &engagementRepository{db: tx}
}

func (r *engagementRepository) Create(ctx context.Context, rec *model.EngagementRecord) (bool, error) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.LastViewedAt.IsZero() {
		rec.LastViewedAt = time.Now()
	}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(rec)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *engagementRepository) Delete(ctx context.Context, entityType, entityID, userID, kind string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ? AND user_id = ? AND kind = ?", entityType, entityID, userID, kind).
		Delete(&model.EngagementRecord{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *engagementRepository) Exists(ctx context.Context, entityType, entityID, userID, kind string) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&model.EngagementRecord{}).
		Where("entity_type = ? AND entity_id = ? AND user_id = ? AND kind = ?", entityType, entityID, userID, kind).
		Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *engagementRepository) Get(ctx context.Context, entityType, entityID, userID, kind string) (*model.EngagementRecord, error) {
	var rec model.EngagementRecord
	err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ? AND user_id = ? AND kind = ?", entityType, entityID, userID, kind).
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *engagementRepository) RefreshViewedAt(ctx context.Context, id string, t time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.EngagementRecord{}).
		Where("id = ?", id).
		Update("last_viewed_at", t).Error
}

func (r *engagementRepository) CountByKind(ctx context.Context, entityType, entityID, kind string) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).
		Model(&model.EngagementRecord{}).
		Where("entity_type = ? AND entity_id = ? AND kind = ?", entityType, entityID, kind).
		Count(&cnt).Error
	return cnt, err
}
