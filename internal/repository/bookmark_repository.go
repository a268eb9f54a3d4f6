package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/sme-community/internal/model"
)

type BookmarkRepository interface {
	// Create 幂等插入收藏快照
	Create(ctx context.Context, b *model.Bookmark) error
	Delete(ctx context.Context, userID, entityType, entityID string) error
	ListByUser(ctx context.Context, userID string, offset, limit int) ([]*model.Bookmark, error)
	WithTx(tx *gorm.DB) BookmarkRepository
}

type bookmarkRepository struct {
	db *gorm.DB
}

func NewBookmarkRepository(db *gorm.DB) BookmarkRepository { return &bookmarkRepository{db: db} }

func (r *bookmarkRepository) WithTx(tx *gorm.DB) BookmarkRepository {
	return &bookmarkRepository{db: tx}
}

func (r *bookmarkRepository) Create(ctx context.Context, b *model.Bookmark) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(b).Error
}

func (r *bookmarkRepository) Delete(ctx context.Context, userID, entityType, entityID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND entity_type = ? AND entity_id = ?", userID, entityType, entityID).
		Delete(&model.Bookmark{}).Error
}

func (r *bookmarkRepository) ListByUser(ctx context.Context, userID string, offset, limit int) ([]*model.Bookmark, error) {
	var res []*model.Bookmark
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&res).Error
	return res, err
}
