package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/sme-community/internal/model"
)

type UseCaseRepository interface {
	Create(ctx context.Context, uc *model.UseCase) error
	GetByID(ctx context.Context, id string) (*model.UseCase, error)
	List(ctx context.Context, offset, limit int) ([]*model.UseCase, error)
	// ListPublishedSince 趋势候选集：时间窗口预过滤
	ListPublishedSince(ctx context.Context, since time.Time, limit int) ([]*model.UseCase, error)
	// ListRelatedCandidates 相关推荐候选集：同分类/同行业/技术栈有交集
	ListRelatedCandidates(ctx context.Context, ref *model.UseCase, techs []string, limit int) ([]*model.UseCase, error)
	WithTx(tx *gorm.DB) UseCaseRepository
}

type useCaseRepository struct {
	db *gorm.DB
}

func NewUseCaseRepository(db *gorm.DB) UseCaseRepository { return &useCaseRepository{db: db} }

func (r *useCaseRepository) WithTx(tx *gorm.DB) UseCaseRepository {
	return &useCaseRepository{db: tx}
}

func (r *useCaseRepository) Create(ctx context.Context, uc *model.UseCase) error {
	if uc.ID == "" {
		uc.ID = uuid.New().String()
	}
	if uc.PublishedAt.IsZero() {
		uc.PublishedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(uc).Error
}

func (r *useCaseRepository) GetByID(ctx context.Context, id string) (*model.UseCase, error) {
	var uc model.UseCase
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&uc).Error; err != nil {
		return nil, err
	}
	return &uc, nil
}

func (r *useCaseRepository) List(ctx context.Context, offset, limit int) ([]*model.UseCase, error) {
	var res []*model.UseCase
	err := r.db.WithContext(ctx).
		Order("published_at DESC").
		Offset(offset).Limit(limit).
		Find(&res).Error
	return res, err
}

func (r *useCaseRepository) ListPublishedSince(ctx context.Context, since time.Time, limit int) ([]*model.UseCase, error) {
	var res []*model.UseCase
	q := r.db.WithContext(ctx).Model(&model.UseCase{})
	if !since.IsZero() {
		q = q.Where("published_at >= ?", since)
	}
	err := q.Order("published_at DESC").Limit(limit).Find(&res).Error
	return res, err
}

func (r *useCaseRepository) ListRelatedCandidates(ctx context.Context, ref *model.UseCase, techs []string, limit int) ([]*model.UseCase, error) {
	cond := r.db.Where("category = ?", ref.Category).
		Or("industry = ?", ref.Industry)
	for _, t := range techs {
		cond = cond.Or("technologies LIKE ?", "%"+t+"%")
	}
	var res []*model.UseCase
	err := r.db.WithContext(ctx).
		Where("id <> ?", ref.ID).
		Where(cond).
		Order("views DESC").
		Limit(limit).
		Find(&res).Error
	return res, err
}
