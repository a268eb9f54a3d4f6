package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/d60-Lab/sme-community/internal/model"
)

var (
	ErrUnknownEntityType = errors.New("unknown entity type")
	ErrUnknownKind       = errors.New("unknown engagement kind")
)

// Counts 单个实体的冗余计数快照
type Counts struct {
	Views    int64 `json:"views"`
	Likes    int64 `json:"likes"`
	Saves    int64 `json:"saves"`
	Comments int64 `json:"comments"`
}

// CounterRepository 实体冗余计数仓储
// 增减是单行原子 update，减到 0 封底（不出现负数）
type CounterRepository interface {
	Increment(ctx context.Context, entityType, entityID, kind string) error
	Decrement(ctx context.Context, entityType, entityID, kind string) error
	GetCounts(ctx context.Context, entityType, entityID string) (Counts, error)
	// SetCounts 对账用：用成员记录统计值覆盖冗余计数
	SetCounts(ctx context.Context, entityType, entityID string, c Counts) error
	WithTx(tx *gorm.DB) CounterRepository
}

type counterRepository struct {
	db *gorm.DB
}

func NewCounterRepository(db *gorm.DB) CounterRepository {
	return &counterRepository{db: db}
}

func (r *counterRepository) WithTx(tx *gorm.DB) CounterRepository {
	return &counterRepository{db: tx}
}

func tableFor(entityType string) (string, error) {
	switch entityType {
	case model.EntityUseCase:
		return model.UseCase{}.TableName(), nil
	case model.EntityTopic:
		return model.Topic{}.TableName(), nil
	case model.EntityReply:
		return model.Reply{}.TableName(), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownEntityType, entityType)
	}
}

// commentColumn 评论/回帖计数列名随实体类型而不同
func commentColumn(entityType string) string {
	if entityType == model.EntityTopic {
		return "replies"
	}
	return "comments"
}

func columnFor(entityType, kind string) (string, error) {
	switch kind {
	case model.KindView:
		return "views", nil
	case model.KindLike:
		return "likes", nil
	case model.KindSave:
		return "saves", nil
	case "comment":
		if entityType == model.EntityReply {
			return "", fmt.Errorf("%w: reply has no comment counter", ErrUnknownKind)
		}
		return commentColumn(entityType), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

func (r *counterRepository) Increment(ctx context.Context, entityType, entityID, kind string) error {
	table, err := tableFor(entityType)
	if err != nil {
		return err
	}
	col, err := columnFor(entityType, kind)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Table(table).
		Where("id = ?", entityID).
		Update(col, gorm.Expr(col+" + 1")).Error
}

func (r *counterRepository) Decrement(ctx context.Context, entityType, entityID, kind string) error {
	table, err := tableFor(entityType)
	if err != nil {
		return err
	}
	col, err := columnFor(entityType, kind)
	if err != nil {
		return err
	}
	// 零封底：计数已为 0 时减操作是 no-op
	return r.db.WithContext(ctx).
		Table(table).
		Where("id = ? AND "+col+" > 0", entityID).
		Update(col, gorm.Expr(col+" - 1")).Error
}

func (r *counterRepository) GetCounts(ctx context.Context, entityType, entityID string) (Counts, error) {
	var c Counts
	table, err := tableFor(entityType)
	if err != nil {
		return c, err
	}
	sel := "views, likes, saves, " + commentColumn(entityType) + " AS comments"
	if entityType == model.EntityReply {
		sel = "views, likes, saves, 0 AS comments"
	}
	err = r.db.WithContext(ctx).
		Table(table).
		Select(sel).
		Where("id = ?", entityID).
		Take(&c).Error
	return c, err
}

func (r *counterRepository) SetCounts(ctx context.Context, entityType, entityID string, c Counts) error {
	table, err := tableFor(entityType)
	if err != nil {
		return err
	}
	updates := map[string]any{"views": c.Views, "likes": c.Likes, "saves": c.Saves}
	if entityType != model.EntityReply {
		updates[commentColumn(entityType)] = c.Comments
	}
	return r.db.WithContext(ctx).
		Table(table).
		Where("id = ?", entityID).
		Updates(updates).Error
}
