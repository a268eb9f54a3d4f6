package service

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/sme-community/internal/model"
	"github.com/d60-Lab/sme-community/internal/repository"
	"github.com/d60-Lab/sme-community/pkg/logger"
)

const reconcilePageSize = 200

// StatsService 运维兜底：用成员记录重算冗余计数
// 记录写成功但计数写失败（历史上的部分失败）会在这里被纠正
type StatsService interface {
	// RecalculateEntity 重算单个实体的计数
	RecalculateEntity(ctx context.Context, entityType, entityID string) (repository.Counts, error)
	// RecalculateAll 全量对账，返回处理的实体数
	RecalculateAll(ctx context.Context) (int, error)
}

type statsService struct {
	db          *gorm.DB
	engageRepo  repository.EngagementRepository
	counterRepo repository.CounterRepository
	forumRepo   repository.ForumRepository
}

func NewStatsService(db *gorm.DB, engageRepo repository.EngagementRepository, counterRepo repository.CounterRepository, forumRepo repository.ForumRepository) StatsService {
	return &statsService{db: db, engageRepo: engageRepo, counterRepo: counterRepo, forumRepo: forumRepo}
}

func (s *statsService) RecalculateEntity(ctx context.Context, entityType, entityID string) (repository.Counts, error) {
	var c repository.Counts
	var err error
	if c.Views, err = s.engageRepo.CountByKind(ctx, entityType, entityID, model.KindView); err != nil {
		return c, err
	}
	if c.Likes, err = s.engageRepo.CountByKind(ctx, entityType, entityID, model.KindLike); err != nil {
		return c, err
	}
	if c.Saves, err = s.engageRepo.CountByKind(ctx, entityType, entityID, model.KindSave); err != nil {
		return c, err
	}

	// 评论/回帖计数来自内容表而非互动记录
	switch entityType {
	case model.EntityTopic:
		if err = s.db.WithContext(ctx).Model(&model.Reply{}).
			Where("topic_id = ?", entityID).Count(&c.Comments).Error; err != nil {
			return c, err
		}
	default:
		existing, err := s.counterRepo.GetCounts(ctx, entityType, entityID)
		if err != nil {
			return c, mapNotFound(err)
		}
		c.Comments = existing.Comments
	}

	if err := s.counterRepo.SetCounts(ctx, entityType, entityID, c); err != nil {
		return c, err
	}
	return c, nil
}

func (s *statsService) RecalculateAll(ctx context.Context) (int, error) {
	total := 0

	n, err := s.recalcTable(ctx, model.EntityUseCase, model.UseCase{}.TableName())
	if err != nil {
		return total, err
	}
	total += n

	n, err = s.recalcTable(ctx, model.EntityTopic, model.Topic{}.TableName())
	if err != nil {
		return total, err
	}
	total += n

	n, err = s.recalcTable(ctx, model.EntityReply, model.Reply{}.TableName())
	if err != nil {
		return total, err
	}
	total += n

	logger.Info("stats reconciliation finished", zap.Int("entities", total))
	return total, nil
}

func (s *statsService) recalcTable(ctx context.Context, entityType, table string) (int, error) {
	count := 0
	offset := 0
	for {
		var ids []string
		if err := s.db.WithContext(ctx).
			Table(table).
			Select("id").
			Order("id").
			Offset(offset).Limit(reconcilePageSize).
			Scan(&ids).Error; err != nil {
			return count, err
		}
		if len(ids) == 0 {
			return count, nil
		}
		for _, id := range ids {
			if _, err := s.RecalculateEntity(ctx, entityType, id); err != nil {
				logger.Warn("recalculate entity failed",
					zap.String("entity_type", entityType), zap.String("entity_id", id), zap.Error(err))
				continue
			}
			count++
		}
		if len(ids) < reconcilePageSize {
			return count, nil
		}
		offset += reconcilePageSize
	}
}
