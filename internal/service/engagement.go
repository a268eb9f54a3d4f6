package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/sme-community/internal/cache"
	"github.com/d60-Lab/sme-community/internal/model"
	"github.com/d60-Lab/sme-community/internal/repository"
	"github.com/d60-Lab/sme-community/pkg/logger"
)

var (
	ErrEntityNotFound = errors.New("entity not found")
	ErrAnonymous      = errors.New("authenticated user required")
)

// TopicViewWindow 论坛主题的浏览去重窗口；回帖与案例为无限窗口（只计首次）
const TopicViewWindow = time.Hour

// 点赞里程碑，达到时给作者发通知
var likeMilestones = map[int64]bool{10: true, 50: true, 100: true}

// ToggleResult toggle 操作结果
type ToggleResult struct {
	Active bool  `json:"active"`
	Count  int64 `json:"count"`
}

// ViewResult 浏览计数结果
type ViewResult struct {
	Counted bool `json:"counted"`
}

// EngagementService 互动核心：toggle 点赞/收藏、浏览去重计数、计数读取
type EngagementService interface {
	ToggleLike(ctx context.Context, entityType, entityID, userID string) (*ToggleResult, error)
	ToggleSave(ctx context.Context, entityType, entityID, userID string) (*ToggleResult, error)
	RecordView(ctx context.Context, entityType, entityID, viewerID string) (*ViewResult, error)
	GetCounts(ctx context.Context, entityType, entityID string) (repository.Counts, error)
}

type engagementService struct {
	db           *gorm.DB
	engageRepo   repository.EngagementRepository
	counterRepo  repository.CounterRepository
	bookmarkRepo repository.BookmarkRepository
	usecaseRepo  repository.UseCaseRepository
	forumRepo    repository.ForumRepository
	activityRepo repository.ActivityRepository
	viewGate     *cache.ViewGate
	notifier     *MilestoneNotifier
}

func NewEngagementService(
	db *gorm.DB,
	engageRepo repository.EngagementRepository,
	counterRepo repository.CounterRepository,
	bookmarkRepo repository.BookmarkRepository,
	usecaseRepo repository.UseCaseRepository,
	forumRepo repository.ForumRepository,
	activityRepo repository.ActivityRepository,
	viewGate *cache.ViewGate,
	notifier *MilestoneNotifier,
) EngagementService {
	return &engagementService{
		db:           db,
		engageRepo:   engageRepo,
		counterRepo:  counterRepo,
		bookmarkRepo: bookmarkRepo,
		usecaseRepo:  usecaseRepo,
		forumRepo:    forumRepo,
		activityRepo: activityRepo,
		viewGate:     viewGate,
		notifier:     notifier,
	}
}

// entityMeta 实体元信息（作者与收藏快照字段）
type entityMeta struct {
	AuthorID string
	Title    string
	Category string
}

func (s *engagementService) lookupEntity(ctx context.Context, entityType, entityID string) (*entityMeta, error) {
	switch entityType {
	case model.EntityUseCase:
		uc, err := s.usecaseRepo.GetByID(ctx, entityID)
		if err != nil {
			return nil, mapNotFound(err)
		}
		return &entityMeta{AuthorID: uc.AuthorID, Title: uc.Title, Category: uc.Category}, nil
	case model.EntityTopic:
		t, err := s.forumRepo.GetTopic(ctx, entityID)
		if err != nil {
			return nil, mapNotFound(err)
		}
		return &entityMeta{AuthorID: t.AuthorID, Title: t.Title, Category: t.Category}, nil
	case model.EntityReply:
		rep, err := s.forumRepo.GetReply(ctx, entityID)
		if err != nil {
			return nil, mapNotFound(err)
		}
		return &entityMeta{AuthorID: rep.AuthorID}, nil
	default:
		return nil, repository.ErrUnknownEntityType
	}
}

func mapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrEntityNotFound
	}
	return err
}

func (s *engagementService) ToggleLike(ctx context.Context, entityType, entityID, userID string) (*ToggleResult, error) {
	return s.toggle(ctx, entityType, entityID, userID, model.KindLike, nil)
}

func (s *engagementService) ToggleSave(ctx context.Context, entityType, entityID, userID string) (*ToggleResult, error) {
	meta, err := s.lookupEntity(ctx, entityType, entityID)
	if err != nil {
		return nil, err
	}
	return s.toggle(ctx, entityType, entityID, userID, model.KindSave, meta)
}

// toggle 成员记录与冗余计数在同一事务内翻转：
// 幂等插入成功 → 置为 active 并加一；冲突 → 删除记录并减一。
// 唯一键 + 事务保证并发 toggle 不会重复计数。
func (s *engagementService) toggle(ctx context.Context, entityType, entityID, userID, kind string, meta *entityMeta) (*ToggleResult, error) {
	if userID == "" {
		return nil, ErrAnonymous
	}
	if meta == nil {
		var err error
		if meta, err = s.lookupEntity(ctx, entityType, entityID); err != nil {
			return nil, err
		}
	}

	var active bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		engage := s.engageRepo.WithTx(tx)
		counters := s.counterRepo.WithTx(tx)

		created, err := engage.Create(ctx, &model.EngagementRecord{
			EntityType: entityType,
			EntityID:   entityID,
			UserID:     userID,
			Kind:       kind,
		})
		if err != nil {
			return err
		}
		if created {
			active = true
			if err := counters.Increment(ctx, entityType, entityID, kind); err != nil {
				return err
			}
			if kind == model.KindSave {
				return s.bookmarkRepo.WithTx(tx).Create(ctx, &model.Bookmark{
					UserID:         userID,
					EntityType:     entityType,
					EntityID:       entityID,
					TargetTitle:    meta.Title,
					TargetCategory: meta.Category,
				})
			}
			return nil
		}

		// 已存在 → toggle off
		deleted, err := engage.Delete(ctx, entityType, entityID, userID, kind)
		if err != nil {
			return err
		}
		if deleted {
			if err := counters.Decrement(ctx, entityType, entityID, kind); err != nil {
				return err
			}
			if kind == model.KindSave {
				return s.bookmarkRepo.WithTx(tx).Delete(ctx, userID, entityType, entityID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	counts, err := s.counterRepo.GetCounts(ctx, entityType, entityID)
	if err != nil {
		return nil, err
	}

	s.appendActivity(ctx, entityType, entityID, userID, activityAction(kind, active))

	count := counts.Likes
	if kind == model.KindSave {
		count = counts.Saves
	}
	if active && kind == model.KindLike && s.notifier != nil && likeMilestones[count] {
		s.notifier.EnqueueMilestone(meta.AuthorID, entityType, entityID, count)
	}
	return &ToggleResult{Active: active, Count: count}, nil
}

func activityAction(kind string, active bool) string {
	switch {
	case kind == model.KindLike && active:
		return "like"
	case kind == model.KindLike:
		return "unlike"
	case kind == model.KindSave && active:
		return "save"
	default:
		return "unsave"
	}
}

// RecordView 浏览计数。策略：
//   - 匿名或身份解析失败 → 不计数（宁少勿多）
//   - 主题：1 小时滚动窗口，窗口内重复浏览只刷新时间戳
//   - 案例/回帖：无限窗口，只计首次
//   - 存储故障对用户不可见：降级为不计数
func (s *engagementService) RecordView(ctx context.Context, entityType, entityID, viewerID string) (*ViewResult, error) {
	if viewerID == "" {
		return &ViewResult{Counted: false}, nil
	}
	if _, err := s.lookupEntity(ctx, entityType, entityID); err != nil {
		return nil, err
	}

	windowed := entityType == model.EntityTopic

	// Redis 快路径：窗口内已见则无需触达 DB
	if windowed && s.viewGate != nil {
		if seen, err := s.viewGate.SeenRecently(ctx, entityType, entityID, viewerID); err == nil && seen {
			s.refreshViewStamp(ctx, entityType, entityID, viewerID)
			return &ViewResult{Counted: false}, nil
		}
	}

	counted, err := s.countViewOnce(ctx, entityType, entityID, viewerID, windowed)
	if err != nil {
		// 读侧去重失败不打扰用户，这次浏览可能少计
		logger.Warn("view count failed",
			zap.String("entity_type", entityType),
			zap.String("entity_id", entityID),
			zap.Error(err))
		return &ViewResult{Counted: false}, nil
	}
	if counted {
		s.appendActivity(ctx, entityType, entityID, viewerID, "view")
	}
	return &ViewResult{Counted: counted}, nil
}

func (s *engagementService) countViewOnce(ctx context.Context, entityType, entityID, viewerID string, windowed bool) (bool, error) {
	now := time.Now()
	var counted bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		engage := s.engageRepo.WithTx(tx)
		counters := s.counterRepo.WithTx(tx)

		created, err := engage.Create(ctx, &model.EngagementRecord{
			EntityType:   entityType,
			EntityID:     entityID,
			UserID:       viewerID,
			Kind:         model.KindView,
			LastViewedAt: now,
		})
		if err != nil {
			return err
		}
		if created {
			counted = true
			return counters.Increment(ctx, entityType, entityID, model.KindView)
		}

		rec, err := engage.Get(ctx, entityType, entityID, viewerID, model.KindView)
		if err != nil {
			return err
		}
		if !windowed {
			// 无限窗口：曾经看过就不再计数
			return nil
		}
		if now.Sub(rec.LastViewedAt) < TopicViewWindow {
			return engage.RefreshViewedAt(ctx, rec.ID, now)
		}
		counted = true
		if err := engage.RefreshViewedAt(ctx, rec.ID, now); err != nil {
			return err
		}
		return counters.Increment(ctx, entityType, entityID, model.KindView)
	})
	return counted, err
}

// refreshViewStamp 快路径拦截后仍刷新 DB 侧时间戳（尽力而为）
func (s *engagementService) refreshViewStamp(ctx context.Context, entityType, entityID, viewerID string) {
	rec, err := s.engageRepo.Get(ctx, entityType, entityID, viewerID, model.KindView)
	if err != nil {
		return
	}
	_ = s.engageRepo.RefreshViewedAt(ctx, rec.ID, time.Now())
}

func (s *engagementService) appendActivity(ctx context.Context, entityType, entityID, userID, action string) {
	if s.activityRepo == nil {
		return
	}
	if err := s.activityRepo.Append(ctx, &model.ActivityLog{
		EntityType: entityType,
		EntityID:   entityID,
		UserID:     userID,
		Action:     action,
		CreatedAt:  time.Now(),
	}); err != nil {
		logger.Warn("append activity failed", zap.String("action", action), zap.Error(err))
	}
}

func (s *engagementService) GetCounts(ctx context.Context, entityType, entityID string) (repository.Counts, error) {
	counts, err := s.counterRepo.GetCounts(ctx, entityType, entityID)
	if err != nil {
		return repository.Counts{}, mapNotFound(err)
	}
	return counts, nil
}
