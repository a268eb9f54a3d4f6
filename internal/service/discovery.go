package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/sme-community/internal/cache"
	"github.com/d60-Lab/sme-community/internal/model"
	"github.com/d60-Lab/sme-community/internal/ranking"
	"github.com/d60-Lab/sme-community/internal/repository"
	"github.com/d60-Lab/sme-community/pkg/logger"
)

const (
	// 打分前的候选集上限（窗口预过滤后）
	trendingCandidateLimit = 500
	relatedCandidateLimit  = 200
	defaultTrendingLimit   = 20
	defaultRelatedLimit    = 5
)

// TrendingItem 趋势榜条目
type TrendingItem struct {
	ID         string  `json:"id"`
	EntityType string  `json:"entity_type"`
	Title      string  `json:"title"`
	Category   string  `json:"category"`
	Views      int64   `json:"views"`
	Likes      int64   `json:"likes"`
	Saves      int64   `json:"saves"`
	Comments   int64   `json:"comments"`
	Score      float64 `json:"score"`
}

// RelatedItem 相关推荐条目
type RelatedItem struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Views    int64  `json:"views"`
	Score    int    `json:"score"`
}

// DiscoveryService 浏览聚合：趋势榜与相关推荐
// 读路径失败降级为空结果，不向调用方抛错
type DiscoveryService interface {
	GetTrending(ctx context.Context, window, algorithm string, limit int) ([]TrendingItem, error)
	GetRelated(ctx context.Context, usecaseID string, limit, minScore int) ([]RelatedItem, error)
}

type discoveryService struct {
	usecaseRepo repository.UseCaseRepository
	forumRepo   repository.ForumRepository
	results     *cache.ResultCache
	now         func() time.Time
}

func NewDiscoveryService(usecaseRepo repository.UseCaseRepository, forumRepo repository.ForumRepository, results *cache.ResultCache) DiscoveryService {
	return &discoveryService{usecaseRepo: usecaseRepo, forumRepo: forumRepo, results: results, now: time.Now}
}

func (s *discoveryService) GetTrending(ctx context.Context, window, algorithm string, limit int) ([]TrendingItem, error) {
	win, err := ranking.ParseWindow(window)
	if err != nil {
		return nil, err
	}
	alg, err := ranking.ParseAlgorithm(algorithm)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultTrendingLimit
	}

	cacheKey := fmt.Sprintf("trending:%s:%s:%d", win, alg, limit)
	if s.results != nil {
		var cached []TrendingItem
		if s.results.Get(ctx, cacheKey, &cached) {
			return cached, nil
		}
	}

	now := s.now()
	cutoff := win.Cutoff(now)

	cands := make([]ranking.Candidate, 0, trendingCandidateLimit)
	ucs, err := s.usecaseRepo.ListPublishedSince(ctx, cutoff, trendingCandidateLimit)
	if err != nil {
		// 展示型聚合：读失败返回空榜，不报错
		logger.Warn("trending usecase candidates failed", zap.Error(err))
		return []TrendingItem{}, nil
	}
	for _, uc := range ucs {
		cands = append(cands, ranking.Candidate{
			ID:         uc.ID,
			EntityType: model.EntityUseCase,
			Title:      uc.Title,
			Category:   uc.Category,
			Stats:      ranking.Stats{Views: uc.Views, Likes: uc.Likes, Saves: uc.Saves, Comments: uc.Comments},
			CreatedAt:  uc.PublishedAt,
		})
	}

	topics, err := s.forumRepo.ListTopicsSince(ctx, cutoff, trendingCandidateLimit)
	if err != nil {
		logger.Warn("trending topic candidates failed", zap.Error(err))
		return []TrendingItem{}, nil
	}
	for _, t := range topics {
		cands = append(cands, ranking.Candidate{
			ID:         t.ID,
			EntityType: model.EntityTopic,
			Title:      t.Title,
			Category:   t.Category,
			Stats:      ranking.Stats{Views: t.Views, Likes: t.Likes, Saves: t.Saves, Comments: t.Replies},
			CreatedAt:  t.CreatedAt,
		})
	}

	ranked := ranking.Rank(cands, alg, now, limit)
	out := make([]TrendingItem, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, TrendingItem{
			ID:         r.ID,
			EntityType: r.EntityType,
			Title:      r.Title,
			Category:   r.Category,
			Views:      r.Stats.Views,
			Likes:      r.Stats.Likes,
			Saves:      r.Stats.Saves,
			Comments:   r.Stats.Comments,
			Score:      r.Score,
		})
	}
	if s.results != nil {
		s.results.Set(ctx, cacheKey, out)
	}
	return out, nil
}

func (s *discoveryService) GetRelated(ctx context.Context, usecaseID string, limit, minScore int) ([]RelatedItem, error) {
	ref, err := s.usecaseRepo.GetByID(ctx, usecaseID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if limit <= 0 {
		limit = defaultRelatedLimit
	}

	refProfile := profileOf(ref)
	rows, err := s.usecaseRepo.ListRelatedCandidates(ctx, ref, refProfile.Technologies, relatedCandidateLimit)
	if err != nil {
		logger.Warn("related candidates failed", zap.String("usecase", usecaseID), zap.Error(err))
		return []RelatedItem{}, nil
	}

	cands := make([]ranking.RelatedCandidate, 0, len(rows))
	for _, uc := range rows {
		cands = append(cands, ranking.RelatedCandidate{
			ID:      uc.ID,
			Title:   uc.Title,
			Profile: profileOf(uc),
		})
	}

	related := ranking.RankRelated(cands, refProfile, minScore, limit)
	out := make([]RelatedItem, 0, len(related))
	for _, r := range related {
		out = append(out, RelatedItem{
			ID:       r.ID,
			Title:    r.Title,
			Category: r.Profile.Category,
			Views:    r.Profile.Views,
			Score:    r.Score,
		})
	}
	return out, nil
}

func profileOf(uc *model.UseCase) ranking.Profile {
	return ranking.Profile{
		Category:     uc.Category,
		Industry:     uc.Industry,
		Technologies: ranking.SplitTechnologies(uc.Technologies),
		ROIPercent:   uc.ROIPercent,
		Views:        uc.Views,
	}
}
