package ranking

import (
	"errors"
	"math"
	"sort"
	"time"
)

// Algorithm 趋势排序算法
type Algorithm string

const (
	AlgoHot      Algorithm = "hot"
	AlgoTrending Algorithm = "trending"
	AlgoPopular  Algorithm = "popular"
	AlgoRecent   Algorithm = "recent"
)

var ErrUnknownAlgorithm = errors.New("unknown ranking algorithm")

// ParseAlgorithm 解析算法名；空串默认 trending
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(s) {
	case AlgoHot, AlgoTrending, AlgoPopular, AlgoRecent:
		return Algorithm(s), nil
	case "":
		return AlgoTrending, nil
	default:
		return "", ErrUnknownAlgorithm
	}
}

// Window 候选集时间窗口
type Window string

const (
	WindowDay     Window = "day"
	WindowWeek    Window = "week"
	WindowMonth   Window = "month"
	WindowQuarter Window = "quarter"
	WindowYear    Window = "year"
	WindowAll     Window = "all"
)

var ErrUnknownWindow = errors.New("unknown time window")

// ParseWindow 解析窗口名；空串默认 week
func ParseWindow(s string) (Window, error) {
	switch Window(s) {
	case WindowDay, WindowWeek, WindowMonth, WindowQuarter, WindowYear, WindowAll:
		return Window(s), nil
	case "":
		return WindowWeek, nil
	default:
		return "", ErrUnknownWindow
	}
}

// Cutoff 返回窗口起点；all 窗口返回零值（不过滤）
func (w Window) Cutoff(now time.Time) time.Time {
	switch w {
	case WindowDay:
		return now.Add(-24 * time.Hour)
	case WindowWeek:
		return now.Add(-7 * 24 * time.Hour)
	case WindowMonth:
		return now.Add(-30 * 24 * time.Hour)
	case WindowQuarter:
		return now.Add(-90 * 24 * time.Hour)
	case WindowYear:
		return now.Add(-365 * 24 * time.Hour)
	default:
		return time.Time{}
	}
}

// Stats 参与打分的计数快照
type Stats struct {
	Views    int64
	Likes    int64
	Saves    int64
	Comments int64
}

func ageHours(createdAt, now time.Time) float64 {
	h := now.Sub(createdAt).Hours()
	if h < 0 {
		return 0
	}
	return h
}

// Hot Reddit 式热度：(likes + 0.5*comments) * 0.8^(age_hours/24)
// 每天衰减 20%，半衰期约 3 天
func Hot(likes, comments int64, createdAt, now time.Time) float64 {
	base := float64(likes) + 0.5*float64(comments)
	return base * math.Pow(0.8, ageHours(createdAt, now)/24)
}

// weightedSum trending/popular 共用的加权和
func weightedSum(s Stats) float64 {
	return 3*float64(s.Likes) + 2.5*float64(s.Saves) + 2*float64(s.Comments) + 0.1*float64(s.Views)
}

// Trending 加权和乘以新鲜度因子：
// 24 小时内线性加成（最高 2x），之后每天衰减 10%
func Trending(s Stats, createdAt, now time.Time) float64 {
	age := ageHours(createdAt, now)
	var factor float64
	if age < 24 {
		factor = 2.0 - age/24
	} else {
		factor = math.Pow(0.9, (age-24)/24)
	}
	return weightedSum(s) * factor
}

// Popular 不带时间因子的全时段加权和
func Popular(s Stats) float64 {
	return weightedSum(s)
}

// Recent 新发内容排序：互动下限过滤 + 7 天线性衰减
// min_engagement = likes + comments + views/10；不足 1 直接得 0 分
func Recent(s Stats, createdAt, now time.Time) float64 {
	minEngagement := float64(s.Likes) + float64(s.Comments) + float64(s.Views)/10
	if minEngagement < 1 {
		return 0
	}
	recency := math.Max(0, 168-ageHours(createdAt, now)) / 168
	return recency * minEngagement
}

// Score 按算法对单个实体打分；打分是纯函数，不触达存储
func Score(alg Algorithm, s Stats, createdAt, now time.Time) float64 {
	switch alg {
	case AlgoHot:
		return Hot(s.Likes, s.Comments, createdAt, now)
	case AlgoPopular:
		return Popular(s)
	case AlgoRecent:
		return Recent(s, createdAt, now)
	default:
		return Trending(s, createdAt, now)
	}
}

// Candidate 参与趋势排序的实体快照
type Candidate struct {
	ID         string
	EntityType string
	Title      string
	Category   string
	Stats      Stats
	CreatedAt  time.Time
}

// Ranked 带分数的排序结果
type Ranked struct {
	Candidate
	Score float64
}

// Rank 对候选集打分并取 Top-K（分数降序，同分按时间新者优先）
func Rank(cands []Candidate, alg Algorithm, now time.Time, limit int) []Ranked {
	out := make([]Ranked, 0, len(cands))
	for _, c := range cands {
		out = append(out, Ranked{Candidate: c, Score: Score(alg, c.Stats, c.CreatedAt, now)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
