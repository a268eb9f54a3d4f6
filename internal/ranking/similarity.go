package ranking

import (
	"math"
	"sort"
	"strings"
)

// 相似度加分项
const (
	categoryPoints = 3
	industryPoints = 2
	techPointsCap  = 3
	roiPoints      = 1
	roiTolerance   = 20.0 // ROI 百分点差异容忍度
)

// MinSimilarity 低于该总分的候选不进入相关推荐
const MinSimilarity = 1

// Profile 相似度计算用到的实体画像
type Profile struct {
	Category     string
	Industry     string
	Technologies []string
	ROIPercent   *float64
	Views        int64
}

// SplitTechnologies 拆分归一化的逗号分隔技术栈字段
func SplitTechnologies(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(strings.ToLower(p)); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// JoinTechnologies 归一化并拼接技术栈字段（落库格式）
func JoinTechnologies(techs []string) string {
	out := make([]string, 0, len(techs))
	seen := make(map[string]bool, len(techs))
	for _, t := range techs {
		n := strings.TrimSpace(strings.ToLower(t))
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return strings.Join(out, ",")
}

// Similarity 加法记分：
//   +3 分类一致；+2 行业一致；+min(3, 技术栈交集大小)；
//   +1 双方都有 ROI 且差异 ≤ 20 个百分点
// 各项按字段值判断，与参数顺序无关
func Similarity(candidate, reference Profile) int {
	score := 0
	if candidate.Category != "" && candidate.Category == reference.Category {
		score += categoryPoints
	}
	if candidate.Industry != "" && candidate.Industry == reference.Industry {
		score += industryPoints
	}
	score += techOverlap(candidate.Technologies, reference.Technologies)
	if candidate.ROIPercent != nil && reference.ROIPercent != nil &&
		math.Abs(*candidate.ROIPercent-*reference.ROIPercent) <= roiTolerance {
		score += roiPoints
	}
	return score
}

func techOverlap(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]bool, len(a))
	for _, t := range a {
		set[t] = true
	}
	n := 0
	for _, t := range b {
		if set[t] {
			delete(set, t) // 去重，交集只数一次
			n++
			if n == techPointsCap {
				break
			}
		}
	}
	return n
}

// RelatedCandidate 相关推荐候选
type RelatedCandidate struct {
	ID      string
	Title   string
	Profile Profile
}

// Related 带相似度分数的推荐结果
type Related struct {
	RelatedCandidate
	Score int
}

// RankRelated 过滤低于 minScore 的候选，按 (相似度降序, views 降序) 截断
func RankRelated(cands []RelatedCandidate, ref Profile, minScore, limit int) []Related {
	if minScore < MinSimilarity {
		minScore = MinSimilarity
	}
	out := make([]Related, 0, len(cands))
	for _, c := range cands {
		s := Similarity(c.Profile, ref)
		if s < minScore {
			continue
		}
		out = append(out, Related{RelatedCandidate: c, Score: s})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Profile.Views > out[j].Profile.Views
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
