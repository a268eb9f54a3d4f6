package ranking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrendingExample(t *testing.T) {
	// likes=10, views=200, comments=4, saves=2，发布于 2 小时前
	// (3*10 + 2.5*2 + 2*4 + 0.1*200) * (2.0 - 2/24) = 63 * 1.91667
	now := time.Now()
	s := Stats{Views: 200, Likes: 10, Saves: 2, Comments: 4}
	got := Trending(s, now.Add(-2*time.Hour), now)
	assert.InDelta(t, 63*(2.0-2.0/24), got, 0.01)
}

func TestTrendingDecayAfterFirstDay(t *testing.T) {
	now := time.Now()
	s := Stats{Likes: 10}
	// 48 小时：0.9^((48-24)/24) = 0.9
	got := Trending(s, now.Add(-48*time.Hour), now)
	assert.InDelta(t, 30*0.9, got, 0.01)
}

func TestTrendingBoostAtZeroAge(t *testing.T) {
	now := time.Now()
	s := Stats{Likes: 1}
	assert.InDelta(t, 3*2.0, Trending(s, now, now), 0.001)
}

func TestHotMonotonicDecay(t *testing.T) {
	// 计数不变时分数随时间单调下降
	now := time.Now()
	prev := Hot(10, 4, now, now)
	for _, age := range []time.Duration{time.Hour, 12 * time.Hour, 24 * time.Hour, 72 * time.Hour, 240 * time.Hour} {
		cur := Hot(10, 4, now.Add(-age), now)
		assert.Less(t, cur, prev, "hot score must decay with age %v", age)
		prev = cur
	}
}

func TestHotFormula(t *testing.T) {
	now := time.Now()
	// (10 + 0.5*4) * 0.8^(24/24) = 12 * 0.8
	got := Hot(10, 4, now.Add(-24*time.Hour), now)
	assert.InDelta(t, 12*0.8, got, 0.01)
}

func TestPopularIgnoresAge(t *testing.T) {
	s := Stats{Views: 100, Likes: 5, Saves: 1, Comments: 2}
	assert.InDelta(t, 3*5+2.5*1+2*2+0.1*100, Popular(s), 0.001)
}

func TestRecentEngagementFloor(t *testing.T) {
	// likes=0, comments=0, views=5 → min_engagement=0.5 < 1 → 0 分，与 age 无关
	now := time.Now()
	s := Stats{Views: 5}
	assert.Zero(t, Recent(s, now, now))
	assert.Zero(t, Recent(s, now.Add(-time.Hour), now))
}

func TestRecentLinearDecay(t *testing.T) {
	now := time.Now()
	s := Stats{Likes: 2, Comments: 1, Views: 10} // min_engagement = 4
	// 84 小时 = 半周：recency = (168-84)/168 = 0.5
	assert.InDelta(t, 0.5*4, Recent(s, now.Add(-84*time.Hour), now), 0.01)
	// 超过 7 天归零
	assert.Zero(t, Recent(s, now.Add(-200*time.Hour), now))
}

func TestParseAlgorithm(t *testing.T) {
	alg, err := ParseAlgorithm("")
	require.NoError(t, err)
	assert.Equal(t, AlgoTrending, alg)

	for _, s := range []string{"hot", "trending", "popular", "recent"} {
		_, err := ParseAlgorithm(s)
		assert.NoError(t, err)
	}

	_, err = ParseAlgorithm("viral")
	assert.ErrorIs(t, err, ErrUnknownAlgorithm)
}

func TestWindowCutoff(t *testing.T) {
	now := time.Now()
	assert.True(t, WindowAll.Cutoff(now).IsZero())
	assert.InDelta(t, 24.0, now.Sub(WindowDay.Cutoff(now)).Hours(), 0.01)
	assert.InDelta(t, 168.0, now.Sub(WindowWeek.Cutoff(now)).Hours(), 0.01)

	_, err := ParseWindow("fortnight")
	assert.ErrorIs(t, err, ErrUnknownWindow)
}

func TestRankTopK(t *testing.T) {
	now := time.Now()
	cands := []Candidate{
		{ID: "a", Stats: Stats{Likes: 1}, CreatedAt: now.Add(-time.Hour)},
		{ID: "b", Stats: Stats{Likes: 100}, CreatedAt: now.Add(-time.Hour)},
		{ID: "c", Stats: Stats{Likes: 10}, CreatedAt: now.Add(-time.Hour)},
	}
	got := Rank(cands, AlgoPopular, now, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "c", got[1].ID)
	assert.Greater(t, got[0].Score, got[1].Score)
}
