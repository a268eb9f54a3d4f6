package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()}), mr
}

func TestViewGateWindow(t *testing.T) {
	rdb, mr := setupRedis(t)
	gate := NewViewGate(rdb, time.Hour)
	ctx := context.Background()

	seen, err := gate.SeenRecently(ctx, "topic", "t1", "u1")
	require.NoError(t, err)
	assert.False(t, seen)

	seen, err = gate.SeenRecently(ctx, "topic", "t1", "u1")
	require.NoError(t, err)
	assert.True(t, seen)

	// different viewer is independent
	seen, err = gate.SeenRecently(ctx, "topic", "t1", "u2")
	require.NoError(t, err)
	assert.False(t, seen)

	// window elapses
	mr.FastForward(time.Hour + time.Minute)
	seen, err = gate.SeenRecently(ctx, "topic", "t1", "u1")
	require.NoError(t, err)
	assert.False(t, seen)

	hits, fallbacks := gate.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Zero(t, fallbacks)
}

func TestViewGateRelease(t *testing.T) {
	rdb, _ := setupRedis(t)
	gate := NewViewGate(rdb, time.Hour)
	ctx := context.Background()

	_, err := gate.SeenRecently(ctx, "topic", "t1", "u1")
	require.NoError(t, err)
	gate.Release(ctx, "topic", "t1", "u1")

	seen, err := gate.SeenRecently(ctx, "topic", "t1", "u1")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestResultCacheRoundTrip(t *testing.T) {
	rdb, mr := setupRedis(t)
	c := NewResultCache(rdb, time.Minute)
	ctx := context.Background()

	type item struct {
		ID    string  `json:"id"`
		Score float64 `json:"score"`
	}
	in := []item{{ID: "a", Score: 1.5}, {ID: "b", Score: 0.5}}
	c.Set(ctx, "trending:week:hot:10", in)

	var out []item
	require.True(t, c.Get(ctx, "trending:week:hot:10", &out))
	assert.Equal(t, in, out)

	mr.FastForward(2 * time.Minute)
	assert.False(t, c.Get(ctx, "trending:week:hot:10", &out))
}
