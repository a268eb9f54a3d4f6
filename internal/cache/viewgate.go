package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// ViewGate is a Redis fast path in front of the DB-backed view dedup check.
// A SET NX EX per (entity, viewer) marks the viewer as seen for the window;
// when the key already exists the DB does not need to be consulted at all.
// Redis being down only loses the fast path, never correctness: callers fall
// through to the engagement-record authority.
type ViewGate struct {
	cache  *redis.Client
	window time.Duration

	fastHits  atomic.Int64
	fallbacks atomic.Int64
}

func NewViewGate(cache *redis.Client, window time.Duration) *ViewGate {
	if window <= 0 {
		window = time.Hour
	}
	return &ViewGate{cache: cache, window: window}
}

func key(entityType, entityID, viewerID string) string {
	return fmt.Sprintf("viewgate:%s:%s:%s", entityType, entityID, viewerID)
}

// SeenRecently reports whether the viewer was already seen inside the window.
// The first call per window claims the key and returns false.
func (g *ViewGate) SeenRecently(ctx context.Context, entityType, entityID, viewerID string) (bool, error) {
	ok, err := g.cache.SetNX(ctx, key(entityType, entityID, viewerID), 1, g.window).Result()
	if err != nil {
		g.fallbacks.Add(1)
		return false, err
	}
	if !ok {
		g.fastHits.Add(1)
	}
	return !ok, nil
}

// Release drops the claim so the next view goes back to the DB authority.
// Used by tests and by callers that claimed the key but failed to count.
func (g *ViewGate) Release(ctx context.Context, entityType, entityID, viewerID string) {
	_ = g.cache.Del(ctx, key(entityType, entityID, viewerID)).Err()
}

// Stats returns (fast-path suppressions, redis fallbacks) observed so far.
func (g *ViewGate) Stats() (int64, int64) {
	return g.fastHits.Load(), g.fallbacks.Load()
}

// ResultCache caches rendered ranking lists with a short TTL so the browse
// endpoints do not rescore the candidate set on every request.
type ResultCache struct {
	cache *redis.Client
	ttl   time.Duration
}

func NewResultCache(cache *redis.Client, ttl time.Duration) *ResultCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &ResultCache{cache: cache, ttl: ttl}
}

// Get unmarshals a cached list into dest; a miss or a stale payload is not an error.
func (c *ResultCache) Get(ctx context.Context, key string, dest any) bool {
	data, err := c.cache.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dest) == nil
}

func (c *ResultCache) Set(ctx context.Context, key string, val any) {
	payload, err := json.Marshal(val)
	if err != nil {
		return
	}
	_ = c.cache.Set(ctx, key, payload, c.ttl).Err()
}
