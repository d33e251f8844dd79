// feed.go provides a Redis-backed cache for the serialized post feed.
// Listing the feed joins authors, tags, and counters, so the rendered
// JSON is kept in Redis and invalidated explicitly by write handlers —
// the caller decides when a write should refresh dependent reads, there
// is no implicit invalidation side effect.
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// feedKey is the Redis key for the cached published-post feed.
	feedKey = "feed:published"

	// DefaultFeedTTL bounds staleness even if an invalidation is missed.
	DefaultFeedTTL = 5 * time.Minute
)

// FeedCache manages the serialized feed in Redis.
type FeedCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewFeedCache creates a feed cache backed by the given Redis client.
func NewFeedCache(client *redis.Client, ttl time.Duration) *FeedCache {
	if ttl == 0 {
		ttl = DefaultFeedTTL
	}
	return &FeedCache{client: client, ttl: ttl}
}

// Get retrieves the cached feed JSON. Returns false on miss; cache
// errors are logged and treated as misses.
func (fc *FeedCache) Get(ctx context.Context) ([]byte, bool) {
	val, err := fc.client.Get(ctx, feedKey).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("feed cache get error", "error", err)
		return nil, false
	}
	return val, true
}

// Set stores the serialized feed with the configured TTL.
func (fc *FeedCache) Set(ctx context.Context, payload []byte) {
	if err := fc.client.Set(ctx, feedKey, payload, fc.ttl).Err(); err != nil {
		slog.Warn("feed cache set error", "error", err)
	}
}

// Invalidate drops the cached feed. Write handlers call this after a
// successful post create, update, or delete.
func (fc *FeedCache) Invalidate(ctx context.Context) {
	if err := fc.client.Del(ctx, feedKey).Err(); err != nil {
		slog.Warn("feed cache invalidate error", "error", err)
	}
	slog.Debug("feed cache invalidated")
}
