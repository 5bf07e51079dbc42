package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Thagi/paper-scope/internal/platform/logger"
)

const cacheGenerationKey = "paperscope:cache:gen"

// GraphCache is a read-through cache for projection responses. Keys embed a
// generation counter; invalidation bumps the counter instead of scanning for
// stale keys, and superseded entries age out via TTL. A nil cache is valid
// and behaves as a permanent miss, so callers need no nil checks of their own.
type GraphCache struct {
	rdb *redis.Client
	ttl time.Duration
	log *logger.Logger
}

func NewGraphCache(rdb *redis.Client, ttl time.Duration, log *logger.Logger) *GraphCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &GraphCache{rdb: rdb, ttl: ttl, log: log.With("service", "GraphCache")}
}

func (c *GraphCache) key(ctx context.Context, name string) string {
	gen, err := c.rdb.Get(ctx, cacheGenerationKey).Int64()
	if err != nil && err != redis.Nil {
		gen = 0
	}
	return fmt.Sprintf("paperscope:cache:%d:%s", gen, name)
}

// Get unmarshals a cached entry into dest; false means a miss.
func (c *GraphCache) Get(ctx context.Context, name string, dest any) bool {
	if c == nil || c.rdb == nil {
		return false
	}
	data, err := c.rdb.Get(ctx, c.key(ctx, name)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("cache read failed", "key", name, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		c.log.Warn("cache entry corrupt, ignoring", "key", name, "error", err)
		return false
	}
	return true
}

// Set stores an entry; failures are logged and swallowed since the cache is
// purely an optimization.
func (c *GraphCache) Set(ctx context.Context, name string, value any) {
	if c == nil || c.rdb == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		c.log.Warn("cache encode failed", "key", name, "error", err)
		return
	}
	if err := c.rdb.Set(ctx, c.key(ctx, name), data, c.ttl).Err(); err != nil {
		c.log.Warn("cache write failed", "key", name, "error", err)
	}
}

// Invalidate makes every current entry unreachable. Called after an
// ingestion run mutates the graph.
func (c *GraphCache) Invalidate(ctx context.Context) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Incr(ctx, cacheGenerationKey).Err(); err != nil {
		c.log.Warn("cache invalidation failed", "error", err)
	}
}
