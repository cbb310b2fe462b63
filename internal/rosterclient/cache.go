package rosterclient

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"gatehouse/internal/platform/redis"
)

const cacheKey = "gatehouse:roster"

// CachedClient caches roster lists in Redis for a bounded TTL. Cache errors
// never fail a lookup; the client falls through to the upstream API.
type CachedClient struct {
	inner  Client
	redis  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedClient(inner Client, rc *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedClient {
	return &CachedClient{inner: inner, redis: rc, ttl: ttl, logger: logger}
}

func (c *CachedClient) List(ctx context.Context) ([]Entry, error) {
	raw, err := c.redis.Get(ctx, cacheKey).Bytes()
	if err == nil {
		var entries []Entry
		if err := json.Unmarshal(raw, &entries); err == nil {
			return entries, nil
		}
		c.logger.WarnContext(ctx, "roster cache entry corrupt, refetching", "error", err)
	} else if !errors.Is(err, goredis.Nil) {
		c.logger.WarnContext(ctx, "roster cache read failed", "error", err)
	}

	entries, err := c.inner.List(ctx)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(entries); err == nil {
		if err := c.redis.Set(ctx, cacheKey, raw, c.ttl).Err(); err != nil {
			c.logger.WarnContext(ctx, "roster cache write failed", "error", err)
		}
	}
	return entries, nil
}

// Invalidate drops the cached roster so the next lookup refetches.
func (c *CachedClient) Invalidate(ctx context.Context) {
	if err := c.redis.Del(ctx, cacheKey).Err(); err != nil {
		c.logger.WarnContext(ctx, "roster cache invalidate failed", "error", err)
	}
}
