package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const reportCacheKeyPrefix = "report:"

// Cache stores rendered report payloads in Redis for a short TTL so repeated
// dashboard loads do not recompute the aggregations. A nil client disables
// caching; every method becomes a no-op miss.
type Cache struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewCache(redisClient *redis.Client, ttl time.Duration) *Cache {
	if redisClient == nil || ttl <= 0 {
		return nil
	}
	return &Cache{redis: redisClient, ttl: ttl}
}

// Get unmarshals the cached payload for name into dest. The second return is
// false on a miss or on any Redis error; callers fall through to recompute.
func (c *Cache) Get(ctx context.Context, name string, dest any) bool {
	if c == nil || c.redis == nil {
		return false
	}
	data, err := c.redis.Get(ctx, reportCacheKey(name)).Bytes()
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false
	}
	return true
}

// Set stores the payload for name. Marshal failures are reported; Redis
// write failures are too, but callers treat both as non-fatal.
func (c *Cache) Set(ctx context.Context, name string, payload any) error {
	if c == nil || c.redis == nil {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("reports: marshal cached report %s: %w", name, err)
	}
	if err := c.redis.Set(ctx, reportCacheKey(name), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("reports: cache report %s: %w", name, err)
	}
	return nil
}

// Invalidate drops every cached report. Called after appointment writes so
// dashboards never serve stale aggregates past the next request.
func (c *Cache) Invalidate(ctx context.Context) error {
	if c == nil || c.redis == nil {
		return nil
	}
	iter := c.redis.Scan(ctx, 0, reportCacheKeyPrefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("reports: scan cached reports: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("reports: invalidate cached reports: %w", err)
	}
	return nil
}

func reportCacheKey(name string) string {
	return reportCacheKeyPrefix + name
}
