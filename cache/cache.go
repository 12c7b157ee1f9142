// Package cache memoizes scrape results in Redis keyed by normalized URL, so
// repeated lookups of the same result page skip the fetch and parse entirely.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"race-extractor/internal/types"
)

// Cache wraps a Redis client. A nil *Cache is valid and disables memoization.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger types.Logger
}

// New connects to Redis at addr. TTL bounds how long a scraped result is
// reused; race results are effectively immutable once published, so hours are
// a safe default.
func New(addr string, ttl time.Duration, logger types.Logger) *Cache {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	return &Cache{client: client, ttl: ttl, logger: logger}
}

// Ping verifies connectivity so a misconfigured address fails at startup, not
// on the first request.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Memoize returns the cached result for key, or runs fn and caches its result.
// Failed results are never cached: a transient fetch error must not stick for
// the whole TTL. Cache errors degrade to calling fn directly.
func (c *Cache) Memoize(ctx context.Context, key string, fn func() types.ScrapeResult) types.ScrapeResult {
	if c == nil {
		return fn()
	}

	cached, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var result types.ScrapeResult
		if jsonErr := json.Unmarshal(cached, &result); jsonErr == nil {
			c.logger.Debugf("cache hit for %s", key)
			return result
		}
	} else if err != redis.Nil {
		c.logger.Warnf("cache read failed for %s: %v", key, err)
	}

	result := fn()
	if !result.Success {
		return result
	}

	data, err := json.Marshal(result)
	if err != nil {
		return result
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warnf("cache write failed for %s: %v", key, err)
	}
	return result
}
