package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"tradelens/internal/metrics"
	"tradelens/pkg/model"
)

// RedisCache decorates a Provider with a shared Redis cache so several
// processes reuse one fetch. A nil client bypasses the cache.
type RedisCache struct {
	inner     Provider
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
	metrics   *metrics.Metrics
}

// NewRedisCache decorates a Provider with Redis caching.
// If ttl is 0, it defaults to 5 minutes. If namespace is empty, it uses "candles".
func NewRedisCache(rdb *redis.Client, ttl time.Duration, inner Provider, namespace string) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if namespace == "" {
		namespace = "candles"
	}
	return &RedisCache{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// WithMetrics attaches cache hit/miss metrics
func (c *RedisCache) WithMetrics(m *metrics.Metrics) *RedisCache {
	c.metrics = m
	return c
}

func (c *RedisCache) Name() string      { return c.inner.Name() }
func (c *RedisCache) IsAvailable() bool { return c.inner.IsAvailable() }
func (c *RedisCache) RateLimit() int    { return c.inner.RateLimit() }

// GetDailyCandles checks Redis first, then falls back to the inner provider
func (c *RedisCache) GetDailyCandles(ctx context.Context, symbol string, days int) ([]model.Candle, error) {
	if c.rdb == nil {
		return c.inner.GetDailyCandles(ctx, symbol, days)
	}

	key := c.cacheKey(symbol, days)

	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out []model.Candle
		if err := json.Unmarshal(b, &out); err == nil {
			c.metrics.CacheHit("redis")
			return out, nil
		}
		// Corrupted entry
		_ = c.rdb.Del(ctx, key).Err()
	}
	c.metrics.CacheMiss("redis")

	out, err := c.inner.GetDailyCandles(ctx, symbol, days)
	if err != nil {
		return nil, err
	}

	// Best effort: series holding NaN fields cannot be encoded and are not cached
	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}
	return out, nil
}

// Clear deletes every key in the namespace
func (c *RedisCache) Clear(ctx context.Context) error {
	if c.rdb == nil {
		return nil
	}
	var cursor uint64
	for {
		keys, cur, err := c.rdb.Scan(ctx, cursor, c.namespace+":*", 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = cur
		if cursor == 0 {
			return nil
		}
	}
}

func (c *RedisCache) cacheKey(symbol string, days int) string {
	return fmt.Sprintf("%s:%s:%s:%d", c.namespace, safe(c.inner.Name()), safe(strings.ToUpper(symbol)), days)
}

// safe escapes characters that are problematic for Redis keys
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}
