package provider

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"tradelens/internal/metrics"
	"tradelens/pkg/model"
)

// DefaultCacheTTL is how long a fetched series is served from memory
const DefaultCacheTTL = 5 * time.Minute

// sharedFetchTimeout bounds an upstream fetch shared by concurrent misses
const sharedFetchTimeout = 2 * time.Minute

type cacheEntry struct {
	candles   []model.Candle
	fetchedAt time.Time
}

// CacheEntryInfo describes one cached series
type CacheEntryInfo struct {
	Key       string        `json:"key"`
	Rows      int           `json:"rows"`
	Age       time.Duration `json:"age"`
	ExpiresIn time.Duration `json:"expires_in"`
}

// CacheStats is a snapshot of the in-memory cache
type CacheStats struct {
	TTL     time.Duration    `json:"ttl"`
	Entries []CacheEntryInfo `json:"entries"`
}

// CachingProvider wraps a Provider with an in-memory cache for GetDailyCandles.
// Concurrent misses on the same key share one upstream fetch.
type CachingProvider struct {
	inner   Provider
	ttl     time.Duration
	metrics *metrics.Metrics
	now     func() time.Time

	mu    sync.Mutex
	cache map[string]cacheEntry
	group singleflight.Group
}

// NewCachingProvider creates a caching wrapper. A non-positive ttl uses
// DefaultCacheTTL.
func NewCachingProvider(inner Provider, ttl time.Duration) *CachingProvider {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachingProvider{
		inner: inner,
		ttl:   ttl,
		now:   time.Now,
		cache: make(map[string]cacheEntry),
	}
}

// WithMetrics attaches cache hit/miss metrics
func (p *CachingProvider) WithMetrics(m *metrics.Metrics) *CachingProvider {
	p.metrics = m
	return p
}

func (p *CachingProvider) Name() string      { return p.inner.Name() }
func (p *CachingProvider) IsAvailable() bool { return p.inner.IsAvailable() }
func (p *CachingProvider) RateLimit() int    { return p.inner.RateLimit() }

func (p *CachingProvider) key(symbol string, days int) string {
	return fmt.Sprintf("%s:%s:%d", p.inner.Name(), strings.ToUpper(symbol), days)
}

// GetDailyCandles serves the series from memory while it is fresh
func (p *CachingProvider) GetDailyCandles(ctx context.Context, symbol string, days int) ([]model.Candle, error) {
	key := p.key(symbol, days)

	p.mu.Lock()
	if e, ok := p.cache[key]; ok && p.now().Sub(e.fetchedAt) < p.ttl {
		p.mu.Unlock()
		p.metrics.CacheHit("memory")
		return e.candles, nil
	}
	p.mu.Unlock()
	p.metrics.CacheMiss("memory")

	// The shared fetch outlives any single caller; each waiter gives up on
	// its own context.
	ch := p.group.DoChan(key, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedFetchTimeout)
		defer cancel()
		candles, err := p.inner.GetDailyCandles(fetchCtx, symbol, days)
		if err != nil {
			return nil, err
		}
		p.mu.Lock()
		p.cache[key] = cacheEntry{candles: candles, fetchedAt: p.now()}
		p.mu.Unlock()
		return candles, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]model.Candle), nil
	}
}

// Stats lists cached entries with their age and remaining lifetime.
// Expired entries are pruned.
func (p *CachingProvider) Stats() CacheStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	stats := CacheStats{TTL: p.ttl, Entries: make([]CacheEntryInfo, 0, len(p.cache))}
	for key, e := range p.cache {
		age := now.Sub(e.fetchedAt)
		if age >= p.ttl {
			delete(p.cache, key)
			continue
		}
		stats.Entries = append(stats.Entries, CacheEntryInfo{
			Key:       key,
			Rows:      len(e.candles),
			Age:       age,
			ExpiresIn: p.ttl - age,
		})
	}
	sort.Slice(stats.Entries, func(i, j int) bool {
		return stats.Entries[i].Key < stats.Entries[j].Key
	})
	return stats
}

// Clear drops every cached entry and returns how many there were
func (p *CachingProvider) Clear() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(p.cache)
	p.cache = make(map[string]cacheEntry)
	return n
}
