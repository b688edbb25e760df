package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"jobmate/offer-service/internal/logging"
	"jobmate/offer-service/internal/metrics"
)

// DefaultCacheTTL bounds how stale cached market data may get.
const DefaultCacheTTL = 24 * time.Hour

// Cache stores SalaryData by Query.Key. Get reports a miss as (nil, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) (*SalaryData, bool, error)
	Set(ctx context.Context, key string, d *SalaryData, ttl time.Duration) error
}

// ─── Redis ───────────────────────────────────────────────────────────────────

// RedisCache keeps SalaryData as JSON strings under a key prefix.
type RedisCache struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisCache returns a cache whose keys start with prefix.
func NewRedisCache(rdb *redis.Client, prefix string) *RedisCache {
	if prefix == "" {
		prefix = "offer:market:"
	}
	return &RedisCache{rdb: rdb, prefix: prefix}
}

func (c *RedisCache) Get(ctx context.Context, key string) (*SalaryData, bool, error) {
	raw, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	var d SalaryData
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, false, fmt.Errorf("decode cached market data: %w", err)
	}
	return &d, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, d *SalaryData, ttl time.Duration) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return err
	}
	if err := c.rdb.Set(ctx, c.prefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// ─── In-memory ───────────────────────────────────────────────────────────────

// MemoryCache is a process-local Cache for the offline CLI and tests.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	data    SalaryData
	expires time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: map[string]memoryEntry{}, now: time.Now}
}

func (c *MemoryCache) Get(_ context.Context, key string) (*SalaryData, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && c.now().After(e.expires) {
		delete(c.entries, key)
		return nil, false, nil
	}
	d := e.data
	return &d, true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, d *SalaryData, ttl time.Duration) error {
	if d == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e := memoryEntry{data: *d}
	if ttl > 0 {
		e.expires = c.now().Add(ttl)
	}
	c.entries[key] = e
	return nil
}

// ─── Cached provider ─────────────────────────────────────────────────────────

// CachedProvider serves lookups from a Cache and fills it from next on a
// miss. Cache failures are logged and never fail the lookup. Only non-nil
// results are cached, so an empty answer is retried next time.
type CachedProvider struct {
	next    Provider
	cache   Cache
	ttl     time.Duration
	log     *logging.Logger
	metrics *metrics.Metrics
}

// NewCachedProvider wraps next. ttl <= 0 selects DefaultCacheTTL.
func NewCachedProvider(next Provider, cache Cache, ttl time.Duration, log *logging.Logger, m *metrics.Metrics) *CachedProvider {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedProvider{next: next, cache: cache, ttl: ttl, log: log, metrics: m}
}

// Lookup implements Provider.
func (p *CachedProvider) Lookup(ctx context.Context, q Query) (*SalaryData, error) {
	key := q.Key()

	d, ok, err := p.cache.Get(ctx, key)
	if err != nil {
		p.log.Warn("market cache read failed", "key", key, "err", err)
	}
	if ok {
		p.metrics.ObserveMarketLookup("hit")
		return d, nil
	}

	d, err = p.next.Lookup(ctx, q)
	if err != nil {
		p.metrics.ObserveMarketLookup("error")
		return nil, err
	}
	if d == nil {
		p.metrics.ObserveMarketLookup("empty")
		return nil, nil
	}
	p.metrics.ObserveMarketLookup("miss")

	if err := p.cache.Set(ctx, key, d, p.ttl); err != nil {
		p.log.Warn("market cache write failed", "key", key, "err", err)
	}
	return d, nil
}
