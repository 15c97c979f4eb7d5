package pool

import (
	"context"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const defaultCacheSize = 256

// CacheConfig holds configuration for the cache
type CacheConfig struct {
	// Size is the number of pools kept in memory.
	Size int
	// TTL bounds how long a snapshot is served before it is fetched again.
	// Zero keeps snapshots until they are evicted or invalidated.
	TTL time.Duration
}

// Cache keeps recently fetched snapshots in front of another Provider.
// Calculators never see it; callers invalidate explicitly when they know a
// pool changed.
type Cache struct {
	next    Provider
	ttl     time.Duration
	now     func() time.Time
	logger  *zap.Logger
	entries *lru.Cache[string, cacheEntry]
	fetches singleflight.Group

	hits   atomic.Uint64
	misses atomic.Uint64
}

type cacheEntry struct {
	snapshot Snapshot
	fetched  time.Time
}

type CacheOption func(*Cache)

func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) { c.now = now }
}

func WithCacheLogger(logger *zap.Logger) CacheOption {
	return func(c *Cache) { c.logger = logger }
}

func NewCache(next Provider, config CacheConfig, opts ...CacheOption) (*Cache, error) {
	if config.Size <= 0 {
		config.Size = defaultCacheSize
	}
	entries, err := lru.New[string, cacheEntry](config.Size)
	if err != nil {
		return nil, err
	}

	c := &Cache{
		next:    next,
		ttl:     config.TTL,
		now:     time.Now,
		logger:  zap.NewNop(),
		entries: entries,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Snapshot serves key from memory when fresh and fetches it otherwise.
// Concurrent misses for the same pool share one fetch.
func (c *Cache) Snapshot(ctx context.Context, key Key) (Snapshot, error) {
	id := key.ID()
	if entry, ok := c.entries.Get(id); ok {
		if c.fresh(entry) {
			c.hits.Add(1)
			return entry.snapshot, nil
		}
		c.entries.Remove(id)
	}
	c.misses.Add(1)

	// The shared fetch outlives any one caller; the provider's own timeout
	// bounds it.
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.fetches.DoChan(id, func() (interface{}, error) {
		snap, err := c.next.Snapshot(fetchCtx, key)
		if err != nil {
			return Snapshot{}, err
		}
		c.entries.Add(id, cacheEntry{snapshot: snap, fetched: c.now()})
		c.logger.Debug("cached pool snapshot",
			zap.String("pool", id),
			zap.Uint32("ledger_index", snap.LedgerIndex))
		return snap, nil
	})

	select {
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return Snapshot{}, r.Err
		}
		return r.Val.(Snapshot), nil
	}
}

func (c *Cache) fresh(entry cacheEntry) bool {
	return c.ttl <= 0 || c.now().Sub(entry.fetched) < c.ttl
}

// Invalidate drops key so the next request fetches it again.
func (c *Cache) Invalidate(key Key) {
	c.entries.Remove(key.ID())
}

// Purge drops every cached snapshot.
func (c *Cache) Purge() {
	c.entries.Purge()
}

type CacheStats struct {
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
	Len    int    `json:"len"`
}

func (c *Cache) Stats() CacheStats {
	return CacheStats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Len:    c.entries.Len(),
	}
}
