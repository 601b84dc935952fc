// Package cache holds computed schemas for a fixed time-to-live.
package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultTTL is used when New receives a non-positive ttl.
const DefaultTTL = time.Hour

// Result values reported to the observer.
const (
	ResultHit     = "hit"
	ResultMiss    = "miss"
	ResultRefresh = "refresh"
	ResultShared  = "shared"
)

// Observer receives one result per GetOrLoad call.
type Observer interface {
	ObserveCache(result string)
}

// Option configures a Cache.
type Option func(*config)

type config struct {
	now      func() time.Time
	observer Observer
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		if now != nil {
			c.now = now
		}
	}
}

// WithObserver reports hits and misses.
func WithObserver(o Observer) Option {
	return func(c *config) {
		c.observer = o
	}
}

type item[V any] struct {
	value  V
	stored time.Time
}

// Cache maps keys to values that expire ttl after they were stored.
// Expired entries are dropped lazily on read.
type Cache[V any] struct {
	ttl      time.Duration
	now      func() time.Time
	observer Observer

	mu    sync.RWMutex
	items map[string]item[V]
	group singleflight.Group
}

// New creates a cache.
func New[V any](ttl time.Duration, opts ...Option) *Cache[V] {
	cfg := config{now: time.Now}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache[V]{
		ttl:      ttl,
		now:      cfg.now,
		observer: cfg.observer,
		items:    make(map[string]item[V]),
	}
}

// TTL returns the configured lifetime.
func (c *Cache[V]) TTL() time.Duration {
	return c.ttl
}

// Get returns the value for key when it has not expired.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()

	if !ok {
		var zero V
		return zero, false
	}
	if c.now().Sub(it.stored) >= c.ttl {
		c.mu.Lock()
		if cur, ok := c.items[key]; ok && cur.stored.Equal(it.stored) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		var zero V
		return zero, false
	}
	return it.value, true
}

// Set stores value under key, stamped with the current time.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = item[V]{value: value, stored: c.now()}
}

// Invalidate removes key.
func (c *Cache[V]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// InvalidatePrefix removes every key starting with prefix and returns how
// many were removed.
func (c *Cache[V]) InvalidatePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			delete(c.items, key)
			n++
		}
	}
	return n
}

// InvalidateAll empties the cache.
func (c *Cache[V]) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]item[V])
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// GetOrLoad returns the cached value for key, or calls load and stores its
// result. Concurrent callers for the same key share one load. forceRefresh
// skips the lookup but still shares in-flight loads. Failed loads are not
// cached.
//
// The shared load runs detached from ctx cancellation, so a caller that
// gives up does not fail the others waiting on the same key. ctx values
// still reach load, and each caller stops waiting when its own ctx ends.
func (c *Cache[V]) GetOrLoad(ctx context.Context, key string, forceRefresh bool, load func(context.Context) (V, error)) (V, error) {
	if !forceRefresh {
		if v, ok := c.Get(key); ok {
			c.observe(ResultHit)
			return v, nil
		}
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		v, err := load(loadCtx)
		if err != nil {
			return v, err
		}
		c.Set(key, v)
		return v, nil
	})

	var zero V
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		switch {
		case res.Shared:
			c.observe(ResultShared)
		case forceRefresh:
			c.observe(ResultRefresh)
		default:
			c.observe(ResultMiss)
		}
		if res.Err != nil {
			return zero, fmt.Errorf("cache: load %s: %w", key, res.Err)
		}
		v, _ := res.Val.(V)
		return v, nil
	}
}

func (c *Cache[V]) observe(result string) {
	if c.observer != nil {
		c.observer.ObserveCache(result)
	}
}

// Key joins the parts identifying a cached schema.
func Key(parts ...string) string {
	return strings.Join(parts, "|")
}
