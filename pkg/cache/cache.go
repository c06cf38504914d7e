// Package cache memoises task results under per-task TTLs.
//
// A ResultCache sits in front of a Store. Values are opaque bytes; Fetch
// adds JSON encoding for typed callers. Failed computations are never
// stored, and a store that errors degrades to a miss instead of failing the
// call.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/laraxot/module-ai-fila5/pkg/logging"
	"github.com/laraxot/module-ai-fila5/pkg/models"
)

// Store is a key/value backend with per-entry expiry.
type Store interface {
	// Get returns the value for key, or false when absent or expired.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value under key until ttl elapses.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Clear removes entries. If expiredOnly is true, only expired entries are removed.
	Clear(ctx context.Context, expiredOnly bool) error
	// Len returns the number of stored entries.
	Len(ctx context.Context) (int64, error)
	// Name identifies the backend in stats output.
	Name() string
	// Close releases resources.
	Close() error
}

// Clock returns the current time. Stores take one so tests can move time.
type Clock func() time.Time

// ComputeFunc produces the value for a missing key.
type ComputeFunc func(ctx context.Context) ([]byte, error)

// ResultCache wraps a Store with get-or-compute semantics.
type ResultCache struct {
	store  Store
	group  *singleflight.Group
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

// Option customizes a ResultCache.
type Option func(*ResultCache)

// WithSingleFlight makes concurrent misses on one key share a single
// computation. Without it every concurrent miss computes independently.
func WithSingleFlight(enabled bool) Option {
	return func(c *ResultCache) {
		if enabled {
			c.group = &singleflight.Group{}
		} else {
			c.group = nil
		}
	}
}

// WithLogger sets the logger used for store failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *ResultCache) {
		c.logger = logging.OrNop(logger)
	}
}

// New creates a ResultCache over store.
func New(store Store, opts ...Option) *ResultCache {
	c := &ResultCache{
		store:  store,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOrCompute returns the live value for key, or runs compute, stores its
// result for ttl and returns it. hit reports whether compute was skipped.
func (c *ResultCache) GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute ComputeFunc) (value []byte, hit bool, err error) {
	if v, ok := c.lookup(ctx, key); ok {
		c.hits.Add(1)
		return v, true, nil
	}
	c.misses.Add(1)

	if c.group == nil {
		v, err := c.fill(ctx, key, ttl, compute)
		return v, false, err
	}

	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	// The shared flight ignores the starting caller's cancellation; each
	// caller stops on its own ctx.
	flightCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		// A flight that finished between our lookup and DoChan already stored it.
		if v, ok := c.lookup(flightCtx, key); ok {
			return v, nil
		}
		return c.fill(flightCtx, key, ttl, compute)
	})
	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		return res.Val.([]byte), false, nil
	}
}

// Stats reports hit/miss counters and the number of stored entries.
func (c *ResultCache) Stats(ctx context.Context) (models.CacheStats, error) {
	n, err := c.store.Len(ctx)
	if err != nil {
		return models.CacheStats{}, err
	}
	return models.CacheStats{
		Backend: c.store.Name(),
		Entries: n,
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}, nil
}

// Clear removes stored entries.
func (c *ResultCache) Clear(ctx context.Context, expiredOnly bool) error {
	return c.store.Clear(ctx, expiredOnly)
}

// Close closes the underlying store.
func (c *ResultCache) Close() error {
	return c.store.Close()
}

func (c *ResultCache) lookup(ctx context.Context, key string) ([]byte, bool) {
	v, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache read failed", "key", key, "backend", c.store.Name(), "error", err)
		return nil, false
	}
	return v, ok
}

func (c *ResultCache) fill(ctx context.Context, key string, ttl time.Duration, compute ComputeFunc) ([]byte, error) {
	v, err := compute(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.store.Set(ctx, key, v, ttl); err != nil {
		c.logger.Warn("cache write failed", "key", key, "backend", c.store.Name(), "error", err)
	}
	return v, nil
}

// Fetch is GetOrCompute for JSON-encodable values. A cached entry that no
// longer decodes into T is recomputed and overwritten.
func Fetch[T any](ctx context.Context, c *ResultCache, key string, ttl time.Duration, compute func(ctx context.Context) (T, error)) (T, bool, error) {
	encode := func(ctx context.Context) ([]byte, error) {
		v, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(v)
	}

	var out T
	raw, hit, err := c.GetOrCompute(ctx, key, ttl, encode)
	if err != nil {
		return out, false, err
	}
	if err := json.Unmarshal(raw, &out); err == nil {
		return out, hit, nil
	} else if !hit {
		return out, false, err
	}

	c.logger.Warn("discarding undecodable cache entry", "key", key)
	raw, err = c.fill(ctx, key, ttl, encode)
	if err != nil {
		return out, false, err
	}
	out = *new(T)
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, false, err
	}
	return out, false, nil
}
