// Package redis provides a cache.Store on a Redis server. Expiry is
// delegated to Redis key TTLs, so the store can be shared by several
// processes.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/laraxot/module-ai-fila5/pkg/cache"
	"github.com/laraxot/module-ai-fila5/pkg/cachekey"
)

var _ cache.Store = (*Store)(nil)

const scanBatch = 200

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// Store is a cache.Store backed by Redis.
type Store struct {
	client *goredis.Client
	match  string
}

// New connects to Redis and verifies the connection with PING.
func New(ctx context.Context, opts Options) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", opts.Addr, err)
	}
	return NewWithClient(client), nil
}

// NewWithClient wraps an existing client. The store owns it afterwards.
func NewWithClient(client *goredis.Client) *Store {
	return &Store{client: client, match: cachekey.Prefix + ":*"}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	return v, true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Clear deletes every cache key. Redis drops expired keys on its own, so
// Clear(true) has nothing to do.
func (s *Store) Clear(ctx context.Context, expiredOnly bool) error {
	if expiredOnly {
		return nil
	}
	iter := s.client.Scan(ctx, 0, s.match, scanBatch).Iterator()
	batch := make([]string, 0, scanBatch)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch {
			if err := s.client.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("redis clear: %w", err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}
	if len(batch) > 0 {
		if err := s.client.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("redis clear: %w", err)
		}
	}
	return nil
}

// Len counts cache keys with a SCAN over the key prefix.
func (s *Store) Len(ctx context.Context) (int64, error) {
	var n int64
	iter := s.client.Scan(ctx, 0, s.match, scanBatch).Iterator()
	for iter.Next(ctx) {
		n++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("redis scan: %w", err)
	}
	return n, nil
}

func (s *Store) Name() string { return "redis" }

func (s *Store) Close() error {
	return s.client.Close()
}
