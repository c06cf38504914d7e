// Package sqlite provides a cache.Store backed by SQLite, so cached task
// results survive restarts of the CLI.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/laraxot/module-ai-fila5/pkg/cache"
)

var _ cache.Store = (*Store)(nil)

// Store is a cache.Store backed by a single SQLite table.
type Store struct {
	db  *sql.DB
	now cache.Clock
}

const createCacheTable = `
CREATE TABLE IF NOT EXISTS cache_entries (
	key TEXT PRIMARY KEY,
	value BLOB NOT NULL,
	expires_at INTEGER NOT NULL
);
`

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides time.Now for expiry checks.
func WithClock(now cache.Clock) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New opens (or creates) the cache table in the database at dbPath.
func New(dbPath string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	if _, err := db.Exec(createCacheTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate cache db: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Get retrieves a live entry. Expired rows are reported as misses and left
// for Clear.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	var expiresAt int64

	err := s.db.QueryRowContext(ctx,
		`SELECT value, expires_at FROM cache_entries WHERE key = ?`, key,
	).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}

	if s.now().UnixNano() >= expiresAt {
		return nil, false, nil
	}
	return value, true, nil
}

// Set stores value under key until ttl elapses.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO cache_entries (key, value, expires_at) VALUES (?, ?, ?)`,
		key, value, s.now().Add(ttl).UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}

// Clear removes cache entries. If expiredOnly is true, only expired entries are removed.
func (s *Store) Clear(ctx context.Context, expiredOnly bool) error {
	var err error
	if expiredOnly {
		_, err = s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE expires_at <= ?`, s.now().UnixNano())
	} else {
		_, err = s.db.ExecContext(ctx, `DELETE FROM cache_entries`)
	}
	if err != nil {
		return fmt.Errorf("cache clear: %w", err)
	}
	return nil
}

// Len counts stored rows, expired ones included.
func (s *Store) Len(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cache_entries`).Scan(&count); err != nil {
		return 0, fmt.Errorf("cache stats: %w", err)
	}
	return count, nil
}

func (s *Store) Name() string { return "sqlite" }

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
