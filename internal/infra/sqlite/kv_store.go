// Package sqlite keeps preferences in a local SQLite file, the on-disk counterpart of
// a browser's local storage.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // driver: sqlite

	"quizwizz-play/internal/prefs"
)

const schema = `
CREATE TABLE IF NOT EXISTS prefs (
  key TEXT PRIMARY KEY,
  value BLOB NOT NULL,
  updated_at INTEGER NOT NULL
);
`

// KVStore is a prefs.Store on SQLite. Subscriptions only see writes made through the
// same KVStore.
type KVStore struct {
	db      *sql.DB
	now     func() time.Time
	writeMu sync.Mutex
	fanout  prefs.Fanout
}

// Open opens (or creates) the database at dsn and ensures the schema exists. An empty
// dsn uses quizwizz.db in the working directory.
func Open(ctx context.Context, dsn string) (*KVStore, error) {
	if dsn == "" {
		dsn = "file:quizwizz.db?mode=rwc&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create prefs schema: %w", err)
	}
	return &KVStore{db: db, now: time.Now}, nil
}

func (s *KVStore) Close() error {
	return s.db.Close()
}

func (s *KVStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM prefs WHERE key=$1`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

const upsert = `INSERT INTO prefs (key,value,updated_at)
	VALUES ($1,$2,$3)
	ON CONFLICT (key) DO UPDATE SET value=EXCLUDED.value, updated_at=EXCLUDED.updated_at`

func (s *KVStore) Set(ctx context.Context, key string, value []byte) error {
	s.writeMu.Lock()
	_, err := s.db.ExecContext(ctx, upsert, key, value, s.now().UnixMilli())
	s.writeMu.Unlock()
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	s.fanout.Publish(key, value)
	return nil
}

// Update reads and rewrites key inside one transaction. Writers of this store are
// serialized, so a read-then-write never has to upgrade a shared lock.
func (s *KVStore) Update(ctx context.Context, key string, fn func([]byte, bool) ([]byte, error)) ([]byte, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", key, err)
	}
	defer tx.Rollback()

	var current []byte
	ok := true
	err = tx.QueryRowContext(ctx, `SELECT value FROM prefs WHERE key=$1`, key).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		ok = false
	} else if err != nil {
		return nil, fmt.Errorf("update %s: %w", key, err)
	}

	next, err := fn(current, ok)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, upsert, key, next, s.now().UnixMilli()); err != nil {
		return nil, fmt.Errorf("update %s: %w", key, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("update %s: %w", key, err)
	}
	s.fanout.Publish(key, next)
	return next, nil
}

func (s *KVStore) Subscribe(ctx context.Context, key string) (<-chan []byte, func(), error) {
	ch, cancel := s.fanout.Subscribe(ctx, key)
	return ch, cancel, nil
}
