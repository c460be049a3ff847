// Package cache provides the durable memoization table that deduplicates
// external API calls within a run and across runs.
//
// Reads consult, in order, the write buffer (values set this run but not yet
// flushed), the read cache (values already loaded this run) and finally the
// kv_cache table. Writes land in the buffer and become durable on Flush.
package cache

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Store is a read-through, write-behind key/value cache backed by SQLite.
// It is safe for concurrent use.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time

	mu     sync.Mutex // guards buffer, mem, dirty
	buffer map[string][]byte
	mem    map[string][]byte
	dirty  bool

	flushMu sync.Mutex // single writer during Flush and MigrateLegacy
}

// New creates a Store over an already migrated database.
func New(db *sql.DB, logger *slog.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger.With(slog.String("component", "cache")),
		now:    time.Now,
		buffer: make(map[string][]byte),
		mem:    make(map[string][]byte),
	}
}

// Get returns the raw value stored under key. Storage errors are logged and
// reported as a miss.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool) {
	s.mu.Lock()
	if v, ok := s.buffer[key]; ok {
		s.mu.Unlock()
		return v, true
	}
	if v, ok := s.mem[key]; ok {
		s.mu.Unlock()
		return v, true
	}
	s.mu.Unlock()

	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv_cache WHERE key = ? LIMIT 1`, key).Scan(&value)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("reading cache entry", slog.String("key", key), slog.String("error", err.Error()))
		}
		return nil, false
	}

	s.mu.Lock()
	// A concurrent Set wins over the durable value.
	if v, ok := s.buffer[key]; ok {
		s.mu.Unlock()
		return v, true
	}
	s.mem[key] = value
	s.mu.Unlock()
	return value, true
}

// Set records value under key. The value is visible to this process
// immediately and to other processes after the next Flush.
func (s *Store) Set(key string, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buffer[key] = value
	s.mem[key] = value
	s.dirty = true
}

// Dirty reports whether there are unflushed writes.
func (s *Store) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Flush upserts every buffered write in a single transaction. Either all
// buffered keys become durable or none do; on failure the buffer is kept for
// the next attempt.
func (s *Store) Flush(ctx context.Context) error {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	s.mu.Lock()
	if !s.dirty || len(s.buffer) == 0 {
		s.dirty = false
		s.mu.Unlock()
		return nil
	}
	snapshot := make(map[string][]byte, len(s.buffer))
	for k, v := range s.buffer {
		snapshot[k] = v
	}
	s.mu.Unlock()

	if err := s.upsert(ctx, snapshot); err != nil {
		return err
	}

	s.mu.Lock()
	for k, v := range snapshot {
		// Keep keys rewritten while the transaction was running.
		if cur, ok := s.buffer[k]; ok && bytes.Equal(cur, v) {
			delete(s.buffer, k)
		}
	}
	s.dirty = len(s.buffer) > 0
	s.mu.Unlock()

	s.logger.Debug("cache flushed", slog.Int("entries", len(snapshot)))
	return nil
}

func (s *Store) upsert(ctx context.Context, entries map[string][]byte) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning flush: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO kv_cache(key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close() //nolint:errcheck

	ts := unixSeconds(s.now())
	for k, v := range entries {
		if _, err := stmt.ExecContext(ctx, k, v, ts); err != nil {
			return fmt.Errorf("upserting %q: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing flush: %w", err)
	}
	return nil
}

// MigrateLegacy imports a legacy single-file cache, a JSON object mapping
// keys to arbitrary JSON values, into the durable table. Keys that already
// exist are left untouched, so running it repeatedly is harmless. A missing
// or empty file is not an error. It returns the number of imported keys.
func (s *Store) MigrateLegacy(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from trusted configuration
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading legacy cache: %w", err)
	}

	var legacy map[string]json.RawMessage
	if err := json.Unmarshal(data, &legacy); err != nil {
		s.logger.Warn("legacy cache is not a JSON object, skipping", slog.String("path", path), slog.String("error", err.Error()))
		return 0, nil
	}
	if len(legacy) == 0 {
		return 0, nil
	}

	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning legacy import: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO kv_cache(key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO NOTHING`)
	if err != nil {
		return 0, fmt.Errorf("preparing legacy insert: %w", err)
	}
	defer stmt.Close() //nolint:errcheck

	ts := unixSeconds(s.now())
	imported := 0
	for k, v := range legacy {
		res, err := stmt.ExecContext(ctx, k, []byte(v), ts)
		if err != nil {
			return 0, fmt.Errorf("importing %q: %w", k, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			imported++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing legacy import: %w", err)
	}

	s.logger.Info("legacy cache migrated", slog.String("path", path), slog.Int("imported", imported), slog.Int("total", len(legacy)))
	return imported, nil
}

// Len returns the number of durable entries.
func (s *Store) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM kv_cache`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting cache entries: %w", err)
	}
	return n, nil
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
