package maintenance

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sydlexius/artistorigin/internal/cache"
	"github.com/sydlexius/artistorigin/internal/database"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func setupService(t *testing.T) (*Service, *cache.Store) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "cache.db")
	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatalf("opening db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrating db: %v", err)
	}
	return NewService(db, dbPath, testLogger()), cache.New(db, testLogger())
}

func TestStatusEmpty(t *testing.T) {
	svc, _ := setupService(t)
	st, err := svc.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.Entries != 0 || !st.OldestEntry.IsZero() {
		t.Errorf("unexpected status for empty cache: %+v", st)
	}
	if st.PageSize <= 0 || st.DBFileSize <= 0 {
		t.Errorf("expected page size and file size, got %+v", st)
	}
}

func TestStatusCountsFlushedEntries(t *testing.T) {
	svc, store := setupService(t)
	ctx := context.Background()
	before := time.Now().Add(-time.Second)

	cache.SetJSON(store, "country_a", "BE")
	cache.SetJSON(store, "country_b", "IS")
	if err := store.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	st, err := svc.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.Entries != 2 {
		t.Errorf("entries = %d, want 2", st.Entries)
	}
	if st.NewestEntry.Before(before) || st.OldestEntry.After(st.NewestEntry) {
		t.Errorf("unexpected timestamps: oldest %v newest %v", st.OldestEntry, st.NewestEntry)
	}
}

func TestOptimizeTruncatesWAL(t *testing.T) {
	svc, store := setupService(t)
	ctx := context.Background()

	cache.SetJSON(store, "mb_artist_x", map[string]string{"name": "x"})
	if err := store.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if err := svc.Optimize(ctx); err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	st, err := svc.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.WALFileSize != 0 {
		t.Errorf("expected empty WAL after checkpoint, got %d bytes", st.WALFileSize)
	}
}
