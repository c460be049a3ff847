package cache

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/sydlexius/artistorigin/internal/database"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func openDB(t *testing.T, path string) *sql.DB {
	t.Helper()
	db, err := database.Open(path)
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	if err := database.Migrate(context.Background(), db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}
	return db
}

func setupStore(t *testing.T) *Store {
	t.Helper()
	db := openDB(t, ":memory:")
	t.Cleanup(func() { _ = db.Close() })
	return New(db, testLogger())
}

func TestSetThenGetBeforeFlush(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	s.Set("mb_artist_x", []byte(`{"id":"x"}`))
	got, ok := s.Get(ctx, "mb_artist_x")
	if !ok {
		t.Fatal("expected hit before flush")
	}
	if string(got) != `{"id":"x"}` {
		t.Errorf("value = %s", got)
	}
	if !s.Dirty() {
		t.Error("expected store to be dirty")
	}

	n, err := s.Len(ctx)
	if err != nil {
		t.Fatalf("Len: %v", err)
	}
	if n != 0 {
		t.Errorf("durable entries before flush = %d, want 0", n)
	}
}

func TestGetMiss(t *testing.T) {
	s := setupStore(t)
	if _, ok := s.Get(context.Background(), "absent"); ok {
		t.Error("expected miss")
	}
}

func TestFlushSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	ctx := context.Background()

	db := openDB(t, path)
	s := New(db, testLogger())
	s.Set("country_abc", []byte(`"BE"`))
	s.Set("country_def", []byte(`null`))
	if err := s.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if s.Dirty() {
		t.Error("store still dirty after flush")
	}
	if err := db.Close(); err != nil {
		t.Fatalf("closing db: %v", err)
	}

	// Fresh in-memory layers, same durable store.
	db2 := openDB(t, path)
	defer db2.Close()
	s2 := New(db2, testLogger())

	got, ok := s2.Get(ctx, "country_abc")
	if !ok || string(got) != `"BE"` {
		t.Errorf("after restart got %q, %v; want \"BE\", true", got, ok)
	}
	got, ok = s2.Get(ctx, "country_def")
	if !ok || string(got) != "null" {
		t.Errorf("cached null lost: %q, %v", got, ok)
	}
}

func TestFlushUpsertsExistingKeys(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	s.Set("k", []byte("1"))
	if err := s.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	s.Set("k", []byte("2"))
	if err := s.Flush(ctx); err != nil {
		t.Fatalf("second Flush: %v", err)
	}

	fresh := New(s.db, testLogger())
	got, ok := fresh.Get(ctx, "k")
	if !ok || string(got) != "2" {
		t.Errorf("got %q, %v; want 2", got, ok)
	}
	n, _ := s.Len(ctx)
	if n != 1 {
		t.Errorf("entries = %d, want 1", n)
	}
}

func TestFlushNoopWhenClean(t *testing.T) {
	s := setupStore(t)
	if err := s.Flush(context.Background()); err != nil {
		t.Fatalf("Flush on clean store: %v", err)
	}
}

func TestGetJSONCorruptValueIsMiss(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO kv_cache(key, value, updated_at) VALUES (?, ?, ?)`, "broken", []byte("{not json"), 0.0); err != nil {
		t.Fatalf("seeding corrupt row: %v", err)
	}

	if _, ok := GetJSON[map[string]string](ctx, s, "broken"); ok {
		t.Error("corrupt value should be a miss")
	}
}

func TestJSONRoundTripTypes(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	type tracks []struct {
		Title string `json:"title"`
		ISRC  string `json:"isrc"`
	}
	SetJSON(s, "spotify_top_tracks_1", tracks{{Title: "Papaoutai", ISRC: "BEUM71300162"}})

	got, ok := GetJSON[tracks](ctx, s, "spotify_top_tracks_1")
	if !ok {
		t.Fatal("expected hit")
	}
	if len(got) != 1 || got[0].Title != "Papaoutai" {
		t.Errorf("got %+v", got)
	}

	SetJSON[*string](s, "country_none", nil)
	v, ok := GetJSON[*string](ctx, s, "country_none")
	if !ok {
		t.Fatal("cached nil should be a hit")
	}
	if v != nil {
		t.Errorf("expected nil, got %q", *v)
	}
}

func TestMigrateLegacyIsIdempotent(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	s.Set("existing", []byte(`"kept"`))
	if err := s.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	legacy := filepath.Join(t.TempDir(), "legacy.json")
	data := `{"existing": "overwritten?", "country_1": "SE", "tracks_1": [{"title":"Hoppípolla"}]}`
	if err := os.WriteFile(legacy, []byte(data), 0o600); err != nil {
		t.Fatalf("writing legacy file: %v", err)
	}

	n, err := s.MigrateLegacy(ctx, legacy)
	if err != nil {
		t.Fatalf("MigrateLegacy: %v", err)
	}
	if n != 2 {
		t.Errorf("imported = %d, want 2", n)
	}

	n, err = s.MigrateLegacy(ctx, legacy)
	if err != nil {
		t.Fatalf("second MigrateLegacy: %v", err)
	}
	if n != 0 {
		t.Errorf("second import = %d, want 0", n)
	}

	fresh := New(s.db, testLogger())
	if got, _ := GetJSON[string](ctx, fresh, "existing"); got != "kept" {
		t.Errorf("existing key overwritten: %q", got)
	}
	if got, _ := GetJSON[string](ctx, fresh, "country_1"); got != "SE" {
		t.Errorf("country_1 = %q, want SE", got)
	}
}

func TestMigrateLegacyMissingOrInvalidFile(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	n, err := s.MigrateLegacy(ctx, filepath.Join(t.TempDir(), "absent.json"))
	if err != nil || n != 0 {
		t.Errorf("missing file: n=%d err=%v", n, err)
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	_ = os.WriteFile(bad, []byte("[1,2,3]"), 0o600)
	n, err = s.MigrateLegacy(ctx, bad)
	if err != nil || n != 0 {
		t.Errorf("invalid file: n=%d err=%v", n, err)
	}
}

func TestConcurrentSetGetFlush(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				key := string(rune('a'+w)) + "_" + string(rune('0'+i%10))
				s.Set(key, []byte(`1`))
				if _, ok := s.Get(ctx, key); !ok {
					t.Errorf("missing own write %s", key)
				}
				if i%10 == 0 {
					if err := s.Flush(ctx); err != nil {
						t.Errorf("Flush: %v", err)
					}
				}
			}
		}(w)
	}
	wg.Wait()

	if err := s.Flush(ctx); err != nil {
		t.Fatalf("final Flush: %v", err)
	}
	n, err := s.Len(ctx)
	if err != nil {
		t.Fatalf("Len: %v", err)
	}
	if n != 80 {
		t.Errorf("durable entries = %d, want 80", n)
	}
}
