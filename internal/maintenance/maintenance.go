package maintenance

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"
)

// Status describes the cache database on disk.
type Status struct {
	DBFileSize  int64     `json:"db_file_size"`
	WALFileSize int64     `json:"wal_file_size"`
	PageCount   int64     `json:"page_count"`
	PageSize    int64     `json:"page_size"`
	Entries     int64     `json:"entries"`
	OldestEntry time.Time `json:"oldest_entry,omitzero"`
	NewestEntry time.Time `json:"newest_entry,omitzero"`
}

// Service provides cache database maintenance operations.
type Service struct {
	db     *sql.DB
	dbPath string
	logger *slog.Logger
}

// NewService creates a maintenance service.
func NewService(db *sql.DB, dbPath string, logger *slog.Logger) *Service {
	return &Service{
		db:     db,
		dbPath: dbPath,
		logger: logger.With(slog.String("component", "maintenance")),
	}
}

// Status returns the current size and contents summary of the cache.
func (s *Service) Status(ctx context.Context) (*Status, error) {
	st := &Status{}

	if info, err := os.Stat(s.dbPath); err == nil {
		st.DBFileSize = info.Size()
	}
	if info, err := os.Stat(s.dbPath + "-wal"); err == nil {
		st.WALFileSize = info.Size()
	}

	if err := s.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&st.PageCount); err != nil {
		return nil, fmt.Errorf("reading page_count: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&st.PageSize); err != nil {
		return nil, fmt.Errorf("reading page_size: %w", err)
	}

	var oldest, newest sql.NullFloat64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), MIN(updated_at), MAX(updated_at) FROM kv_cache`).Scan(&st.Entries, &oldest, &newest)
	if err != nil {
		return nil, fmt.Errorf("summarizing cache entries: %w", err)
	}
	if oldest.Valid {
		st.OldestEntry = fromUnixSeconds(oldest.Float64)
	}
	if newest.Valid {
		st.NewestEntry = fromUnixSeconds(newest.Float64)
	}
	return st, nil
}

// Optimize runs PRAGMA optimize followed by a WAL checkpoint, folding the
// write-ahead log back into the main file.
func (s *Service) Optimize(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA optimize"); err != nil {
		return fmt.Errorf("PRAGMA optimize: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("WAL checkpoint: %w", err)
	}
	s.logger.Debug("optimize complete")
	return nil
}

func fromUnixSeconds(sec float64) time.Time {
	return time.Unix(0, int64(sec*float64(time.Second))).UTC()
}
