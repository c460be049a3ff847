package cache

import (
	"context"
	"encoding/json"
	"log/slog"
)

// GetJSON decodes the value stored under key into a T. Values that fail to
// decode are logged and treated as a miss.
func GetJSON[T any](ctx context.Context, s *Store, key string) (T, bool) {
	var zero T
	raw, ok := s.Get(ctx, key)
	if !ok {
		return zero, false
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		s.logger.Warn("discarding undecodable cache entry",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return zero, false
	}
	return v, true
}

// SetJSON encodes v and stores it under key. Encoding failures are logged and
// the value is not cached.
func SetJSON[T any](s *Store, key string, v T) {
	raw, err := json.Marshal(v)
	if err != nil {
		s.logger.Warn("encoding cache entry", slog.String("key", key), slog.String("error", err.Error()))
		return
	}
	s.Set(key, raw)
}
