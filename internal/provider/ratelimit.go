package provider

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Default minimum spacing between the starts of two calls to a service.
var defaultIntervals = map[ServiceName]time.Duration{
	NameMusicBrainz:  1050 * time.Millisecond,
	NameListenBrainz: 200 * time.Millisecond,
}

// DefaultInterval returns the built-in minimum call interval for a service,
// or zero when the service is not limited.
func DefaultInterval(name ServiceName) time.Duration {
	return defaultIntervals[name]
}

// RateLimiterMap holds one rate.Limiter per service. A limiter with burst 1
// and rate.Every(interval) admits a call only once interval has passed since
// the previous admission, so concurrent bursts collapse to the configured rate.
type RateLimiterMap struct {
	mu       sync.RWMutex
	limiters map[ServiceName]*rate.Limiter
}

// NewRateLimiterMap creates limiters for the default intervals, overridden by
// any entries in intervals. A zero or negative interval disables limiting for
// that service.
func NewRateLimiterMap(intervals map[ServiceName]time.Duration) *RateLimiterMap {
	m := &RateLimiterMap{
		limiters: make(map[ServiceName]*rate.Limiter, len(defaultIntervals)),
	}
	for name, interval := range defaultIntervals {
		m.set(name, interval)
	}
	for name, interval := range intervals {
		m.set(name, interval)
	}
	return m
}

func (m *RateLimiterMap) set(name ServiceName, interval time.Duration) {
	if interval <= 0 {
		delete(m.limiters, name)
		return
	}
	m.limiters[name] = rate.NewLimiter(rate.Every(interval), 1)
}

// Wait blocks until the limiter for the given service allows a request,
// or the context is canceled. Services without a limiter return immediately.
func (m *RateLimiterMap) Wait(ctx context.Context, name ServiceName) error {
	m.mu.RLock()
	limiter, ok := m.limiters[name]
	m.mu.RUnlock()
	if !ok {
		return nil
	}
	return limiter.Wait(ctx)
}
