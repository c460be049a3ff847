package provider

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// ServiceName uniquely identifies an external metadata service.
type ServiceName string

// Known service names.
const (
	NameMusicBrainz  ServiceName = "musicbrainz"
	NameListenBrainz ServiceName = "listenbrainz"
	NameSpotify      ServiceName = "spotify"
	NameTranslate    ServiceName = "translate"
)

// DisplayName returns a human-readable name for the service.
func (n ServiceName) DisplayName() string {
	switch n {
	case NameMusicBrainz:
		return "MusicBrainz"
	case NameListenBrainz:
		return "ListenBrainz"
	case NameSpotify:
		return "Spotify"
	case NameTranslate:
		return "Translation"
	default:
		return string(n)
	}
}

// ErrUnavailable indicates a transient failure (transport error, timeout,
// rate limited or server error). The caller treats it as "no data" for the
// call but must not cache the outcome.
type ErrUnavailable struct {
	Service    ServiceName
	Cause      error
	RetryAfter time.Duration
}

func (e *ErrUnavailable) Error() string {
	return fmt.Sprintf("service %s unavailable: %v", e.Service, e.Cause)
}

func (e *ErrUnavailable) Unwrap() error { return e.Cause }

// ErrNotFound indicates the service has no data for the requested resource.
type ErrNotFound struct {
	Service ServiceName
	ID      string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("service %s: %s not found", e.Service, e.ID)
}

// ErrAuthRequired indicates missing or rejected credentials.
type ErrAuthRequired struct {
	Service ServiceName
	Cause   error
}

func (e *ErrAuthRequired) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("service %s: authentication failed: %v", e.Service, e.Cause)
	}
	return fmt.Sprintf("service %s: credentials not configured", e.Service)
}

func (e *ErrAuthRequired) Unwrap() error { return e.Cause }

// CheckStatus maps a non-2xx response to a typed error. 404 and other client
// errors are definitive "no data" answers (*ErrNotFound); 401/403 become
// *ErrAuthRequired; 429 and 5xx are transient (*ErrUnavailable).
func CheckStatus(service ServiceName, id string, resp *Response) error {
	switch {
	case resp.OK():
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &ErrAuthRequired{Service: service, Cause: fmt.Errorf("HTTP %d", resp.StatusCode)}
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return &ErrUnavailable{
			Service:    service,
			Cause:      fmt.Errorf("HTTP %d", resp.StatusCode),
			RetryAfter: retryAfter(resp.Header),
		}
	default:
		return &ErrNotFound{Service: service, ID: id}
	}
}

func retryAfter(h http.Header) time.Duration {
	if secs, err := strconv.Atoi(h.Get("Retry-After")); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 2 * time.Second
}

// IsTransient reports whether err is an *ErrUnavailable. Transient outcomes
// must not be cached.
func IsTransient(err error) bool {
	var u *ErrUnavailable
	return errors.As(err, &u)
}

// IsNotFound reports whether err is an *ErrNotFound.
func IsNotFound(err error) bool {
	var nf *ErrNotFound
	return errors.As(err, &nf)
}
