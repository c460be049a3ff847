package listenbrainz

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/sydlexius/artistorigin/internal/provider"
)

func newTestAdapter(t *testing.T, baseURL, token string) *Adapter {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	client := provider.NewClient(nil, "artistorigin-test/1.0", logger, provider.WithBackoff(1, time.Millisecond))
	return NewWithBaseURL(client, token, logger, baseURL)
}

func TestLookupArtist(t *testing.T) {
	var gotAuth, gotArtist, gotTrack, gotMeta string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/1/metadata/lookup/" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		gotAuth = r.Header.Get("Authorization")
		gotArtist = r.URL.Query().Get("artist_name")
		gotTrack = r.URL.Query().Get("recording_name")
		gotMeta = r.URL.Query().Get("metadata")
		w.Write([]byte(`{"artist_credit_name":"Stromae","artist_mbids":["a5f8bd12-6ba5-47fb-8d5f-7da5a2a9f6c5"],"recording_name":"Papaoutai"}`))
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv.URL, "secret-token")
	mbid, err := a.LookupArtist(context.Background(), "Stromae", "Papaoutai")
	if err != nil {
		t.Fatalf("LookupArtist: %v", err)
	}
	if mbid != "a5f8bd12-6ba5-47fb-8d5f-7da5a2a9f6c5" {
		t.Errorf("mbid = %q", mbid)
	}
	if gotAuth != "Token secret-token" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotArtist != "Stromae" || gotTrack != "Papaoutai" || gotMeta != "true" {
		t.Errorf("params = %q %q %q", gotArtist, gotTrack, gotMeta)
	}
}

func TestLookupArtistFallsBackToArtistCredit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"artist_mbids":[],"recording":{"artist-credit":[{"name":"x"},{"artist":{"id":"0d3f6e8c-9b5d-4c1e-a2f7-3b6a1c9e4d21","name":"Sigur Rós"}}]}}`))
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv.URL, "")
	mbid, err := a.LookupArtist(context.Background(), "Sigur Rós", "Hoppípolla")
	if err != nil {
		t.Fatalf("LookupArtist: %v", err)
	}
	if mbid != "0d3f6e8c-9b5d-4c1e-a2f7-3b6a1c9e4d21" {
		t.Errorf("mbid = %q", mbid)
	}
}

func TestLookupArtistNoMatch(t *testing.T) {
	for _, tc := range []struct {
		name   string
		status int
		body   string
	}{
		{"empty object", http.StatusOK, `{}`},
		{"empty body", http.StatusOK, ``},
		{"not found", http.StatusNotFound, `{"error":"not found"}`},
		{"bad request", http.StatusBadRequest, `{"error":"bad"}`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			a := newTestAdapter(t, srv.URL, "")
			mbid, err := a.LookupArtist(context.Background(), "Nobody", "Nothing")
			if err != nil {
				t.Fatalf("LookupArtist: %v", err)
			}
			if mbid != "" {
				t.Errorf("mbid = %q, want empty", mbid)
			}
		})
	}
}

func TestLookupArtistUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv.URL, "")
	_, err := a.LookupArtist(context.Background(), "Stromae", "Papaoutai")
	var unavailable *provider.ErrUnavailable
	if !errors.As(err, &unavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}
