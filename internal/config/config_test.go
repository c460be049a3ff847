package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Output.Path != "countries.csv" {
		t.Errorf("output path = %q", cfg.Output.Path)
	}
	if cfg.RateLimits.MusicBrainz != 1050*time.Millisecond {
		t.Errorf("musicbrainz interval = %v", cfg.RateLimits.MusicBrainz)
	}
	if cfg.Search.TopN != 2 || cfg.Search.MinScore != 45 || cfg.Search.CloseScoreDelta != 8 || cfg.Search.URLRelationGate != 60 {
		t.Errorf("unexpected search defaults: %+v", cfg.Search)
	}
	if cfg.Batch.Workers != 8 || cfg.Batch.CheckpointEvery != 25 {
		t.Errorf("unexpected batch defaults: %+v", cfg.Batch)
	}
	if !strings.HasPrefix(cfg.UserAgent, "artistorigin/") {
		t.Errorf("user agent = %q", cfg.UserAgent)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
spotify:
  client_id: file-id
  playlist: https://open.spotify.com/playlist/37i9dQZF1DX0XUsuxWHRQd
rate_limits:
  musicbrainz: 2s
batch:
  workers: 4
search:
  min_score: 50
translation:
  enabled: true
  endpoint: http://localhost:5000/
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Setenv("AO_SPOTIFY_CLIENT_ID", "env-id")
	t.Setenv("AO_WORKERS", "3")
	t.Setenv("AO_NLP", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Spotify.ClientID != "env-id" {
		t.Errorf("client id = %q, want env override", cfg.Spotify.ClientID)
	}
	if cfg.Spotify.Playlist == "" {
		t.Error("expected playlist from file")
	}
	if cfg.RateLimits.MusicBrainz != 2*time.Second {
		t.Errorf("musicbrainz interval = %v", cfg.RateLimits.MusicBrainz)
	}
	if cfg.RateLimits.ListenBrainz != 200*time.Millisecond {
		t.Errorf("listenbrainz interval should keep its default, got %v", cfg.RateLimits.ListenBrainz)
	}
	if cfg.Batch.Workers != 3 {
		t.Errorf("workers = %d", cfg.Batch.Workers)
	}
	if cfg.Search.MinScore != 50 || cfg.Search.TopN != 2 {
		t.Errorf("unexpected search config: %+v", cfg.Search)
	}
	if cfg.Translation.Endpoint != "http://localhost:5000" {
		t.Errorf("endpoint = %q", cfg.Translation.Endpoint)
	}
	if !cfg.NLP.Enabled {
		t.Error("expected NLP enabled from env")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err != nil {
		t.Fatalf("Load: %v", err)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name, yaml, want string
	}{
		{"workers", "batch: {workers: 0}", "invalid worker count"},
		{"log level", "logging: {level: loud}", "invalid log level"},
		{"translation", "translation: {enabled: true}", "no endpoint"},
		{"syntax", "batch: [", "loading config file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0o644); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}
			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
