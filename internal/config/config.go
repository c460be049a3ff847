package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sydlexius/artistorigin/internal/logging"
	"github.com/sydlexius/artistorigin/internal/version"
)

// Config holds all application configuration.
type Config struct {
	UserAgent    string             `yaml:"user_agent"`
	Spotify      SpotifyConfig      `yaml:"spotify"`
	ListenBrainz ListenBrainzConfig `yaml:"listenbrainz"`
	Output       OutputConfig       `yaml:"output"`
	Cache        CacheConfig        `yaml:"cache"`
	RateLimits   RateLimitConfig    `yaml:"rate_limits"`
	Batch        BatchConfig        `yaml:"batch"`
	Search       SearchConfig       `yaml:"search"`
	Translation  TranslationConfig  `yaml:"translation"`
	NLP          NLPConfig          `yaml:"nlp"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// SpotifyConfig holds streaming-service credentials and the artist source.
type SpotifyConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	Playlist     string `yaml:"playlist"`
}

// ListenBrainzConfig holds the listening-history API token.
type ListenBrainzConfig struct {
	Token string `yaml:"token"`
}

// OutputConfig holds the dataset location.
type OutputConfig struct {
	Path string `yaml:"path"`
}

// CacheConfig holds the cache database settings.
type CacheConfig struct {
	Path          string `yaml:"path"`
	LegacyPath    string `yaml:"legacy_path"`
	MigrateLegacy bool   `yaml:"migrate_legacy"`
}

// RateLimitConfig holds the minimum interval between calls per service.
type RateLimitConfig struct {
	MusicBrainz  time.Duration `yaml:"musicbrainz"`
	ListenBrainz time.Duration `yaml:"listenbrainz"`
}

// BatchConfig holds worker pool settings.
type BatchConfig struct {
	Workers         int `yaml:"workers"`
	CheckpointEvery int `yaml:"checkpoint_every"`
}

// SearchConfig holds scored-search tuning.
type SearchConfig struct {
	TopN            int `yaml:"top_n"`
	MinScore        int `yaml:"min_score"`
	CloseScoreDelta int `yaml:"close_score_delta"`
	URLRelationGate int `yaml:"url_relation_score_gate"`
}

// TranslationConfig enables name translation through a LibreTranslate
// compatible endpoint.
type TranslationConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key"`
}

// NLPConfig enables entity extraction for country inference.
type NLPConfig struct {
	Enabled bool `yaml:"enabled"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	FilePath   string `yaml:"file_path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxFiles   int    `yaml:"max_files"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		UserAgent: "artistorigin/" + version.Version + " (https://github.com/sydlexius/artistorigin)",
		Output: OutputConfig{
			Path: "countries.csv",
		},
		Cache: CacheConfig{
			Path:          "artistorigin_cache.db",
			LegacyPath:    "artistorigin_cache.json",
			MigrateLegacy: true,
		},
		RateLimits: RateLimitConfig{
			MusicBrainz:  1050 * time.Millisecond,
			ListenBrainz: 200 * time.Millisecond,
		},
		Batch: BatchConfig{
			Workers:         8,
			CheckpointEvery: 25,
		},
		Search: SearchConfig{
			TopN:            2,
			MinScore:        45,
			CloseScoreDelta: 8,
			URLRelationGate: 60,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     logging.FormatAuto,
			MaxSizeMB:  10,
			MaxFiles:   3,
			MaxAgeDays: 30,
		},
	}
}

// Load reads config from a YAML file (if it exists) and overrides with
// environment variables. Environment variables take precedence.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFromFile(path); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	cfg.loadFromEnv()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is from trusted CLI or env
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) loadFromEnv() {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString("AO_USER_AGENT", &c.UserAgent)
	setString("AO_SPOTIFY_CLIENT_ID", &c.Spotify.ClientID)
	setString("AO_SPOTIFY_CLIENT_SECRET", &c.Spotify.ClientSecret)
	setString("AO_PLAYLIST", &c.Spotify.Playlist)
	setString("AO_LISTENBRAINZ_TOKEN", &c.ListenBrainz.Token)
	setString("AO_OUTPUT_PATH", &c.Output.Path)
	setString("AO_CACHE_PATH", &c.Cache.Path)
	setString("AO_LOG_LEVEL", &c.Logging.Level)
	setString("AO_LOG_FORMAT", &c.Logging.Format)
	setString("AO_LOG_FILE", &c.Logging.FilePath)

	if v := os.Getenv("AO_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Batch.Workers = n
		}
	}
	if v := os.Getenv("AO_TRANSLATE_ENDPOINT"); v != "" {
		c.Translation.Endpoint = v
		c.Translation.Enabled = true
	}
	if v := os.Getenv("AO_NLP"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.NLP.Enabled = b
		}
	}
}

func (c *Config) validate() error {
	var errs []error
	if strings.TrimSpace(c.UserAgent) == "" {
		errs = append(errs, errors.New("user_agent is required"))
	}
	if c.Output.Path == "" {
		errs = append(errs, errors.New("output path is required"))
	}
	if c.Cache.Path == "" {
		errs = append(errs, errors.New("cache path is required"))
	}
	if c.Batch.Workers < 1 {
		errs = append(errs, fmt.Errorf("invalid worker count: %d", c.Batch.Workers))
	}
	if c.Batch.CheckpointEvery < 1 {
		errs = append(errs, fmt.Errorf("invalid checkpoint interval: %d", c.Batch.CheckpointEvery))
	}
	if c.Search.TopN < 1 {
		errs = append(errs, fmt.Errorf("invalid search top_n: %d", c.Search.TopN))
	}
	if c.RateLimits.MusicBrainz < 0 || c.RateLimits.ListenBrainz < 0 {
		errs = append(errs, errors.New("rate limit intervals must not be negative"))
	}
	if c.Translation.Enabled && c.Translation.Endpoint == "" {
		errs = append(errs, errors.New("translation is enabled but no endpoint is set"))
	}
	if !logging.ValidLevel(c.Logging.Level) {
		errs = append(errs, fmt.Errorf("invalid log level: %q", c.Logging.Level))
	}
	if !logging.ValidFormat(c.Logging.Format) {
		errs = append(errs, fmt.Errorf("invalid log format: %q", c.Logging.Format))
	}
	c.Translation.Endpoint = strings.TrimRight(c.Translation.Endpoint, "/")
	return errors.Join(errs...)
}

// LoggingManagerConfig converts the logging section for logging.NewManager.
func (c *Config) LoggingManagerConfig() logging.Config {
	return logging.Config{
		Level:      c.Logging.Level,
		Format:     c.Logging.Format,
		FilePath:   c.Logging.FilePath,
		MaxSizeMB:  c.Logging.MaxSizeMB,
		MaxFiles:   c.Logging.MaxFiles,
		MaxAgeDays: c.Logging.MaxAgeDays,
	}
}
