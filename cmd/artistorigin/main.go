package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sydlexius/artistorigin/internal/artist"
	"github.com/sydlexius/artistorigin/internal/batch"
	"github.com/sydlexius/artistorigin/internal/cache"
	"github.com/sydlexius/artistorigin/internal/config"
	"github.com/sydlexius/artistorigin/internal/database"
	"github.com/sydlexius/artistorigin/internal/geo"
	"github.com/sydlexius/artistorigin/internal/language"
	"github.com/sydlexius/artistorigin/internal/logging"
	"github.com/sydlexius/artistorigin/internal/lookup"
	"github.com/sydlexius/artistorigin/internal/maintenance"
	"github.com/sydlexius/artistorigin/internal/provider"
	"github.com/sydlexius/artistorigin/internal/provider/listenbrainz"
	"github.com/sydlexius/artistorigin/internal/provider/musicbrainz"
	"github.com/sydlexius/artistorigin/internal/provider/spotify"
	"github.com/sydlexius/artistorigin/internal/resolve"
	"github.com/sydlexius/artistorigin/internal/version"
)

const usage = `usage:
  artistorigin                       resolve every artist of the configured playlist
  artistorigin resolve NAME LINK     resolve one artist and print the result
  artistorigin cache-status          print cache database statistics
  artistorigin version               print the version`

func main() {
	var err error
	switch {
	case len(os.Args) == 1:
		err = run()
	case os.Args[1] == "resolve" && len(os.Args) == 4:
		err = resolveOne(os.Args[2], os.Args[3])
	case os.Args[1] == "cache-status":
		err = cacheStatus()
	case os.Args[1] == "version":
		fmt.Printf("artistorigin %s (%s)\n", version.Version, version.Commit)
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// app holds the long-lived components shared by both commands.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *cache.Store
	spotify  *spotify.Adapter
	resolver *resolve.Resolver
}

// setup loads configuration and wires every component. The returned
// cleanup flushes the cache and closes the database and log file.
func setup(ctx context.Context) (*app, func(), error) {
	cfg, err := config.Load(configPath())
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	logManager, logger := logging.NewManager(cfg.LoggingManagerConfig())
	slog.SetDefault(logger)

	db, err := database.Open(cfg.Cache.Path)
	if err != nil {
		_ = logManager.Close()
		return nil, nil, fmt.Errorf("opening cache database: %w", err)
	}
	if err := database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		_ = logManager.Close()
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}
	store := cache.New(db, logger)
	maint := maintenance.NewService(db, cfg.Cache.Path, logger)

	cleanup := func() {
		if err := store.Flush(context.Background()); err != nil {
			logger.Error("flushing cache", slog.String("error", err.Error()))
		}
		if err := maint.Optimize(context.Background()); err != nil {
			logger.Warn("optimizing cache database", slog.String("error", err.Error()))
		}
		if err := db.Close(); err != nil {
			logger.Error("closing database", slog.String("error", err.Error()))
		}
		logManager.Close() //nolint:errcheck
	}

	if cfg.Cache.MigrateLegacy && cfg.Cache.LegacyPath != "" {
		n, err := store.MigrateLegacy(ctx, cfg.Cache.LegacyPath)
		if err != nil {
			logger.Warn("legacy cache migration failed", slog.String("path", cfg.Cache.LegacyPath), slog.String("error", err.Error()))
		} else if n > 0 {
			logger.Info("migrated legacy cache", slog.String("path", cfg.Cache.LegacyPath), slog.Int("entries", n))
		}
	}

	limiter := provider.NewRateLimiterMap(map[provider.ServiceName]time.Duration{
		provider.NameMusicBrainz:  cfg.RateLimits.MusicBrainz,
		provider.NameListenBrainz: cfg.RateLimits.ListenBrainz,
	})
	client := provider.NewClient(limiter, cfg.UserAgent, logger)

	sp := spotify.New(ctx, spotify.Credentials{
		ClientID:     cfg.Spotify.ClientID,
		ClientSecret: cfg.Spotify.ClientSecret,
	}, limiter, cfg.UserAgent, logger)
	if err := sp.Verify(ctx); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("checking Spotify credentials: %w", err)
	}
	mb := musicbrainz.New(client, logger)
	lb := listenbrainz.New(client, cfg.ListenBrainz.Token, logger)

	var extractor geo.EntityExtractor = geo.NoExtractor{}
	if cfg.NLP.Enabled {
		extractor = geo.NewProseExtractor(logger)
	}
	inferrer := geo.NewInferencer(extractor, logger)

	var translator resolve.NameTranslator = language.Disabled{}
	if cfg.Translation.Enabled {
		translator = language.NewService(
			language.NewLinguaDetector(),
			language.NewLibreTranslator(client, cfg.Translation.Endpoint, cfg.Translation.APIKey),
			store, logger)
	}

	svc := lookup.New(store, mb, lb, sp, inferrer, logger)
	resolver := resolve.New(svc, translator, inferrer, resolve.Tuning{
		TopN:       cfg.Search.TopN,
		MinScore:   cfg.Search.MinScore,
		CloseDelta: cfg.Search.CloseScoreDelta,
		URLGate:    cfg.Search.URLRelationGate,
	}, logger)

	logger.Info("artistorigin ready",
		slog.String("version", version.Version),
		slog.String("cache", cfg.Cache.Path),
		slog.Bool("translation", cfg.Translation.Enabled),
		slog.Bool("nlp", cfg.NLP.Enabled))

	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		spotify:  sp,
		resolver: resolver,
	}, cleanup, nil
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, cleanup, err := setup(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if a.cfg.Spotify.Playlist == "" {
		return errors.New("no playlist configured (spotify.playlist or AO_PLAYLIST)")
	}
	profiles, err := a.spotify.PlaylistArtists(ctx, a.cfg.Spotify.Playlist)
	if err != nil {
		return fmt.Errorf("listing playlist artists: %w", err)
	}
	a.logger.Info("playlist loaded", slog.Int("artists", len(profiles)))

	coord := batch.NewCoordinator(a.resolver, a.store, batch.Options{
		OutputPath:      a.cfg.Output.Path,
		Workers:         a.cfg.Batch.Workers,
		CheckpointEvery: a.cfg.Batch.CheckpointEvery,
	}, a.logger)
	sum, err := coord.Run(ctx, profiles)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	a.logger.Info("summary",
		slog.String("output", a.cfg.Output.Path),
		slog.Int("artists", sum.Artists),
		slog.Int("processed", sum.Processed),
		slog.Int("skipped", sum.Skipped),
		slog.Int("failed", sum.Failed),
		slog.Int("with_mbid", sum.WithMBID),
		slog.String("with_mbid_pct", fmt.Sprintf("%.1f", sum.Percent(sum.WithMBID))),
		slog.Int("with_country", sum.WithCountry),
		slog.String("with_country_pct", fmt.Sprintf("%.1f", sum.Percent(sum.WithCountry))))
	if err != nil {
		a.logger.Warn("interrupted, progress saved", slog.String("error", err.Error()))
	}
	return nil
}

func resolveOne(name, link string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, cleanup, err := setup(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	res := a.resolver.Resolve(ctx, artist.Profile{Name: name, Link: link})
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func cacheStatus() error {
	ctx := context.Background()
	cfg, err := config.Load(configPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logManager, logger := logging.NewManager(cfg.LoggingManagerConfig())
	defer logManager.Close() //nolint:errcheck

	db, err := database.Open(cfg.Cache.Path)
	if err != nil {
		return fmt.Errorf("opening cache database: %w", err)
	}
	defer db.Close() //nolint:errcheck
	if err := database.Migrate(ctx, db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	st, err := maintenance.NewService(db, cfg.Cache.Path, logger).Status(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(st)
}

func configPath() string {
	if p := os.Getenv("AO_CONFIG_PATH"); p != "" {
		return p
	}
	return "config.yaml"
}
