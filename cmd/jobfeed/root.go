package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobfeed/internal/adapter"
	"github.com/amishk599/jobfeed/internal/aggregator"
	"github.com/amishk599/jobfeed/internal/config"
	"github.com/amishk599/jobfeed/internal/model"
	"github.com/amishk599/jobfeed/internal/notifier"
	"github.com/amishk599/jobfeed/internal/poller"
	"github.com/amishk599/jobfeed/internal/ratelimit"
	"github.com/amishk599/jobfeed/internal/retry"
	"github.com/amishk599/jobfeed/internal/searchcache"
	"github.com/amishk599/jobfeed/internal/store"
)

var (
	cfgPath string
	debug   bool
	dryRun  bool
)

// appOptions tunes buildApp for one command.
type appOptions struct {
	readOnly bool
}

var rootCmd = &cobra.Command{
	Use:   "jobfeed",
	Short: "Job board radar for pracuj.pl, praca.pl and olx.pl",
	Long:  "jobfeed searches Polish job boards by keyword and delivers new listings to subscribers.",
	// Default to `start` so that `jobfeed` with no args runs the daemon.
	RunE:         runStart,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: "+config.EnvPath+" env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "load state but never write it back")
}

func loadConfig() (*config.Config, error) {
	return config.Load(config.ResolvePath(cfgPath))
}

// mustLoadConfig logs and exits on a bad config.
func mustLoadConfig(logger *slog.Logger) *config.Config {
	cfg, err := loadConfig()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	return cfg
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupDeliverer(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) model.Deliverer {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.HTTPTimeout}
	}
	switch cfg.Notification.Type {
	case "slack":
		logger.Info("using slack notifier")
		return notifier.NewSlackNotifier(cfg.Notification.WebhookURL, httpClient, logger)
	case "console":
		return notifier.NewConsoleNotifier(os.Stdout)
	default:
		return notifier.NewLogNotifier(logger)
	}
}

// openStore returns the configured snapshot backend and a close func.
// In dry-run mode, or when readOnly is set, state is loaded from the backend
// but never written back.
func openStore(ctx context.Context, cfg *config.Config, readOnly bool, logger *slog.Logger) (model.StateStore, func() error, error) {
	backend, closeFn, err := openBackend(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, nil, err
	}
	if dryRun {
		logger.Info("dry-run mode enabled, state will not be persisted")
	}
	if dryRun || readOnly {
		return store.NewNopStore(backend), closeFn, nil
	}
	return backend, closeFn, nil
}

func openBackend(ctx context.Context, sc config.StorageConfig, logger *slog.Logger) (model.StateStore, func() error, error) {
	switch sc.Type {
	case "sqlite":
		s, err := store.NewSQLiteStore(sc.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case "file":
		s, err := store.NewFileStore(sc.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, func() error { return nil }, nil
	case "redis":
		s, err := store.NewRedisStore(ctx, sc.RedisURL, sc.RedisPrefix)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case "gcs":
		s, err := store.NewGCSStore(ctx, sc.Bucket, sc.Object, logger)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage type %q", sc.Type)
	}
}

// buildAggregator wires every enabled board as
// scraper -> rate limit -> retry -> containment, in configuration order.
func buildAggregator(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) (*aggregator.Aggregator, error) {
	var sources []model.Source
	for _, sc := range cfg.EnabledSources() {
		scraper, err := adapter.New(sc.Name, sc.BaseURL, sc.City, httpClient)
		if err != nil {
			return nil, err
		}

		minDelay := cfg.RateLimit.MinDelayFor(sc.Name)
		scraper = ratelimit.NewScraper(scraper, ratelimit.NewSiteLimiter(minDelay), sc.Name)
		scraper = retry.NewScraper(scraper, sc.Name, cfg.Retry.MaxRetries, cfg.Retry.BaseDelay, logger)

		sources = append(sources, adapter.Contain(sc.Name, scraper, logger))
		logger.Debug("registered source", "source", sc.Name, "city", sc.City, "min_delay", minDelay.String())
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no sources enabled")
	}
	return aggregator.New(sources, logger), nil
}

// app bundles the wired runtime shared by all commands.
type app struct {
	cfg    *config.Config
	agg    *aggregator.Aggregator
	state  *store.State
	cache  *searchcache.Cache
	engine *poller.Engine
	close  func() error
}

func buildApp(ctx context.Context, cfg *config.Config, out model.Deliverer, opts appOptions, logger *slog.Logger) (*app, error) {
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	agg, err := buildAggregator(cfg, httpClient, logger)
	if err != nil {
		return nil, err
	}

	backend, closeStore, err := openStore(ctx, cfg, opts.readOnly, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	state, err := store.NewState(ctx, backend, logger)
	if err != nil {
		closeStore()
		return nil, fmt.Errorf("load state: %w", err)
	}

	cache := searchcache.New(cfg.SearchTTL)
	engine := poller.NewEngine(agg, state, cache, out, poller.Options{
		BatchSize:        cfg.BatchSize,
		SweepConcurrency: cfg.SweepConcurrency,
	}, logger)

	return &app{
		cfg:    cfg,
		agg:    agg,
		state:  state,
		cache:  cache,
		engine: engine,
		close:  closeStore,
	}, nil
}
