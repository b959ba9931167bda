package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"PortfolioSentinel/internal/collector"
	"PortfolioSentinel/internal/config"
	"PortfolioSentinel/internal/logging"
	"PortfolioSentinel/internal/portfolio"
	"PortfolioSentinel/internal/predictor"
	"PortfolioSentinel/internal/recorder"
	"PortfolioSentinel/internal/store"
)

var configPath = flag.String("config", defaultConfigPath(), "Path to the YAML configuration file")

func defaultConfigPath() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return "configs/config.yaml"
}

// app holds the collaborators every command is built from.
type app struct {
	cfg       *config.Config
	logger    *logging.Logger
	recorder  recorder.Recorder
	store     *store.Store
	collector *collector.Collector
	predictor *predictor.Engine
	portfolio *portfolio.Service
}

// openApp loads the configuration at path and wires the collaborators. The
// price store is restored from the database before returning.
func openApp(ctx context.Context, path string) (*app, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return newApp(ctx, cfg, logging.NewLogger(cfg.LogLevel))
}

func newApp(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*app, error) {
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, logger)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		rec = sr
	} else {
		rec = recorder.NewNoopRecorder()
	}

	st := store.New(rec, logger)
	if err := st.Restore(ctx); err != nil {
		_ = rec.Close()
		return nil, err
	}

	fetcher, err := newFetcher(cfg)
	if err != nil {
		_ = rec.Close()
		return nil, err
	}
	col := collector.NewCollector(fetcher, st, logger)
	col.Interval = cfg.DataSource.Interval
	col.Range = cfg.DataSource.Range

	eng := predictor.NewEngine(
		predictor.WithMinSamples(cfg.Prediction.MinSamples),
		predictor.WithTestFraction(cfg.Prediction.TestFraction),
		predictor.WithSeed(cfg.Prediction.Seed),
		predictor.WithFutureSamples(cfg.Prediction.IncludeFuture),
		predictor.WithLogger(logger),
	)

	return &app{
		cfg:       cfg,
		logger:    logger,
		recorder:  rec,
		store:     st,
		collector: col,
		predictor: eng,
		portfolio: portfolio.NewService(rec, st, logger),
	}, nil
}

func newFetcher(cfg *config.Config) (collector.Fetcher, error) {
	var opts []collector.Option
	if cfg.DataSource.BaseURL != "" {
		opts = append(opts, collector.WithBaseURL(cfg.DataSource.BaseURL))
	}
	if cfg.DataSource.RateLimit > 0 {
		opts = append(opts, collector.WithRateLimit(cfg.DataSource.RateLimit))
	}
	switch cfg.DataSource.Name {
	case config.SourceYahoo:
		return collector.NewYahooFetcher(cfg.Proxy, opts...), nil
	case config.SourceRapidAPI:
		return collector.NewRapidAPIFetcher(cfg.DataSource.APIKey, cfg.Proxy, opts...), nil
	case config.SourceMock:
		return &collector.MockFetcher{Price: 100}, nil
	default:
		return nil, fmt.Errorf("unknown data source %q", cfg.DataSource.Name)
	}
}

func (a *app) Close() error {
	return a.recorder.Close()
}
