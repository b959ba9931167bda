package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/subcommands"

	"PortfolioSentinel/internal/metrics"
	"PortfolioSentinel/internal/notifier"
	"PortfolioSentinel/internal/scheduler"
)

type serveCmd struct {
	runOnStart bool
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "run the scheduled collector and the Telegram bot" }
func (*serveCmd) Usage() string {
	return `serve [-run-on-start]

  Ingests the configured symbols on the ingest schedule, sends a daily
  prediction report, and answers Telegram commands until interrupted.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.runOnStart, "run-on-start", os.Getenv("RUN_ON_START") == "true", "Ingest once immediately")
}

func (c *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp(ctx, *configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	cfg := a.cfg
	if err := cfg.ValidateTelegram(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	log := a.logger.With("serve")
	log.Info().Str("source", a.collector.Fetcher.Name()).Strs("symbols", cfg.DataSource.Symbols).Msg("PortfolioSentinel starting")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, a.logger)
	sched := scheduler.NewScheduler(ctx, a.collector, a.predictor, a.portfolio, tn,
		cfg.DataSource.Symbols, cfg.Prediction.LookbackDays, a.logger)
	if err := sched.RegisterAll(cfg.Schedule.IngestCron, cfg.Schedule.ReportCron); err != nil {
		fmt.Fprintf(os.Stderr, "Error: register cron tasks: %v\n", err)
		return subcommands.ExitFailure
	}
	m := metrics.New("sentinel")
	a.collector.Metrics = m
	sched.Metrics = m
	if addr := cfg.Metrics.Addr; addr != "" {
		srv := &http.Server{Addr: addr, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := m.Serve(srv); err != nil {
				log.Error().Err(err).Str("addr", addr).Msg("metrics server")
			}
		}()
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			_ = srv.Shutdown(shutdownCtx)
		}()
		log.Info().Str("addr", addr).Msg("metrics endpoint listening")
	}

	sched.Start()
	defer sched.Stop()

	go tn.StartPolling(ctx, sched.HandleCommand)
	log.Info().Msg("telegram polling started")

	if c.runOnStart {
		log.Info().Msg("run-on-start enabled, ingesting now")
		go sched.RunIngestNow()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		log.Info().Msg("shutdown signal received, stopping")
	case <-ctx.Done():
	}
	cancel()
	return subcommands.ExitSuccess
}
