package scheduler

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/robfig/cron/v3"

	"PortfolioSentinel/internal/chart"
	"PortfolioSentinel/internal/collector"
	"PortfolioSentinel/internal/logging"
	"PortfolioSentinel/internal/metrics"
	"PortfolioSentinel/internal/model"
	"PortfolioSentinel/internal/notifier"
	"PortfolioSentinel/internal/portfolio"
	"PortfolioSentinel/internal/predictor"
	"PortfolioSentinel/internal/store"
)

// Sender is the part of the notifier the scheduler uses.
type Sender interface {
	notifier.Notifier
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron         *cron.Cron
	Collector    *collector.Collector
	Store        *store.Store
	Predictor    *predictor.Engine
	Portfolio    *portfolio.Service
	Notifier     Sender
	Symbols      []string
	LookbackDays int
	Metrics      *metrics.Metrics // optional
	Ctx          context.Context
	logger       *logging.Logger
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col *collector.Collector, eng *predictor.Engine, svc *portfolio.Service,
	n Sender, symbols []string, lookbackDays int, logger *logging.Logger) *Scheduler {
	if logger == nil {
		logger = logging.NewSilentLogger()
	}
	return &Scheduler{
		Cron:         cron.New(cron.WithSeconds()),
		Collector:    col,
		Store:        col.Store,
		Predictor:    eng,
		Portfolio:    svc,
		Notifier:     n,
		Symbols:      symbols,
		LookbackDays: lookbackDays,
		Ctx:          ctx,
		logger:       logger.With("scheduler"),
	}
}

// RegisterAll registers the ingestion and prediction report tasks.
func (s *Scheduler) RegisterAll(ingestCron, reportCron string) error {
	if _, err := s.Cron.AddFunc(ingestCron, s.ingestTask); err != nil {
		return fmt.Errorf("register ingest task: %w", err)
	}
	if _, err := s.Cron.AddFunc(reportCron, s.reportTask); err != nil {
		return fmt.Errorf("register report task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.logger.Info().Int("jobs", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.logger.Info().Msg("scheduler stopped")
}

// RunIngestNow executes the ingestion task immediately.
func (s *Scheduler) RunIngestNow() {
	s.ingestTask()
}

func (s *Scheduler) ingestTask() {
	s.logger.Info().Strs("symbols", s.Symbols).Msg("running ingest task")
	msg, changed := s.ingest(s.Ctx)
	if changed {
		s.trySend(msg)
	}
}

// ingest collects every symbol and reports whether anything worth telling
// happened: new points, rejected records or failures.
func (s *Scheduler) ingest(ctx context.Context) (string, bool) {
	results, err := s.Collector.CollectAll(ctx, s.Symbols)
	changed := err != nil
	for _, r := range results {
		if r.Inserted > 0 || r.Rejected > 0 {
			changed = true
		}
	}
	return notifier.FormatIngestResults(results, err), changed
}

func (s *Scheduler) reportTask() {
	s.logger.Info().Msg("running prediction report")
	for _, sym := range s.Symbols {
		pred, err := s.predict(sym)
		if err != nil {
			s.logger.Warn().Err(err).Str("symbol", sym).Msg("prediction skipped")
			continue
		}
		caption := notifier.FormatPrediction(pred)
		png, err := chart.RenderPrediction(pred)
		if err != nil {
			s.logger.Error().Err(err).Str("symbol", sym).Msg("render prediction")
			s.trySend(caption)
			continue
		}
		if err := s.Notifier.SendPhoto(s.Ctx, caption, png); err != nil {
			s.logger.Error().Err(err).Str("symbol", sym).Msg("send prediction chart")
			s.trySend(caption)
		}
	}
}

func (s *Scheduler) predict(symbol string) (*model.PricePrediction, error) {
	symbol = model.NormalizeSymbol(symbol)
	pred, err := s.Predictor.Fit(symbol, s.Store.Snapshot(symbol).Points(), s.LookbackDays)
	var estimate float64
	if pred != nil {
		estimate = pred.EstimatedClose
	}
	s.Metrics.ObservePrediction(symbol, estimate, err, classify)
	return pred, err
}

func classify(err error) string {
	switch {
	case errors.Is(err, predictor.ErrInsufficientData):
		return metrics.ResultInsufficient
	case errors.Is(err, predictor.ErrDegenerateFeature):
		return metrics.ResultDegenerate
	default:
		return metrics.ResultError
	}
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return usage()
	}
	switch strings.ToLower(fields[0]) {
	case "/predict":
		if len(fields) < 2 {
			return "Usage: /predict SYMBOL"
		}
		return s.predictReply(fields[1])
	case "/value":
		if len(fields) < 2 {
			return "Usage: /value INVESTOR_ID"
		}
		rep, err := s.Portfolio.Report(ctx, fields[1])
		if err != nil {
			return "❌ " + html.EscapeString(err.Error())
		}
		return notifier.FormatValueReport(rep)
	case "/fetch":
		msg, _ := s.ingest(ctx)
		return msg
	case "/symbols":
		return "Tracked: " + strings.Join(s.Store.Symbols(), ", ")
	default:
		return usage()
	}
}

func (s *Scheduler) predictReply(symbol string) string {
	pred, err := s.predict(symbol)
	var ie *predictor.InsufficientDataError
	switch {
	case errors.As(err, &ie):
		return fmt.Sprintf("Not enough history for %s: %d of %d daily closes in the last %d days.",
			html.EscapeString(ie.Symbol), ie.Samples, ie.Required, s.LookbackDays)
	case errors.Is(err, predictor.ErrDegenerateFeature):
		return fmt.Sprintf("Cannot fit a trend for %s: all samples share one date.", html.EscapeString(model.NormalizeSymbol(symbol)))
	case err != nil:
		return "❌ " + html.EscapeString(err.Error())
	}
	return notifier.FormatPrediction(pred)
}

func usage() string {
	return "Commands:\n• /predict SYMBOL\n• /value INVESTOR_ID\n• /fetch\n• /symbols"
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		s.logger.Error().Err(err).Msg("send notification")
	}
}
