package collector

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"PortfolioSentinel/internal/logging"
	"PortfolioSentinel/internal/metrics"
	"PortfolioSentinel/internal/model"
	"PortfolioSentinel/internal/store"
)

const (
	DefaultInterval    = "1d"
	DefaultRange       = "1mo"
	DefaultConcurrency = 4
)

// Collector pulls charts from a Fetcher and ingests them into the store.
type Collector struct {
	Fetcher     Fetcher
	Store       *store.Store
	Interval    string
	Range       string
	Concurrency int
	Metrics     *metrics.Metrics // optional
	logger      *logging.Logger
}

// NewCollector creates a Collector requesting daily bars for the last month.
func NewCollector(fetcher Fetcher, st *store.Store, logger *logging.Logger) *Collector {
	if logger == nil {
		logger = logging.NewSilentLogger()
	}
	return &Collector{
		Fetcher:     fetcher,
		Store:       st,
		Interval:    DefaultInterval,
		Range:       DefaultRange,
		Concurrency: DefaultConcurrency,
		logger:      logger.With("collector"),
	}
}

// Collect fetches symbol's chart and ingests it. Fetch failures are reported
// as UpstreamUnavailableError; rejected bars are counted in the result.
func (c *Collector) Collect(ctx context.Context, symbol string) (store.IngestResult, error) {
	symbol = model.NormalizeSymbol(symbol)
	start := time.Now()
	chart, err := c.Fetcher.FetchChart(ctx, symbol, c.Interval, c.Range)
	c.Metrics.ObserveFetch(c.Fetcher.Name(), time.Since(start), err)
	if err != nil {
		return store.IngestResult{Symbol: symbol}, model.Upstream(c.Fetcher.Name(), err)
	}

	res, err := c.Store.Ingest(ctx, symbol, ChartToQuotes(chart))
	if err != nil {
		return res, err
	}
	c.Metrics.ObserveIngest(symbol, res.Inserted, res.Duplicates, res.Rejected)
	ev := c.logger.Info()
	if res.Rejected > 0 {
		ev = c.logger.Warn()
	}
	ev.Str("symbol", symbol).
		Str("source", c.Fetcher.Name()).
		Int("inserted", res.Inserted).
		Int("duplicates", res.Duplicates).
		Int("rejected", res.Rejected).
		Msg("collected")
	return res, nil
}

// CollectAll collects every symbol with bounded concurrency. Results are
// returned in input order; failures are joined and do not stop other symbols.
func (c *Collector) CollectAll(ctx context.Context, symbols []string) ([]store.IngestResult, error) {
	results := make([]store.IngestResult, len(symbols))
	errs := make([]error, len(symbols))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(c.Concurrency, 1))
	for i, sym := range symbols {
		g.Go(func() error {
			res, err := c.Collect(gctx, sym)
			results[i] = res
			if err != nil {
				c.logger.Error().Err(err).Str("symbol", sym).Msg("collect failed")
				errs[i] = fmt.Errorf("%s: %w", model.NormalizeSymbol(sym), err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return results, errors.Join(errs...)
}

// ChartToQuotes turns the chart's parallel arrays into raw quotes, one per
// timestamp. Missing or non-finite values become null decimals and are left
// for the store to reject.
func ChartToQuotes(c *model.Chart) []model.RawQuote {
	if c == nil {
		return nil
	}
	quotes := make([]model.RawQuote, len(c.Timestamps))
	for i, ts := range c.Timestamps {
		quotes[i] = model.RawQuote{
			Symbol:    c.Symbol,
			Timestamp: ts,
			UTCOffset: c.GMTOffset,
			Open:      at(c.Open, i),
			High:      at(c.High, i),
			Low:       at(c.Low, i),
			Close:     at(c.Close, i),
			Volume:    at(c.Volume, i),
		}
	}
	return quotes
}

func at(values []*float64, i int) decimal.NullDecimal {
	if i >= len(values) || values[i] == nil {
		return decimal.NullDecimal{}
	}
	v := *values[i]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromFloat(v))
}
