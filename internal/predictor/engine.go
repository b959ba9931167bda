// Package predictor estimates a symbol's same-day close from a linear trend
// fitted over a trailing window of its daily history.
package predictor

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"PortfolioSentinel/internal/calculator"
	"PortfolioSentinel/internal/date"
	"PortfolioSentinel/internal/logging"
	"PortfolioSentinel/internal/model"
)

const (
	DefaultMinSamples   = 5
	DefaultTestFraction = 0.35
	DefaultSeed         = 42

	// floor for MinSamples: two to fit a line, one to evaluate it
	minSamplesFloor = 3
)

// Engine fits trailing-window regressions. It holds no series state and is
// safe for concurrent use.
type Engine struct {
	minSamples    int
	testFraction  float64
	seed          uint64
	includeFuture bool
	now           func() time.Time
	logger        *logging.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithMinSamples sets the minimum number of samples in the window. Values
// below three are raised to three.
func WithMinSamples(n int) Option {
	return func(e *Engine) { e.minSamples = max(n, minSamplesFloor) }
}

// WithTestFraction sets the held-out share of samples.
func WithTestFraction(f float64) Option {
	return func(e *Engine) { e.testFraction = f }
}

// WithSeed sets the partition seed.
func WithSeed(seed uint64) Option {
	return func(e *Engine) { e.seed = seed }
}

// WithFutureSamples keeps points dated after today inside the window. By
// default the window is strictly historical.
func WithFutureSamples(include bool) Option {
	return func(e *Engine) { e.includeFuture = include }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) { e.logger = l.With("predictor") }
}

// NewEngine creates an engine with the defaults: 5 samples minimum, 35%
// held out, seed 42, historical window only.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		minSamples:   DefaultMinSamples,
		testFraction: DefaultTestFraction,
		seed:         DefaultSeed,
		now:          time.Now,
		logger:       logging.NewSilentLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Fit estimates symbol's close for today from the points of series dated no
// more than maxLookbackDays before today.
//
// Each retained point becomes a sample (x = signed day offset from today,
// y = close). The samples are split into training and held-out partitions
// with a fixed seed, a least-squares line is fitted on the training part and
// scored on the held-out part. The estimate is the line at offset 0.
//
// A window whose samples all share one date fails with DegenerateFeatureError;
// a window with fewer samples than the minimum fails with InsufficientDataError.
func (e *Engine) Fit(symbol string, series []model.PricePoint, maxLookbackDays int) (*model.PricePrediction, error) {
	symbol = model.NormalizeSymbol(symbol)
	if maxLookbackDays < 0 {
		return nil, fmt.Errorf("%s: negative lookback %d", symbol, maxLookbackDays)
	}
	today := date.FromTime(e.now())

	points, excluded := e.window(symbol, series, today, maxLookbackDays)
	if excluded > 0 {
		e.logger.Warn().Str("symbol", symbol).Int("points", excluded).
			Msg("future-dated points excluded from lookback window")
	}

	n := len(points)
	if n == 0 {
		return nil, &InsufficientDataError{Symbol: symbol, Samples: 0, Required: e.minSamples}
	}
	if first, last := points[0].Date, points[n-1].Date; first == last {
		return nil, &DegenerateFeatureError{Symbol: symbol, Offset: first.DaysSince(today), Partition: "window"}
	}
	if n < e.minSamples {
		return nil, &InsufficientDataError{Symbol: symbol, Samples: n, Required: e.minSamples}
	}

	xs := make([]float64, n)
	ys := make([]float64, n)
	for i, pt := range points {
		xs[i] = float64(pt.Date.DaysSince(today))
		ys[i] = pt.Close.InexactFloat64()
	}

	trainIdx, testIdx, err := calculator.TrainTestSplit(n, e.testFraction, e.seed)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", symbol, err)
	}
	xTrain, yTrain := calculator.Pick(xs, trainIdx), calculator.Pick(ys, trainIdx)
	xTest, yTest := calculator.Pick(xs, testIdx), calculator.Pick(ys, testIdx)

	fit, err := calculator.FitLinear(xTrain, yTrain)
	if errors.Is(err, calculator.ErrZeroVariance) {
		return nil, &DegenerateFeatureError{Symbol: symbol, Offset: int(xTrain[0]), Partition: "training"}
	}
	if err != nil {
		return nil, fmt.Errorf("%s: fit: %w", symbol, err)
	}

	predicted := fit.PredictAll(xTest)
	mse, err := calculator.MeanSquaredError(yTest, predicted)
	if err != nil {
		return nil, fmt.Errorf("%s: mse: %w", symbol, err)
	}
	r2, err := calculator.RSquared(yTest, predicted)
	if err != nil {
		return nil, fmt.Errorf("%s: r2: %w", symbol, err)
	}

	low, high, err := calculator.CloseRange(points)
	if err != nil {
		return nil, fmt.Errorf("%s: range: %w", symbol, err)
	}
	estimate := fit.Predict(0)
	position, err := calculator.RangePosition(estimate, low, high)
	if err != nil {
		return nil, fmt.Errorf("%s: range: %w", symbol, err)
	}

	heldOut := make([]model.Sample, len(xTest))
	for i := range xTest {
		heldOut[i] = model.Sample{Offset: int(xTest[i]), Actual: yTest[i], Predicted: predicted[i]}
	}

	pred := &model.PricePrediction{
		Symbol:           symbol,
		AsOf:             today,
		AsOfHorizonDays:  0,
		EstimatedClose:   estimate,
		Intercept:        fit.Intercept,
		Coefficients:     []float64{fit.Slope},
		MeanSquaredError: mse,
		RSquared:         r2,
		TrainSamples:     len(xTrain),
		TestSamples:      len(xTest),
		ExcludedFuture:   excluded,
		WindowLow:        low,
		WindowHigh:       high,
		RangePosition:    position,
		HeldOut:          heldOut,
	}
	e.logger.Debug().
		Str("symbol", symbol).
		Float64("estimate", pred.EstimatedClose).
		Float64("mse", mse).
		Float64("r2", r2).
		Int("train", pred.TrainSamples).
		Int("test", pred.TestSamples).
		Msg("fit")
	return pred, nil
}

// window returns the points inside the lookback window ordered by date, and
// the number of future-dated points it dropped.
func (e *Engine) window(symbol string, series []model.PricePoint, today date.Date, lookback int) ([]model.PricePoint, int) {
	var points []model.PricePoint
	excluded := 0
	for _, pt := range series {
		if model.NormalizeSymbol(pt.Symbol) != symbol {
			continue
		}
		off := pt.Date.DaysSince(today)
		if off < -lookback {
			continue
		}
		if off > 0 && !e.includeFuture {
			excluded++
			continue
		}
		points = append(points, pt)
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points, excluded
}
