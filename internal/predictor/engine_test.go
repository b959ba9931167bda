package predictor

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PortfolioSentinel/internal/date"
	"PortfolioSentinel/internal/model"
)

var now = time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return now }

func today() date.Date { return date.FromTime(now) }

// series builds one point per day for offsets first..last with close = f(offset).
func series(symbol string, first, last int, f func(off int) float64) []model.PricePoint {
	var pts []model.PricePoint
	for off := first; off <= last; off++ {
		pts = append(pts, model.PricePoint{
			Symbol: symbol,
			Date:   today().Add(off),
			Close:  decimal.NewFromFloat(f(off)),
		})
	}
	return pts
}

func TestFit_FlatTrendEstimateWithinObservedRange(t *testing.T) {
	e := NewEngine(WithClock(fixedClock))
	pts := series("AAA", -19, 0, func(int) float64 { return 100 })

	pred, err := e.Fit("AAA", pts, 30)
	require.NoError(t, err)

	assert.Equal(t, "AAA", pred.Symbol)
	assert.Equal(t, 0, pred.AsOfHorizonDays)
	assert.Equal(t, today(), pred.AsOf)
	assert.Equal(t, 13, pred.TrainSamples)
	assert.Equal(t, 7, pred.TestSamples)
	assert.InDelta(t, 100, pred.EstimatedClose, 1e-9)
	require.Len(t, pred.Coefficients, 1)
	assert.InDelta(t, 0, pred.Coefficients[0], 1e-9)
	assert.InDelta(t, 0, pred.MeanSquaredError, 1e-9)
	assert.GreaterOrEqual(t, pred.EstimatedClose, pred.WindowLow-1e-9)
	assert.LessOrEqual(t, pred.EstimatedClose, pred.WindowHigh+1e-9)
	assert.Equal(t, 0.5, pred.RangePosition)
}

func TestFit_RecoversLinearTrend(t *testing.T) {
	e := NewEngine(WithClock(fixedClock))
	pts := series("AAA", -29, 0, func(off int) float64 { return 50 + 0.5*float64(off) })

	pred, err := e.Fit("aaa", pts, 60)
	require.NoError(t, err)
	assert.InDelta(t, 50, pred.EstimatedClose, 1e-6)
	assert.InDelta(t, 50, pred.Intercept, 1e-6)
	assert.InDelta(t, 0.5, pred.Coefficients[0], 1e-6)
	assert.InDelta(t, 0, pred.MeanSquaredError, 1e-9)
	assert.InDelta(t, 1, pred.RSquared, 1e-9)
	assert.InDelta(t, 35.5, pred.WindowLow, 1e-9)
	assert.InDelta(t, 50, pred.WindowHigh, 1e-9)
	assert.InDelta(t, 1, pred.RangePosition, 1e-6)
	require.Len(t, pred.HeldOut, pred.TestSamples)
	for _, s := range pred.HeldOut {
		assert.InDelta(t, s.Actual, s.Predicted, 1e-6)
	}
}

func TestFit_IsDeterministic(t *testing.T) {
	e := NewEngine(WithClock(fixedClock))
	noisy := func(off int) float64 { return 20 + float64((off*7)%5) - 0.1*float64(off) }
	pts := series("AAA", -40, 0, noisy)

	a, err := e.Fit("AAA", pts, 30)
	require.NoError(t, err)
	b, err := e.Fit("AAA", pts, 30)
	require.NoError(t, err)

	assert.Equal(t, a.Coefficients, b.Coefficients)
	assert.Equal(t, a.MeanSquaredError, b.MeanSquaredError)
	assert.Equal(t, a.RSquared, b.RSquared)
	assert.Equal(t, a.EstimatedClose, b.EstimatedClose)
	assert.Equal(t, a.HeldOut, b.HeldOut)
}

func TestFit_LookbackWindowBounds(t *testing.T) {
	e := NewEngine(WithClock(fixedClock))
	pts := series("AAA", -40, 0, func(off int) float64 { return float64(100 + off) })

	pred, err := e.Fit("AAA", pts, 10)
	require.NoError(t, err)
	assert.Equal(t, 11, pred.TrainSamples+pred.TestSamples, "offsets -10..0 inclusive")
	for _, s := range pred.HeldOut {
		assert.GreaterOrEqual(t, s.Offset, -10)
	}
}

func TestFit_FutureDatedPoints(t *testing.T) {
	pts := series("AAA", -9, 3, func(off int) float64 { return float64(10 + off) })

	pred, err := NewEngine(WithClock(fixedClock)).Fit("AAA", pts, 30)
	require.NoError(t, err)
	assert.Equal(t, 3, pred.ExcludedFuture)
	assert.Equal(t, 10, pred.TrainSamples+pred.TestSamples)

	pred, err = NewEngine(WithClock(fixedClock), WithFutureSamples(true)).Fit("AAA", pts, 30)
	require.NoError(t, err)
	assert.Equal(t, 0, pred.ExcludedFuture)
	assert.Equal(t, 13, pred.TrainSamples+pred.TestSamples)
}

func TestFit_IgnoresOtherSymbols(t *testing.T) {
	pts := append(series("AAA", -9, 0, func(int) float64 { return 1 }),
		series("BBB", -9, 0, func(int) float64 { return 1000 })...)

	pred, err := NewEngine(WithClock(fixedClock)).Fit("AAA", pts, 30)
	require.NoError(t, err)
	assert.InDelta(t, 1, pred.EstimatedClose, 1e-9)
	assert.Equal(t, 10, pred.TrainSamples+pred.TestSamples)
}

func TestFit_SingleDateIsDegenerate(t *testing.T) {
	e := NewEngine(WithClock(fixedClock))

	var pts []model.PricePoint
	for i := 0; i < 10; i++ {
		pts = append(pts, model.PricePoint{Symbol: "AAA", Date: today().Add(-2), Close: decimal.NewFromInt(int64(10 + i))})
	}
	pred, err := e.Fit("AAA", pts, 30)
	assert.Nil(t, pred)
	assert.ErrorIs(t, err, ErrDegenerateFeature)

	var de *DegenerateFeatureError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, -2, de.Offset)

	pred, err = e.Fit("AAA", pts[:1], 30)
	assert.Nil(t, pred)
	assert.ErrorIs(t, err, ErrDegenerateFeature)
}

func TestFit_InsufficientData(t *testing.T) {
	e := NewEngine(WithClock(fixedClock))

	_, err := e.Fit("AAA", nil, 30)
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = e.Fit("AAA", series("AAA", -3, 0, func(int) float64 { return 1 }), 30)
	var ie *InsufficientDataError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, 4, ie.Samples)
	assert.Equal(t, DefaultMinSamples, ie.Required)

	// all points are older than the window
	_, err = e.Fit("AAA", series("AAA", -100, -50, func(int) float64 { return 1 }), 30)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestFit_MinSamplesFloor(t *testing.T) {
	e := NewEngine(WithClock(fixedClock), WithMinSamples(1))
	_, err := e.Fit("AAA", series("AAA", -1, 0, func(int) float64 { return 1 }), 30)
	var ie *InsufficientDataError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, 3, ie.Required)

	pred, err := e.Fit("AAA", series("AAA", -2, 0, func(off int) float64 { return float64(off) }), 30)
	require.NoError(t, err)
	assert.Equal(t, 2, pred.TrainSamples)
	assert.Equal(t, 1, pred.TestSamples)
}

func TestFit_NegativeLookback(t *testing.T) {
	_, err := NewEngine(WithClock(fixedClock)).Fit("AAA", series("AAA", -9, 0, func(int) float64 { return 1 }), -1)
	assert.Error(t, err)
}
