package calculator

import (
	"errors"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrTooFewPoints is returned when a fit or metric has fewer points than it needs.
	ErrTooFewPoints = errors.New("not enough data points")
	// ErrZeroVariance is returned when every x value is identical, leaving the slope undefined.
	ErrZeroVariance = errors.New("feature has zero variance")
	// ErrLengthMismatch is returned when paired slices differ in length.
	ErrLengthMismatch = errors.New("slice lengths differ")
)

// LinearFit is y = Intercept + Slope·x.
type LinearFit struct {
	Intercept float64
	Slope     float64
}

// Predict evaluates the line at x.
func (f LinearFit) Predict(x float64) float64 { return f.Intercept + f.Slope*x }

// PredictAll evaluates the line at every x.
func (f LinearFit) PredictAll(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = f.Predict(x)
	}
	return out
}

// FitLinear computes the ordinary least squares line through (xs, ys).
func FitLinear(xs, ys []float64) (LinearFit, error) {
	if len(xs) != len(ys) {
		return LinearFit{}, ErrLengthMismatch
	}
	if len(xs) < 2 {
		return LinearFit{}, ErrTooFewPoints
	}
	if floats.Min(xs) == floats.Max(xs) {
		return LinearFit{}, ErrZeroVariance
	}
	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	return LinearFit{Intercept: alpha, Slope: beta}, nil
}

// MeanSquaredError is mean((predicted - actual)²).
func MeanSquaredError(actual, predicted []float64) (float64, error) {
	if len(actual) != len(predicted) {
		return 0, ErrLengthMismatch
	}
	if len(actual) == 0 {
		return 0, ErrTooFewPoints
	}
	var sum float64
	for i := range actual {
		d := predicted[i] - actual[i]
		sum += d * d
	}
	return sum / float64(len(actual)), nil
}

// RSquared is 1 - SS_res/SS_tot over actual. When actual is constant SS_tot is
// zero; the result is then 1 for a perfect prediction and 0 otherwise.
func RSquared(actual, predicted []float64) (float64, error) {
	if len(actual) != len(predicted) {
		return 0, ErrLengthMismatch
	}
	if len(actual) == 0 {
		return 0, ErrTooFewPoints
	}
	if floats.Min(actual) == floats.Max(actual) {
		if floats.Equal(actual, predicted) {
			return 1, nil
		}
		return 0, nil
	}
	return stat.RSquaredFrom(predicted, actual, nil), nil
}
