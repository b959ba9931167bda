package model

import "PortfolioSentinel/internal/date"

// Sample is one held-out observation with the model's estimate for it.
type Sample struct {
	Offset    int     `json:"offset"` // days relative to AsOf, usually <= 0
	Actual    float64 `json:"actual"`
	Predicted float64 `json:"predicted"`
}

// PricePrediction is a same-day close estimate from a trailing-window
// linear fit, with its held-out diagnostics.
type PricePrediction struct {
	Symbol           string    `json:"symbol"`
	AsOf             date.Date `json:"as_of"`
	AsOfHorizonDays  int       `json:"horizon_days"`
	EstimatedClose   float64   `json:"estimated_close"`
	Intercept        float64   `json:"intercept"`
	Coefficients     []float64 `json:"coefficients"`
	MeanSquaredError float64   `json:"mse"`
	RSquared         float64   `json:"r2"`
	TrainSamples     int       `json:"train_samples"`
	TestSamples      int       `json:"test_samples"`
	ExcludedFuture   int       `json:"excluded_future"`
	// lowest and highest close in the window, and where the estimate sits
	// between them (0 to 1, 0.5 when they are equal)
	WindowLow     float64 `json:"window_low"`
	WindowHigh    float64 `json:"window_high"`
	RangePosition float64 `json:"range_position"`
	HeldOut          []Sample  `json:"held_out"`
}
