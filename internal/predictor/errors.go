package predictor

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientData matches any InsufficientDataError via errors.Is.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrDegenerateFeature matches any DegenerateFeatureError via errors.Is.
	ErrDegenerateFeature = errors.New("degenerate feature")
)

// InsufficientDataError reports too few samples inside the lookback window.
type InsufficientDataError struct {
	Symbol   string
	Samples  int
	Required int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: %d samples in window, need %d", e.Symbol, e.Samples, e.Required)
}

func (e *InsufficientDataError) Is(target error) bool { return target == ErrInsufficientData }

// DegenerateFeatureError reports that every day offset is the same, so no
// slope can be fitted.
type DegenerateFeatureError struct {
	Symbol    string
	Offset    int
	Partition string // "window" or "training"
}

func (e *DegenerateFeatureError) Error() string {
	return fmt.Sprintf("%s: every %s sample has day offset %d", e.Symbol, e.Partition, e.Offset)
}

func (e *DegenerateFeatureError) Is(target error) bool { return target == ErrDegenerateFeature }
