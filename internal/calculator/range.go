package calculator

import (
	"errors"
	"math"

	"PortfolioSentinel/internal/model"
)

// CloseRange returns the lowest and highest close among points.
func CloseRange(points []model.PricePoint) (low, high float64, err error) {
	if len(points) == 0 {
		return 0, 0, errors.New("no price points provided")
	}
	low = math.Inf(1)
	high = math.Inf(-1)
	for _, p := range points {
		c := p.Close.InexactFloat64()
		if c > high {
			high = c
		}
		if c < low {
			low = c
		}
	}
	return low, high, nil
}

// RangePosition returns where current sits within [low, high], clamped to 0.0~1.0.
func RangePosition(current, low, high float64) (float64, error) {
	if high == low {
		return 0.5, nil
	}
	if high < low {
		return 0, errors.New("high must be >= low")
	}
	pos := (current - low) / (high - low)
	return math.Max(0, math.Min(1, pos)), nil
}
