package collector

import (
	"context"
	"time"

	"PortfolioSentinel/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price  float64                 // base close of generated bars
	Days   int                     // generated bar count, 30 when zero
	Charts map[string]*model.Chart // canned charts by symbol, take precedence
	Err    error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchChart(_ context.Context, symbol, _, _ string) (*model.Chart, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if c, ok := m.Charts[symbol]; ok {
		return c, nil
	}
	days := m.Days
	if days == 0 {
		days = 30
	}
	return generateMockChart(symbol, m.Price, days, time.Now()), nil
}

// generateMockChart produces one daily bar per day ending at now, drifting
// 0.1% per day around basePrice.
func generateMockChart(symbol string, basePrice float64, count int, now time.Time) *model.Chart {
	c := &model.Chart{Symbol: symbol}
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 14, 30, 0, 0, time.UTC)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		open, high, low, vol := p*0.999, p*1.005, p*0.995, 1e6
		closePrice := p
		c.Timestamps = append(c.Timestamps, midnight.AddDate(0, 0, -(count-1-i)).Unix())
		c.Open = append(c.Open, &open)
		c.High = append(c.High, &high)
		c.Low = append(c.Low, &low)
		c.Close = append(c.Close, &closePrice)
		c.Volume = append(c.Volume, &vol)
	}
	return c
}
