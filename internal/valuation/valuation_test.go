package valuation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PortfolioSentinel/internal/date"
	"PortfolioSentinel/internal/model"
)

func pp(symbol, day, close string) model.PricePoint {
	return model.PricePoint{Symbol: symbol, Date: date.MustParse(day), Close: decimal.RequireFromString(close)}
}

func purchase(symbol, day, shares string) model.PurchaseRecord {
	return model.PurchaseRecord{
		ID:           "p1",
		InvestorID:   "i1",
		Symbol:       symbol,
		PurchaseDate: date.MustParse(day),
		Shares:       decimal.RequireFromString(shares),
	}
}

func TestValueOverTime_ExcludesPrePurchaseDates(t *testing.T) {
	series := []model.PricePoint{pp("AAA", "2024-01-01", "10"), pp("AAA", "2024-01-02", "12")}

	curve := ValueOverTime(purchase("AAA", "2024-01-02", "5"), series)

	require.Len(t, curve.Points, 1)
	assert.Equal(t, date.New(2024, 1, 2), curve.Points[0].Date)
	assert.Equal(t, "60.00", curve.Points[0].Value.StringFixed(2))
	assert.Equal(t, "p1", curve.PurchaseID)
	assert.Equal(t, "AAA", curve.Symbol)
}

func TestValueOverTime_FiltersSymbolSortsAndDedups(t *testing.T) {
	series := []model.PricePoint{
		pp("AAA", "2024-01-05", "11"),
		pp("BBB", "2024-01-04", "999"),
		pp("aaa", "2024-01-03", "10"),
		pp("AAA", "2024-01-05", "50"), // duplicate date, ignored
		pp("AAA", "2023-12-29", "1"),
	}

	curve := ValueOverTime(purchase("AAA", "2024-01-01", "2"), series)

	require.Len(t, curve.Points, 2)
	assert.Equal(t, date.New(2024, 1, 3), curve.Points[0].Date)
	assert.True(t, decimal.NewFromInt(20).Equal(curve.Points[0].Value))
	assert.Equal(t, date.New(2024, 1, 5), curve.Points[1].Date)
	assert.True(t, decimal.NewFromInt(22).Equal(curve.Points[1].Value))
	for i := 1; i < len(curve.Points); i++ {
		assert.True(t, curve.Points[i-1].Date.Before(curve.Points[i].Date))
	}
}

func TestValueOverTime_RoundsToCents(t *testing.T) {
	curve := ValueOverTime(purchase("AAA", "2024-01-01", "3"), []model.PricePoint{pp("AAA", "2024-01-01", "10.3333")})
	require.Len(t, curve.Points, 1)
	assert.Equal(t, "31.00", curve.Points[0].Value.StringFixed(2))

	curve = ValueOverTime(purchase("AAA", "2024-01-01", "1"), []model.PricePoint{pp("AAA", "2024-01-01", "2.005")})
	assert.Equal(t, "2.01", curve.Points[0].Value.StringFixed(2))
}

func TestValueOverTime_EmptyWhenNothingQualifies(t *testing.T) {
	curve := ValueOverTime(purchase("AAA", "2025-01-01", "1"), []model.PricePoint{pp("AAA", "2024-01-01", "10")})
	assert.Empty(t, curve.Points)
	_, ok := curve.Last()
	assert.False(t, ok)

	assert.Empty(t, ValueOverTime(purchase("AAA", "2024-01-01", "1"), nil).Points)
}
