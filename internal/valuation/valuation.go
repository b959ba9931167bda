// Package valuation derives a purchase's market value across trading days.
package valuation

import (
	"slices"

	"PortfolioSentinel/internal/date"
	"PortfolioSentinel/internal/model"
)

// ValueOverTime returns the value curve of purchase over series.
//
// A point contributes when it carries the purchase's symbol and is dated on or
// after the purchase date; its value is shares × close rounded to cents. The
// curve is date-ascending with at most one point per date (the first
// occurrence in series wins) and no gap filling. series is only read and need
// not be sorted.
func ValueOverTime(purchase model.PurchaseRecord, series []model.PricePoint) model.ValueCurve {
	curve := model.ValueCurve{
		PurchaseID: purchase.ID,
		InvestorID: purchase.InvestorID,
		Symbol:     purchase.Symbol,
	}
	symbol := model.NormalizeSymbol(purchase.Symbol)

	seen := make(map[date.Date]struct{})
	for _, pt := range series {
		if model.NormalizeSymbol(pt.Symbol) != symbol || pt.Date.Before(purchase.PurchaseDate) {
			continue
		}
		if _, dup := seen[pt.Date]; dup {
			continue
		}
		seen[pt.Date] = struct{}{}
		curve.Points = append(curve.Points, model.ValuePoint{
			Date:  pt.Date,
			Value: purchase.Shares.Mul(pt.Close).Round(2),
		})
	}

	slices.SortFunc(curve.Points, func(a, b model.ValuePoint) int { return a.Date.Compare(b.Date) })
	return curve
}
