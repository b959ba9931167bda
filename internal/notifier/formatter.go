package notifier

import (
	"fmt"
	"html"
	"io"
	"strings"

	"PortfolioSentinel/internal/model"
	"PortfolioSentinel/internal/portfolio"
	"PortfolioSentinel/internal/store"
)

// FormatPrediction formats a same-day close estimate for Telegram.
func FormatPrediction(pred *model.PricePrediction) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔮 <b>%s close estimate</b> | %s\n\n", html.EscapeString(pred.Symbol), pred.AsOf)
	fmt.Fprintf(&b, "Estimated close: %.2f\n", pred.EstimatedClose)
	if len(pred.Coefficients) > 0 {
		fmt.Fprintf(&b, "Trend: %+.4f / day (intercept %.2f)\n", pred.Coefficients[0], pred.Intercept)
	}
	fmt.Fprintf(&b, "Window range: %.2f – %.2f (estimate at %.0f%%)\n", pred.WindowLow, pred.WindowHigh, pred.RangePosition*100)
	fmt.Fprintf(&b, "Held-out MSE: %.4f | R²: %.3f\n", pred.MeanSquaredError, pred.RSquared)
	fmt.Fprintf(&b, "Samples: %d train / %d test\n", pred.TrainSamples, pred.TestSamples)
	if pred.ExcludedFuture > 0 {
		fmt.Fprintf(&b, "\n⚠️ %d future-dated points ignored\n", pred.ExcludedFuture)
	}
	return b.String()
}

// FormatValueReport formats an investor's holdings for Telegram.
func FormatValueReport(rep *portfolio.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "💼 <b>%s</b>\n\n", html.EscapeString(rep.Investor.FullName()))
	if len(rep.Holdings) == 0 {
		b.WriteString("No purchases recorded.\n")
		return b.String()
	}
	for _, h := range rep.Holdings {
		p := h.Purchase
		last, ok := h.Curve.Last()
		if !ok {
			fmt.Fprintf(&b, "%s: %s sh since %s, no prices yet\n",
				html.EscapeString(p.Symbol), p.Shares, p.PurchaseDate)
			continue
		}
		fmt.Fprintf(&b, "%s: %s sh, %s on %s (%s)\n",
			html.EscapeString(p.Symbol), p.Shares, last.Value.StringFixed(2), last.Date, signed(h.Gain.StringFixed(2)))
	}
	b.WriteString("  ─────────────────\n")
	fmt.Fprintf(&b, "Cost: %s | Value: %s\n", rep.TotalCost.StringFixed(2), rep.TotalValue.StringFixed(2))
	return b.String()
}

// FormatIngestResults summarizes a collection run. err is the joined
// collection error, if any.
func FormatIngestResults(results []store.IngestResult, err error) string {
	var b strings.Builder
	b.WriteString("📥 <b>Price update</b>\n\n")
	for _, r := range results {
		if r.Symbol == "" {
			continue
		}
		fmt.Fprintf(&b, "%s: +%d new, %d known", html.EscapeString(r.Symbol), r.Inserted, r.Duplicates)
		if r.Rejected > 0 {
			fmt.Fprintf(&b, ", %d rejected", r.Rejected)
		}
		b.WriteString("\n")
	}
	if err != nil {
		fmt.Fprintf(&b, "\n❌ %s\n", html.EscapeString(err.Error()))
	}
	return b.String()
}

// WritePriceTable prints points as an aligned plain-text table.
func WritePriceTable(w io.Writer, points []model.PricePoint) error {
	if _, err := fmt.Fprintf(w, "%-8s %-10s %12s %12s %12s %12s %14s\n",
		"SYMBOL", "DATE", "OPEN", "HIGH", "LOW", "CLOSE", "VOLUME"); err != nil {
		return err
	}
	for _, p := range points {
		if _, err := fmt.Fprintf(w, "%-8s %-10s %12s %12s %12s %12s %14s\n",
			p.Symbol, p.Date, p.Open.StringFixed(2), p.High.StringFixed(2), p.Low.StringFixed(2),
			p.Close.StringFixed(2), p.Volume.StringFixed(0)); err != nil {
			return err
		}
	}
	return nil
}

// WriteValueTable prints every curve point of every holding as plain text.
func WriteValueTable(w io.Writer, rep *portfolio.Report) error {
	if _, err := fmt.Fprintf(w, "Investor: %s (%s)\n", rep.Investor.FullName(), rep.Investor.ID); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%-8s %10s %-10s %14s\n", "SYMBOL", "SHARES", "DATE", "VALUE"); err != nil {
		return err
	}
	for _, h := range rep.Holdings {
		for _, pt := range h.Curve.Points {
			if _, err := fmt.Fprintf(w, "%-8s %10s %-10s %14s\n",
				h.Purchase.Symbol, h.Purchase.Shares, pt.Date, pt.Value.StringFixed(2)); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintf(w, "Total cost %s, latest value %s\n", rep.TotalCost.StringFixed(2), rep.TotalValue.StringFixed(2))
	return err
}

func signed(s string) string {
	if strings.HasPrefix(s, "-") {
		return s
	}
	return "+" + s
}
