// Package chart renders value curves and predictions as PNG images.
package chart

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"PortfolioSentinel/internal/model"
)

const (
	width  = 900
	height = 400
)

// ErrNoData is returned when there is nothing to plot.
var ErrNoData = errors.New("nothing to plot")

var palette = []drawing.Color{
	drawing.ColorFromHex("2563eb"), // blue-600
	drawing.ColorFromHex("dc2626"), // red-600
	drawing.ColorFromHex("16a34a"), // green-600
	drawing.ColorFromHex("d97706"), // amber-600
	drawing.ColorFromHex("7c3aed"), // violet-600
	drawing.ColorFromHex("0891b2"), // cyan-600
}

// RenderValueCurves draws one line per purchase curve. Empty curves are
// skipped; if all are empty ErrNoData is returned.
func RenderValueCurves(title string, curves []model.ValueCurve) ([]byte, error) {
	var (
		series     []chart.Series
		xMin, xMax time.Time
		yMin, yMax = math.Inf(1), math.Inf(-1)
	)
	for i, c := range curves {
		if len(c.Points) == 0 {
			continue
		}
		xs := make([]time.Time, len(c.Points))
		ys := make([]float64, len(c.Points))
		for j, p := range c.Points {
			xs[j] = p.Date.Time()
			ys[j] = p.Value.InexactFloat64()
			if xMin.IsZero() || xs[j].Before(xMin) {
				xMin = xs[j]
			}
			if xs[j].After(xMax) {
				xMax = xs[j]
			}
			yMin, yMax = math.Min(yMin, ys[j]), math.Max(yMax, ys[j])
		}
		series = append(series, chart.TimeSeries{
			Name: c.Symbol,
			Style: chart.Style{
				StrokeColor: palette[i%len(palette)],
				StrokeWidth: 2,
			},
			XValues: xs,
			YValues: ys,
		})
	}
	if len(series) == 0 {
		return nil, ErrNoData
	}
	if !xMax.After(xMin) {
		xMin, xMax = xMin.AddDate(0, 0, -1), xMax.AddDate(0, 0, 1)
	}

	graph := chart.Chart{
		Title:  title,
		Width:  width,
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			Range: &chart.ContinuousRange{Min: chart.TimeToFloat64(xMin), Max: chart.TimeToFloat64(xMax)},
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format("2006-01-02")
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			Range: paddedRange(yMin, yMax),
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("$%.0f", f)
				}
				return ""
			},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.LegendLeft(&graph)}
	return render(&graph)
}

// RenderPrediction plots the held-out closes against the day offset, the
// fitted line up to today, and the same-day estimate.
func RenderPrediction(pred *model.PricePrediction) ([]byte, error) {
	if pred == nil || len(pred.HeldOut) == 0 || len(pred.Coefficients) == 0 {
		return nil, ErrNoData
	}

	xs := make([]float64, len(pred.HeldOut))
	ys := make([]float64, len(pred.HeldOut))
	xMin := -1.0
	yMin, yMax := pred.EstimatedClose, pred.EstimatedClose
	for i, s := range pred.HeldOut {
		xs[i], ys[i] = float64(s.Offset), s.Actual
		xMin = math.Min(xMin, xs[i])
		yMin, yMax = math.Min(yMin, s.Actual), math.Max(yMax, s.Actual)
	}
	slope := pred.Coefficients[0]
	lineY := []float64{pred.Intercept + slope*xMin, pred.Intercept}
	yMin = math.Min(yMin, math.Min(lineY[0], lineY[1]))
	yMax = math.Max(yMax, math.Max(lineY[0], lineY[1]))

	heldOut := chart.ContinuousSeries{
		Name: "Held-out close",
		Style: chart.Style{
			StrokeWidth: chart.Disabled,
			DotWidth:    4,
			DotColor:    palette[0],
		},
		XValues: xs,
		YValues: ys,
	}
	fitted := chart.ContinuousSeries{
		Name: "Fitted trend",
		Style: chart.Style{
			StrokeColor:     palette[1],
			StrokeWidth:     2,
			StrokeDashArray: []float64{5.0, 3.0},
		},
		XValues: []float64{xMin, 0},
		YValues: lineY,
	}
	estimate := chart.ContinuousSeries{
		Name: fmt.Sprintf("Estimate %.2f", pred.EstimatedClose),
		Style: chart.Style{
			StrokeWidth: chart.Disabled,
			DotWidth:    6,
			DotColor:    palette[2],
		},
		XValues: []float64{0},
		YValues: []float64{pred.EstimatedClose},
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("%s close estimate for %s", pred.Symbol, pred.AsOf),
		Width:  width,
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			Name:  "Days from today",
			Range: &chart.ContinuousRange{Min: xMin - 1, Max: 1},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f", f)
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			Range: paddedRange(yMin, yMax),
		},
		Series: []chart.Series{heldOut, fitted, estimate},
	}
	graph.Elements = []chart.Renderable{chart.LegendLeft(&graph)}
	return render(&graph)
}

// paddedRange widens [lo, hi] by 5% so flat series still get a drawable axis.
func paddedRange(lo, hi float64) *chart.ContinuousRange {
	pad := (hi - lo) * 0.05
	if pad == 0 {
		pad = math.Max(math.Abs(hi)*0.05, 1)
	}
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

func render(graph *chart.Chart) ([]byte, error) {
	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}
