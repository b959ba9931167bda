// Package metrics exposes ingestion, fetch and prediction counters in the
// Prometheus format. A nil *Metrics is valid and records nothing.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors of one registry.
type Metrics struct {
	registry *prometheus.Registry

	pointsIngested *prometheus.CounterVec
	fetchDuration  *prometheus.HistogramVec
	fetchFailures  *prometheus.CounterVec
	predictions    *prometheus.CounterVec
	lastEstimate   *prometheus.GaugeVec
}

// Prediction outcomes used as the "result" label.
const (
	ResultOK           = "ok"
	ResultInsufficient = "insufficient_data"
	ResultDegenerate   = "degenerate"
	ResultError        = "error"
)

// New creates the collectors on a private registry under namespace.
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		pointsIngested: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "price_points_total",
				Help:      "Price records seen by ingestion, by outcome",
			},
			[]string{"symbol", "outcome"},
		),
		fetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "fetch_duration_seconds",
				Help:      "Duration of market-data requests",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"source"},
		),
		fetchFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fetch_failures_total",
				Help:      "Failed market-data requests",
			},
			[]string{"source"},
		),
		predictions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "predictions_total",
				Help:      "Close estimates attempted, by result",
			},
			[]string{"symbol", "result"},
		),
		lastEstimate: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "estimated_close",
				Help:      "Latest same-day close estimate",
			},
			[]string{"symbol"},
		),
	}
}

// ObserveIngest counts the outcome of one ingestion batch.
func (m *Metrics) ObserveIngest(symbol string, inserted, duplicates, rejected int) {
	if m == nil {
		return
	}
	m.pointsIngested.WithLabelValues(symbol, "inserted").Add(float64(inserted))
	m.pointsIngested.WithLabelValues(symbol, "duplicate").Add(float64(duplicates))
	m.pointsIngested.WithLabelValues(symbol, "rejected").Add(float64(rejected))
}

// ObserveFetch records one request to source.
func (m *Metrics) ObserveFetch(source string, took time.Duration, err error) {
	if m == nil {
		return
	}
	m.fetchDuration.WithLabelValues(source).Observe(took.Seconds())
	if err != nil {
		m.fetchFailures.WithLabelValues(source).Inc()
	}
}

// ObservePrediction records a fit attempt. classify maps the fit error to a
// result label; the estimate gauge only moves on success.
func (m *Metrics) ObservePrediction(symbol string, estimate float64, err error, classify func(error) string) {
	if m == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultError
		if classify != nil {
			result = classify(err)
		}
	}
	m.predictions.WithLabelValues(symbol, result).Inc()
	if err == nil {
		m.lastEstimate.WithLabelValues(symbol).Set(estimate)
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics and /healthz on srv until it is shut down.
func (m *Metrics) Serve(srv *http.Server) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	srv.Handler = mux
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
