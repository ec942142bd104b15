// Package metrics exposes Prometheus instrumentation for scoring operations.
// This is part of the platform layer and contains no business logic.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"carmarket_backend/platform/apperr"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeSuccess    = "success"
	OutcomeNotFound   = "not_found"
	OutcomeValidation = "validation"
	OutcomeTimeout    = "timeout"
	OutcomeError      = "error"
)

const (
	OperationEnrichLead    = "enrich_lead"
	OperationFitScore      = "calculate_fitscore"
	OperationDetectSignals = "detect_market_signals"
	OperationNotifyDealers = "notify_dealers_demand_gap"
	OperationSignalCleanup = "market_signal_retention"
)

// Metrics groups the collectors registered by the service.
type Metrics struct {
	registry        *prometheus.Registry
	operations      *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	signalsDetected *prometheus.CounterVec
	dealersNotified prometheus.Counter
}

// New registers every collector on a fresh registry, plus Go runtime and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scoring_operations_total",
			Help: "Scoring operations by outcome.",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scoring_operation_duration_seconds",
			Help:    "Wall time of scoring operations.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"operation"}),
		signalsDetected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "market_signals_detected_total",
			Help: "Market signals persisted by type.",
		}, []string{"signal_type"}),
		dealersNotified: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "demand_gap_dealers_notified_total",
			Help: "Dealer notifications created for demand gaps.",
		}),
	}
	reg.MustRegister(
		m.operations,
		m.duration,
		m.signalsDetected,
		m.dealersNotified,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Observe records one operation run. A nil receiver is a no-op so callers
// and tests can skip metrics wiring.
func (m *Metrics) Observe(operation string, started time.Time, err error) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, Classify(err)).Inc()
	m.duration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

// SignalsDetected adds n persisted signals of signalType.
func (m *Metrics) SignalsDetected(signalType string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.signalsDetected.WithLabelValues(signalType).Add(float64(n))
}

// DealersNotified adds n dealer notifications.
func (m *Metrics) DealersNotified(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.dealersNotified.Add(float64(n))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Classify maps an operation error to an outcome label.
func Classify(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, context.DeadlineExceeded):
		return OutcomeTimeout
	case apperr.Is(err, apperr.KindNotFound):
		return OutcomeNotFound
	case apperr.Is(err, apperr.KindValidation), apperr.Is(err, apperr.KindBadRequest):
		return OutcomeValidation
	default:
		return OutcomeError
	}
}
