package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder owns the engine's Prometheus instruments. The engine packages
// themselves stay pure; callers (API handlers, the ingest loop) record
// around them.
type Recorder struct {
	apiRequestCounter   *prometheus.CounterVec
	apiLatencyHistogram *prometheus.HistogramVec

	pricingCounter    *prometheus.CounterVec
	solverCounter     *prometheus.CounterVec
	evaluationLatency prometheus.Histogram

	gridBuildLatency prometheus.Histogram
	gridCellsTotal   prometheus.Counter

	expMoveCacheCounter *prometheus.CounterVec
	chainUpdateCounter  *prometheus.CounterVec
}

// NewRecorder creates and registers all metrics
func NewRecorder() *Recorder {
	return &Recorder{
		apiRequestCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ow_api_requests_total",
				Help: "The total number of API requests",
			},
			[]string{"method", "path", "status"},
		),
		apiLatencyHistogram: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ow_api_latency_seconds",
				Help:    "API request latency distribution",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
			},
			[]string{"method", "path"},
		),
		pricingCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ow_pricing_evaluations_total",
				Help: "The total number of option pricing evaluations",
			},
			[]string{"kind"},
		),
		solverCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ow_implied_vol_solves_total",
				Help: "The total number of implied volatility solves",
			},
			[]string{"kind"},
		),
		evaluationLatency: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ow_strategy_evaluation_seconds",
				Help:    "Strategy evaluation latency distribution",
				Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
			},
		),
		gridBuildLatency: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ow_scenario_grid_build_seconds",
				Help:    "Scenario grid build latency distribution",
				Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
			},
		),
		gridCellsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "ow_scenario_grid_cells_total",
				Help: "The total number of scenario grid cells evaluated",
			},
		),
		expMoveCacheCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ow_expected_move_cache_total",
				Help: "Expected move cache lookups by result",
			},
			[]string{"result"},
		),
		chainUpdateCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ow_chain_updates_total",
				Help: "The total number of option chain updates ingested",
			},
			[]string{"symbol"},
		),
	}
}

// RecordAPIRequest records an API request with its latency
func (r *Recorder) RecordAPIRequest(method, path string, status int, latency time.Duration) {
	r.apiRequestCounter.WithLabelValues(method, path, statusLabel(status)).Inc()
	r.apiLatencyHistogram.WithLabelValues(method, path).Observe(latency.Seconds())
}

// RecordPricing counts a pricing evaluation
func (r *Recorder) RecordPricing(kind string) {
	r.pricingCounter.WithLabelValues(kind).Inc()
}

// RecordSolve counts an implied volatility solve
func (r *Recorder) RecordSolve(kind string) {
	r.solverCounter.WithLabelValues(kind).Inc()
}

// RecordEvaluation records a strategy evaluation latency
func (r *Recorder) RecordEvaluation(latency time.Duration) {
	r.evaluationLatency.Observe(latency.Seconds())
}

// RecordGridBuild records a scenario grid build
func (r *Recorder) RecordGridBuild(latency time.Duration, cells int) {
	r.gridBuildLatency.Observe(latency.Seconds())
	r.gridCellsTotal.Add(float64(cells))
}

// RecordExpectedMoveLookup counts a cache hit or miss
func (r *Recorder) RecordExpectedMoveLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.expMoveCacheCounter.WithLabelValues(result).Inc()
}

// RecordChainUpdate counts an ingested chain update
func (r *Recorder) RecordChainUpdate(symbol string) {
	r.chainUpdateCounter.WithLabelValues(symbol).Inc()
}

func statusLabel(status int) string {
	switch {
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
