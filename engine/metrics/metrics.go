// Package metrics exports Prometheus metrics for the scheduling engine:
// operation counters and latencies, profile cache effectiveness, placement
// outcomes and phrasing fallbacks. The exporter owns its registry so the
// engine's metrics stay isolated from whatever process embeds it.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exporter records engine metrics into a Prometheus registry.
type Exporter struct {
	registry *prometheus.Registry

	operations        *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	cacheHits         prometheus.Counter
	cacheMisses       prometheus.Counter
	placements        *prometheus.CounterVec
	unplaced          prometheus.Counter
	phraseFallbacks   prometheus.Counter
}

// Config configures the exporter.
type Config struct {
	// Registry to register into; a private one is created when nil.
	Registry *prometheus.Registry
	// LatencyBuckets for the operation duration histogram, seconds.
	LatencyBuckets []float64
}

// DefaultConfig returns buckets tuned for in-process scheduling calls.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
	}
}

// NewExporter creates an exporter with all engine metrics registered.
func NewExporter(cfg Config) *Exporter {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}
	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	e := &Exporter{registry: registry}

	e.operations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blockwise",
			Subsystem: "engine",
			Name:      "operations_total",
			Help:      "Engine operations by outcome",
		},
		[]string{"operation", "status"},
	)

	e.operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "blockwise",
			Subsystem: "engine",
			Name:      "operation_duration_seconds",
			Help:      "Engine operation latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"operation"},
	)

	e.cacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "blockwise",
			Subsystem: "engine",
			Name:      "profile_cache_hits_total",
			Help:      "Profile cache hits",
		},
	)

	e.cacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "blockwise",
			Subsystem: "engine",
			Name:      "profile_cache_misses_total",
			Help:      "Profile cache misses",
		},
	)

	e.placements = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blockwise",
			Subsystem: "engine",
			Name:      "placements_total",
			Help:      "Suggestions produced, by category",
		},
		[]string{"category"},
	)

	e.unplaced = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "blockwise",
			Subsystem: "engine",
			Name:      "unplaced_tasks_total",
			Help:      "Tasks that found no slot",
		},
	)

	e.phraseFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "blockwise",
			Subsystem: "engine",
			Name:      "phrase_fallbacks_total",
			Help:      "Phrasing calls that fell back to deterministic text",
		},
	)

	registry.MustRegister(
		e.operations,
		e.operationDuration,
		e.cacheHits,
		e.cacheMisses,
		e.placements,
		e.unplaced,
		e.phraseFallbacks,
	)

	return e
}

// RecordOperation records one engine operation and its latency.
func (e *Exporter) RecordOperation(operation string, d time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	e.operations.WithLabelValues(operation, status).Inc()
	e.operationDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// RecordCacheHit counts a profile cache hit.
func (e *Exporter) RecordCacheHit() { e.cacheHits.Inc() }

// RecordCacheMiss counts a profile cache miss.
func (e *Exporter) RecordCacheMiss() { e.cacheMisses.Inc() }

// RecordPlacement counts one produced suggestion.
func (e *Exporter) RecordPlacement(category string) {
	e.placements.WithLabelValues(category).Inc()
}

// RecordUnplaced counts tasks a batch could not place.
func (e *Exporter) RecordUnplaced(n int) {
	if n > 0 {
		e.unplaced.Add(float64(n))
	}
}

// RecordPhraseFallback counts a phrasing call that kept the deterministic
// text.
func (e *Exporter) RecordPhraseFallback() { e.phraseFallbacks.Inc() }

// Registry returns the underlying registry.
func (e *Exporter) Registry() *prometheus.Registry { return e.registry }

// Handler returns the scrape handler for the exporter's registry.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// ServeHTTP implements http.Handler.
func (e *Exporter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.Handler().ServeHTTP(w, r)
}
