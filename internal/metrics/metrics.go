// Package metrics exposes Prometheus collectors for the watch pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dropwatch"

// Check results.
const (
	CheckStable  = "stable"
	CheckChanged = "changed"
	CheckFailed  = "failed"
	CheckRearmed = "rearmed"
)

// Metrics records pipeline activity on its own registry so several
// instances (tests, embedded use) never collide.
type Metrics struct {
	registry *prometheus.Registry

	eventsDetected   prometheus.Counter
	watchErrors      prometheus.Counter
	stabilityChecks  *prometheus.CounterVec
	dispatches       *prometheus.CounterVec
	dispatchDuration prometheus.Histogram
	evictions        prometheus.Counter
	trackedFiles     prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		eventsDetected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_detected_total",
			Help:      "Filesystem events that matched a rule pattern",
		}),
		watchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "watch_errors_total",
			Help:      "Errors reported by the notification backend",
		}),
		stabilityChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stability_checks_total",
			Help:      "Stability checks by result",
		}, []string{"result"}),
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatches_total",
			Help:      "Dispatch attempts by action and status",
		}, []string{"action", "status"}),
		dispatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_duration_seconds",
			Help:      "Time spent performing file actions",
			Buckets:   prometheus.DefBuckets,
		}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evictions_total",
			Help:      "Tracked entries dropped because their file vanished",
		}),
		trackedFiles: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tracked_files",
			Help:      "Paths currently waiting for stability",
		}),
	}

	m.registry.MustRegister(
		m.eventsDetected,
		m.watchErrors,
		m.stabilityChecks,
		m.dispatches,
		m.dispatchDuration,
		m.evictions,
		m.trackedFiles,
		prometheus.NewGoCollector(),
	)
	return m
}

func (m *Metrics) RecordEvent() {
	m.eventsDetected.Inc()
}

func (m *Metrics) RecordWatchError() {
	m.watchErrors.Inc()
}

func (m *Metrics) RecordCheck(result string) {
	m.stabilityChecks.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordDispatch(action, status string, d time.Duration) {
	m.dispatches.WithLabelValues(action, status).Inc()
	m.dispatchDuration.Observe(d.Seconds())
}

func (m *Metrics) RecordEviction() {
	m.evictions.Inc()
}

func (m *Metrics) SetTracked(n int) {
	m.trackedFiles.Set(float64(n))
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
