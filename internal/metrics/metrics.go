// Package metrics exposes crawl metrics in the Prometheus format, together
// with liveness and readiness probes, on an optional HTTP listener.
package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "padwatch"

// Metrics records crawl events. It satisfies the crawler's Recorder
// interface. Ready reports true once the first cycle has completed.
type Metrics struct {
	fetches       *prometheus.CounterVec
	linkErrors    *prometheus.CounterVec
	settles       *prometheus.CounterVec
	notifications *prometheus.CounterVec
	knownLinks    prometheus.Gauge
	cycleDuration prometheus.Histogram
	lastCycle     prometheus.Gauge

	ready atomic.Bool
}

// New creates the collectors and registers them, plus the Go runtime and
// process collectors, on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Metrics{
		fetches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetches_total",
			Help:      "Pad fetches by server and outcome.",
		}, []string{"server", "outcome"}),
		linkErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "link_errors_total",
			Help:      "Links whose processing failed, by failure kind.",
		}, []string{"kind"}),
		settles: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settles_total",
			Help:      "Settle events by change type.",
		}, []string{"change"}),
		notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification attempts by outcome.",
		}, []string{"outcome"}),
		knownLinks: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "known_links",
			Help:      "Number of links in the frontier.",
		}),
		cycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a full crawl cycle.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
		}),
		lastCycle: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_cycle_timestamp_seconds",
			Help:      "Unix time at which the last cycle completed.",
		}),
	}
}

// FetchDone counts a fetch.
func (m *Metrics) FetchDone(server string, err error) {
	m.fetches.WithLabelValues(server, outcome(err)).Inc()
}

// LinkFailed counts a failed link.
func (m *Metrics) LinkFailed(kind string) {
	m.linkErrors.WithLabelValues(kind).Inc()
}

// Settled counts a settle event.
func (m *Metrics) Settled(created bool) {
	change := "updated"
	if created {
		change = "created"
	}
	m.settles.WithLabelValues(change).Inc()
}

// Notified counts a notification attempt.
func (m *Metrics) Notified(err error) {
	m.notifications.WithLabelValues(outcome(err)).Inc()
}

// CycleDone records a completed cycle and marks the watcher ready.
func (m *Metrics) CycleDone(known int, elapsed time.Duration) {
	m.knownLinks.Set(float64(known))
	m.cycleDuration.Observe(elapsed.Seconds())
	m.lastCycle.SetToCurrentTime()
	m.ready.Store(true)
}

// Ready reports whether at least one cycle has completed.
func (m *Metrics) Ready() bool {
	return m.ready.Load()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
