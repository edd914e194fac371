// Package metrics holds the Prometheus collectors of the service. A nil *Metrics is valid
// and records nothing.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "tournament"

type Metrics struct {
	httpLatency    *prometheus.HistogramVec
	requestCounter *prometheus.CounterVec
	matchesSettled *prometheus.CounterVec
	ratingDelta    prometheus.Histogram
	transitions    *prometheus.CounterVec
	bracketsBuilt  *prometheus.CounterVec
	eventsHandled  *prometheus.CounterVec
	queueDepth     prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_latency_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method", "code"}),
		requestCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests by route",
		}, []string{"route", "method", "code"}),
		matchesSettled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "matches",
			Name:      "settled_total",
			Help:      "Match results recorded, by result",
		}, []string{"result"}),
		ratingDelta: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rating",
			Name:      "delta_abs",
			Help:      "Absolute rating change of the first side per settled match",
			Buckets:   []float64{1, 2, 4, 8, 12, 16, 24, 32, 48, 64},
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lifecycle",
			Name:      "transitions_total",
			Help:      "Tournament status transitions",
		}, []string{"from", "to"}),
		bracketsBuilt: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "brackets",
			Name:      "built_total",
			Help:      "Brackets generated, by format",
		}, []string{"format"}),
		eventsHandled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "handled_total",
			Help:      "Event deliveries by sink and outcome",
		}, []string{"sink", "kind", "outcome"}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "workers",
			Name:      "queue_depth",
			Help:      "Jobs waiting in the worker queue",
		}),
	}
	reg.MustRegister(
		m.httpLatency, m.requestCounter, m.matchesSettled, m.ratingDelta,
		m.transitions, m.bracketsBuilt, m.eventsHandled, m.queueDepth,
	)
	return m
}

func (m *Metrics) ObserveRequest(route, method string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	labels := prometheus.Labels{"route": route, "method": method, "code": strconv.Itoa(code)}
	m.httpLatency.With(labels).Observe(elapsed.Seconds())
	m.requestCounter.With(labels).Inc()
}

func (m *Metrics) MatchSettled(result string, delta float64) {
	if m == nil {
		return
	}
	m.matchesSettled.WithLabelValues(result).Inc()
	if delta < 0 {
		delta = -delta
	}
	m.ratingDelta.Observe(delta)
}

func (m *Metrics) Transition(from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) BracketBuilt(format string) {
	if m == nil {
		return
	}
	m.bracketsBuilt.WithLabelValues(format).Inc()
}

func (m *Metrics) EventHandled(sink, kind string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.eventsHandled.WithLabelValues(sink, kind, outcome).Inc()
}

func (m *Metrics) QueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}
