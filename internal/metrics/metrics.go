// Package metrics exposes Prometheus instruments for the server and worker.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "budgetai"

type Metrics struct {
	registry *prometheus.Registry

	httpRequests        *prometheus.CounterVec
	httpDuration        *prometheus.HistogramVec
	persistenceFailures *prometheus.CounterVec
	searchDuration      prometheus.Histogram
	searchFailures      prometheus.Counter
	sessions            prometheus.Gauge
	exports             *prometheus.CounterVec
}

// New registers every instrument on a fresh registry together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		persistenceFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persistence_failures_total",
			Help:      "Failed saves by document kind.",
		}, []string{"document"}),
		searchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Price search latency across all locations.",
			Buckets:   []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5},
		}),
		searchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_failures_total",
			Help:      "Searches that returned an error.",
		}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_cached",
			Help:      "User sessions currently held in memory.",
		}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shopping_list_exports_total",
			Help:      "Shopping list exports by outcome.",
		}, []string{"outcome"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests, m.httpDuration, m.persistenceFailures,
		m.searchDuration, m.searchFailures, m.sessions, m.exports,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) PersistenceFailed(document string) {
	m.persistenceFailures.WithLabelValues(document).Inc()
}

// ObserveSearch matches the search service observer signature.
func (m *Metrics) ObserveSearch(d time.Duration, _ int, err error) {
	m.searchDuration.Observe(d.Seconds())
	if err != nil {
		m.searchFailures.Inc()
	}
}

func (m *Metrics) SetSessions(n int) { m.sessions.Set(float64(n)) }

// Export outcomes.
const (
	ExportOK      = "ok"
	ExportSkipped = "skipped"
	ExportFailed  = "failed"
)

func (m *Metrics) Exported(outcome string) {
	m.exports.WithLabelValues(outcome).Inc()
}
