// Package metrics wires the many-to-many table engine's Prometheus
// instrumentation, the way the teacher wires its own rest.NewMetrics /
// PromeHttpMiddleware pair around a prometheus.Registry in
// cmd/engine/main.go.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the counters and histograms a table-server build
// exposes on /metrics.
type Metrics struct {
	TableBuildsTotal   *prometheus.CounterVec
	TableBuildDuration *prometheus.HistogramVec
	SettledNodesTotal  *prometheus.HistogramVec
	HTTPRequestsTotal  *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
}

// NewMetrics registers every collector against reg and returns the
// handle callers use to record observations.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TableBuildsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "routingtable",
			Name:      "table_builds_total",
			Help:      "Number of many-to-many table builds, by engine and outcome.",
		}, []string{"engine", "outcome"}),
		TableBuildDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "routingtable",
			Name:      "table_build_duration_seconds",
			Help:      "Wall time to build a many-to-many table, by engine.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"engine"}),
		SettledNodesTotal: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "routingtable",
			Name:      "settled_nodes_per_call",
			Help:      "Total nodes settled across all searches in one table build, by engine.",
			Buckets:   prometheus.ExponentialBuckets(64, 2, 12),
		}, []string{"engine"}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "routingtable",
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by route and status class.",
		}, []string{"route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "routingtable",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	reg.MustRegister(
		m.TableBuildsTotal,
		m.TableBuildDuration,
		m.SettledNodesTotal,
		m.HTTPRequestsTotal,
		m.HTTPDuration,
	)
	return m
}

// ObserveTableBuild records one completed table-build call.
func (m *Metrics) ObserveTableBuild(engine string, outcome string, elapsed time.Duration, settledNodes int) {
	m.TableBuildsTotal.WithLabelValues(engine, outcome).Inc()
	m.TableBuildDuration.WithLabelValues(engine).Observe(elapsed.Seconds())
	m.SettledNodesTotal.WithLabelValues(engine).Observe(float64(settledNodes))
}

// PromHTTPMiddleware times every request and tags it with its URL path
// and status class, the HTTP-layer twin of the teacher's
// PromeHttpMiddleware.
func PromHTTPMiddleware(m *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			route := r.URL.Path
			m.HTTPRequestsTotal.WithLabelValues(route, statusClass(sw.status)).Inc()
			m.HTTPDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
