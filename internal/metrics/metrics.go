// Package metrics holds the process's prometheus collectors on a private
// registry, so tests can build as many as they like.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
	jiraRequests *prometheus.CounterVec
	computations *prometheus.CounterVec
	bars         prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		jiraRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jira_requests_total",
			Help: "Jira HTTP attempts by outcome (ok, retry, error).",
		}, []string{"outcome"}),
		computations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "burndown_computations_total",
			Help: "Burn-down computations by outcome.",
		}, []string{"outcome"}),
		bars: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "burndown_bars",
			Help:    "Bars per computed burn-down.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 9),
		}),
	}
	m.registry.MustRegister(
		m.httpRequests, m.httpLatency, m.jiraRequests, m.computations, m.bars,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveHTTP(method, route string, status int, took time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpLatency.WithLabelValues(method, route).Observe(took.Seconds())
}

func (m *Metrics) JiraRequest(outcome string) {
	m.jiraRequests.WithLabelValues(outcome).Inc()
}

// BurnDown records one computation; bars is ignored on failure.
func (m *Metrics) BurnDown(err error, bars int) {
	if err != nil {
		m.computations.WithLabelValues("error").Inc()
		return
	}
	m.computations.WithLabelValues("ok").Inc()
	m.bars.Observe(float64(bars))
}
