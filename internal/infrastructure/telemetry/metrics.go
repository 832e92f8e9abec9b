// Package telemetry exports Prometheus metrics for the label service.
// Every recorder is nil-safe so callers never need to check whether metrics
// are enabled.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "labels"

// HTTPDurationBuckets are the latency buckets for HTTP requests in seconds.
var HTTPDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// NewRegistry returns a registry with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves the registry in the Prometheus text format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// LabelMetrics records print job activity.
type LabelMetrics struct {
	jobsCreated    prometheus.Counter
	jobItems       prometheus.Histogram
	skips          *prometheus.CounterVec
	renderDuration *prometheus.HistogramVec
	renderFailures *prometheus.CounterVec
	jobsSwept      prometheus.Counter
}

// NewLabelMetrics registers the label metrics on reg. A nil reg yields a
// recorder that drops everything.
func NewLabelMetrics(reg prometheus.Registerer) *LabelMetrics {
	if reg == nil {
		return &LabelMetrics{}
	}
	m := &LabelMetrics{
		jobsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_created_total",
			Help:      "Print jobs created.",
		}),
		jobItems: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_items",
			Help:      "Number of labels in each created print job.",
			Buckets:   []float64{0, 10, 50, 100, 250, 500, 1000, 2500, 5000},
		}),
		skips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolution_skips_total",
			Help:      "Candidate groups dropped during catalog resolution.",
		}, []string{"reason"}),
		renderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Time spent rendering a print job.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"format"}),
		renderFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_failures_total",
			Help:      "Renders that returned an error.",
		}, []string{"format"}),
		jobsSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_swept_total",
			Help:      "Print jobs removed by the retention sweeper.",
		}),
	}
	reg.MustRegister(m.jobsCreated, m.jobItems, m.skips, m.renderDuration, m.renderFailures, m.jobsSwept)
	return m
}

// JobCreated records a new job with n items.
func (m *LabelMetrics) JobCreated(n int) {
	if m == nil || m.jobsCreated == nil {
		return
	}
	m.jobsCreated.Inc()
	m.jobItems.Observe(float64(n))
}

// Skipped records count skips for reason.
func (m *LabelMetrics) Skipped(reason string, count int) {
	if m == nil || m.skips == nil || count <= 0 {
		return
	}
	m.skips.WithLabelValues(normalizeLabel(reason)).Add(float64(count))
}

// ObserveRender records one render of format. A non-nil err counts as a failure.
func (m *LabelMetrics) ObserveRender(format string, d time.Duration, err error) {
	if m == nil || m.renderDuration == nil {
		return
	}
	format = normalizeLabel(format)
	m.renderDuration.WithLabelValues(format).Observe(d.Seconds())
	if err != nil {
		m.renderFailures.WithLabelValues(format).Inc()
	}
}

// Swept records n jobs removed by retention.
func (m *LabelMetrics) Swept(n int64) {
	if m == nil || m.jobsSwept == nil || n <= 0 {
		return
	}
	m.jobsSwept.Add(float64(n))
}

// HTTPMetrics records served requests.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight prometheus.Gauge
}

// NewHTTPMetrics registers the HTTP metrics on reg. A nil reg yields a no-op recorder.
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		return &HTTPMetrics{}
	}
	m := &HTTPMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_server_request_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "route", "status_code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_server_request_duration_seconds",
			Help:    "HTTP request latency distribution in seconds.",
			Buckets: HTTPDurationBuckets,
		}, []string{"method", "route"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_server_active_requests",
			Help: "Number of currently active HTTP requests.",
		}),
	}
	reg.MustRegister(m.requests, m.duration, m.inFlight)
	return m
}

// Start marks a request as in flight.
func (m *HTTPMetrics) Start() {
	if m == nil || m.inFlight == nil {
		return
	}
	m.inFlight.Inc()
}

// Done records a finished request.
func (m *HTTPMetrics) Done(method, route string, status int, d time.Duration) {
	if m == nil || m.requests == nil {
		return
	}
	route = normalizeLabel(route)
	m.inFlight.Dec()
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, route).Observe(d.Seconds())
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
