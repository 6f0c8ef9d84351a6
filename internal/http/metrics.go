package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects request and admin-auth counters for the server.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	pinSubmissions  *prometheus.CounterVec
	uploadGrants    prometheus.Counter
}

// NewMetrics creates a Metrics instance backed by its own registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jam_http_requests_total",
			Help: "HTTP requests processed, by method, path and status.",
		}, []string{"method", "path", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "jam_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		pinSubmissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jam_pin_submissions_total",
			Help: "Admin PIN submissions, by outcome.",
		}, []string{"outcome"}),
		uploadGrants: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jam_upload_grants_total",
			Help: "Signed upload grants issued.",
		}),
	}

	registry.MustRegister(m.requestsTotal, m.requestDuration, m.pinSubmissions, m.uploadGrants)
	return m
}

// Handler serves the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Instrument wraps a handler chain with request counting and latency
// observation.
func (m *Metrics) Instrument() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m == nil {
				next.ServeHTTP(w, r)
				return
			}

			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(recorder, r)

			m.requestsTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(recorder.status)).Inc()
			m.requestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
		})
	}
}

// RecordPinSubmission counts one PIN submission outcome
// (accepted, rejected, rate_limited or invalid).
func (m *Metrics) RecordPinSubmission(outcome string) {
	if m == nil {
		return
	}
	m.pinSubmissions.WithLabelValues(outcome).Inc()
}

// RecordUploadGrant counts one issued upload grant.
func (m *Metrics) RecordUploadGrant() {
	if m == nil {
		return
	}
	m.uploadGrants.Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
