// Package metrics exposes Prometheus counters for the complaint service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Submission outcomes.
const (
	OutcomeAccepted     = "accepted"
	OutcomeRejected     = "rejected"
	OutcomeIOError      = "io_error"
	OutcomeStorageError = "storage_error"
	OutcomeError        = "error"
)

type Metrics struct {
	registry *prometheus.Registry

	requestTotal     *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	submissionsTotal *prometheus.CounterVec
	listingsTotal    prometheus.Counter
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "complaints",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"method", "route", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "complaints",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	submissionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "complaints",
			Subsystem: "workflow",
			Name:      "submissions_total",
			Help:      "Complaint submissions by outcome and rejection reason.",
		},
		[]string{"outcome", "reason"},
	)
	listingsTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "complaints",
			Subsystem: "workflow",
			Name:      "listings_total",
			Help:      "Number of times the complaint listing was rendered.",
		},
	)

	registry.MustRegister(requestTotal, requestDuration, submissionsTotal, listingsTotal)

	return &Metrics{
		registry:         registry,
		requestTotal:     requestTotal,
		requestDuration:  requestDuration,
		submissionsTotal: submissionsTotal,
		listingsTotal:    listingsTotal,
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency keyed by the matched route pattern.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requestTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// RecordSubmission counts one submission. reason is empty unless the outcome is a rejection.
func (m *Metrics) RecordSubmission(outcome, reason string) {
	m.submissionsTotal.WithLabelValues(outcome, reason).Inc()
}

func (m *Metrics) RecordListing() {
	m.listingsTotal.Inc()
}
