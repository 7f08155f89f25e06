package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/application/port"
)

const metricsNamespace = "daily_activity"

// Metrics holds the Prometheus collectors of the service on a private registry
type Metrics struct {
	registry    *prometheus.Registry
	attachments *prometheus.CounterVec
	archives    *prometheus.CounterVec
	requests    *prometheus.HistogramVec
}

// NewMetrics creates and registers all collectors
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		attachments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "attachments_stored_total",
			Help:      "Attachments written, by backend and outcome.",
		}, []string{"backend", "outcome"}),
		archives: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "archives_built_total",
			Help:      "Attachment archives requested, by packaging mode and outcome.",
		}, []string{"mode", "outcome"}),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route, method and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
	}

	m.registry.MustRegister(
		m.attachments,
		m.archives,
		m.requests,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

// AttachmentStored implements port.Metrics
func (m *Metrics) AttachmentStored(backend string, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.attachments.WithLabelValues(backend, outcome).Inc()
}

// ArchiveBuilt implements port.Metrics
func (m *Metrics) ArchiveBuilt(mode, outcome string) {
	m.archives.WithLabelValues(mode, outcome).Inc()
}

// Handler exposes the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware observes request latency. Unmatched routes share one label value.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.
			WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

var _ port.Metrics = (*Metrics)(nil)
