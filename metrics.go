package jobscope

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of one App. Each App gets its own
// registry so several apps can live in one process.
type Metrics struct {
	Registry *prometheus.Registry

	HTTPRequests   *prometheus.CounterVec
	HTTPDuration   *prometheus.HistogramVec
	StoreLatency   *prometheus.HistogramVec
	StoreErrors    *prometheus.CounterVec
	CacheInvalid   prometheus.Counter
	LoginAttempts  *prometheus.CounterVec
	ImagesUploaded prometheus.Counter
}

// NewMetrics registers the application collectors plus the Go runtime and
// process collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "jobscope_http_requests_total",
			Help: "HTTP requests by method, route and status code",
		}, []string{"method", "route", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "jobscope_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		StoreLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "jobscope_store_operation_duration_seconds",
			Help:    "Content store operation latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		StoreErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "jobscope_store_errors_total",
			Help: "Content store operations that failed, by operation",
		}, []string{"operation"}),
		CacheInvalid: f.NewCounter(prometheus.CounterOpts{
			Name: "jobscope_post_cache_invalidations_total",
			Help: "Post cache invalidations after admin writes",
		}),
		LoginAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "jobscope_admin_login_attempts_total",
			Help: "Admin PIN submissions by result",
		}, []string{"result"}),
		ImagesUploaded: f.NewCounter(prometheus.CounterOpts{
			Name: "jobscope_images_uploaded_total",
			Help: "Open Graph images uploaded through the admin",
		}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// Middleware records request counts and latency keyed by the matched route,
// so path parameters do not explode label cardinality.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			status := responseStatus(c, err)
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			m.HTTPDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}
