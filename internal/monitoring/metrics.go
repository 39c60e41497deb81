package monitoring

import (
	"database/sql"
	"strconv"
	"time"

	"todo-api/internal/ratelimit"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const unmatchedRoute = "unmatched"

type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPActiveRequests  prometheus.Gauge
	AuthEventsTotal     *prometheus.CounterVec
}

// NewMetrics registers the service metrics plus the Go runtime and process
// collectors on registry.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		HTTPActiveRequests: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_active_requests",
				Help: "Number of HTTP requests currently being served",
			},
		),
		AuthEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_events_total",
				Help: "Signup and login attempts by outcome",
			},
			[]string{"event", "outcome"},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPActiveRequests,
		m.AuthEventsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Middleware labels requests by route template so task ids do not explode
// cardinality.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.HTTPActiveRequests.Inc()

		c.Next()

		m.HTTPActiveRequests.Dec()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())

		m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
		m.HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// RecordAuth is safe to call on a nil *Metrics.
func (m *Metrics) RecordAuth(event, outcome string) {
	if m == nil {
		return
	}
	m.AuthEventsTotal.WithLabelValues(event, outcome).Inc()
}

// RegisterDatabase exports connection pool statistics for db.
func (m *Metrics) RegisterDatabase(db *sql.DB, name string) {
	if m == nil || db == nil {
		return
	}
	m.registry.MustRegister(collectors.NewDBStatsCollector(db, name))
}

// RegisterRateLimiter exports the decision counters of a redis-backed
// limiter and the state of its circuit breaker (0 closed, 1 open,
// 2 half-open).
func (m *Metrics) RegisterRateLimiter(limiter *ratelimit.FallbackLimiter) {
	if m == nil || limiter == nil {
		return
	}

	counter := func(opts prometheus.CounterOpts, read func(ratelimit.StatsSnapshot) int64) prometheus.CounterFunc {
		return prometheus.NewCounterFunc(opts, func() float64 {
			return float64(read(limiter.Stats()))
		})
	}

	m.registry.MustRegister(
		counter(prometheus.CounterOpts{
			Name:        "ratelimit_requests_total",
			Help:        "Rate limiter decisions",
			ConstLabels: prometheus.Labels{"decision": "allowed"},
		}, func(s ratelimit.StatsSnapshot) int64 { return s.Allowed }),
		counter(prometheus.CounterOpts{
			Name:        "ratelimit_requests_total",
			Help:        "Rate limiter decisions",
			ConstLabels: prometheus.Labels{"decision": "rejected"},
		}, func(s ratelimit.StatsSnapshot) int64 { return s.Rejected }),
		counter(prometheus.CounterOpts{
			Name: "ratelimit_errors_total",
			Help: "Shared rate limiter failures",
		}, func(s ratelimit.StatsSnapshot) int64 { return s.Errors }),
		counter(prometheus.CounterOpts{
			Name: "ratelimit_fallbacks_total",
			Help: "Decisions answered by the local limiter instead of redis",
		}, func(s ratelimit.StatsSnapshot) int64 { return s.Fallbacks }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "ratelimit_breaker_state",
			Help: "Circuit breaker state in front of the shared rate limiter",
		}, func() float64 {
			return float64(limiter.Breaker().State())
		}),
	)
}

func (m *Metrics) Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
