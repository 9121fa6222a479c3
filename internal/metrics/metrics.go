package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hamed0406/uptimewalk/internal/probe"
)

// Collector holds the walk metrics for one registry.
type Collector struct {
	registry *prometheus.Registry

	walksTotal      *prometheus.CounterVec
	walkDuration    *prometheus.HistogramVec
	walkLatency     prometheus.Histogram
	httpRequests    *prometheus.CounterVec
	httpRequestTime *prometheus.HistogramVec
}

// New registers the walk metrics on a fresh registry, alongside the Go and
// process collectors.
func New() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	c := &Collector{registry: reg}

	c.walksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "walk_total",
			Help: "Walks by outcome and failure cause",
		},
		[]string{"outcome", "cause"},
	)

	c.walkDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "walk_duration_seconds",
			Help:    "Time from walk start to connection close",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)

	c.walkLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "walk_latency_seconds",
			Help:    "Time from walk start to response headers",
			Buckets: prometheus.DefBuckets,
		},
	)

	c.httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "walk_api_requests_total",
			Help: "Walk API requests",
		},
		[]string{"method", "status"},
	)

	c.httpRequestTime = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "walk_api_request_duration_seconds",
			Help:    "Walk API request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	reg.MustRegister(c.walksTotal, c.walkDuration, c.walkLatency, c.httpRequests, c.httpRequestTime)
	return c
}

// Observe records one finished walk.
func (c *Collector) Observe(res probe.Result) {
	if s, ok := res.Success(); ok {
		c.walksTotal.WithLabelValues("success", "").Inc()
		c.walkDuration.WithLabelValues("success").Observe(res.Duration().Seconds())
		c.walkLatency.Observe(s.Latency.Seconds())
		return
	}
	f, _ := res.Failure()
	cause := string(f.Cause)
	if cause == "" {
		cause = "unclassified"
	}
	c.walksTotal.WithLabelValues("failure", cause).Inc()
	c.walkDuration.WithLabelValues("failure").Observe(res.Duration().Seconds())
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware counts API requests and their duration.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		c.httpRequests.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Inc()
		c.httpRequestTime.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
	})
}

// Handler exposes the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }
