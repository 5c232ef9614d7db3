// Package metrics exposes Prometheus collectors for background tasks and
// HTTP traffic on the /metrics endpoint.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mozillians/backend/internal/infrastructure/scheduler"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mozillians"

// Registry owns the process collectors and the application metrics
type Registry struct {
	reg *prometheus.Registry

	tasksFinished *prometheus.CounterVec
	tasksRetried  *prometheus.CounterVec
	taskDuration  *prometheus.HistogramVec
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
}

var _ scheduler.Observer = (*Registry)(nil)

// NewRegistry creates a registry with Go runtime and process collectors
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		tasksFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_finished_total",
			Help:      "Background tasks finished, by kind and final status.",
		}, []string{"kind", "status"}),
		tasksRetried: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_retried_total",
			Help:      "Background task retries scheduled, by kind.",
		}, []string{"kind"}),
		taskDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Duration of one background task attempt.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"kind"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by route, method and status code.",
		}, []string{"route", "method", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.tasksFinished,
		r.tasksRetried,
		r.taskDuration,
		r.httpRequests,
		r.httpDuration,
	)
	return r
}

// Register adds an extra collector, such as the database pool statistics.
func (r *Registry) Register(c prometheus.Collector) error {
	return r.reg.Register(c)
}

// JobFinished implements scheduler.Observer
func (r *Registry) JobFinished(kind scheduler.JobKind, status scheduler.JobStatus, d time.Duration) {
	r.tasksFinished.WithLabelValues(string(kind), string(status)).Inc()
	r.taskDuration.WithLabelValues(string(kind)).Observe(d.Seconds())
}

// JobRetried implements scheduler.Observer
func (r *Registry) JobRetried(kind scheduler.JobKind) {
	r.tasksRetried.WithLabelValues(string(kind)).Inc()
}

// GinMiddleware records request counts and latency per matched route.
// Unmatched requests are grouped under "unmatched" to bound cardinality.
func (r *Registry) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		r.httpRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		r.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}
