// Package metrics exposes Prometheus instrumentation for runs, provider calls
// and the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"codeberg.org/citelens/server/internal/progress"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "citelens_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "citelens_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// analysis run metrics
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "citelens_runs_total",
			Help: "Total number of analysis runs by outcome",
		},
		[]string{"status"}, // status: completed, failed
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "citelens_run_duration_seconds",
			Help:    "Wall time of analysis runs",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	ProgressEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "citelens_progress_events_total",
			Help: "Total number of run progress events by type",
		},
		[]string{"type"},
	)

	// provider metrics
	ProviderCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "citelens_provider_calls_total",
			Help: "Total number of answer provider calls",
		},
		[]string{"provider", "status"}, // status: success, error
	)

	ProviderLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "citelens_provider_latency_seconds",
			Help:    "Answer provider call latency in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"provider"},
	)

	// aggregation metrics
	AggregationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "citelens_aggregations_total",
			Help: "Total number of payload aggregations",
		},
		[]string{"shape", "status"},
	)

	AggregatedQueries = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "citelens_aggregated_queries",
			Help:    "Number of query records per aggregation",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250},
		},
	)

	// prompt cache metrics
	PromptCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "citelens_prompt_cache_total",
			Help: "Prompt cache lookups by result",
		},
		[]string{"result"}, // result: hit, miss, error
	)

	// rate limiting metrics
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "citelens_rate_limit_hits_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
		[]string{"route"},
	)
)

// records the outcome and duration of one analysis run
func RecordRun(status string, d time.Duration) {
	RunsTotal.WithLabelValues(status).Inc()
	RunDuration.Observe(d.Seconds())
}

// counts published progress events by type
type ProgressCounter struct{}

func (ProgressCounter) Publish(e progress.Event) {
	ProgressEventsTotal.WithLabelValues(e.Type).Inc()
}

// records one provider call
func RecordProviderCall(provider string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}

	ProviderCallsTotal.WithLabelValues(provider, status).Inc()
	ProviderLatency.WithLabelValues(provider).Observe(d.Seconds())
}

// records one aggregation of a payload of the given shape
func RecordAggregation(shape string, queries int, err error) {
	if err != nil {
		AggregationsTotal.WithLabelValues(shape, "error").Inc()
		return
	}

	AggregationsTotal.WithLabelValues(shape, "success").Inc()
	AggregatedQueries.Observe(float64(queries))
}

// records a prompt cache lookup: hit, miss or error
func RecordPromptCache(result string) {
	PromptCacheTotal.WithLabelValues(result).Inc()
}

// records a request rejected by the rate limiter
func RecordRateLimited(route string) {
	RateLimitHits.WithLabelValues(route).Inc()
}

// gin middleware counting requests per matched route
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}
