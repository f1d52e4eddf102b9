package api

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lexibatch_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lexibatch_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "endpoint"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lexibatch_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	reviewsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lexibatch_reviews_total",
			Help: "Reviews applied, by rating scale and outcome",
		},
		[]string{"scale", "passed"},
	)

	batchActivationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lexibatch_batch_activations_total",
			Help: "Batch activation attempts by outcome",
		},
		[]string{"outcome"},
	)
)

// MetricsMiddleware collects Prometheus metrics for HTTP requests.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpRequestsInFlight.Inc()

		// Route pattern keeps label cardinality bounded
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unknown"
		}

		c.Next()

		httpRequestsInFlight.Dec()
		status := strconv.Itoa(c.Writer.Status())
		httpRequestsTotal.WithLabelValues(c.Request.Method, endpoint, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}

// RecordReview counts an applied review
func RecordReview(scale string, passed bool) {
	reviewsTotal.WithLabelValues(scale, strconv.FormatBool(passed)).Inc()
}

// RecordActivation counts an ActivateNext attempt
func RecordActivation(outcome string) {
	batchActivationsTotal.WithLabelValues(outcome).Inc()
}
