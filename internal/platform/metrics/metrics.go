package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payfast_http_requests_total",
			Help: "Total number of HTTP requests processed by the API gateway.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payfast_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	transfersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payfast_transfers_total",
			Help: "Total number of transfers processed, labelled by outcome.",
		},
		[]string{"status"},
	)

	transferAmountMinorUnits = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "payfast_transfer_amount_minor_units",
			Help:    "Distribution of transfer amounts in minor currency units.",
			Buckets: prometheus.ExponentialBuckets(100, 10, 6),
		},
	)

	outboxPublishFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "payfast_outbox_publish_failures_total",
			Help: "Total number of ledger outbox messages that exhausted their publish retries.",
		},
	)

	rewardsGrantedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "payfast_rewards_granted_total",
			Help: "Total number of reward bonuses credited to accounts.",
		},
	)
)

// RecordTransfer counts a processed transfer by its terminal status.
func RecordTransfer(status string, amount int64) {
	transfersTotal.WithLabelValues(status).Inc()
	if amount > 0 {
		transferAmountMinorUnits.Observe(float64(amount))
	}
}

// RecordOutboxPublishFailure counts an outbox message marked FAILED_TO_PUBLISH.
func RecordOutboxPublishFailure() {
	outboxPublishFailures.Inc()
}

// RecordRewardGranted counts a credited reward bonus.
func RecordRewardGranted() {
	rewardsGrantedTotal.Inc()
}

// Middleware instruments HTTP handlers with request counts and latency.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the Prometheus scrape endpoint as a gin handler.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
