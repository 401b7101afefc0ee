package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "account_http_requests_total",
			Help: "Total number of HTTP requests processed by the account service.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "account_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	queryOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "account_query_operations_total",
			Help: "Total number of soft-delete query layer operations by result.",
		},
		[]string{"operation", "result"},
	)
	hiddenReadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "account_hidden_reads_total",
			Help: "Total number of reads that resolved to a soft-deleted account.",
		},
		[]string{"path"},
	)
	wsActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "account_ws_active_connections",
			Help: "Number of active websocket event subscribers.",
		},
	)
	wsEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "account_ws_events_total",
			Help: "Total number of websocket events.",
		},
		[]string{"event"},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "account_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		queryOperationsTotal,
		hiddenReadsTotal,
		wsActiveConnections,
		wsEventsTotal,
		amqpPublishErrorsTotal,
	)
}

func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// IncQueryOperation counts one query layer call. result is ok, not_found,
// invalid or error.
func IncQueryOperation(operation, result string) {
	queryOperationsTotal.WithLabelValues(operation, result).Inc()
}

// IncHiddenRead counts a read that found a row the policy hid. path is
// lookup, list or owner.
func IncHiddenRead(path string) {
	hiddenReadsTotal.WithLabelValues(path).Inc()
}

func IncWSActive() {
	wsActiveConnections.Inc()
}

func DecWSActive() {
	wsActiveConnections.Dec()
}

func IncWSEvent(event string) {
	wsEventsTotal.WithLabelValues(event).Inc()
}

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}
