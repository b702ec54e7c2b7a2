package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// 连接工作流指标：按操作和结果计数
	ConnectionOpsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "connection_workflow_operations_total",
			Help: "Connection workflow operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	MatchScoreHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "match_score_distribution",
			Help:    "Distribution of computed match scores",
			Buckets: []float64{10, 25, 40, 60, 80, 100},
		},
	)

	// AI中继：fallback触发次数
	AIFallbackCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ai_relay_fallback_total",
			Help: "Number of AI relay calls answered with the static fallback",
		},
	)

	EventCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domain_events_total",
			Help: "Domain events published to the hub",
		},
		[]string{"event"},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(ConnectionOpsCounter)
	prometheus.MustRegister(MatchScoreHistogram)
	prometheus.MustRegister(AIFallbackCounter)
	prometheus.MustRegister(EventCounter)
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
