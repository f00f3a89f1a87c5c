// Package observability provides Prometheus metrics, the metrics
// middleware, and the /metrics exposition handler for the server.
package observability

import "github.com/prometheus/client_golang/prometheus"

// ServerBuckets defines histogram buckets suited for in-process request
// handling latencies, ranging from 1ms to 10s.
var ServerBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10}

var (
	// RequestsTotal counts all HTTP requests by method, status class, and
	// response mode (http, stream, websocket).
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hopper_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "status", "mode"},
	)

	// RequestDuration records handler chain duration in seconds by method.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hopper_request_duration_seconds",
			Help:    "Request duration",
			Buckets: ServerBuckets,
		},
		[]string{"method"},
	)

	// ConnectionsActive tracks the number of open client connections.
	ConnectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hopper_connections_active",
			Help: "Open client connections",
		},
	)

	// StreamsActive tracks the number of SSE streams being drained.
	StreamsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hopper_streams_active",
			Help: "Active SSE streams",
		},
	)

	// WebSocketsActive tracks the number of accepted WebSocket sessions.
	WebSocketsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hopper_websockets_active",
			Help: "Accepted WebSocket sessions",
		},
	)

	// WebSocketMessagesTotal counts WebSocket data messages by direction
	// (in/out).
	WebSocketMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hopper_websocket_messages_total",
			Help: "WebSocket data messages",
		},
		[]string{"direction"},
	)

	// ValidationFailuresTotal counts requests rejected by the parameter
	// binder, by failing source (path, query, header, body).
	ValidationFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hopper_validation_failures_total",
			Help: "Binder rejections",
		},
		[]string{"source"},
	)

	// PanicsRecoveredTotal counts panics converted to 500 responses.
	PanicsRecoveredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hopper_panics_recovered_total",
			Help: "Recovered handler panics",
		},
	)

	// RateLimitRejectedTotal counts requests rejected by the rate limiter.
	RateLimitRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hopper_ratelimit_rejected_total",
			Help: "Rate limit rejections",
		},
		[]string{"tier"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		ConnectionsActive,
		StreamsActive,
		WebSocketsActive,
		WebSocketMessagesTotal,
		ValidationFailuresTotal,
		PanicsRecoveredTotal,
		RateLimitRejectedTotal,
	)
}
