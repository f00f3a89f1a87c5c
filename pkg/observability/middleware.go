package observability

import (
	"strconv"
	"time"

	"github.com/rhuss/hopper/pkg/router"
)

// Metrics returns middleware that records request metrics around the
// chain.
//
// It captures:
//   - hopper_requests_total (counter): per request with method, status
//     class, and mode labels
//   - hopper_request_duration_seconds (histogram): chain duration by
//     method
//
// Stream and WebSocket gauges are maintained by the dispatcher, which is
// the only place that knows when a stream finishes draining or a session
// ends.
func Metrics() router.Middleware {
	return func(next router.Handler) router.Handler {
		return func(c *router.Context) (*router.Response, error) {
			start := time.Now()

			resp, err := next(c)

			RequestDuration.WithLabelValues(c.Request.Method).Observe(time.Since(start).Seconds())
			RequestsTotal.WithLabelValues(c.Request.Method, statusClass(resp, err), modeLabel(c, resp)).Inc()

			return resp, err
		}
	}
}

// statusClass builds a status class label like "2xx", "4xx", "5xx". A
// chain error counts as 5xx; the dispatcher will answer it that way.
func statusClass(resp *router.Response, err error) string {
	status := 500
	if err == nil && resp != nil {
		status = resp.Status
		if resp.Stream != nil {
			status = 200
		}
	}
	return strconv.Itoa(status/100) + "xx"
}

// modeLabel reports how the request is being answered.
func modeLabel(c *router.Context, resp *router.Response) string {
	switch {
	case c.Mode == router.ModeWebSocket:
		return "websocket"
	case resp != nil && resp.Stream != nil:
		return "stream"
	default:
		return "http"
	}
}
