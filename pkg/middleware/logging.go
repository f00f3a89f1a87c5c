package middleware

import (
	"log/slog"
	"time"

	"github.com/rhuss/hopper/pkg/router"
)

// Logging returns middleware that emits structured log entries for each
// request. The log entry includes method, path, status, duration, the
// connection ID, the request ID (from context, when the RequestID
// middleware runs outside this one), and whether the request succeeded or
// failed.
func Logging(logger *slog.Logger) router.Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next router.Handler) router.Handler {
		return func(c *router.Context) (*router.Response, error) {
			start := time.Now()

			resp, err := next(c)

			ctx := c.Context()
			attrs := []slog.Attr{
				slog.String("method", c.Request.Method),
				slog.String("path", c.Request.Path),
				slog.String("connection_id", c.ConnectionID),
				slog.Duration("duration", time.Since(start)),
			}
			if id := RequestIDFromContext(ctx); id != "" {
				attrs = append(attrs, slog.String("request_id", id))
			}

			switch {
			case err != nil:
				attrs = append(attrs, slog.String("error", err.Error()))
				logger.LogAttrs(ctx, slog.LevelError, "request failed", attrs...)
			case resp != nil && resp.Stream != nil:
				logger.LogAttrs(ctx, slog.LevelInfo, "stream started", attrs...)
			default:
				if resp != nil {
					attrs = append(attrs, slog.Int("status", resp.Status))
				}
				logger.LogAttrs(ctx, slog.LevelInfo, "request completed", attrs...)
			}

			return resp, err
		}
	}
}
