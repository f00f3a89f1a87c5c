package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"github.com/rhuss/hopper/pkg/router"
)

// requestIDKeyType is the context key type for request IDs.
type requestIDKeyType struct{}

// requestIDKey is the context key for storing and retrieving request IDs.
var requestIDKey = requestIDKeyType{}

// RequestID returns middleware that assigns a unique request ID to each
// request. If the client sent an X-Request-ID header, that value is used.
// Otherwise, a new unique ID is generated. The ID is stored in the
// request-scoped context and echoed back on the response.
//
// The request ID is retrieved with RequestIDFromContext.
func RequestID() router.Middleware {
	return func(next router.Handler) router.Handler {
		return func(c *router.Context) (*router.Response, error) {
			id := c.Request.Header.Get("X-Request-ID")
			if id == "" {
				id = generateRequestID()
			}
			c.WithContext(ContextWithRequestID(c.Context(), id))

			resp, err := next(c)
			if resp != nil {
				resp.SetHeader("X-Request-ID", id)
			}
			return resp, err
		}
	}
}

// RequestIDFromContext extracts the request ID from the context.
// Returns an empty string if no request ID is set.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// ContextWithRequestID returns a new context with the given request ID.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// generateRequestID creates a new unique request ID as a hex string.
func generateRequestID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}
