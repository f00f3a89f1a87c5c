package router

import (
	"context"

	"github.com/rhuss/hopper/pkg/binding"
	"github.com/rhuss/hopper/pkg/wire"
)

// Mode is the protocol mode a request is being served under.
type Mode int

const (
	// ModeHTTP is a buffered request/response exchange.
	ModeHTTP Mode = iota
	// ModeStream is an HTTP exchange answered with a flushed SSE stream.
	ModeStream
	// ModeWebSocket marks the upgrade request that takes over the
	// connection.
	ModeWebSocket
)

// Context carries one request through the middleware chain to its handler.
// One Context exists per HTTP request; it is never shared across requests
// and is not safe for use after the handler returns.
type Context struct {
	// Request is the parsed request head and body.
	Request *wire.Request
	// ConnectionID identifies the underlying connection, stable across all
	// keep-alive requests it carries.
	ConnectionID string
	// Mode is the protocol mode the dispatcher selected.
	Mode Mode
	// PathParams holds the typed captures extracted during route matching.
	PathParams map[string]any
	// Args is the validated argument mapping the binder produced. Nil for
	// bypass-validation routes.
	Args binding.Args

	ctx    context.Context
	values map[string]any
}

// NewContext builds the per-request context. ctx is the request-scoped
// context.Context, cancelled when the connection goes away.
func NewContext(ctx context.Context, req *wire.Request, connID string) *Context {
	return &Context{ctx: ctx, Request: req, ConnectionID: connID}
}

// Context returns the request-scoped context.Context for cancellation and
// deadline propagation.
func (c *Context) Context() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

// WithContext replaces the request-scoped context.Context, for middleware
// that derives a new one (request IDs, tracing, timeouts).
func (c *Context) WithContext(ctx context.Context) {
	c.ctx = ctx
}

// Set stores a middleware-injected value visible to inner stages and the
// handler. Values live for one request; whichever middleware injects a
// resource is responsible for cleaning it up after its continuation
// returns.
func (c *Context) Set(key string, value any) {
	if c.values == nil {
		c.values = make(map[string]any)
	}
	c.values[key] = value
}

// Get returns a middleware-injected value.
func (c *Context) Get(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Value returns a middleware-injected value, or nil when absent.
func (c *Context) Value(key string) any {
	return c.values[key]
}
