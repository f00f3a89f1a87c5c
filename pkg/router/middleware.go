package router

import "sync/atomic"

// Handler is the terminal stage of a chain: it turns one request into one
// response. A non-nil error is a handler fault; the dispatcher answers with
// a 500-class response when nothing has been flushed yet and otherwise
// tears the connection down.
type Handler func(c *Context) (*Response, error)

// Middleware wraps a Handler to add cross-cutting behavior. Middleware is
// applied in order: the first middleware in a chain is the outermost
// wrapper (executes first on the way in, last on the way out). A middleware
// may call its continuation and transform the result, call it with injected
// context values, or skip it entirely and answer the request itself.
type Middleware func(next Handler) Handler

// Chain composes multiple middleware into a single middleware.
// Middleware are applied in order: Chain(a, b, c) produces a(b(c(handler))).
func Chain(middlewares ...Middleware) Middleware {
	return func(next Handler) Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}

// Compose builds the continuation chain for one dispatch: scopes are
// applied outermost first (global, then group, then endpoint) around the
// terminal handler. Every stage receives a single-use continuation; calling
// it a second time returns ErrContinuationReused without re-running inner
// stages.
//
// Compose is called per request: a guard created at registration time would
// share its one-shot state across requests.
func Compose(h Handler, scopes ...[]Middleware) Handler {
	var mws []Middleware
	for _, scope := range scopes {
		mws = append(mws, scope...)
	}
	next := h
	for i := len(mws) - 1; i >= 0; i-- {
		next = mws[i](once(next))
	}
	return next
}

// once wraps a continuation so it can be invoked at most one time.
func once(next Handler) Handler {
	var called atomic.Bool
	return func(c *Context) (*Response, error) {
		if !called.CompareAndSwap(false, true) {
			return nil, ErrContinuationReused
		}
		return next(c)
	}
}
