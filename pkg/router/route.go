package router

import (
	"fmt"

	"github.com/rhuss/hopper/pkg/binding"
	"github.com/rhuss/hopper/pkg/wire"
)

// ResponseSpec documents one declared response of a route for the
// documentation generator. The schema reuses the binding schema shape.
type ResponseSpec struct {
	Description string
	Schema      *binding.Schema
}

// Route is one registered (method, pattern) → handler binding. Routes are
// created at registration time and immutable thereafter; the table owns
// them.
type Route struct {
	Method   string
	Pattern  string
	Segments []Segment
	Handler  Handler

	// Middleware holds the group and endpoint scopes flattened in
	// composition order (group first).
	Middleware []Middleware

	// Params are the declared parameter specs the binder runs before the
	// chain.
	Params []binding.ParamSpec

	// Responses maps status codes to declared response shapes, consumed by
	// the documentation generator only.
	Responses map[int]ResponseSpec

	// ContentType is the default response content type; empty means JSON.
	ContentType string

	// Summary is a one-line description for the generated documentation.
	Summary string

	// BypassValidation skips the binder entirely, for static assets and
	// documentation endpoints.
	BypassValidation bool

	// WebSocket marks a route whose matched upgrade requests are handed to
	// the WebSocket session loop instead of the middleware chain. Plain
	// requests hitting such a route are told to upgrade.
	WebSocket *wire.WebSocketHandler
}

// RouteOption adjusts a route at registration time.
type RouteOption func(*Route)

// WithParams declares the route's parameter specs.
func WithParams(specs ...binding.ParamSpec) RouteOption {
	return func(r *Route) { r.Params = append(r.Params, specs...) }
}

// WithMiddleware appends endpoint-scoped middleware, run after the global
// and group scopes.
func WithMiddleware(mw ...Middleware) RouteOption {
	return func(r *Route) { r.Middleware = append(r.Middleware, mw...) }
}

// WithContentType sets the default response content type for the route.
func WithContentType(ct string) RouteOption {
	return func(r *Route) { r.ContentType = ct }
}

// WithResponse declares one response status and shape for documentation.
func WithResponse(status int, description string, schema *binding.Schema) RouteOption {
	return func(r *Route) {
		if r.Responses == nil {
			r.Responses = make(map[int]ResponseSpec)
		}
		r.Responses[status] = ResponseSpec{Description: description, Schema: schema}
	}
}

// WithSummary sets the route's documentation summary.
func WithSummary(s string) RouteOption {
	return func(r *Route) { r.Summary = s }
}

// WithBypassValidation marks the route as exempt from parameter binding.
func WithBypassValidation() RouteOption {
	return func(r *Route) { r.BypassValidation = true }
}

// WithWebSocket attaches the WebSocket session handler, marking the route
// as an upgrade endpoint.
func WithWebSocket(h wire.WebSocketHandler) RouteOption {
	return func(r *Route) { r.WebSocket = &h }
}

// validate enforces the registration-time invariants: path specs must name
// existing captures with matching types, and at most one body spec may be
// declared. Violations panic, the same fail-fast treatment a malformed
// pattern gets; both are programmer errors that must surface before the
// server starts accepting.
func (r *Route) validate() error {
	captures := make(map[string]binding.Type)
	for _, seg := range r.Segments {
		if seg.IsCapture() {
			captures[seg.Name] = seg.Type
		}
	}

	bodies := 0
	for _, spec := range r.Params {
		switch spec.Source {
		case binding.SourceBody:
			bodies++
			if bodies > 1 {
				return fmt.Errorf("route %s %s: more than one body parameter declared", r.Method, r.Pattern)
			}
		case binding.SourcePath:
			typ, ok := captures[spec.Name]
			if !ok {
				return fmt.Errorf("route %s %s: path spec %q names no capture segment", r.Method, r.Pattern, spec.Name)
			}
			if spec.Type != "" && spec.Type != typ {
				return fmt.Errorf("route %s %s: path spec %q declares %s but the capture is %s",
					r.Method, r.Pattern, spec.Name, spec.Type, typ)
			}
		}
	}
	return nil
}
