package router

import "strings"

// Group is a prefix-scoped set of routes sharing middleware. Groups nest;
// prefixes concatenate segment-wise with no double slashes, and a nested
// group inherits the middleware of every enclosing group, outer scopes
// first.
type Group struct {
	prefix     string
	middleware []Middleware
	routes     []groupRoute
	children   []*Group
}

type groupRoute struct {
	method  string
	pattern string
	handler Handler
	opts    []RouteOption
}

// NewGroup creates a route group under the given prefix.
func NewGroup(prefix string, mw ...Middleware) *Group {
	return &Group{prefix: prefix, middleware: mw}
}

// Use appends group-scoped middleware. Must be called before the group is
// included into a table.
func (g *Group) Use(mw ...Middleware) {
	g.middleware = append(g.middleware, mw...)
}

// Handle records a route registration relative to the group prefix.
func (g *Group) Handle(method, pattern string, h Handler, opts ...RouteOption) {
	g.routes = append(g.routes, groupRoute{method: method, pattern: pattern, handler: h, opts: opts})
}

// Group creates a nested group whose prefix is resolved against this
// group's prefix at include time.
func (g *Group) Group(prefix string, mw ...Middleware) *Group {
	child := NewGroup(prefix, mw...)
	g.children = append(g.children, child)
	return child
}

// Apply registers the group's routes into the table: its own routes first
// in Handle order, then nested groups in creation order. Group middleware
// is placed ahead of each route's endpoint middleware so composition keeps
// the global → group → endpoint order.
func (g *Group) Apply(t *Table) {
	g.apply(t, "", nil)
}

func (g *Group) apply(t *Table, basePrefix string, inherited []Middleware) {
	prefix := joinPrefix(basePrefix, g.prefix)

	scoped := make([]Middleware, 0, len(inherited)+len(g.middleware))
	scoped = append(scoped, inherited...)
	scoped = append(scoped, g.middleware...)

	for _, r := range g.routes {
		opts := make([]RouteOption, 0, len(r.opts)+1)
		if len(scoped) > 0 {
			opts = append(opts, WithMiddleware(scoped...))
		}
		opts = append(opts, r.opts...)
		t.Register(r.method, joinPrefix(prefix, r.pattern), r.handler, opts...)
	}
	for _, child := range g.children {
		child.apply(t, prefix, scoped)
	}
}

// joinPrefix concatenates two path fragments segment-wise, producing an
// absolute path with no doubled slashes.
func joinPrefix(a, b string) string {
	a = strings.TrimSuffix(a, "/")
	b = strings.TrimPrefix(b, "/")
	if b == "" {
		if a == "" {
			return "/"
		}
		return a
	}
	return a + "/" + b
}
