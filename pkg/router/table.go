package router

import (
	"fmt"
	"strings"
)

// Table is the registration-ordered route registry. All registration
// happens before serving starts; afterwards the table is read-only and
// safely shared across every connection.
type Table struct {
	routes []*Route
}

// NewTable creates an empty route table.
func NewTable() *Table {
	return &Table{}
}

// Register parses the pattern and adds a route. It panics on malformed
// patterns or inconsistent parameter specs: registration runs at startup,
// where failing loudly beats serving a broken table.
func (t *Table) Register(method, pattern string, h Handler, opts ...RouteOption) *Route {
	if method == "" {
		panic(fmt.Sprintf("router: empty method for pattern %q", pattern))
	}
	if h == nil {
		panic(fmt.Sprintf("router: nil handler for %s %s", method, pattern))
	}

	segments, err := ParsePattern(pattern)
	if err != nil {
		panic("router: " + err.Error())
	}

	route := &Route{
		Method:   strings.ToUpper(method),
		Pattern:  pattern,
		Segments: segments,
		Handler:  h,
	}
	for _, opt := range opts {
		opt(route)
	}
	if err := route.validate(); err != nil {
		panic("router: " + err.Error())
	}

	t.routes = append(t.routes, route)
	return route
}

// Match is a successful resolution: the winning route and its coerced path
// captures.
type Match struct {
	Route      *Route
	PathParams map[string]any
}

// Resolve finds the first registered route matching method and path.
// Registration order breaks ties among overlapping patterns; a candidate
// whose capture coercion fails is skipped, not reported. A path that only
// matches under other methods resolves to a MethodNotAllowedError carrying
// the Allow set; anything else is ErrNotFound.
func (t *Table) Resolve(method, path string) (*Match, error) {
	parts := splitPath(path)
	method = strings.ToUpper(method)

	var allow []string
	for _, route := range t.routes {
		params, ok := matchSegments(route.Segments, parts)
		if !ok {
			continue
		}
		if route.Method != method {
			if !containsMethod(allow, route.Method) {
				allow = append(allow, route.Method)
			}
			continue
		}
		return &Match{Route: route, PathParams: params}, nil
	}

	if len(allow) > 0 {
		return nil, &MethodNotAllowedError{Allow: allow}
	}
	return nil, ErrNotFound
}

// Routes returns the registered routes in registration order. The slice is
// a copy; the routes themselves stay owned by the table and must not be
// modified. This is the read-only registry view the documentation
// generator consumes.
func (t *Table) Routes() []*Route {
	out := make([]*Route, len(t.routes))
	copy(out, t.routes)
	return out
}

func containsMethod(set []string, m string) bool {
	for _, s := range set {
		if s == m {
			return true
		}
	}
	return false
}
