package router

import "testing"

// ---------------------------------------------------------------------------
// TestGroup
// ---------------------------------------------------------------------------

func TestGroupPrefixes(t *testing.T) {
	api := NewGroup("/api")
	api.Handle("GET", "/health", okHandler)

	v1 := api.Group("/v1")
	v1.Handle("GET", "/users", okHandler)
	v1.Handle("GET", "/users/{id:int}", okHandler)

	admin := v1.Group("/admin/")
	admin.Handle("DELETE", "/users/{id:int}", okHandler)

	table := NewTable()
	api.Apply(table)

	want := []struct {
		method  string
		pattern string
	}{
		{"GET", "/api/health"},
		{"GET", "/api/v1/users"},
		{"GET", "/api/v1/users/{id:int}"},
		{"DELETE", "/api/v1/admin/users/{id:int}"},
	}

	routes := table.Routes()
	if len(routes) != len(want) {
		t.Fatalf("registered %d routes, want %d", len(routes), len(want))
	}
	for i, w := range want {
		if routes[i].Method != w.method || routes[i].Pattern != w.pattern {
			t.Errorf("route %d = %s %s, want %s %s", i, routes[i].Method, routes[i].Pattern, w.method, w.pattern)
		}
	}

	m, err := table.Resolve("DELETE", "/api/v1/admin/users/9")
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	if got := m.PathParams["id"]; got != int64(9) {
		t.Errorf("param id = %v, want int64 9", got)
	}
}

func TestGroupMiddlewareInheritance(t *testing.T) {
	var log []string

	root := NewGroup("/api", markerMiddleware("api", &log))
	child := root.Group("/v1")
	child.Use(markerMiddleware("v1", &log))
	child.Handle("GET", "/ping", okHandler,
		WithMiddleware(markerMiddleware("endpoint", &log)))

	table := NewTable()
	root.Apply(table)

	m, err := table.Resolve("GET", "/api/v1/ping")
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}

	handler := func(c *Context) (*Response, error) {
		log = append(log, "handler")
		return m.Route.Handler(c)
	}
	if _, err := Compose(handler, m.Route.Middleware)(NewContext(nil, nil, "conn_test")); err != nil {
		t.Fatalf("chain failed: %v", err)
	}

	// Outer group scope wraps the nested group's, which wraps the
	// endpoint's.
	want := []string{"api-before", "v1-before", "endpoint-before", "handler", "endpoint-after", "v1-after", "api-after"}
	if len(log) != len(want) {
		t.Fatalf("marker log = %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("marker log = %v, want %v", log, want)
		}
	}
}

func TestJoinPrefix(t *testing.T) {
	tests := []struct {
		a, b string
		want string
	}{
		{"", "/api", "/api"},
		{"/api", "/v1", "/api/v1"},
		{"/api/", "/v1", "/api/v1"},
		{"/api", "v1", "/api/v1"},
		{"/api", "", "/api"},
		{"", "", "/"},
		{"", "/", "/"},
	}
	for _, tt := range tests {
		if got := joinPrefix(tt.a, tt.b); got != tt.want {
			t.Errorf("joinPrefix(%q, %q) = %q, want %q", tt.a, tt.b, got, tt.want)
		}
	}
}
