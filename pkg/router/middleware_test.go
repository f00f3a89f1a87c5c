package router

import (
	"errors"
	"testing"
)

// markerMiddleware records before/after markers around its continuation.
func markerMiddleware(name string, log *[]string) Middleware {
	return func(next Handler) Handler {
		return func(c *Context) (*Response, error) {
			*log = append(*log, name+"-before")
			resp, err := next(c)
			*log = append(*log, name+"-after")
			return resp, err
		}
	}
}

// ---------------------------------------------------------------------------
// TestCompose
// ---------------------------------------------------------------------------

func TestComposeScopeOrder(t *testing.T) {
	var log []string
	handler := func(c *Context) (*Response, error) {
		log = append(log, "handler")
		return NoContent(), nil
	}

	composed := Compose(handler,
		[]Middleware{markerMiddleware("global", &log)},
		[]Middleware{markerMiddleware("group", &log)},
		[]Middleware{markerMiddleware("endpoint", &log)},
	)

	resp, err := composed(NewContext(nil, nil, "conn_test"))
	if err != nil {
		t.Fatalf("composed chain failed: %v", err)
	}
	if resp.Status != 204 {
		t.Errorf("status = %d, want 204", resp.Status)
	}

	want := []string{
		"global-before", "group-before", "endpoint-before",
		"handler",
		"endpoint-after", "group-after", "global-after",
	}
	if len(log) != len(want) {
		t.Fatalf("marker log = %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("marker log = %v, want %v", log, want)
		}
	}
}

func TestComposeShortCircuit(t *testing.T) {
	var log []string
	handler := func(c *Context) (*Response, error) {
		log = append(log, "handler")
		return NoContent(), nil
	}

	deny := func(next Handler) Handler {
		return func(c *Context) (*Response, error) {
			log = append(log, "deny")
			return Error(403, NewForbiddenError("no")), nil
		}
	}

	composed := Compose(handler,
		[]Middleware{markerMiddleware("outer", &log)},
		[]Middleware{deny},
		[]Middleware{markerMiddleware("inner", &log)},
	)

	resp, err := composed(NewContext(nil, nil, "conn_test"))
	if err != nil {
		t.Fatalf("composed chain failed: %v", err)
	}
	if resp.Status != 403 {
		t.Errorf("status = %d, want 403", resp.Status)
	}

	// The handler and the inner middleware never ran; the outer middleware
	// still observed control returning through it.
	want := []string{"outer-before", "deny", "outer-after"}
	if len(log) != len(want) {
		t.Fatalf("marker log = %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("marker log = %v, want %v", log, want)
		}
	}
}

func TestComposeContinuationReuse(t *testing.T) {
	handlerRuns := 0
	handler := func(c *Context) (*Response, error) {
		handlerRuns++
		return NoContent(), nil
	}

	var secondErr error
	greedy := func(next Handler) Handler {
		return func(c *Context) (*Response, error) {
			resp, err := next(c)
			if err != nil {
				return nil, err
			}
			_, secondErr = next(c)
			return resp, nil
		}
	}

	composed := Compose(handler, []Middleware{greedy})
	resp, err := composed(NewContext(nil, nil, "conn_test"))
	if err != nil {
		t.Fatalf("composed chain failed: %v", err)
	}
	if resp.Status != 204 {
		t.Errorf("status = %d, want 204", resp.Status)
	}
	if handlerRuns != 1 {
		t.Errorf("handler ran %d times, want 1", handlerRuns)
	}
	if !errors.Is(secondErr, ErrContinuationReused) {
		t.Errorf("second invocation error = %v, want ErrContinuationReused", secondErr)
	}
}

func TestComposeFreshGuardPerRequest(t *testing.T) {
	handlerRuns := 0
	handler := func(c *Context) (*Response, error) {
		handlerRuns++
		return NoContent(), nil
	}
	scope := []Middleware{markerMiddleware("m", new([]string))}

	// Composing from the same immutable scope twice must yield independent
	// chains; a second request is not a reuse of the first continuation.
	for i := 0; i < 2; i++ {
		if _, err := Compose(handler, scope)(NewContext(nil, nil, "conn_test")); err != nil {
			t.Fatalf("request %d failed: %v", i+1, err)
		}
	}
	if handlerRuns != 2 {
		t.Errorf("handler ran %d times, want 2", handlerRuns)
	}
}

func TestComposeErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	handler := func(c *Context) (*Response, error) {
		return nil, boom
	}

	var seen error
	observer := func(next Handler) Handler {
		return func(c *Context) (*Response, error) {
			resp, err := next(c)
			seen = err
			return resp, err
		}
	}

	_, err := Compose(handler, []Middleware{observer})(NewContext(nil, nil, "conn_test"))
	if !errors.Is(err, boom) {
		t.Errorf("chain error = %v, want the handler's error", err)
	}
	if !errors.Is(seen, boom) {
		t.Errorf("middleware observed %v, want the handler's error on the way out", seen)
	}
}

// ---------------------------------------------------------------------------
// TestChain
// ---------------------------------------------------------------------------

func TestChain(t *testing.T) {
	var log []string
	handler := func(c *Context) (*Response, error) {
		log = append(log, "handler")
		return NoContent(), nil
	}

	chained := Chain(
		markerMiddleware("a", &log),
		markerMiddleware("b", &log),
	)(handler)

	if _, err := chained(NewContext(nil, nil, "conn_test")); err != nil {
		t.Fatalf("chain failed: %v", err)
	}

	want := []string{"a-before", "b-before", "handler", "b-after", "a-after"}
	for i := range want {
		if i >= len(log) || log[i] != want[i] {
			t.Fatalf("marker log = %v, want %v", log, want)
		}
	}
}

// ---------------------------------------------------------------------------
// TestContext values
// ---------------------------------------------------------------------------

func TestContextValueInjection(t *testing.T) {
	inject := func(next Handler) Handler {
		return func(c *Context) (*Response, error) {
			c.Set("db", "resource")
			defer c.Set("db", nil)
			return next(c)
		}
	}

	var got any
	handler := func(c *Context) (*Response, error) {
		got, _ = c.Get("db")
		return NoContent(), nil
	}

	ctx := NewContext(nil, nil, "conn_test")
	if _, err := Compose(handler, []Middleware{inject})(ctx); err != nil {
		t.Fatalf("chain failed: %v", err)
	}
	if got != "resource" {
		t.Errorf("handler saw db = %v, want the injected resource", got)
	}
	if v := ctx.Value("db"); v != nil {
		t.Errorf("db after chain = %v, want cleaned up", v)
	}
}
