package apikey

import (
	"context"
	"testing"

	"github.com/rhuss/hopper/pkg/auth"
	"github.com/rhuss/hopper/pkg/wire"
)

func newTestAuth() *Authenticator {
	return New([]RawKeyEntry{
		{
			Key: "hop-test-key-1",
			Identity: auth.Identity{
				Subject:     "alice",
				ServiceTier: "standard",
			},
		},
		{
			Key: "hop-test-key-2",
			Identity: auth.Identity{
				Subject:     "bob",
				ServiceTier: "premium",
			},
		},
	})
}

func keyRequest(key string) *wire.Request {
	req := &wire.Request{Method: "GET", Path: "/", Header: make(wire.Header)}
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	return req
}

func TestValidKey(t *testing.T) {
	a := newTestAuth()

	result := a.Authenticate(context.Background(), keyRequest("hop-test-key-1"))

	if result.Decision != auth.Yes {
		t.Fatalf("Decision = %d, want Yes", result.Decision)
	}
	if result.Identity.Subject != "alice" {
		t.Errorf("Subject = %q, want %q", result.Identity.Subject, "alice")
	}
	if result.Identity.ServiceTier != "standard" {
		t.Errorf("ServiceTier = %q, want %q", result.Identity.ServiceTier, "standard")
	}
}

func TestInvalidKey(t *testing.T) {
	a := newTestAuth()

	result := a.Authenticate(context.Background(), keyRequest("hop-wrong-key"))

	if result.Decision != auth.No {
		t.Fatalf("Decision = %d, want No", result.Decision)
	}
}

func TestNoHeader(t *testing.T) {
	a := newTestAuth()

	result := a.Authenticate(context.Background(), keyRequest(""))

	if result.Decision != auth.Abstain {
		t.Fatalf("Decision = %d, want Abstain", result.Decision)
	}
}

func TestHeaderNameCaseInsensitive(t *testing.T) {
	a := newTestAuth()
	req := &wire.Request{Method: "GET", Path: "/", Header: make(wire.Header)}
	req.Header.Set("x-api-key", "hop-test-key-2")

	result := a.Authenticate(context.Background(), req)

	if result.Decision != auth.Yes {
		t.Fatalf("Decision = %d, want Yes", result.Decision)
	}
	if result.Identity.Subject != "bob" {
		t.Errorf("Subject = %q, want %q", result.Identity.Subject, "bob")
	}
}

func TestIdentityCopied(t *testing.T) {
	a := newTestAuth()

	first := a.Authenticate(context.Background(), keyRequest("hop-test-key-1"))
	first.Identity.Subject = "mutated"

	second := a.Authenticate(context.Background(), keyRequest("hop-test-key-1"))
	if second.Identity.Subject != "alice" {
		t.Errorf("Subject = %q, want %q (identity must not be shared)", second.Identity.Subject, "alice")
	}
}
