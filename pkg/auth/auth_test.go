package auth

import (
	"context"
	"testing"

	"github.com/rhuss/hopper/pkg/wire"
)

// mockAuthn is a test authenticator with configurable behavior.
type mockAuthn struct {
	result AuthResult
}

func (m *mockAuthn) Authenticate(_ context.Context, _ *wire.Request) AuthResult {
	return m.result
}

func testRequest(path string) *wire.Request {
	return &wire.Request{Method: "GET", Path: path, Header: make(wire.Header)}
}

func TestAuthChain_FirstYesStops(t *testing.T) {
	chain := &AuthChain{
		Authenticators: []Authenticator{
			&mockAuthn{result: AuthResult{Decision: Yes, Identity: &Identity{Subject: "alice"}}},
			&mockAuthn{result: AuthResult{Decision: No, Err: ErrUnauthenticated}},
		},
		DefaultDecision: No,
	}

	result := chain.Authenticate(context.Background(), testRequest("/"))

	if result.Decision != Yes {
		t.Errorf("Decision = %d, want Yes", result.Decision)
	}
	if result.Identity.Subject != "alice" {
		t.Errorf("Subject = %q, want %q", result.Identity.Subject, "alice")
	}
}

func TestAuthChain_FirstNoStops(t *testing.T) {
	chain := &AuthChain{
		Authenticators: []Authenticator{
			&mockAuthn{result: AuthResult{Decision: No, Err: ErrUnauthenticated}},
			&mockAuthn{result: AuthResult{Decision: Yes, Identity: &Identity{Subject: "bob"}}},
		},
		DefaultDecision: No,
	}

	result := chain.Authenticate(context.Background(), testRequest("/"))

	if result.Decision != No {
		t.Errorf("Decision = %d, want No", result.Decision)
	}
}

func TestAuthChain_AllAbstain_DefaultReject(t *testing.T) {
	chain := &AuthChain{
		Authenticators: []Authenticator{
			&mockAuthn{result: AuthResult{Decision: Abstain}},
			&mockAuthn{result: AuthResult{Decision: Abstain}},
		},
		DefaultDecision: No,
	}

	result := chain.Authenticate(context.Background(), testRequest("/"))

	if result.Decision != No {
		t.Errorf("Decision = %d, want No (default reject)", result.Decision)
	}
}

func TestAuthChain_AllAbstain_DefaultAccept(t *testing.T) {
	chain := &AuthChain{
		Authenticators: []Authenticator{
			&mockAuthn{result: AuthResult{Decision: Abstain}},
		},
		DefaultDecision: Yes,
	}

	result := chain.Authenticate(context.Background(), testRequest("/"))

	if result.Decision != Yes {
		t.Errorf("Decision = %d, want Yes (default accept)", result.Decision)
	}
	if result.Identity.Subject != "anonymous" {
		t.Errorf("Subject = %q, want %q", result.Identity.Subject, "anonymous")
	}
}

func TestAuthChain_Empty_DefaultReject(t *testing.T) {
	chain := &AuthChain{DefaultDecision: No}

	result := chain.Authenticate(context.Background(), testRequest("/"))

	if result.Decision != No {
		t.Errorf("Decision = %d, want No (empty chain)", result.Decision)
	}
}

func TestAuthChain_AbstainThenYes(t *testing.T) {
	chain := &AuthChain{
		Authenticators: []Authenticator{
			&mockAuthn{result: AuthResult{Decision: Abstain}},
			&mockAuthn{result: AuthResult{Decision: Yes, Identity: &Identity{Subject: "jwt-user"}}},
		},
		DefaultDecision: No,
	}

	result := chain.Authenticate(context.Background(), testRequest("/"))

	if result.Decision != Yes {
		t.Errorf("Decision = %d, want Yes", result.Decision)
	}
	if result.Identity.Subject != "jwt-user" {
		t.Errorf("Subject = %q, want %q", result.Identity.Subject, "jwt-user")
	}
}

func TestIdentity_HasScope(t *testing.T) {
	id := &Identity{Subject: "alice", Scopes: []string{"read", "write"}}
	if !id.HasScope("write") {
		t.Error("HasScope(write) = false, want true")
	}
	if id.HasScope("admin") {
		t.Error("HasScope(admin) = true, want false")
	}

	var nilID *Identity
	if nilID.HasScope("read") {
		t.Error("HasScope on nil = true, want false")
	}
}

func TestIdentityContext(t *testing.T) {
	ctx := context.Background()

	// No identity set.
	if IdentityFromContext(ctx) != nil {
		t.Error("expected nil identity from empty context")
	}

	// Set and retrieve.
	id := &Identity{Subject: "alice"}
	ctx = SetIdentity(ctx, id)
	got := IdentityFromContext(ctx)
	if got == nil || got.Subject != "alice" {
		t.Errorf("got %v, want alice", got)
	}
}
