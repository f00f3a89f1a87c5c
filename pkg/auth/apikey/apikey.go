// Package apikey provides an API key authenticator that validates keys
// sent in the X-API-Key header against a static key store using SHA-256
// hashing and constant-time comparison.
package apikey

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"

	"github.com/rhuss/hopper/pkg/auth"
	"github.com/rhuss/hopper/pkg/wire"
)

// KeyEntry maps a key hash to an identity.
type KeyEntry struct {
	KeyHash  [32]byte
	Identity auth.Identity
}

// Authenticator validates API keys against a static key store.
type Authenticator struct {
	keys []KeyEntry
}

// RawKeyEntry is the configuration format for API keys.
type RawKeyEntry struct {
	Key      string
	Identity auth.Identity
}

// New creates an API key authenticator from a list of raw keys and identities.
// Keys are hashed immediately; plaintext keys are not stored.
func New(entries []RawKeyEntry) *Authenticator {
	a := &Authenticator{}
	for _, e := range entries {
		a.keys = append(a.keys, KeyEntry{
			KeyHash:  sha256.Sum256([]byte(e.Key)),
			Identity: e.Identity,
		})
	}
	return a
}

// Authenticate reads the X-API-Key header and validates it.
// Returns Yes if valid, No if a key is present but unknown, Abstain when
// the header is absent.
func (a *Authenticator) Authenticate(_ context.Context, req *wire.Request) auth.AuthResult {
	key := req.Header.Get("X-API-Key")
	if key == "" {
		return auth.AuthResult{Decision: auth.Abstain}
	}

	// Hash the key and compare against stored hashes.
	keyHash := sha256.Sum256([]byte(key))

	for _, entry := range a.keys {
		if subtle.ConstantTimeCompare(keyHash[:], entry.KeyHash[:]) == 1 {
			// Copy identity to avoid shared state.
			id := entry.Identity
			return auth.AuthResult{Decision: auth.Yes, Identity: &id}
		}
	}

	// Key present but not found.
	return auth.AuthResult{Decision: auth.No, Err: auth.ErrUnauthenticated}
}
