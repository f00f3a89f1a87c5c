package auth

import "context"

type ctxKeyIdentity struct{}

// SetIdentity returns a context carrying the authenticated identity.
func SetIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ctxKeyIdentity{}, id)
}

// IdentityFromContext returns the identity stored by the auth middleware,
// or nil when the request was not authenticated (or auth is disabled).
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(ctxKeyIdentity{}).(*Identity)
	return id
}

// SubjectFromContext returns the authenticated subject, or fallback when
// no identity is present. Handlers use it to attribute writes without
// caring whether auth is configured.
func SubjectFromContext(ctx context.Context, fallback string) string {
	if id := IdentityFromContext(ctx); id != nil && id.Subject != "" {
		return id.Subject
	}
	return fallback
}
