// Package auth provides pluggable authentication for the server.
//
// Authentication uses a chain-of-responsibility pattern with three-outcome
// voting: each authenticator returns Yes (identity found), No (credentials
// invalid), or Abstain (can't handle). A configurable default voter decides
// when all authenticators abstain.
//
// Auth is implemented as router middleware, keeping it decoupled from
// handler logic. The middleware injects the authenticated identity into
// the request context, where handlers retrieve it with
// IdentityFromContext.
package auth
