// Package middleware provides the built-in middleware shipped with the
// server: panic recovery, request IDs, structured request logging, and
// CORS. All of them produce router.Middleware values and can be attached
// at any of the three scopes (global, group, endpoint).
package middleware
