// Package storage defines the chat room store used by the demo server:
// the Store interface, its record types, and shared sentinel errors.
//
// Two adapters implement the interface: memory (process-local, bounded
// history) and postgres (pgx-backed, persistent). The server core never
// touches storage; a middleware injects the configured store per request,
// which is how handlers get at it.
package storage
