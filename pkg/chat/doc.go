// Package chat is the demo application served by cmd/server: chat rooms
// with a REST CRUD surface, a live SSE feed per room, and a WebSocket chat
// endpoint. It exists to exercise the runtime end to end — every protocol
// mode, parameter binding, and the storage middleware pattern — and is
// what the integration tests run against.
package chat
