// Package server is the connection dispatcher: it owns the listening
// socket, runs one goroutine per accepted connection, and carries each
// request through protocol detection, route resolution, parameter binding,
// the middleware chain, and response serialization.
//
// Plain HTTP requests are answered in order on keep-alive connections. A
// route returning a streaming response switches the connection into SSE
// mode, where the dispatcher relays flushed chunks until the producer ends
// or the peer drops. An upgrade request hands the connection to the
// WebSocket session loop for its lifetime.
package server
