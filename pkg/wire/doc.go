// Package wire implements the protocol layer of the server runtime: parsing
// HTTP request heads off a raw connection, serializing buffered responses,
// streaming Server-Sent Events, and speaking the WebSocket subset the
// runtime supports.
//
// A connection moves through a small state machine:
//
//	AwaitingRequestLine → HeadersRead → PlainBody   (buffered HTTP exchange)
//	                                  → Streaming   (SSE response mode)
//	                                  → Upgraded    (WebSocket for the rest
//	                                                 of the connection)
//	                                  → Closed
//
// [ReadRequest] performs the first two transitions under byte limits;
// [IsUpgrade] decides between the HTTP modes and the WebSocket handshake.
// SSE is a response mode, not a separate protocol: the [SSEWriter] defers
// the header block until the first event and flushes every chunk as it is
// produced. WebSocket support covers the RFC 6455 subset the runtime needs:
// single-frame text and binary messages, close, and ping/pong, with masked
// client payloads and 16/64-bit extended lengths. Fragmented messages and
// extensions are not supported.
//
// The package operates on raw readers and writers and knows nothing about
// routing or handlers; the server package owns the per-connection loop.
package wire
