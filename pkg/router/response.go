package router

import (
	"context"
	"net/http"

	"github.com/rhuss/hopper/pkg/wire"
)

// StreamWriter delivers SSE chunks to the peer in order, flushing each one.
// Send blocks until the chunk is on the wire and fails once the peer is
// gone, which cancels the producer.
type StreamWriter interface {
	Send(chunk string) error
}

// StreamFunc produces one SSE response chunk by chunk. The producer writes
// the event framing text itself ("event: <name>\ndata: <payload>\n\n") and
// should stop when ctx is cancelled or Send fails.
type StreamFunc func(ctx context.Context, w StreamWriter) error

// Response is what a handler or middleware returns: either a buffered
// (status, payload) response or a streaming producer. Once the dispatcher
// has written the first byte the status line and headers are fixed; later
// faults terminate the stream instead of changing them.
type Response struct {
	Status int
	// Payload is serialized according to ContentType (JSON by default).
	// Ignored when Body or Stream is set.
	Payload any
	// Body is a pre-encoded response body.
	Body []byte
	// ContentType overrides the route's declared content type.
	ContentType string
	// Header carries extra response headers.
	Header wire.Header
	// Stream switches the response into SSE mode; Status and Payload are
	// ignored when set.
	Stream StreamFunc
}

// JSON returns a buffered response whose payload is marshaled as JSON.
func JSON(status int, payload any) *Response {
	return &Response{Status: status, Payload: payload}
}

// Text returns a plain-text response.
func Text(status int, body string) *Response {
	return &Response{Status: status, Body: []byte(body), ContentType: "text/plain; charset=utf-8"}
}

// HTML returns an HTML response.
func HTML(status int, body string) *Response {
	return &Response{Status: status, Body: []byte(body), ContentType: "text/html; charset=utf-8"}
}

// Bytes returns a pre-encoded response under an explicit content type.
func Bytes(status int, contentType string, body []byte) *Response {
	return &Response{Status: status, Body: body, ContentType: contentType}
}

// NoContent returns an empty 204 response.
func NoContent() *Response {
	return &Response{Status: http.StatusNoContent}
}

// Stream returns an SSE-mode response drained by the dispatcher.
func Stream(fn StreamFunc) *Response {
	return &Response{Status: http.StatusOK, Stream: fn}
}

// Error returns a buffered error response carrying the standard envelope.
func Error(status int, apiErr *APIError) *Response {
	return &Response{Status: status, Payload: &ErrorEnvelope{Error: apiErr}}
}

// SetHeader sets an extra response header and returns the response for
// chaining.
func (r *Response) SetHeader(name, value string) *Response {
	if r.Header == nil {
		r.Header = make(wire.Header)
	}
	r.Header.Set(name, value)
	return r
}
