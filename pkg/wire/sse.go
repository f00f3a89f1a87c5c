package wire

import (
	"bufio"
	"errors"
	"fmt"
	"sync"
)

// writerState tracks the state of an SSEWriter.
type writerState int

const (
	writerIdle      writerState = iota // no bytes written yet
	writerStreaming                    // header block flushed, events flowing
	writerCompleted                    // stream ended or write failed
)

// SSEWriter streams Server-Sent Events over one connection. The header
// block is deferred until the first event, so a handler that fails before
// producing anything can still be answered with an ordinary error response.
// Every event is flushed as soon as it is written; a failed write marks the
// stream completed and all further sends fail fast, which is how peer
// disconnects cancel a producer.
//
// Producers are responsible for the event framing text themselves
// ("event: <name>\ndata: <payload>\n\n"); the writer guarantees only
// ordered, flushed delivery.
type SSEWriter struct {
	bw          *bufio.Writer
	contentType string

	mu    sync.Mutex
	state writerState
	err   error
}

// NewSSEWriter wraps the connection's buffered writer. contentType is
// written with the header block; empty means "text/event-stream".
func NewSSEWriter(bw *bufio.Writer, contentType string) *SSEWriter {
	if contentType == "" {
		contentType = "text/event-stream"
	}
	return &SSEWriter{bw: bw, contentType: contentType}
}

// Send writes one chunk and flushes it to the peer. The first send also
// writes the response head: status 200, the stream content type, no
// Content-Length. Send returns the first write error on every call after a
// failure.
func (s *SSEWriter) Send(chunk string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == writerCompleted {
		if s.err != nil {
			return s.err
		}
		return errors.New("cannot send: stream is completed")
	}

	if s.state == writerIdle {
		head := fmt.Sprintf(
			"HTTP/1.1 200 OK\r\nContent-Type: %s\r\nCache-Control: no-cache\r\nConnection: close\r\n\r\n",
			s.contentType)
		if _, err := s.bw.WriteString(head); err != nil {
			return s.fail(err)
		}
		s.state = writerStreaming
	}

	if _, err := s.bw.WriteString(chunk); err != nil {
		return s.fail(err)
	}
	if err := s.bw.Flush(); err != nil {
		return s.fail(err)
	}
	return nil
}

// Started reports whether the response head has been written, i.e. whether
// the status line is already on the wire and can no longer change.
func (s *SSEWriter) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state != writerIdle
}

// Close marks the stream completed. Further sends fail. It does not close
// the underlying connection; the dispatcher owns that.
func (s *SSEWriter) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = writerCompleted
	return s.err
}

func (s *SSEWriter) fail(err error) error {
	s.state = writerCompleted
	s.err = fmt.Errorf("writing stream chunk: %w", err)
	return s.err
}
