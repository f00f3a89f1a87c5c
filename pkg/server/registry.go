package server

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
)

// streamRegistry tracks long-lived productions (SSE drains and WebSocket
// sessions) by connection ID so shutdown can cancel them instead of
// waiting out the drain timeout.
//
// All methods are safe for concurrent access.
type streamRegistry struct {
	mu      sync.Mutex
	entries map[string]context.CancelFunc
}

func newStreamRegistry() *streamRegistry {
	return &streamRegistry{
		entries: make(map[string]context.CancelFunc),
	}
}

// Register adds a stream's cancel function under its connection ID.
func (r *streamRegistry) Register(connID string, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[connID] = cancel
}

// Remove drops a stream that ended on its own, without cancelling it.
func (r *streamRegistry) Remove(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, connID)
}

// CancelAll cancels every registered stream. Called once at shutdown.
func (r *streamRegistry) CancelAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, cancel := range r.entries {
		cancel()
		delete(r.entries, id)
	}
}

// connState is the dispatcher's view of one accepted connection. idle is
// true while the keep-alive loop is parked between requests waiting for
// the next head, which is when shutdown may close the connection without
// cutting off a response.
type connState struct {
	idle atomic.Bool
}

// connSet tracks accepted connections for shutdown. Idle connections are
// closed as soon as draining starts; the rest are force-closed when the
// drain timeout expires.
type connSet struct {
	mu    sync.Mutex
	conns map[net.Conn]*connState
}

func newConnSet() *connSet {
	return &connSet{conns: make(map[net.Conn]*connState)}
}

func (s *connSet) add(conn net.Conn) *connState {
	st := &connState{}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[conn] = st
	return st
}

func (s *connSet) remove(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn)
}

// closeIdle closes every connection currently parked between requests.
func (s *connSet) closeIdle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn, st := range s.conns {
		if st.idle.Load() {
			_ = conn.Close()
		}
	}
}

// closeAll closes every tracked connection.
func (s *connSet) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		_ = conn.Close()
	}
}
