package wire

import (
	"bufio"
	"context"
	"crypto/sha1"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"
)

// websocketGUID is the fixed key suffix from RFC 6455 used to compute the
// handshake accept value.
const websocketGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

// Close codes sent when the runtime initiates the closing handshake.
const (
	closeNormal        = 1000
	closeProtocolError = 1002
	closeInternalError = 1011
)

// ErrConnectionClosed is returned by Send once a connection is tearing down.
var ErrConnectionClosed = errors.New("websocket connection closed")

// outboundBuffer is the depth of the per-connection send queue. A producer
// that outruns the peer blocks on Send, which is the backpressure contract.
const outboundBuffer = 32

// closeGrace bounds how long teardown waits on a peer that stopped reading
// before abandoning in-flight and closing-handshake writes.
const closeGrace = 5 * time.Second

// IsUpgrade reports whether the request head asks for a WebSocket upgrade:
// a Connection header carrying the "upgrade" token together with
// "Upgrade: websocket".
func IsUpgrade(h Header) bool {
	return containsToken(h.Get("Connection"), "upgrade") &&
		containsToken(h.Get("Upgrade"), "websocket")
}

// AcceptKey computes the Sec-WebSocket-Accept value for a client key.
func AcceptKey(key string) string {
	sum := sha1.Sum([]byte(key + websocketGUID))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// Handshake validates the upgrade request and writes the 101 response. The
// transport-level handshake always completes before the application gets a
// say; rejection happens afterwards by closing the upgraded connection.
func Handshake(w io.Writer, req *Request) error {
	key := req.Header.Get("Sec-WebSocket-Key")
	if key == "" {
		return fmt.Errorf("%w: missing Sec-WebSocket-Key", ErrMalformed)
	}
	head := "HTTP/1.1 101 Switching Protocols\r\n" +
		"Upgrade: websocket\r\n" +
		"Connection: Upgrade\r\n" +
		"Sec-WebSocket-Accept: " + AcceptKey(key) + "\r\n\r\n"
	if _, err := io.WriteString(w, head); err != nil {
		return fmt.Errorf("writing handshake response: %w", err)
	}
	return nil
}

// WebSocketHandler receives the lifecycle events of one upgraded
// connection.
//
// OnConnect gates admission after the transport handshake has completed; a
// nil OnConnect accepts every connection. OnMessage handles each inbound
// message strictly in receipt order; two messages on one connection are
// never handled concurrently. Returning an error closes the connection.
// OnDisconnect runs exactly once per upgraded connection, accepted or
// rejected, on peer close, local close, or protocol error, even when
// OnMessage was never invoked.
type WebSocketHandler struct {
	OnConnect    func(ctx context.Context, connID string, header Header) bool
	OnMessage    func(ctx context.Context, conn *WebSocketConn, message string) error
	OnDisconnect func(connID string, header Header)

	// Observe, when set, is called once per data message with the direction
	// ("in" or "out"). The dispatcher installs it to feed its message
	// counters.
	Observe func(direction string)
}

// WebSocketConn is one upgraded connection as seen by message handlers.
// Send may be called from any goroutine; frames reach the peer in Send
// order.
type WebSocketConn struct {
	id      string
	header  Header
	observe func(direction string)

	conn net.Conn
	br   *bufio.Reader

	out       chan outFrame
	closed    chan struct{}
	closeOnce sync.Once
}

type outFrame struct {
	op      Opcode
	payload []byte
}

// ID returns the stable connection identifier assigned at accept time.
func (c *WebSocketConn) ID() string { return c.id }

// Header returns the headers of the upgrade request.
func (c *WebSocketConn) Header() Header { return c.header }

// Send queues one outgoing text message. It blocks while the send queue is
// full and returns ErrConnectionClosed once the connection is tearing down;
// queued messages may be discarded at that point rather than retried.
func (c *WebSocketConn) Send(message string) error {
	select {
	case <-c.closed:
		return ErrConnectionClosed
	case c.out <- outFrame{op: OpcodeText, payload: []byte(message)}:
		if c.observe != nil {
			c.observe("out")
		}
		return nil
	}
}

// Close initiates a local close of the connection.
func (c *WebSocketConn) Close() error {
	c.shutdown()
	return nil
}

// shutdown marks the connection as closing, unblocks the reader, and bounds
// any still-running write so teardown cannot hang on a stalled peer.
func (c *WebSocketConn) shutdown() {
	c.closeOnce.Do(func() {
		close(c.closed)
		_ = c.conn.SetReadDeadline(time.Now())
		_ = c.conn.SetWriteDeadline(time.Now().Add(closeGrace))
	})
}

// ServeWebSocket runs the post-handshake session for one connection: the
// admission gate, the sequential read loop, and the single writer that
// drains the send queue. It returns when the peer closes, the context is
// cancelled, a protocol error occurs, or a message handler fails. The
// caller closes the TCP connection afterwards.
func ServeWebSocket(ctx context.Context, conn net.Conn, br *bufio.Reader, req *Request, connID string, h WebSocketHandler, limits Limits, logger *slog.Logger) {
	c := &WebSocketConn{
		id:      connID,
		header:  req.Header,
		observe: h.Observe,
		conn:    conn,
		br:      br,
		out:     make(chan outFrame, outboundBuffer),
		closed:  make(chan struct{}),
	}

	defer func() {
		if h.OnDisconnect != nil {
			h.OnDisconnect(c.id, c.header)
		}
	}()

	if h.OnConnect != nil && !h.OnConnect(ctx, c.id, c.header) {
		// Handshake already completed at the transport level; the rejected
		// peer gets a clean close frame and nothing else.
		_ = conn.SetWriteDeadline(time.Now().Add(closeGrace))
		_ = writeFrame(conn, OpcodeClose, closePayload(closeNormal))
		logger.Debug("websocket connection rejected", "connection_id", c.id)
		return
	}

	writerDone := make(chan struct{})
	go c.writeLoop(writerDone)

	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			c.shutdown()
		case <-c.closed:
		case <-watchDone:
		}
	}()

	code := c.readLoop(ctx, h, limits, logger)

	// Stop the writer before sending the final close frame so the two
	// never interleave on the wire.
	c.shutdown()
	<-writerDone
	_ = writeFrame(conn, OpcodeClose, closePayload(code))
}

// readLoop dispatches inbound frames until the session ends and returns the
// close code to send back.
func (c *WebSocketConn) readLoop(ctx context.Context, h WebSocketHandler, limits Limits, logger *slog.Logger) uint16 {
	for {
		f, err := readFrame(c.br, limits.MaxFramePayloadBytes)
		if err != nil {
			if errors.Is(err, ErrFrameProtocol) {
				logger.Warn("websocket protocol error", "connection_id", c.id, "error", err)
				return closeProtocolError
			}
			// Peer hangup, local shutdown, or cancelled context.
			return closeNormal
		}

		switch f.opcode {
		case OpcodeText, OpcodeBinary:
			if c.observe != nil {
				c.observe("in")
			}
			if h.OnMessage == nil {
				continue
			}
			if err := c.handleMessage(ctx, h, string(f.payload)); err != nil {
				logger.Error("websocket message handler failed",
					"connection_id", c.id, "error", err)
				return closeInternalError
			}
		case OpcodePing:
			select {
			case c.out <- outFrame{op: OpcodePong, payload: f.payload}:
			case <-c.closed:
				return closeNormal
			}
		case OpcodePong:
			// Unsolicited pongs are ignored.
		case OpcodeClose:
			return echoCloseCode(f.payload)
		}

		select {
		case <-c.closed:
			return closeNormal
		default:
		}
	}
}

// handleMessage invokes OnMessage with panic containment, so a faulting
// handler closes only its own connection.
func (c *WebSocketConn) handleMessage(ctx context.Context, h WebSocketHandler, msg string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("message handler panicked: %v", r)
		}
	}()
	return h.OnMessage(ctx, c, msg)
}

func (c *WebSocketConn) writeLoop(done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-c.closed:
			return
		case f := <-c.out:
			if err := writeFrame(c.conn, f.op, f.payload); err != nil {
				// Write failure is implicit cancellation: discard whatever
				// is still queued and tear down.
				c.shutdown()
				return
			}
		}
	}
}

func closePayload(code uint16) []byte {
	var p [2]byte
	binary.BigEndian.PutUint16(p[:], code)
	return p[:]
}

// echoCloseCode extracts the peer's close code so it can be echoed back, as
// the closing handshake expects.
func echoCloseCode(payload []byte) uint16 {
	if len(payload) >= 2 {
		return binary.BigEndian.Uint16(payload[:2])
	}
	return closeNormal
}
