package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rhuss/hopper/pkg/binding"
	"github.com/rhuss/hopper/pkg/observability"
	"github.com/rhuss/hopper/pkg/router"
	"github.com/rhuss/hopper/pkg/wire"
)

// serveConn owns one accepted connection end to end: the keep-alive
// request loop, protocol detection, and teardown. It runs on its own
// goroutine; per-connection ordering comes from this being the only reader.
func (s *Server) serveConn(ctx context.Context, conn net.Conn, st *connState) {
	connID := wire.NewConnectionID()
	logger := s.logger.With(slog.String("connection_id", connID))

	observability.ConnectionsActive.Inc()
	defer observability.ConnectionsActive.Dec()
	defer conn.Close()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("connection serving panicked", slog.Any("panic", r))
		}
	}()

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	d := &dispatch{
		srv:    s,
		conn:   conn,
		br:     bufio.NewReader(conn),
		bw:     bufio.NewWriter(conn),
		connID: connID,
		logger: logger,
	}

	logger.Debug("connection opened", slog.String("remote", conn.RemoteAddr().String()))
	defer logger.Debug("connection closed")

	for {
		st.idle.Store(true)
		if s.config.ReadTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
		}
		req, err := wire.ReadRequest(d.br, s.config.Limits)
		st.idle.Store(false)
		if err != nil {
			d.writeReadError(err)
			return
		}
		if s.config.ReadTimeout > 0 {
			_ = conn.SetReadDeadline(time.Time{})
		}

		if wire.IsUpgrade(req.Header) {
			d.serveWebSocket(connCtx, req)
			return
		}
		if !d.serveRequest(connCtx, req) {
			return
		}
	}
}

// dispatch carries the per-connection plumbing one request needs on its
// way through the server.
type dispatch struct {
	srv    *Server
	conn   net.Conn
	br     *bufio.Reader
	bw     *bufio.Writer
	connID string
	logger *slog.Logger
}

// serveRequest carries one parsed HTTP request through resolution,
// binding, the middleware chain, and serialization. It reports whether the
// connection can take another request.
func (d *dispatch) serveRequest(ctx context.Context, req *wire.Request) bool {
	s := d.srv
	keepAlive := req.WantsKeepAlive() && !s.draining.Load()

	// Preflights are answered before resolution so they succeed for every
	// path.
	if s.cors != nil && req.Method == http.MethodOptions {
		return d.writeResponse(nil, s.cors.Preflight(), keepAlive)
	}

	match, err := s.table.Resolve(req.Method, req.Path)
	if err != nil {
		return d.writeResolveError(req, err, keepAlive)
	}
	route := match.Route

	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	c := router.NewContext(reqCtx, req, d.connID)
	c.PathParams = match.PathParams
	if strings.HasPrefix(route.ContentType, "text/event-stream") {
		c.Mode = router.ModeStream
	}

	if !route.BypassValidation {
		args, verrs := binding.Bind(route.Params, binding.Request{
			PathParams: match.PathParams,
			Query:      req.Query,
			Headers:    req.Header,
			Body:       req.Body,
		})
		if verrs != nil {
			countValidationFailures(route.Params, verrs)
			d.logger.Warn("request validation failed",
				slog.String("method", req.Method),
				slog.String("path", req.Path),
				slog.Int("fields", len(verrs.Fields)))
			return d.writeError(http.StatusUnprocessableEntity,
				router.NewValidationError(verrs), keepAlive, "")
		}
		c.Args = args
	}

	handler := router.Compose(route.Handler, s.global, route.Middleware)
	resp, err := handler(c)
	if err != nil {
		status, apiErr := classifyFault(err)
		if apiErr.Type == router.ErrorTypeServerError {
			d.logger.Error("handler failed",
				slog.String("method", req.Method),
				slog.String("path", req.Path),
				slog.String("error", err.Error()))
		}
		return d.writeError(status, apiErr, keepAlive, "")
	}
	if resp == nil {
		d.logger.Error("handler returned no response",
			slog.String("method", req.Method),
			slog.String("path", req.Path))
		return d.writeError(http.StatusInternalServerError,
			router.NewServerError("empty response"), keepAlive, "")
	}

	if resp.Stream != nil {
		return d.serveStream(reqCtx, resp, route, keepAlive)
	}
	return d.writeResponse(route, resp, keepAlive)
}

// serveStream drains an SSE response: the producer runs on the connection
// goroutine and every chunk is flushed as soon as it is written. The
// response head goes out lazily with the first chunk, so a producer that
// fails before sending anything still gets an ordinary error response.
// After a started stream the connection closes; its head promised as much.
func (d *dispatch) serveStream(ctx context.Context, resp *router.Response, route *router.Route, keepAlive bool) bool {
	ct := resp.ContentType
	if ct == "" && strings.HasPrefix(route.ContentType, "text/event-stream") {
		ct = route.ContentType
	}
	sw := wire.NewSSEWriter(d.bw, ct)

	streamCtx, cancel := context.WithCancel(ctx)
	d.srv.streams.Register(d.connID, cancel)
	observability.StreamsActive.Inc()

	err := runProducer(streamCtx, resp.Stream, sw)

	observability.StreamsActive.Dec()
	d.srv.streams.Remove(d.connID)
	cancel()

	switch {
	case err != nil && !sw.Started():
		d.logger.Error("stream producer failed before first chunk",
			slog.String("error", err.Error()))
		return d.writeError(http.StatusInternalServerError,
			router.NewServerError("internal server error"), keepAlive, "")
	case err != nil:
		// The status line is on the wire; all that is left is to stop.
		d.logger.Warn("stream terminated", slog.String("error", err.Error()))
		return false
	default:
		d.logger.Debug("stream completed")
		return false
	}
}

// runProducer invokes the stream producer with panic containment so a
// faulting producer terminates only its own stream.
func runProducer(ctx context.Context, fn router.StreamFunc, sw *wire.SSEWriter) (err error) {
	defer sw.Close()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("stream producer panicked: %v", r)
		}
	}()
	return fn(ctx, sw)
}

// serveWebSocket resolves the upgrade target and hands the connection to
// the session loop for its lifetime. The transport handshake completes
// before the OnConnect gate runs; a rejected connection gets a close frame
// right after it.
func (d *dispatch) serveWebSocket(ctx context.Context, req *wire.Request) {
	s := d.srv

	match, err := s.table.Resolve(req.Method, req.Path)
	if err != nil {
		d.writeResolveError(req, err, false)
		return
	}
	if match.Route.WebSocket == nil {
		d.writeError(http.StatusBadRequest,
			router.NewBadRequestError("not a websocket endpoint"), false, "")
		return
	}

	if err := wire.Handshake(d.bw, req); err != nil {
		d.logger.Warn("websocket handshake failed", slog.String("error", err.Error()))
		d.writeError(http.StatusBadRequest,
			router.NewBadRequestError("invalid websocket handshake"), false, "")
		return
	}
	if err := d.bw.Flush(); err != nil {
		return
	}

	if s.metricsPath != "" {
		observability.RequestsTotal.WithLabelValues(req.Method, "1xx", "websocket").Inc()
	}

	sessionCtx, cancel := context.WithCancel(ctx)
	s.streams.Register(d.connID, cancel)
	defer func() {
		s.streams.Remove(d.connID)
		cancel()
	}()

	d.logger.Info("websocket session started", slog.String("path", req.Path))
	wire.ServeWebSocket(sessionCtx, d.conn, d.br, req, d.connID,
		instrument(*match.Route.WebSocket), s.config.Limits, d.logger)
	d.logger.Info("websocket session ended")
}

// instrument wraps a session handler with the gauge and message counter
// updates. OnConnect and OnDisconnect for one connection run on the same
// goroutine, so the accepted flag needs no synchronization.
func instrument(h wire.WebSocketHandler) wire.WebSocketHandler {
	userConnect := h.OnConnect
	userDisconnect := h.OnDisconnect
	userObserve := h.Observe

	accepted := false
	wrapped := h
	wrapped.Observe = func(direction string) {
		observability.WebSocketMessagesTotal.WithLabelValues(direction).Inc()
		if userObserve != nil {
			userObserve(direction)
		}
	}
	wrapped.OnConnect = func(ctx context.Context, connID string, header wire.Header) bool {
		ok := true
		if userConnect != nil {
			ok = userConnect(ctx, connID, header)
		}
		if ok {
			accepted = true
			observability.WebSocketsActive.Inc()
		}
		return ok
	}
	wrapped.OnDisconnect = func(connID string, header wire.Header) {
		if accepted {
			observability.WebSocketsActive.Dec()
		}
		if userDisconnect != nil {
			userDisconnect(connID, header)
		}
	}
	return wrapped
}

// writeResolveError answers a failed route resolution: 405 with the Allow
// set when the path exists under other methods, 404 otherwise.
func (d *dispatch) writeResolveError(req *wire.Request, err error, keepAlive bool) bool {
	var mna *router.MethodNotAllowedError
	if errors.As(err, &mna) {
		return d.writeError(http.StatusMethodNotAllowed,
			router.NewMethodNotAllowedError(fmt.Sprintf("%s not allowed for %s", req.Method, req.Path)),
			keepAlive, strings.Join(mna.Allow, ", "))
	}
	return d.writeError(http.StatusNotFound,
		router.NewNotFoundError(fmt.Sprintf("no route for %s", req.Path)), keepAlive, "")
}

// writeReadError answers a failed request read. Clean closes between
// requests and peer hangups end the connection silently; parse and limit
// failures get a synthetic response first. The connection always closes.
func (d *dispatch) writeReadError(err error) {
	var status int
	var apiErr *router.APIError

	switch {
	case err == io.EOF:
		return
	case errors.Is(err, wire.ErrHeaderTooLarge):
		status = http.StatusRequestHeaderFieldsTooLarge
		apiErr = router.NewBadRequestError("request head too large")
	case errors.Is(err, wire.ErrBodyTooLarge):
		status = http.StatusRequestEntityTooLarge
		apiErr = router.NewBadRequestError("request body too large")
	case errors.Is(err, wire.ErrMalformed):
		status = http.StatusBadRequest
		apiErr = router.NewBadRequestError("malformed request")
	default:
		d.logger.Debug("read failed", slog.String("error", err.Error()))
		return
	}

	d.logger.Warn("rejecting request",
		slog.Int("status", status), slog.String("error", err.Error()))
	d.writeError(status, apiErr, false, "")
}

// classifyFault maps a chain error onto the envelope. A typed APIError
// keeps its own classification; anything else, including a reused
// continuation, is a handler fault.
func classifyFault(err error) (int, *router.APIError) {
	var apiErr *router.APIError
	if errors.As(err, &apiErr) {
		return statusForType(apiErr.Type), apiErr
	}
	return http.StatusInternalServerError, router.NewServerError("internal server error")
}

// statusForType maps the error taxonomy onto response status codes.
func statusForType(t router.ErrorType) int {
	switch t {
	case router.ErrorTypeBadRequest:
		return http.StatusBadRequest
	case router.ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case router.ErrorTypeForbidden:
		return http.StatusForbidden
	case router.ErrorTypeNotFound:
		return http.StatusNotFound
	case router.ErrorTypeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case router.ErrorTypeValidation:
		return http.StatusUnprocessableEntity
	case router.ErrorTypeTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// countValidationFailures attributes each field failure to its declared
// source. Fields reported from inside a body schema carry the schema
// field's name, not a spec name, and fall back to the body source.
func countValidationFailures(specs []binding.ParamSpec, errs *binding.Errors) {
	sources := make(map[string]string, len(specs))
	for _, spec := range specs {
		sources[spec.Name] = string(spec.Source)
	}
	for _, fe := range errs.Fields {
		src, ok := sources[fe.Field]
		if !ok {
			src = string(binding.SourceBody)
		}
		observability.ValidationFailuresTotal.WithLabelValues(src).Inc()
	}
}
