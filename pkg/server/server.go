package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rhuss/hopper/pkg/middleware"
	"github.com/rhuss/hopper/pkg/observability"
	"github.com/rhuss/hopper/pkg/openapi"
	"github.com/rhuss/hopper/pkg/router"
	"github.com/rhuss/hopper/pkg/wire"
)

// Config holds the dispatcher settings.
type Config struct {
	Addr            string
	Limits          wire.Limits
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	Logger          *slog.Logger
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Addr:            "0.0.0.0:8000",
		Limits:          wire.DefaultLimits(),
		ShutdownTimeout: 10 * time.Second,
		Logger:          slog.Default(),
	}
}

// Option configures a Server.
type Option func(*Server)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(s *Server) { s.config.Addr = addr }
}

// WithLimits sets the per-request read limits.
func WithLimits(l wire.Limits) Option {
	return func(s *Server) { s.config.Limits = l }
}

// WithReadTimeout sets the per-request read deadline. Zero disables it.
func WithReadTimeout(d time.Duration) Option {
	return func(s *Server) { s.config.ReadTimeout = d }
}

// WithWriteTimeout sets the per-response write deadline. Zero disables it.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *Server) { s.config.WriteTimeout = d }
}

// WithShutdownTimeout sets the graceful drain deadline.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) { s.config.ShutdownTimeout = d }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.config.Logger = l; s.logger = l }
}

// WithCORS enables cross-origin handling: every OPTIONS request is
// answered as a preflight before route resolution, and all responses carry
// the configured Access-Control-* headers.
func WithCORS(cfg middleware.CORSConfig) Option {
	return func(s *Server) { s.cors = &cfg }
}

// WithDocs enables the generated documentation endpoints /swagger.json and
// /docs, built from the route table when serving starts.
func WithDocs(title, version string) Option {
	return func(s *Server) { s.docs = &openapi.Info{Title: title, Version: version} }
}

// WithMetrics exposes the Prometheus endpoint at path and records request
// metrics around the middleware chain.
func WithMetrics(path string) Option {
	return func(s *Server) { s.metricsPath = path }
}

// WithoutDefaultMiddleware disables the recovery, request ID, and logging
// middleware the server otherwise applies globally.
func WithoutDefaultMiddleware() Option {
	return func(s *Server) { s.noDefaults = true }
}

// Server multiplexes plain HTTP, SSE, and WebSocket over one listening
// socket. Routes and middleware are registered before serving starts;
// afterwards the table is read-only and shared by every connection
// goroutine.
type Server struct {
	config Config
	logger *slog.Logger

	table      *router.Table
	userGlobal []router.Middleware
	global     []router.Middleware
	noDefaults bool

	cors        *middleware.CORSConfig
	docs        *openapi.Info
	metricsPath string

	streams *streamRegistry
	conns   *connSet
	wg      sync.WaitGroup

	mu       sync.Mutex
	ln       net.Listener
	draining atomic.Bool
}

// New creates a server with an empty route table.
func New(opts ...Option) *Server {
	s := &Server{
		config:  DefaultConfig(),
		logger:  slog.Default(),
		table:   router.NewTable(),
		streams: newStreamRegistry(),
		conns:   newConnSet(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Use appends global middleware, run on every matched route after the
// default set.
func (s *Server) Use(mw ...router.Middleware) {
	s.userGlobal = append(s.userGlobal, mw...)
}

// AddRoute registers a handler for (method, pattern). It panics on
// malformed patterns or inconsistent parameter specs, surfacing
// registration mistakes before the server starts accepting.
func (s *Server) AddRoute(method, pattern string, h router.Handler, opts ...router.RouteOption) *router.Route {
	return s.table.Register(method, pattern, h, opts...)
}

// AddWebSocketRoute registers a WebSocket endpoint. Matching upgrade
// requests are handed to h for the connection's lifetime; plain requests
// are answered with 426.
func (s *Server) AddWebSocketRoute(pattern string, h wire.WebSocketHandler) *router.Route {
	return s.table.Register(http.MethodGet, pattern, upgradeRequired,
		router.WithBypassValidation(), router.WithWebSocket(h))
}

// Include registers all routes of a group, with the group's prefix and
// middleware applied.
func (s *Server) Include(g *router.Group) {
	g.Apply(s.table)
}

// Routes returns the registered routes in registration order.
func (s *Server) Routes() []*router.Route {
	return s.table.Routes()
}

func upgradeRequired(c *router.Context) (*router.Response, error) {
	return router.Error(http.StatusUpgradeRequired,
		router.NewBadRequestError("websocket endpoint requires upgrade")), nil
}

// prepare freezes the registration surface: it builds the global
// middleware chain and registers the metrics and documentation endpoints.
func (s *Server) prepare() error {
	if s.metricsPath != "" {
		s.table.Register(http.MethodGet, s.metricsPath, observability.MetricsHandler(),
			router.WithBypassValidation(), router.WithSummary("Prometheus metrics"))
	}
	if s.docs != nil {
		doc := openapi.Generate(*s.docs, s.table.Routes())
		docHandler, err := openapi.DocumentHandler(doc)
		if err != nil {
			return fmt.Errorf("building openapi document: %w", err)
		}
		s.table.Register(http.MethodGet, "/swagger.json", docHandler, router.WithBypassValidation())
		s.table.Register(http.MethodGet, "/docs", openapi.UIHandler(), router.WithBypassValidation())
	}

	var mws []router.Middleware
	if !s.noDefaults {
		mws = append(mws, middleware.Recovery())
	}
	if s.metricsPath != "" {
		mws = append(mws, observability.Metrics())
	}
	if !s.noDefaults {
		mws = append(mws, middleware.RequestID(), middleware.Logging(s.logger))
	}
	s.global = append(mws, s.userGlobal...)
	return nil
}

// ListenAndServe starts the server and blocks until a shutdown signal
// (SIGINT or SIGTERM) is received, then drains gracefully.
func (s *Server) ListenAndServe() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.config.Addr, err)
	}
	return s.ServeContext(ctx, ln)
}

// ServeContext accepts connections on ln until ctx is cancelled, then
// drains: the listener closes, idle keep-alive connections are dropped,
// streams and WebSocket sessions are cancelled, and in-flight requests get
// the shutdown timeout to finish before their connections are closed.
func (s *Server) ServeContext(ctx context.Context, ln net.Listener) error {
	if err := s.prepare(); err != nil {
		return err
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	s.logger.Info("server starting", slog.String("addr", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.acceptLoop(ctx, ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	}

	return s.shutdown()
}

// Addr returns the listener address, usable once ServeContext has been
// entered. It returns nil before that.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.draining.Load() {
				return nil
			}
			return fmt.Errorf("accepting connection: %w", err)
		}
		if s.draining.Load() {
			_ = conn.Close()
			continue
		}

		st := s.conns.add(conn)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.conns.remove(conn)
			s.serveConn(ctx, conn, st)
		}()
	}
}

func (s *Server) shutdown() error {
	s.draining.Store(true)

	s.mu.Lock()
	if s.ln != nil {
		_ = s.ln.Close()
	}
	s.mu.Unlock()

	// Streams and sessions are told to stop right away; buffered requests
	// already past the read get to finish.
	s.streams.CancelAll()
	s.conns.closeIdle()

	s.logger.Info("shutting down gracefully",
		slog.Duration("timeout", s.config.ShutdownTimeout))

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(s.config.ShutdownTimeout):
		s.logger.Warn("drain timeout expired, closing remaining connections")
		s.conns.closeAll()
		<-done
	}

	s.logger.Info("server stopped")
	return nil
}
