// Command server runs the hopper demo chat service: room CRUD over plain
// HTTP, live room feeds over SSE, and a WebSocket chat endpoint, all
// multiplexed on one listening socket.
//
// Configuration is layered: defaults, a YAML file (-config flag,
// HOPPER_CONFIG, ./config.yaml, /etc/hopper/config.yaml), then HOPPER_*
// environment overrides. See pkg/config.
package main

import (
	"context"
	"embed"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"

	"github.com/rhuss/hopper/pkg/auth"
	"github.com/rhuss/hopper/pkg/auth/apikey"
	"github.com/rhuss/hopper/pkg/auth/jwt"
	"github.com/rhuss/hopper/pkg/chat"
	"github.com/rhuss/hopper/pkg/config"
	"github.com/rhuss/hopper/pkg/middleware"
	"github.com/rhuss/hopper/pkg/router"
	"github.com/rhuss/hopper/pkg/server"
	"github.com/rhuss/hopper/pkg/storage"
	"github.com/rhuss/hopper/pkg/storage/memory"
	"github.com/rhuss/hopper/pkg/storage/postgres"
	"github.com/rhuss/hopper/pkg/wire"
)

// memoryHistoryCap bounds per-room history in the in-memory store.
const memoryHistoryCap = 1000

//go:embed assets
var assetsFS embed.FS

//go:embed assets/index.html
var indexHTML string

func indexPage(_ *router.Context) (*router.Response, error) {
	return router.HTML(http.StatusOK, indexHTML), nil
}

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	store, err := newStore(cfg.Storage)
	if err != nil {
		return fmt.Errorf("creating store: %w", err)
	}
	defer store.Close()

	srv := server.New(serverOptions(cfg, logger)...)

	if mw, err := authMiddleware(cfg.Auth); err != nil {
		return err
	} else if mw != nil {
		srv.Use(mw)
	}

	srv.AddRoute(http.MethodGet, "/", indexPage,
		router.WithBypassValidation(), router.WithSummary("Demo chat page"))

	assets, err := fs.Sub(assetsFS, "assets")
	if err != nil {
		return fmt.Errorf("embedded assets: %w", err)
	}
	srv.AddRoute(http.MethodGet, "/static/{file}", router.StaticFS(assets, "file"),
		router.WithBypassValidation(), router.WithSummary("Demo static assets"))

	chat.Register(srv, store, chat.NewHub())

	return srv.ListenAndServe()
}

// newLogger builds the process logger from the logging config.
func newLogger(cfg config.LoggingConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// newStore builds the configured room store.
func newStore(cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Type {
	case "postgres":
		store, err := postgres.New(context.Background(), postgres.Config{
			DSN:            cfg.Postgres.DSN,
			MaxConns:       cfg.Postgres.MaxConns,
			MigrateOnStart: cfg.Postgres.MigrateOnStart,
		})
		if err != nil {
			return nil, err
		}
		slog.Info("storage enabled", "type", "postgres")
		return store, nil
	default:
		slog.Info("storage enabled", "type", "memory", "history_cap", memoryHistoryCap)
		return memory.New(memoryHistoryCap), nil
	}
}

// serverOptions maps the loaded config onto server options.
func serverOptions(cfg *config.Config, logger *slog.Logger) []server.Option {
	opts := []server.Option{
		server.WithAddr(cfg.Server.Addr()),
		server.WithLimits(wire.Limits{
			MaxHeaderBytes:       cfg.Server.MaxHeaderBytes,
			MaxBodyBytes:         cfg.Server.MaxBodyBytes,
			MaxFramePayloadBytes: cfg.Server.MaxFrameBytes,
		}),
		server.WithReadTimeout(cfg.Server.ReadTimeout),
		server.WithWriteTimeout(cfg.Server.WriteTimeout),
		server.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
		server.WithLogger(logger),
	}

	if cfg.CORS.Enabled {
		opts = append(opts, server.WithCORS(middleware.CORSConfig{
			AllowOrigin:  cfg.CORS.AllowOrigin,
			AllowMethods: cfg.CORS.AllowMethods,
			AllowHeaders: cfg.CORS.AllowHeaders,
		}))
	}
	if cfg.Docs.Enabled {
		opts = append(opts, server.WithDocs(cfg.Docs.Title, cfg.Docs.Version))
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, server.WithMetrics(cfg.Metrics.Path))
	}
	return opts
}

// authMiddleware builds the authentication middleware from config.
// Returns nil when auth is disabled.
func authMiddleware(cfg config.AuthConfig) (router.Middleware, error) {
	var authenticators []auth.Authenticator

	switch cfg.Type {
	case "", "none":
		return nil, nil
	case "apikey":
		entries := make([]apikey.RawKeyEntry, 0, len(cfg.APIKeys))
		for _, k := range cfg.APIKeys {
			entries = append(entries, apikey.RawKeyEntry{
				Key: k.Key,
				Identity: auth.Identity{
					Subject:     k.Subject,
					ServiceTier: k.ServiceTier,
					Scopes:      k.Scopes,
				},
			})
		}
		authenticators = append(authenticators, apikey.New(entries))
	case "jwt":
		authenticators = append(authenticators, jwt.New(jwt.Config{
			Secret:   cfg.JWT.Secret,
			JWKSURL:  cfg.JWT.JWKSURL,
			Issuer:   cfg.JWT.Issuer,
			Audience: cfg.JWT.Audience,
		}))
	default:
		return nil, fmt.Errorf("unknown auth type %q", cfg.Type)
	}

	chain := &auth.AuthChain{
		Authenticators:  authenticators,
		DefaultDecision: auth.No,
	}

	var limiter auth.RateLimiter
	if cfg.RateLimit.Enabled {
		tiers := make(map[string]auth.TierConfig, len(cfg.RateLimit.Tiers))
		for name, rpm := range cfg.RateLimit.Tiers {
			tiers[name] = auth.TierConfig{RequestsPerMinute: rpm}
		}
		limiter = auth.NewInProcessLimiter(tiers, cfg.RateLimit.DefaultRPM)
	}

	bypass := cfg.BypassPaths
	if len(bypass) == 0 {
		bypass = auth.DefaultBypassPaths
	}
	return auth.Middleware(chain, limiter, bypass), nil
}
