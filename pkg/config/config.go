// Package config provides unified configuration for a hopper server.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (HOPPER_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import (
	"log/slog"
	"net"
	"strconv"
	"time"
)

// Config holds all configuration for a hopper server.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
	CORS    CORSConfig    `yaml:"cors"`
	Auth    AuthConfig    `yaml:"auth"`
	Docs    DocsConfig    `yaml:"docs"`
	Metrics MetricsConfig `yaml:"metrics"`
	Storage StorageConfig `yaml:"storage"`
}

// ServerConfig holds listener and per-request limit settings.
type ServerConfig struct {
	Host string `yaml:"host"` // default: "0.0.0.0"
	Port int    `yaml:"port"` // default: 8000

	// Read/write deadlines on the raw connection. Zero means no deadline;
	// the runtime enforces no timeouts of its own.
	ReadTimeout  time.Duration `yaml:"read_timeout"`  // default: 0
	WriteTimeout time.Duration `yaml:"write_timeout"` // default: 0

	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // default: 10s

	MaxHeaderBytes int   `yaml:"max_header_bytes"` // default: 65536
	MaxBodyBytes   int64 `yaml:"max_body_bytes"`   // default: 10485760
	MaxFrameBytes  int64 `yaml:"max_frame_bytes"`  // default: 1048576
}

// Addr returns the host:port string the listener binds to.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error", default: "info"
	Format string `yaml:"format"` // "text" or "json", default: "text"
}

// SlogLevel maps the configured level name to a slog.Level.
// Unknown names (already rejected by Validate) map to Info.
func (l LoggingConfig) SlogLevel() slog.Level {
	switch l.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// CORSConfig holds cross-origin header settings. When enabled, the server
// answers OPTIONS preflights for every path and decorates responses with the
// Access-Control-* headers. Empty lists fall back to the middleware defaults.
type CORSConfig struct {
	Enabled      bool     `yaml:"enabled"` // default: false
	AllowOrigin  string   `yaml:"allow_origin"`
	AllowMethods []string `yaml:"allow_methods"`
	AllowHeaders []string `yaml:"allow_headers"`
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	Type      string          `yaml:"type"` // "none", "apikey", "jwt", default: "none"
	JWT       JWTConfig       `yaml:"jwt"`
	APIKeys   []APIKeyConfig  `yaml:"api_keys"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	// BypassPaths lists request paths served without authentication.
	// Empty means the built-in set (health, metrics, docs).
	BypassPaths []string `yaml:"bypass_paths"`
}

// JWTConfig holds bearer-token verification settings. Secret selects HMAC
// verification; JWKSURL selects RSA verification against a published key set.
type JWTConfig struct {
	Secret     string `yaml:"secret"`
	SecretFile string `yaml:"secret_file"` // _file variant for secret
	JWKSURL    string `yaml:"jwks_url"`
	Issuer     string `yaml:"issuer"`
	Audience   string `yaml:"audience"`
}

// APIKeyConfig describes a single API key entry.
type APIKeyConfig struct {
	Key         string   `yaml:"key"`
	KeyFile     string   `yaml:"key_file"` // _file variant for key
	Subject     string   `yaml:"subject"`
	ServiceTier string   `yaml:"service_tier"`
	Scopes      []string `yaml:"scopes"`
}

// RateLimitConfig holds per-tier request rate settings.
type RateLimitConfig struct {
	Enabled    bool           `yaml:"enabled"`     // default: false
	DefaultRPM int            `yaml:"default_rpm"` // default: 60
	Tiers      map[string]int `yaml:"tiers"`       // tier name -> requests per minute
}

// DocsConfig holds OpenAPI documentation endpoint settings.
type DocsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Title   string `yaml:"title"`   // default: "Hopper API"
	Version string `yaml:"version"` // default: "1.0.0"
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// StorageConfig holds the demo store settings.
type StorageConfig struct {
	Type     string         `yaml:"type"` // "memory" or "postgres", default: "memory"
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	DSNFile        string `yaml:"dsn_file"`         // _file variant for dsn
	MaxConns       int32  `yaml:"max_conns"`        // default: 25
	MigrateOnStart bool   `yaml:"migrate_on_start"` // default: false
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8000,
			ShutdownTimeout: 10 * time.Second,
			MaxHeaderBytes:  64 * 1024,
			MaxBodyBytes:    10 * 1024 * 1024,
			MaxFrameBytes:   1024 * 1024,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Auth: AuthConfig{
			Type: "none",
			RateLimit: RateLimitConfig{
				DefaultRPM: 60,
			},
		},
		Docs: DocsConfig{
			Enabled: true,
			Title:   "Hopper API",
			Version: "1.0.0",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Storage: StorageConfig{
			Type: "memory",
			Postgres: PostgresConfig{
				MaxConns: 25,
			},
		},
	}
}
