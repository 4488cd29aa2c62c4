// Package config loads sheetview settings from environment variables,
// applying defaults and validating everything on startup so a bad deployment
// fails before it serves a request.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Source   SourceConfig
	Session  SessionConfig
	Load     LoadConfig
	Export   ExportConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading the request, body included (default: 30s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`

	// WriteTimeout is the maximum duration for writing a response (default: 60s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// SourceConfig controls where spreadsheets may be loaded from.
type SourceConfig struct {
	// FetchTimeout bounds a single http(s) download (default: 30s)
	FetchTimeout time.Duration `env:"SOURCE_FETCH_TIMEOUT" default:"30s"`

	// MaxBytes is the largest file accepted from any source, e.g. 50MiB or 1048576 (default: 50MiB)
	MaxBytes int64 `env:"SOURCE_MAX_BYTES" default:"50MiB" unit:"bytes"`

	// AllowLocal permits file paths and file:// URLs (default: false)
	AllowLocal bool `env:"SOURCE_ALLOW_LOCAL" default:"false"`

	// AllowPrivate permits links that resolve to loopback, private or
	// link-local addresses (default: false)
	AllowPrivate bool `env:"SOURCE_ALLOW_PRIVATE" default:"false"`

	// DefaultSource is opened when the landing page has no fileUrl
	DefaultSource string `env:"SHEETVIEW_DEFAULT_SOURCE" envAlt:"DEFAULT_FILE_URL"`
}

// SessionConfig controls in-memory viewer sessions.
type SessionConfig struct {
	// TTL is how long an untouched session is kept (default: 1h)
	TTL time.Duration `env:"SESSION_TTL" default:"1h"`

	// SweepInterval is how often idle sessions are evicted (default: 5m)
	SweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" default:"5m"`

	// MaxSessions caps open sessions (default: 256)
	MaxSessions int `env:"SESSION_MAX" default:"256"`
}

// LoadConfig bounds workbook parsing.
type LoadConfig struct {
	// MaxConcurrent is the number of workbooks parsed at once (default: 4)
	MaxConcurrent int `env:"LOAD_MAX_CONCURRENT" default:"4"`

	// MaxWait is how long a load waits for a parse slot (default: 15s)
	MaxWait time.Duration `env:"LOAD_MAX_WAIT" default:"15s"`
}

// ExportConfig holds download settings.
type ExportConfig struct {
	// CSVBOM prefixes CSV downloads with a UTF-8 byte order mark (default: true)
	CSVBOM bool `env:"EXPORT_CSV_BOM" default:"true"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 120)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"120"`

	// LoadLimit is requests per minute for endpoints that load a file (default: 10)
	LoadLimit int `env:"RATE_LIMIT_LOAD" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey protects /api routes with X-API-Key (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
