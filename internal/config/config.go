// Package config provides centralized configuration management for Sortly.
// Values come from struct-tag defaults, an optional TOML file named by
// SORTLY_CONFIG, and environment variables, in that order of precedence
// (later wins). Everything is validated on startup to fail fast.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Input    InputConfig
	Share    ShareConfig
	History  HistoryConfig
	Database DatabaseConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0" toml:"host"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080" toml:"port"`

	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s" toml:"read_timeout"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s" toml:"write_timeout"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s" toml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown, including in-flight share work (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s" toml:"shutdown_timeout"`

	// RequestTimeout is the middleware timeout for requests (default: 30s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"30s" toml:"request_timeout"`
}

// InputConfig limits pasted text.
type InputConfig struct {
	// MaxBytes is the largest paste accepted by the API and CLI (default: 10MB)
	MaxBytes int64 `env:"INPUT_MAX_BYTES" default:"10485760" toml:"max_bytes"`
}

// ShareConfig holds share-token settings.
type ShareConfig struct {
	// MaxPayloadBytes caps the JSON encoded into a token (default: 5MB)
	MaxPayloadBytes int `env:"SHARE_MAX_PAYLOAD_BYTES" default:"5242880" toml:"max_payload_bytes"`

	// MaxDecodedBytes caps how far a token may inflate (default: 16MB)
	MaxDecodedBytes int64 `env:"SHARE_MAX_DECODED_BYTES" default:"16777216" toml:"max_decoded_bytes"`

	// MaxConcurrent is the number of parallel encode/decode operations (default: 8)
	MaxConcurrent int `env:"SHARE_MAX_CONCURRENT" default:"8" toml:"max_concurrent"`

	// MaxWait is how long to wait for a codec slot (default: 5s)
	MaxWait time.Duration `env:"SHARE_MAX_WAIT" default:"5s" toml:"max_wait"`

	// BaseURL prefixes generated share links, e.g. https://sortly.example.
	// Empty means links are built from the request host.
	BaseURL string `env:"SHARE_BASE_URL" toml:"base_url"`
}

// HistoryConfig selects the history backend.
type HistoryConfig struct {
	// Backend is one of memory, file, sqlite, postgres (default: memory)
	Backend string `env:"HISTORY_BACKEND" default:"memory" toml:"backend"`

	// Path is the directory (file) or database file (sqlite) (default: data/history)
	Path string `env:"HISTORY_PATH" default:"data/history" toml:"path"`

	// MaxEntries is how many datasets are remembered per client (default: 30)
	MaxEntries int `env:"HISTORY_MAX_ENTRIES" default:"30" toml:"max_entries"`
}

// DatabaseConfig holds Postgres connection settings, used by the postgres
// history backend.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string.
	// Supports both DATABASE_URL and DB_URL env vars.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" toml:"url"`

	MaxConns        int           `env:"DB_MAX_CONNS" default:"10" toml:"max_conns"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"1" toml:"min_conns"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h" toml:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m" toml:"max_conn_idle_time"`
}

// RateLimitConfig holds per-IP rate limits.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true" toml:"enabled"`

	// RequestsPerMinute is the default rate limit per IP (default: 120)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"120" toml:"requests_per_minute"`

	// ShareLimit is requests per minute for share endpoints (default: 30)
	ShareLimit int `env:"RATE_LIMIT_SHARE" default:"30" toml:"share_limit"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES" toml:"trusted_proxies"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true" toml:"enable_csp"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info" toml:"level"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text" toml:"format"`
}

// History backends.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
