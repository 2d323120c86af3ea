// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Remote   RemoteConfig
	Upload   UploadConfig
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

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 0, no limit)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 3m)
	// Must exceed REMOTE_SAVE_TIMEOUT so saves can report their outcome.
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"3m"`
}

// RemoteConfig holds settings for the external register persistence service.
type RemoteConfig struct {
	// BaseURL is the root of the persistence API (required)
	// Supports both REMOTE_BASE_URL and REGISTER_API_URL env vars
	BaseURL string `env:"REMOTE_BASE_URL" envAlt:"REGISTER_API_URL" required:"true"`

	// APIKey is sent as a bearer token when set
	APIKey string `env:"REMOTE_API_KEY"`

	// Timeout is the per-call HTTP timeout (default: 30s)
	Timeout time.Duration `env:"REMOTE_TIMEOUT" default:"30s"`

	// FetchTimeout bounds loading one register (default: 30s)
	FetchTimeout time.Duration `env:"REMOTE_FETCH_TIMEOUT" default:"30s"`

	// SaveTimeout bounds one save or delete, attachment uploads included (default: 2m)
	SaveTimeout time.Duration `env:"REMOTE_SAVE_TIMEOUT" default:"2m"`
}

// UploadConfig holds limits for spreadsheet imports and attachments.
type UploadConfig struct {
	// MaxFileSize is the maximum import workbook size; accepts KB/MB/GB (default: 10MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"10MB" size:"true"`

	// MaxAttachmentSize is the maximum attachment size; accepts KB/MB/GB (default: 5MB)
	MaxAttachmentSize int64 `env:"UPLOAD_MAX_ATTACHMENT_SIZE" default:"5MB" size:"true"`

	// MaxImportRows is the maximum number of data rows per import (default: 5000)
	MaxImportRows int `env:"UPLOAD_MAX_IMPORT_ROWS" default:"5000"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 300)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"300"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey rejects /api requests without a valid X-API-Key (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted API keys
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
	return c.Host + ":" + strconv.Itoa(c.Port)
}
