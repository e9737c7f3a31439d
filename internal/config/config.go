// Package config provides centralized configuration management for the application.
// It loads configuration from defaults, an optional YAML file and environment
// variables (in that order of precedence) and validates all settings on startup
// to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverDuckDB   = "duckdb"
	DriverMemory   = "memory"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	Upload    UploadConfig    `yaml:"upload"`
	Retention RetentionConfig `yaml:"retention"`
	Report    ReportConfig    `yaml:"report"`
	Rate      RateLimitConfig `yaml:"rate"`
	Security  SecurityConfig  `yaml:"security"`
	Events    EventsConfig    `yaml:"events"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0" yaml:"host"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080" yaml:"port"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s" yaml:"read_timeout"`

	// WriteTimeout is the maximum duration for writing a response (default: 60s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s" yaml:"write_timeout"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s" yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s" yaml:"shutdown_timeout"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s" yaml:"request_timeout"`
}

// StoreConfig selects and configures the record store.
type StoreConfig struct {
	// Driver is one of postgres, duckdb, memory (default: postgres)
	Driver string `env:"STORE_DRIVER" default:"postgres" yaml:"driver"`

	// URL is the PostgreSQL connection string, required for the postgres driver.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" yaml:"url"`

	// DuckDBPath is the database file for the duckdb driver; empty means in-memory
	DuckDBPath string `env:"DUCKDB_PATH" default:"data/equipment.duckdb" yaml:"duckdb_path"`

	// MaxConns is the maximum number of connections in the pool (default: 20)
	MaxConns int `env:"DB_MAX_CONNS" default:"20" yaml:"max_conns"`

	// MinConns is the minimum number of connections to keep open (default: 2)
	MinConns int `env:"DB_MIN_CONNS" default:"2" yaml:"min_conns"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h" yaml:"max_conn_lifetime"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m" yaml:"max_conn_idle_time"`
}

// UploadConfig holds CSV upload processing settings.
type UploadConfig struct {
	// Dir is where uploaded source files are kept (default: uploads)
	Dir string `env:"UPLOAD_DIR" default:"uploads" yaml:"dir"`

	// MaxFileSize is the maximum allowed file size in bytes (default: 100MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"104857600" yaml:"max_file_size"`

	// MaxConcurrent is the maximum number of parallel ingestions (default: 5)
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" default:"5" yaml:"max_concurrent"`

	// MaxWaitTime is how long to wait for an ingestion slot (default: 30s)
	MaxWaitTime time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"30s" yaml:"max_wait_time"`

	// Timeout is the maximum duration for a single ingestion (default: 2m)
	Timeout time.Duration `env:"UPLOAD_TIMEOUT" default:"2m" yaml:"timeout"`
}

// RetentionConfig holds batch retention and source file sweep settings.
type RetentionConfig struct {
	// MaxBatches is how many of the most recent batches are kept (default: 5)
	MaxBatches int `env:"RETENTION_MAX_BATCHES" default:"5" yaml:"max_batches"`

	// SweepInterval is how often orphaned source files are swept (default: 1h)
	SweepInterval time.Duration `env:"RETENTION_SWEEP_INTERVAL" default:"1h" yaml:"sweep_interval"`

	// OrphanGrace is the minimum age of an unreferenced file before removal (default: 10m)
	OrphanGrace time.Duration `env:"RETENTION_ORPHAN_GRACE" default:"10m" yaml:"orphan_grace"`
}

// ReportConfig holds report rendering settings.
type ReportConfig struct {
	// MaxDetailRows caps the equipment detail table (default: 100)
	MaxDetailRows int `env:"REPORT_MAX_DETAIL_ROWS" default:"100" yaml:"max_detail_rows"`

	// Timezone is the IANA zone used for report timestamps (default: UTC)
	Timezone string `env:"REPORT_TIMEZONE" default:"UTC" yaml:"timezone"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true" yaml:"enabled"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100" yaml:"requests_per_minute"`

	// UploadLimit is requests per minute for the upload endpoint (default: 10)
	UploadLimit int `env:"RATE_LIMIT_UPLOAD" default:"10" yaml:"upload_limit"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES" yaml:"trusted_proxies"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true" yaml:"enable_csp"`

	// RequireAPIKey gates batch, report and export routes behind X-API-Key (default: true).
	// Set REQUIRE_API_KEY=false to open them for local development.
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"true" yaml:"require_api_key"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS" yaml:"api_keys"`
}

// EventsConfig holds batch lifecycle event publishing settings.
// Publishing is disabled when no brokers are configured.
type EventsConfig struct {
	Brokers []string `env:"EVENTS_KAFKA_BROKERS" yaml:"brokers"`

	Topic string `env:"EVENTS_KAFKA_TOPIC" default:"equipment.batches" yaml:"topic"`

	// WriteTimeout bounds a single publish (default: 5s)
	WriteTimeout time.Duration `env:"EVENTS_WRITE_TIMEOUT" default:"5s" yaml:"write_timeout"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info" yaml:"level"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text" yaml:"format"`
}

// Enabled reports whether events should be published.
func (c *EventsConfig) Enabled() bool {
	return len(c.Brokers) > 0
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// Location resolves the report timezone, falling back to UTC.
func (c *ReportConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
