// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Upload   UploadConfig
	Roster   RosterConfig
	Project  ProjectConfig
	Archive  ArchiveConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`

	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds graceful shutdown, including in-flight uploads (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// UploadConfig holds roster upload settings.
type UploadConfig struct {
	// MaxFileSize is the maximum spreadsheet size in bytes (default: 10MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"10485760"`

	// MaxConcurrent is the maximum number of parallel decodes (default: 5)
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" default:"5"`

	// MaxWaitTime is how long to wait for a decode slot (default: 30s)
	MaxWaitTime time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"30s"`

	// ResultTTL is how long accepted rosters stay retrievable by upload id (default: 30m)
	ResultTTL time.Duration `env:"UPLOAD_RESULT_TTL" default:"30m"`

	// ResultCleanupInterval is how often expired rosters are purged (default: 5m)
	ResultCleanupInterval time.Duration `env:"UPLOAD_RESULT_CLEANUP_INTERVAL" default:"5m"`
}

// RosterConfig holds roster normalization settings.
type RosterConfig struct {
	// DefaultScore replaces missing or unparseable academic scores (default: 500).
	// Zero means "unset" and also yields 500; a default score of 0 cannot be configured.
	DefaultScore float64 `env:"ROSTER_DEFAULT_SCORE" default:"500"`

	// BehaviorLabels are the accepted labels of encoded behaviour values.
	// Empty uses the built-in template labels.
	BehaviorLabels []string `env:"ROSTER_BEHAVIOR_LABELS"`
}

// ProjectConfig holds project state settings.
type ProjectConfig struct {
	// SettingsFile is an optional YAML file with the initial allocator settings
	SettingsFile string `env:"PROJECT_SETTINGS_FILE"`

	// MaxBodySize is the maximum project document size in bytes (default: 20MB)
	MaxBodySize int64 `env:"PROJECT_MAX_BODY_SIZE" default:"20971520"`
}

// ArchiveConfig holds named project storage settings.
type ArchiveConfig struct {
	// Driver is none, postgres or sqlite (default: none)
	Driver string `env:"ARCHIVE_DRIVER" default:"none"`

	// URL is the PostgreSQL connection string, required for the postgres driver
	URL string `env:"ARCHIVE_DATABASE_URL" envAlt:"DATABASE_URL"`

	// Path is the database file for the sqlite driver (default: data/projects.db)
	Path string `env:"ARCHIVE_SQLITE_PATH" default:"data/projects.db"`

	MaxConns        int           `env:"ARCHIVE_MAX_CONNS" default:"5"`
	MinConns        int           `env:"ARCHIVE_MIN_CONNS" default:"1"`
	MaxConnLifetime time.Duration `env:"ARCHIVE_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"ARCHIVE_MAX_CONN_IDLE_TIME" default:"30m"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// AllowedOrigins enables CORS for the listed origins (empty: same-origin only)
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS"`
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
