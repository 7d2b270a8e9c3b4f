package app

import (
	"strings"
	"time"

	"contactbook/cmd/internal/envx"
)

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	// Env is "development" or "production". Production tightens ValidateSecurityConfig.
	Env string

	HTTPAddr  string
	LogLevel  string
	LogFormat string

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	MaxHeaderBytes    int

	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	// DBAutoMigrate applies the embedded migrations when the pool is opened.
	DBAutoMigrate bool

	// If true, /readyz returns 503 unless the DB is configured and reachable.
	ReadinessRequireDB bool

	MetricsEnabled bool
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		Env: strings.ToLower(envx.String("CONTACTBOOK_ENV", "development")),

		HTTPAddr:  envx.String("CONTACTBOOK_HTTP_ADDR", "0.0.0.0:8000"),
		LogLevel:  envx.String("CONTACTBOOK_LOG_LEVEL", "info"),
		LogFormat: strings.ToLower(envx.String("CONTACTBOOK_LOG_FORMAT", "json")),

		ReadHeaderTimeout: envx.Duration("CONTACTBOOK_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       envx.Duration("CONTACTBOOK_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      envx.Duration("CONTACTBOOK_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       envx.Duration("CONTACTBOOK_HTTP_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout:   envx.Duration("CONTACTBOOK_HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),

		MaxHeaderBytes: envx.Int("CONTACTBOOK_HTTP_MAX_HEADER_BYTES", 1<<20),

		DatabaseURL:   envx.String("CONTACTBOOK_DATABASE_URL", ""),
		DBMaxConns:    envx.Int32("CONTACTBOOK_DB_MAX_CONNS", 10),
		DBMinConns:    envx.Int32("CONTACTBOOK_DB_MIN_CONNS", 0),
		DBAutoMigrate: envx.Bool("CONTACTBOOK_DB_AUTO_MIGRATE", true),

		ReadinessRequireDB: envx.Bool("CONTACTBOOK_READINESS_REQUIRE_DB", false),

		MetricsEnabled: envx.Bool("CONTACTBOOK_METRICS_ENABLED", true),
	}
}

// Production reports whether the strict production policy applies.
func (c Config) Production() bool {
	return c.Env == "production" || c.Env == "prod"
}
