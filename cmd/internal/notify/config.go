package notify

import (
	"time"

	"contactbook/cmd/internal/envx"
)

// Config sizes the async dispatcher.
type Config struct {
	Workers int
	Timeout time.Duration
}

// LoadConfigFromEnv reads CONTACTBOOK_NOTIFY_WORKERS and CONTACTBOOK_NOTIFY_TIMEOUT.
func LoadConfigFromEnv() Config {
	cfg := Config{
		Workers: envx.Int("CONTACTBOOK_NOTIFY_WORKERS", DefaultWorkers),
		Timeout: envx.Duration("CONTACTBOOK_NOTIFY_TIMEOUT", DefaultTimeout),
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return cfg
}

// Options returns the AsyncOptions for cfg.
func (c Config) Options() []AsyncOption {
	return []AsyncOption{WithWorkers(c.Workers), WithTimeout(c.Timeout)}
}
