package authapi

import (
	"strings"

	"contactbook/cmd/internal/envx"
)

const defaultMaxBodyBytes = 1 << 20 // 1 MiB

// Config controls auth API behavior.
type Config struct {
	// MaxBodyBytes caps JSON and form request bodies.
	MaxBodyBytes int64

	// PublicBaseURL is the externally visible origin used in confirmation links.
	// When empty it is derived from each request.
	PublicBaseURL string

	// TrustProxy honors X-Forwarded-* headers for client IP and scheme.
	TrustProxy bool
}

// LoadConfigFromEnv loads auth API config from environment variables with safe defaults.
func LoadConfigFromEnv() Config {
	cfg := Config{
		MaxBodyBytes:  envx.Int64("CONTACTBOOK_AUTH_MAX_BODY_BYTES", defaultMaxBodyBytes),
		PublicBaseURL: strings.TrimRight(envx.String("CONTACTBOOK_PUBLIC_BASE_URL", ""), "/"),
		TrustProxy:    envx.Bool("CONTACTBOOK_AUTH_TRUST_PROXY", false),
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	return cfg
}
