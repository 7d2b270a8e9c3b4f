package session

import (
	"fmt"
	"os"
	"strings"
	"time"

	"contactbook/cmd/internal/envx"
	"contactbook/cmd/security/token"
)

// Config is the immutable runtime configuration of the auth core.
type Config struct {
	// Secret is the process-wide signing secret. The codec derives its keys from it.
	Secret []byte

	// Issuer is the value set in the "iss" claim and enforced on decode.
	Issuer string

	AccessTTL  time.Duration
	RefreshTTL time.Duration
	EmailTTL   time.Duration

	// ClockSkew tolerates drift when validating exp/iat.
	ClockSkew time.Duration
}

// DefaultConfig returns the defaults. Secret is left empty and must be provided.
func DefaultConfig() Config {
	return Config{
		Issuer:     "contactbook",
		AccessTTL:  token.DefaultAccessTTL,
		RefreshTTL: token.DefaultRefreshTTL,
		EmailTTL:   token.DefaultEmailTTL,
	}
}

// TokenConfig returns the codec configuration derived from c.
func (c Config) TokenConfig() token.Config {
	return token.Config{
		Secret:     append([]byte(nil), c.Secret...),
		Issuer:     c.Issuer,
		AccessTTL:  c.AccessTTL,
		RefreshTTL: c.RefreshTTL,
		EmailTTL:   c.EmailTTL,
		Leeway:     c.ClockSkew,
	}
}

// LoadConfigFromEnv loads the auth configuration from environment variables.
//
// Required:
//   - CONTACTBOOK_SECRET_KEY
//
// Optional (durations must be valid Go duration strings):
//   - CONTACTBOOK_AUTH_ISSUER
//   - CONTACTBOOK_AUTH_ACCESS_TTL
//   - CONTACTBOOK_AUTH_REFRESH_TTL
//   - CONTACTBOOK_AUTH_EMAIL_TTL
//   - CONTACTBOOK_AUTH_CLOCK_SKEW
//
// Returns an error wrapping ErrConfig if configuration is invalid.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := strings.TrimSpace(os.Getenv("CONTACTBOOK_AUTH_ISSUER")); v != "" {
		cfg.Issuer = v
	}

	ttls := []struct {
		key string
		dst *time.Duration
	}{
		{"CONTACTBOOK_AUTH_ACCESS_TTL", &cfg.AccessTTL},
		{"CONTACTBOOK_AUTH_REFRESH_TTL", &cfg.RefreshTTL},
		{"CONTACTBOOK_AUTH_EMAIL_TTL", &cfg.EmailTTL},
	}
	for _, tt := range ttls {
		d, ok, err := envx.LookupDuration(tt.key)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %w", ErrConfig, err)
		}
		if !ok {
			continue
		}
		if d <= 0 {
			return Config{}, fmt.Errorf("%w: %s must be positive", ErrConfig, tt.key)
		}
		*tt.dst = d
	}

	d, ok, err := envx.LookupDuration("CONTACTBOOK_AUTH_CLOCK_SKEW")
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	if ok {
		if d < 0 || d > 5*time.Minute {
			return Config{}, fmt.Errorf("%w: CONTACTBOOK_AUTH_CLOCK_SKEW out of range", ErrConfig)
		}
		cfg.ClockSkew = d
	}

	secret := os.Getenv("CONTACTBOOK_SECRET_KEY")
	if strings.TrimSpace(secret) == "" {
		return Config{}, fmt.Errorf("%w: CONTACTBOOK_SECRET_KEY is required", ErrConfig)
	}
	cfg.Secret = []byte(secret)

	// Refresh tokens must outlive the access tokens they renew.
	if cfg.RefreshTTL <= cfg.AccessTTL {
		return Config{}, fmt.Errorf("%w: refresh ttl must exceed access ttl", ErrConfig)
	}

	return cfg, nil
}
