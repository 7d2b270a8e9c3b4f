package token

import "time"

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
	DefaultEmailTTL   = 7 * 24 * time.Hour
)

// Config is the immutable codec configuration.
type Config struct {
	// Secret is the process-wide key material. Required.
	Secret []byte

	// Issuer is written to "iss" and enforced on decode when non-empty.
	Issuer string

	AccessTTL  time.Duration
	RefreshTTL time.Duration
	EmailTTL   time.Duration

	// Leeway tolerates clock skew on exp/iat validation.
	Leeway time.Duration
}

// TTL returns the configured lifetime for scope, falling back to the package defaults.
func (c Config) TTL(scope Scope) time.Duration {
	d, def := c.EmailTTL, DefaultEmailTTL
	switch scope {
	case ScopeAccess:
		d, def = c.AccessTTL, DefaultAccessTTL
	case ScopeRefresh:
		d, def = c.RefreshTTL, DefaultRefreshTTL
	}
	if d <= 0 {
		return def
	}
	return d
}
