package app

import (
	"errors"
	"fmt"

	"contactbook/cmd/internal/auth/session"
)

// MinProductionSecretBytes is the shortest CONTACTBOOK_SECRET_KEY accepted in production.
const MinProductionSecretBytes = 32

// ErrSecurityPolicy is wrapped by every ValidateSecurityConfig failure.
var ErrSecurityPolicy = errors.New("security policy")

// ValidateSecurityConfig enforces the startup security policy.
//
// Development accepts any non-empty secret. Production requires a secret of at least
// MinProductionSecretBytes bytes (measured in bytes, the codec keys off raw bytes) and a
// database, since the in-memory store loses every account on restart.
func ValidateSecurityConfig(cfg Config, sess session.Config) error {
	if len(sess.Secret) == 0 {
		return fmt.Errorf("%w: CONTACTBOOK_SECRET_KEY is missing", ErrSecurityPolicy)
	}
	if !cfg.Production() {
		return nil
	}
	if len(sess.Secret) < MinProductionSecretBytes {
		return fmt.Errorf("%w: CONTACTBOOK_SECRET_KEY is too short (min %d bytes)", ErrSecurityPolicy, MinProductionSecretBytes)
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("%w: CONTACTBOOK_DATABASE_URL is required in production", ErrSecurityPolicy)
	}
	return nil
}
