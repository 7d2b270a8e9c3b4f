package token

import "errors"

// Public, stable errors for callers.
var (
	// ErrInvalidToken wraps every decode failure: bad signature, wrong algorithm,
	// expiry, issuer mismatch, scope mismatch, or an empty subject.
	ErrInvalidToken = errors.New("invalid token")

	// ErrScopeMismatch is wrapped together with ErrInvalidToken when the scope differs.
	ErrScopeMismatch = errors.New("token scope mismatch")

	ErrSecretMissing = errors.New("token secret missing")
	ErrUnknownScope  = errors.New("unknown token scope")
	ErrEmptySubject  = errors.New("empty token subject")
)
