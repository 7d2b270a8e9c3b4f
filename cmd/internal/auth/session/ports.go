package session

import (
	"context"
	"time"

	"contactbook/cmd/internal/notify"
	"contactbook/cmd/security/token"
)

// PasswordHasher is the subset of password.Hasher the service needs.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) bool
	NeedsRehash(encoded string) bool
}

// TokenCodec is the subset of token.Codec the service needs.
type TokenCodec interface {
	Issue(subject string, scope token.Scope, ttl time.Duration) (string, error)
	Decode(raw string, expected token.Scope) (string, error)
	Digest(raw string) string
}

// Notifier delivers confirmation messages. Failures never fail the calling operation.
type Notifier interface {
	SendConfirmation(ctx context.Context, msg notify.ConfirmationMessage) error
}
