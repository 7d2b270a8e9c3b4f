package identity

import (
	"strings"
	"time"
)

// Identity is an account record.
type Identity struct {
	ID       string
	Email    string
	Username string

	PasswordHash string
	Confirmed    bool

	// RefreshTokenHash is the digest of the only refresh token currently accepted
	// for this identity. nil means no refresh chain is active.
	RefreshTokenHash *string

	AvatarURL *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateInput describes a new, unconfirmed identity.
type CreateInput struct {
	Email        string
	Username     string
	PasswordHash string
	AvatarURL    *string
	Now          time.Time
}

// NormalizeEmail trims surrounding whitespace. Emails are otherwise case-sensitive as stored.
func NormalizeEmail(s string) string {
	return strings.TrimSpace(s)
}

func (in CreateInput) validate(op string) (CreateInput, error) {
	in.Email = NormalizeEmail(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	switch {
	case in.Email == "":
		return in, invalid(op, "email is required")
	case in.Username == "":
		return in, invalid(op, "username is required")
	case strings.TrimSpace(in.PasswordHash) == "":
		return in, invalid(op, "password hash is required")
	}
	if in.Now.IsZero() {
		in.Now = time.Now().UTC()
	}
	return in, nil
}

func cloneStr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func sameStr(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
