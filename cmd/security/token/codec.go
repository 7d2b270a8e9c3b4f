package token

import (
	"crypto/sha256"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"
)

const (
	signingKeyInfo = "contactbook/token/sign/v1"
	digestKeyInfo  = "contactbook/token/digest/v1"
	derivedKeyLen  = 32
)

// Clock is the single time source used for issuing and validating tokens.
type Clock func() time.Time

// Claims is the signed claim set.
type Claims struct {
	Scope Scope `json:"scope"`
	jwt.RegisteredClaims
}

// Codec issues and decodes scoped tokens. It is safe for concurrent use.
type Codec struct {
	cfg       Config
	now       Clock
	signKey   []byte
	digestKey []byte
	parser    *jwt.Parser
}

// Option configures a Codec.
type Option func(*Codec)

// WithClock overrides the time source (tests, or sharing one clock across components).
func WithClock(clock Clock) Option {
	return func(c *Codec) {
		if clock != nil {
			c.now = clock
		}
	}
}

// NewCodec derives the signing and digest keys from cfg.Secret.
func NewCodec(cfg Config, opts ...Option) (*Codec, error) {
	if len(cfg.Secret) == 0 {
		return nil, ErrSecretMissing
	}

	c := &Codec{
		cfg: cfg,
		now: func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	var err error
	if c.signKey, err = deriveKey(cfg.Secret, signingKeyInfo); err != nil {
		return nil, err
	}
	if c.digestKey, err = deriveKey(cfg.Secret, digestKeyInfo); err != nil {
		return nil, err
	}

	popts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return c.now() }),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(cfg.Leeway),
	}
	if cfg.Issuer != "" {
		popts = append(popts, jwt.WithIssuer(cfg.Issuer))
	}
	c.parser = jwt.NewParser(popts...)

	return c, nil
}

func deriveKey(secret []byte, info string) ([]byte, error) {
	key := make([]byte, derivedKeyLen)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(info)), key); err != nil {
		return nil, fmt.Errorf("token: derive key: %w", err)
	}
	return key, nil
}

// Now returns the codec clock's current time.
func (c *Codec) Now() time.Time { return c.now() }

// TTL returns the configured lifetime for scope.
func (c *Codec) TTL(scope Scope) time.Duration { return c.cfg.TTL(scope) }

// Issue signs a token for subject with the given scope. A non-positive ttl uses the scope default.
func (c *Codec) Issue(subject string, scope Scope, ttl time.Duration) (string, error) {
	if strings.TrimSpace(subject) == "" {
		return "", ErrEmptySubject
	}
	if !scope.Valid() {
		return "", ErrUnknownScope
	}
	if ttl <= 0 {
		ttl = c.cfg.TTL(scope)
	}

	now := c.now()
	claims := Claims{
		Scope: scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.cfg.Issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.signKey)
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, nil
}

// Parse verifies signature, algorithm, expiry and issuer, and returns the claims.
// It does not check the scope; use Decode for that.
func (c *Codec) Parse(raw string) (Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Claims{}, ErrInvalidToken
	}

	var claims Claims
	_, err := c.parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return c.signKey, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return claims, nil
}

// Decode verifies raw and returns its subject, provided the token carries the expected scope.
func (c *Codec) Decode(raw string, expected Scope) (string, error) {
	claims, err := c.Parse(raw)
	if err != nil {
		return "", err
	}
	if claims.Scope != expected {
		return "", fmt.Errorf("%w: %w: got %q want %q", ErrInvalidToken, ErrScopeMismatch, claims.Scope, expected)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, ErrEmptySubject)
	}
	return claims.Subject, nil
}
