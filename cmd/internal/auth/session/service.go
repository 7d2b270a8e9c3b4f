package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"contactbook/cmd/identity"
	"contactbook/cmd/internal/notify"
	"contactbook/cmd/security/password"
	"contactbook/cmd/security/token"
)

// dummyPassword is hashed once and verified against when a login names an
// unknown email, so both paths pay for one hash verification.
const dummyPassword = "contactbook-timing-equalizer"

// Service implements the account and token lifecycle.
type Service struct {
	store    identity.Store
	hasher   PasswordHasher
	tokens   TokenCodec
	notifier Notifier

	log     *slog.Logger
	metrics *Metrics

	dummyHash func() string
}

// TokenPair is the result of Login and Refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// RegisterInput is the signup payload.
type RegisterInput struct {
	Email    string
	Username string
	Password string

	// BaseURL is the externally visible origin used for the confirmation link.
	BaseURL string
}

// ConfirmationResult is the outcome of a successful ConfirmEmail.
type ConfirmationResult int

const (
	// Confirmed means this call moved the account from unconfirmed to confirmed.
	Confirmed ConfirmationResult = iota + 1
	// AlreadyConfirmed means the account was confirmed before this call.
	AlreadyConfirmed
)

func (r ConfirmationResult) String() string {
	switch r {
	case Confirmed:
		return "confirmed"
	case AlreadyConfirmed:
		return "already_confirmed"
	default:
		return "unknown"
	}
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithMetrics sets the outcome counters.
func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService wires the service. notifier may be nil, in which case confirmation
// tokens are only logged at debug level.
func NewService(store identity.Store, hasher PasswordHasher, tokens TokenCodec, notifier Notifier, opts ...Option) *Service {
	s := &Service{
		store:    store,
		hasher:   hasher,
		tokens:   tokens,
		notifier: notifier,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.dummyHash = sync.OnceValue(func() string {
		h, err := s.hasher.Hash(dummyPassword)
		if err != nil {
			s.log.Error("auth.dummy_hash.fail", "err", err)
			return ""
		}
		return h
	})
	return s
}

// Register creates an unconfirmed account and sends its confirmation token.
func (s *Service) Register(ctx context.Context, in RegisterInput) (u identity.Identity, err error) {
	const op = "register"
	defer func() { s.metrics.observe(op, err) }()

	email := identity.NormalizeEmail(in.Email)
	username := strings.TrimSpace(in.Username)
	switch {
	case email == "":
		return identity.Identity{}, invalidInput("email is required")
	case username == "":
		return identity.Identity{}, invalidInput("username is required")
	}

	_, err = s.store.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return identity.Identity{}, ErrAccountExists
	case !identity.IsNotFound(err):
		return identity.Identity{}, infra(op, err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		if password.IsPolicyViolation(err) {
			return identity.Identity{}, invalidInput(err.Error())
		}
		return identity.Identity{}, infra(op, err)
	}

	avatar := gravatarURL(email)
	u, err = s.store.Create(ctx, identity.CreateInput{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		AvatarURL:    &avatar,
	})
	switch {
	case identity.IsConflict(err):
		return identity.Identity{}, ErrAccountExists
	case identity.IsInvalidInput(err):
		return identity.Identity{}, invalidInput(err.Error())
	case err != nil:
		return identity.Identity{}, infra(op, err)
	}

	s.log.Info("auth.register.ok", "user_id", u.ID)
	s.sendConfirmation(ctx, u, in.BaseURL)
	return u, nil
}

// Login verifies credentials and starts a new refresh chain, replacing any previous one.
func (s *Service) Login(ctx context.Context, email, pw string) (pair TokenPair, err error) {
	const op = "login"
	defer func() { s.metrics.observe(op, err) }()

	u, err := s.store.FindByEmail(ctx, identity.NormalizeEmail(email))
	if err != nil {
		if identity.IsNotFound(err) {
			_ = s.hasher.Verify(pw, s.dummyHash())
			return TokenPair{}, ErrInvalidCredentials
		}
		return TokenPair{}, infra(op, err)
	}

	if !u.Confirmed {
		return TokenPair{}, ErrEmailNotConfirmed
	}
	if !s.hasher.Verify(pw, u.PasswordHash) {
		s.log.Info("auth.login.fail", "user_id", u.ID)
		return TokenPair{}, ErrInvalidCredentials
	}

	if s.hasher.NeedsRehash(u.PasswordHash) {
		s.rehash(ctx, u, pw)
	}

	pair, digest, err := s.issuePair(u.Email)
	if err != nil {
		return TokenPair{}, infra(op, err)
	}
	if err := s.replaceRefresh(ctx, u.ID, u.RefreshTokenHash, &digest); err != nil {
		return TokenPair{}, infra(op, err)
	}

	s.log.Info("auth.login.ok", "user_id", u.ID)
	return pair, nil
}

func (s *Service) rehash(ctx context.Context, u identity.Identity, pw string) {
	h, err := s.hasher.Hash(pw)
	if err != nil {
		// Legacy passwords may predate the current policy; keep the old hash.
		s.log.Debug("auth.rehash.skip", "user_id", u.ID, "err", err)
		return
	}
	if err := s.store.UpdatePasswordHash(ctx, u.ID, h); err != nil {
		s.log.Warn("auth.rehash.fail", "user_id", u.ID, "err", err)
		return
	}
	s.log.Info("auth.rehash.ok", "user_id", u.ID)
}

// ConfirmEmail confirms the account named by an email-scoped token. Confirming twice is not an error.
func (s *Service) ConfirmEmail(ctx context.Context, raw string) (res ConfirmationResult, err error) {
	const op = "confirm_email"
	defer func() { s.metrics.observe(op, err) }()

	email, err := s.tokens.Decode(raw, token.ScopeEmail)
	if err != nil {
		return 0, ErrInvalidToken
	}

	u, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if identity.IsNotFound(err) {
			return 0, ErrVerification
		}
		return 0, infra(op, err)
	}
	if u.Confirmed {
		return AlreadyConfirmed, nil
	}

	flipped, err := s.store.MarkConfirmed(ctx, u.ID)
	if err != nil {
		if identity.IsNotFound(err) {
			return 0, ErrVerification
		}
		return 0, infra(op, err)
	}
	if !flipped {
		return AlreadyConfirmed, nil
	}

	s.log.Info("auth.confirm.ok", "user_id", u.ID)
	return Confirmed, nil
}

// ResolveCurrentUser maps an access token to its identity.
func (s *Service) ResolveCurrentUser(ctx context.Context, raw string) (u identity.Identity, err error) {
	const op = "resolve"
	defer func() {
		// Resolution runs on every authenticated request; only failures are counted.
		if err != nil {
			s.metrics.observe(op, err)
		}
	}()

	email, err := s.tokens.Decode(raw, token.ScopeAccess)
	if err != nil {
		return identity.Identity{}, ErrUnauthenticated
	}

	u, err = s.store.FindByEmail(ctx, email)
	if err != nil {
		if identity.IsNotFound(err) {
			return identity.Identity{}, ErrUnauthenticated
		}
		return identity.Identity{}, infra(op, err)
	}
	return u, nil
}

// ResendConfirmation sends a fresh confirmation token to an unconfirmed account.
// Unknown and already-confirmed emails succeed silently.
func (s *Service) ResendConfirmation(ctx context.Context, email, baseURL string) (err error) {
	const op = "resend_confirmation"
	defer func() { s.metrics.observe(op, err) }()

	email = identity.NormalizeEmail(email)
	if email == "" {
		return invalidInput("email is required")
	}

	u, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if identity.IsNotFound(err) {
			return nil
		}
		return infra(op, err)
	}
	if u.Confirmed {
		return nil
	}

	s.sendConfirmation(ctx, u, baseURL)
	return nil
}

// Logout ends u's refresh chain. Outstanding access tokens stay valid until they expire.
func (s *Service) Logout(ctx context.Context, u identity.Identity) (err error) {
	const op = "logout"
	defer func() { s.metrics.observe(op, err) }()

	if err := s.replaceRefresh(ctx, u.ID, u.RefreshTokenHash, nil); err != nil {
		if identity.IsNotFound(err) {
			return ErrUnauthenticated
		}
		return infra(op, err)
	}
	s.log.Info("auth.logout.ok", "user_id", u.ID)
	return nil
}

func (s *Service) sendConfirmation(ctx context.Context, u identity.Identity, baseURL string) {
	tok, err := s.tokens.Issue(u.Email, token.ScopeEmail, 0)
	if err != nil {
		s.log.Error("auth.confirmation.issue_fail", "user_id", u.ID, "err", err)
		return
	}

	msg := notify.ConfirmationMessage{
		Email:    u.Email,
		Username: u.Username,
		Token:    tok,
		BaseURL:  baseURL,
	}
	if s.notifier == nil {
		s.log.Debug("auth.confirmation.no_notifier", "user_id", u.ID)
		return
	}
	if err := s.notifier.SendConfirmation(ctx, msg); err != nil {
		s.log.Warn("auth.confirmation.send_fail", "user_id", u.ID, "err", err)
	}
}

func (s *Service) issuePair(email string) (TokenPair, string, error) {
	access, err := s.tokens.Issue(email, token.ScopeAccess, 0)
	if err != nil {
		return TokenPair{}, "", err
	}
	refresh, err := s.tokens.Issue(email, token.ScopeRefresh, 0)
	if err != nil {
		return TokenPair{}, "", err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, s.tokens.Digest(refresh), nil
}

var errCASExhausted = errors.New("refresh token update kept losing to concurrent writers")
