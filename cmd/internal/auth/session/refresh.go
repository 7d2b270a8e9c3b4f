package session

import (
	"context"
	"strings"

	"contactbook/cmd/identity"
	"contactbook/cmd/security/token"
)

// casAttempts bounds the compare-and-set retries used when overwriting a
// refresh digest regardless of its current value (login, logout, revocation).
const casAttempts = 3

// Refresh rotates a refresh token.
//
//   - The token must decode with the refresh scope and name an existing identity.
//   - Its digest must equal the stored one. Anything else is reuse: the stored
//     digest is cleared, so the newest token in the chain stops working too.
//   - The swap old -> new is a single compare-and-set. Losing it means another
//     request rotated the same token first; that is also treated as reuse.
func (s *Service) Refresh(ctx context.Context, raw string) (pair TokenPair, err error) {
	const op = "refresh"
	defer func() { s.metrics.observe(op, err) }()

	raw = strings.TrimSpace(raw)
	email, err := s.tokens.Decode(raw, token.ScopeRefresh)
	if err != nil {
		return TokenPair{}, ErrInvalidToken
	}

	u, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if identity.IsNotFound(err) {
			return TokenPair{}, ErrInvalidToken
		}
		return TokenPair{}, infra(op, err)
	}

	presented := s.tokens.Digest(raw)
	if u.RefreshTokenHash == nil || !token.DigestEqual(*u.RefreshTokenHash, presented) {
		return TokenPair{}, s.revokeChain(ctx, u, "mismatch")
	}

	pair, digest, err := s.issuePair(u.Email)
	if err != nil {
		return TokenPair{}, infra(op, err)
	}

	swapped, err := s.store.SetRefreshToken(ctx, u.ID, &digest, &presented)
	if err != nil {
		return TokenPair{}, infra(op, err)
	}
	if !swapped {
		return TokenPair{}, s.revokeChain(ctx, u, "race")
	}

	s.log.Info("auth.refresh.ok", "user_id", u.ID)
	return pair, nil
}

// revokeChain clears u's stored refresh digest after reuse was detected.
// It returns ErrInvalidToken, or an InfraError if the store could not be updated.
func (s *Service) revokeChain(ctx context.Context, u identity.Identity, reason string) error {
	s.metrics.reuseDetected()
	s.log.Warn("auth.refresh.reuse_detected", "user_id", u.ID, "reason", reason)

	if err := s.replaceRefresh(ctx, u.ID, u.RefreshTokenHash, nil); err != nil {
		if identity.IsNotFound(err) {
			return ErrInvalidToken
		}
		s.log.Error("auth.refresh.revoke_fail", "user_id", u.ID, "err", err)
		return infra("refresh", err)
	}
	return ErrInvalidToken
}

// replaceRefresh sets the stored digest for id to next, whatever it currently is.
// prior is the last value the caller observed; on a lost race the current value
// is re-read and the swap retried.
func (s *Service) replaceRefresh(ctx context.Context, id string, prior, next *string) error {
	for range casAttempts {
		ok, err := s.store.SetRefreshToken(ctx, id, next, prior)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}

		cur, err := s.store.FindByID(ctx, id)
		if err != nil {
			return err
		}
		prior = cur.RefreshTokenHash
	}
	return errCASExhausted
}
