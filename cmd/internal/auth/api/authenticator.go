package authapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"contactbook/cmd/identity"
	"contactbook/cmd/internal/auth/session"
)

// Resolver maps an access token to an identity.
type Resolver interface {
	ResolveCurrentUser(ctx context.Context, accessToken string) (identity.Identity, error)
}

// Authenticator guards handlers that need a signed-in user. It holds no state
// beyond its collaborators.
type Authenticator struct {
	resolver Resolver
	log      *slog.Logger
}

// NewAuthenticator constructs an Authenticator.
func NewAuthenticator(resolver Resolver, log *slog.Logger) *Authenticator {
	if log == nil {
		log = slog.Default()
	}
	return &Authenticator{resolver: resolver, log: log}
}

// Require rejects requests without a valid bearer access token with 401 and
// WWW-Authenticate: Bearer. Otherwise the identity is available to next via CurrentUser.
func (a *Authenticator) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			writeUnauthenticated(w, "Not authenticated")
			return
		}

		u, err := a.resolver.ResolveCurrentUser(r.Context(), raw)
		if err != nil {
			if errors.Is(err, session.ErrUnauthenticated) {
				writeUnauthenticated(w, "Could not validate credentials")
				return
			}
			a.log.Error("auth.resolve.fail", "err", err)
			writeError(w, http.StatusInternalServerError, "server_error", "internal error")
			return
		}

		next.ServeHTTP(w, r.WithContext(withCurrentUser(r.Context(), u)))
	})
}

type currentUserKey struct{}

func withCurrentUser(ctx context.Context, u identity.Identity) context.Context {
	return context.WithValue(ctx, currentUserKey{}, u)
}

// CurrentUser returns the identity attached by Require.
func CurrentUser(ctx context.Context) (identity.Identity, bool) {
	u, ok := ctx.Value(currentUserKey{}).(identity.Identity)
	return u, ok
}
