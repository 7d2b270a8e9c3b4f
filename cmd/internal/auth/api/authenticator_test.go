package authapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"contactbook/cmd/identity"
	"contactbook/cmd/internal/auth/session"
)

type stubResolver struct {
	u   identity.Identity
	err error
	got string
}

func (s *stubResolver) ResolveCurrentUser(_ context.Context, raw string) (identity.Identity, error) {
	s.got = raw
	return s.u, s.err
}

func TestAuthenticator_Require(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		resolver   *stubResolver
		wantStatus int
		wantNext   bool
		wantChall  bool
	}{
		{
			name:       "missing header",
			resolver:   &stubResolver{},
			wantStatus: http.StatusUnauthorized,
			wantChall:  true,
		},
		{
			name:       "wrong scheme",
			header:     "Basic abc",
			resolver:   &stubResolver{},
			wantStatus: http.StatusUnauthorized,
			wantChall:  true,
		},
		{
			name:       "rejected token",
			header:     "Bearer abc",
			resolver:   &stubResolver{err: session.ErrUnauthenticated},
			wantStatus: http.StatusUnauthorized,
			wantChall:  true,
		},
		{
			name:       "store failure",
			header:     "Bearer abc",
			resolver:   &stubResolver{err: session.InfraError{Op: "resolve", Err: errors.New("db down")}},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "ok",
			header:     "bearer  abc ",
			resolver:   &stubResolver{u: identity.Identity{ID: "u1", Email: "a@x.com"}},
			wantStatus: http.StatusOK,
			wantNext:   true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				u, ok := CurrentUser(r.Context())
				assert.True(t, ok)
				assert.Equal(t, "u1", u.ID)
				w.WriteHeader(http.StatusOK)
			})

			a := NewAuthenticator(tc.resolver, slog.New(slog.DiscardHandler))
			req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			a.Require(next).ServeHTTP(rr, req)

			assert.Equal(t, tc.wantStatus, rr.Code)
			assert.Equal(t, tc.wantNext, called)
			if tc.wantChall {
				assert.Equal(t, "Bearer", rr.Header().Get("WWW-Authenticate"))
			}
			if tc.wantNext {
				assert.Equal(t, "abc", tc.resolver.got)
			}
		})
	}
}

func TestCurrentUser_Absent(t *testing.T) {
	_, ok := CurrentUser(context.Background())
	assert.False(t, ok)
}
