package authapi

import (
	"errors"
	"net/http"
	"strings"

	"contactbook/cmd/internal/auth/session"
)

// writeServiceError maps session errors to the HTTP envelope. Anything outside
// the session taxonomy is logged and reported as a 500 without detail.
func (h *Handler) writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, session.ErrAccountExists):
		writeError(w, http.StatusConflict, "account_exists", "Account already exists")
	case errors.Is(err, session.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password")
	case errors.Is(err, session.ErrEmailNotConfirmed):
		writeError(w, http.StatusUnauthorized, "email_not_confirmed", "Email not confirmed")
	case errors.Is(err, session.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "invalid_token", "Invalid token")
	case errors.Is(err, session.ErrVerification):
		writeError(w, http.StatusBadRequest, "verification_error", "Verification error")
	case errors.Is(err, session.ErrUnauthenticated):
		writeUnauthenticated(w, "Could not validate credentials")
	case errors.Is(err, session.ErrInvalidInput):
		writeError(w, http.StatusUnprocessableEntity, "invalid_request", inputDetail(err))
	default:
		h.log.Error("auth."+op+".fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
	}
}

func inputDetail(err error) string {
	msg := strings.TrimPrefix(err.Error(), session.ErrInvalidInput.Error()+": ")
	if msg == "" {
		return "invalid request"
	}
	return msg
}
