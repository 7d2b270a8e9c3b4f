package authapi

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"contactbook/cmd/identity"
	"contactbook/cmd/internal/auth/session"
)

// Service is the auth core behind the HTTP surface. *session.Service implements it.
type Service interface {
	Resolver
	Register(ctx context.Context, in session.RegisterInput) (identity.Identity, error)
	Login(ctx context.Context, email, password string) (session.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (session.TokenPair, error)
	ConfirmEmail(ctx context.Context, token string) (session.ConfirmationResult, error)
	ResendConfirmation(ctx context.Context, email, baseURL string) error
	Logout(ctx context.Context, u identity.Identity) error
}

// Handler wires HTTP auth endpoints to the auth service.
type Handler struct {
	log  *slog.Logger
	cfg  Config
	svc  Service
	auth *Authenticator
}

// NewHandler constructs an auth Handler.
func NewHandler(log *slog.Logger, svc Service, cfg Config) *Handler {
	if log == nil {
		log = slog.Default()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	return &Handler{
		log:  log,
		cfg:  cfg,
		svc:  svc,
		auth: NewAuthenticator(svc, log),
	}
}

// Authenticator returns the middleware guarding authenticated routes.
func (h *Handler) Authenticator() *Authenticator { return h.auth }

// Register wires auth routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("POST /api/auth/signup", h.handleSignup)
	mux.HandleFunc("POST /api/auth/login", h.handleLogin)
	mux.HandleFunc("GET /api/auth/refresh_token", h.handleRefresh)
	mux.HandleFunc("GET /api/auth/confirmed_email/{token}", h.handleConfirmEmail)
	mux.HandleFunc("POST /api/auth/request_email", h.handleRequestEmail)
	mux.Handle("POST /api/auth/logout", h.auth.Require(http.HandlerFunc(h.handleLogout)))

	me := h.auth.Require(http.HandlerFunc(h.handleMe))
	mux.Handle("GET /api/users/me", me)
	mux.Handle("GET /api/users/me/{$}", me)
}

// ---- handlers ----

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}
	req.normalize()
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid_request", err.Error())
		return
	}

	u, err := h.svc.Register(r.Context(), session.RegisterInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
		BaseURL:  h.baseURL(r),
	})
	if err != nil {
		h.writeServiceError(w, "signup", err)
		return
	}

	writeJSON(w, http.StatusCreated, signupResponse{
		User:   toUserResponse(u),
		Detail: "User successfully created. Check your email for confirmation.",
	})
}

// handleLogin accepts the OAuth2 password form: the email travels in "username".
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxBodyBytes)
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_form", "invalid request body")
		return
	}

	email := strings.TrimSpace(r.PostForm.Get("username"))
	password := r.PostForm.Get("password")
	if email == "" || password == "" {
		writeError(w, http.StatusUnprocessableEntity, "invalid_request", "username and password are required")
		return
	}

	pair, err := h.svc.Login(r.Context(), email, password)
	if err != nil {
		if !session.IsInfra(err) {
			h.log.Info("auth.login.reject",
				"outcome", session.Outcome(err),
				"ip", ipString(clientIP(r, h.cfg.TrustProxy)),
			)
		}
		h.writeServiceError(w, "login", err)
		return
	}

	writeJSON(w, http.StatusOK, toTokenResponse(pair))
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	raw := bearerToken(r)
	if raw == "" {
		writeUnauthenticated(w, "Not authenticated")
		return
	}

	pair, err := h.svc.Refresh(r.Context(), raw)
	if err != nil {
		h.writeServiceError(w, "refresh", err)
		return
	}

	writeJSON(w, http.StatusOK, toTokenResponse(pair))
}

func (h *Handler) handleConfirmEmail(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.ConfirmEmail(r.Context(), r.PathValue("token"))
	if err != nil {
		h.writeServiceError(w, "confirm_email", err)
		return
	}

	msg := "Email confirmed"
	if res == session.AlreadyConfirmed {
		msg = "Your email is already confirmed"
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: msg})
}

func (h *Handler) handleRequestEmail(w http.ResponseWriter, r *http.Request) {
	var req requestEmailRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid_request", err.Error())
		return
	}

	if err := h.svc.ResendConfirmation(r.Context(), req.Email, h.baseURL(r)); err != nil {
		h.writeServiceError(w, "request_email", err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Check your email for confirmation."})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		writeUnauthenticated(w, "Not authenticated")
		return
	}

	if err := h.svc.Logout(r.Context(), u); err != nil {
		h.writeServiceError(w, "logout", err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		writeUnauthenticated(w, "Not authenticated")
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(u))
}

func toTokenResponse(p session.TokenPair) tokenResponse {
	return tokenResponse{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		TokenType:    "bearer",
	}
}
