package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contactbook/cmd/identity"
	"contactbook/cmd/internal/auth/session"
	"contactbook/cmd/internal/notify"
	"contactbook/cmd/security/password"
	"contactbook/cmd/security/token"
)

type captureNotifier struct {
	mu   sync.Mutex
	msgs []notify.ConfirmationMessage
}

func (c *captureNotifier) SendConfirmation(_ context.Context, msg notify.ConfirmationMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
	return nil
}

func (c *captureNotifier) lastToken(t *testing.T) string {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	require.NotEmpty(t, c.msgs)
	return c.msgs[len(c.msgs)-1].Token
}

type testServer struct {
	srv      *httptest.Server
	codec    *token.Codec
	notifier *captureNotifier
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := session.DefaultConfig()
	cfg.Secret = []byte("http-test-secret-http-test-secret")
	codec, err := token.NewCodec(cfg.TokenConfig())
	require.NoError(t, err)

	pcfg := password.DefaultConfig()
	pcfg.Params.MemoryKiB = 8 * 1024
	pcfg.Params.Iterations = 1
	pcfg.Params.Parallelism = 1

	log := slog.New(slog.DiscardHandler)
	n := &captureNotifier{}
	svc := session.NewService(identity.NewMemoryStore(), password.NewHasher(pcfg), codec, n, session.WithLogger(log))

	mux := http.NewServeMux()
	NewHandler(log, svc, Config{PublicBaseURL: "https://cb.example.com"}).Register(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return &testServer{srv: srv, codec: codec, notifier: n}
}

func (ts *testServer) do(t *testing.T, method, path, bearer string, body []byte, contentType string) (*http.Response, map[string]any) {
	t.Helper()

	req, err := http.NewRequest(method, ts.srv.URL+path, bytes.NewReader(body))
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := ts.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func (ts *testServer) signup(t *testing.T, username, email, pw string) (*http.Response, map[string]any) {
	t.Helper()
	b, err := json.Marshal(map[string]string{"username": username, "email": email, "password": pw})
	require.NoError(t, err)
	return ts.do(t, http.MethodPost, "/api/auth/signup", "", b, "application/json")
}

func (ts *testServer) login(t *testing.T, email, pw string) (*http.Response, map[string]any) {
	t.Helper()
	form := url.Values{"username": {email}, "password": {pw}}
	return ts.do(t, http.MethodPost, "/api/auth/login", "", []byte(form.Encode()), "application/x-www-form-urlencoded")
}

func errCode(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func TestAuthFlow_SignupConfirmLoginMeRefreshReuse(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.signup(t, "alice", "a@x.com", "secret1")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "User successfully created. Check your email for confirmation.", body["detail"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "a@x.com", user["email"])
	assert.Equal(t, false, user["confirmed"])
	assert.NotContains(t, user, "password_hash")

	resp, body = ts.signup(t, "alice", "a@x.com", "secret1")
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "account_exists", errCode(body))

	resp, body = ts.login(t, "a@x.com", "secret1")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "email_not_confirmed", errCode(body))

	confirmPath := "/api/auth/confirmed_email/" + ts.notifier.lastToken(t)
	resp, body = ts.do(t, http.MethodGet, confirmPath, "", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Email confirmed", body["message"])

	resp, body = ts.do(t, http.MethodGet, confirmPath, "", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Your email is already confirmed", body["message"])

	resp, body = ts.login(t, "a@x.com", "wrong-password")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "invalid_credentials", errCode(body))

	resp, body = ts.login(t, "a@x.com", "secret1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "bearer", body["token_type"])
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	at1 := body["access_token"].(string)
	rt1 := body["refresh_token"].(string)

	resp, body = ts.do(t, http.MethodGet, "/api/users/me", at1, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "alice", body["username"])
	assert.Equal(t, true, body["confirmed"])

	resp, _ = ts.do(t, http.MethodGet, "/api/users/me/", at1, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = ts.do(t, http.MethodGet, "/api/users/me", rt1, nil, "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode, "refresh token must not act as access token")
	assert.Equal(t, "Bearer", resp.Header.Get("WWW-Authenticate"))
	assert.Equal(t, "unauthenticated", errCode(body))

	resp, body = ts.do(t, http.MethodGet, "/api/auth/refresh_token", rt1, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rt2 := body["refresh_token"].(string)
	assert.NotEqual(t, rt1, rt2)

	resp, body = ts.do(t, http.MethodGet, "/api/auth/refresh_token", rt1, nil, "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "invalid_token", errCode(body))

	resp, _ = ts.do(t, http.MethodGet, "/api/auth/refresh_token", rt2, nil, "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode, "reuse must revoke the whole chain")
}

func TestLogout_RevokesRefresh(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := ts.signup(t, "bob", "b@x.com", "secret1")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, _ = ts.do(t, http.MethodGet, "/api/auth/confirmed_email/"+ts.notifier.lastToken(t), "", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, body := ts.login(t, "b@x.com", "secret1")
	at := body["access_token"].(string)
	rt := body["refresh_token"].(string)

	resp, _ = ts.do(t, http.MethodPost, "/api/auth/logout", at, nil, "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodGet, "/api/auth/refresh_token", rt, nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodPost, "/api/auth/logout", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSignup_Validation(t *testing.T) {
	ts := newTestServer(t)

	cases := []struct {
		name, username, email, pw string
		wantStatus                int
	}{
		{"bad email", "alice", "not-an-email", "secret1", http.StatusUnprocessableEntity},
		{"missing username", "", "a@x.com", "secret1", http.StatusUnprocessableEntity},
		{"short password", "alice", "a@x.com", "123", http.StatusUnprocessableEntity},
		{"missing password", "alice", "a@x.com", "", http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := ts.signup(t, tc.username, tc.email, tc.pw)
			assert.Equal(t, tc.wantStatus, resp.StatusCode)
			assert.Equal(t, "invalid_request", errCode(body))
		})
	}

	resp, body := ts.do(t, http.MethodPost, "/api/auth/signup", "", []byte(`{"username":`), "application/json")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_json", errCode(body))
}

func TestLogin_MissingFields(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.login(t, "", "secret1")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "invalid_request", errCode(body))

	resp, body = ts.login(t, "nobody@x.com", "secret1")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "invalid_credentials", errCode(body))
}

func TestConfirmEmail_Failures(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.do(t, http.MethodGet, "/api/auth/confirmed_email/garbage", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "invalid_token", errCode(body))

	ghost, err := ts.codec.Issue("ghost@x.com", token.ScopeEmail, 0)
	require.NoError(t, err)
	resp, body = ts.do(t, http.MethodGet, "/api/auth/confirmed_email/"+ghost, "", nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "verification_error", errCode(body))
}

func TestRequestEmail(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := ts.signup(t, "carol", "c@x.com", "secret1")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	first := ts.notifier.lastToken(t)

	for _, email := range []string{"c@x.com", "ghost@x.com"} {
		resp, body := ts.do(t, http.MethodPost, "/api/auth/request_email", "", []byte(`{"email":"`+email+`"}`), "application/json")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "Check your email for confirmation.", body["message"])
	}
	assert.NotEqual(t, first, ts.notifier.lastToken(t))

	ts.notifier.mu.Lock()
	link := ts.notifier.msgs[len(ts.notifier.msgs)-1].Link()
	ts.notifier.mu.Unlock()
	assert.True(t, strings.HasPrefix(link, "https://cb.example.com/api/auth/confirmed_email/"), link)

	resp, body := ts.do(t, http.MethodPost, "/api/auth/request_email", "", []byte(`{"email":"nope"}`), "application/json")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "invalid_request", errCode(body))
}

func TestRefresh_MissingBearer(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.do(t, http.MethodGet, "/api/auth/refresh_token", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Bearer", resp.Header.Get("WWW-Authenticate"))
	assert.Equal(t, "unauthenticated", errCode(body))
}

func TestWrongMethod(t *testing.T) {
	ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, ts.srv.URL+"/api/auth/login", nil)
	require.NoError(t, err)
	resp, err := ts.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
