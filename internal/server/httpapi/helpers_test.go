package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/lingoplay/internal/logging"
	"github.com/dmitrijs2005/lingoplay/internal/server/config"
	"github.com/dmitrijs2005/lingoplay/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/lingoplay/internal/server/services"
	"github.com/dmitrijs2005/lingoplay/internal/server/storage"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testEnv struct {
	rm      *repomanager.InMemoryRepositoryManager
	handler *Handler
	router  http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{
		AccessSecretKey:              "access-secret",
		RefreshSecretKey:             "refresh-secret",
		AccessTokenValidityDuration:  10 * time.Minute,
		RefreshTokenValidityDuration: 60 * time.Minute,
		BcryptCost:                   bcrypt.MinCost,
		AllowedOrigins:               []string{"http://localhost:5173"},
	}
	rm := repomanager.NewInMemoryRepositoryManager()

	creds, err := services.NewCredentialStore(rm, cfg)
	require.NoError(t, err)
	users := services.NewUserService(creds, services.NewTokenManager(rm, cfg))

	store, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)
	uploads := services.NewUploadService(rm, store, logging.Nop())

	h := NewHandler(cfg, logging.Nop(), users, uploads, rm, NewMetrics())
	return &testEnv{rm: rm, handler: h, router: h.Routes()}
}

type requestOption func(*http.Request)

func withBearer(token string) requestOption {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func withCookie(c *http.Cookie) requestOption {
	return func(r *http.Request) { r.AddCookie(c) }
}

func (e *testEnv) do(t *testing.T, method, path string, body any, opts ...requestOption) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, o := range opts {
		o(req)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) register(t *testing.T, email, username, password string) userResponse {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/auth/register", map[string]string{
		"email": email, "username": username, "password": password,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var u userResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &u))
	return u
}

// login returns the access token and the refresh cookie.
func (e *testEnv) login(t *testing.T, email, password string) (string, *http.Cookie) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/auth/login", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp tokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	c := refreshCookie(rec)
	require.NotNil(t, c)
	return resp.Token, c
}

func refreshCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == refreshCookieName {
			return c
		}
	}
	return nil
}

func decodeReason(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp.Reason
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return context.DeadlineExceeded }
