package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/scribekeys/internal/api"
	"github.com/charlesng35/scribekeys/internal/app"
	iauth "github.com/charlesng35/scribekeys/internal/auth"
	"github.com/charlesng35/scribekeys/internal/cache"
	sharedtestutil "github.com/charlesng35/scribekeys/internal/database/testutil"
	"github.com/charlesng35/scribekeys/internal/entitlements"
	"github.com/charlesng35/scribekeys/internal/middleware"
	"github.com/charlesng35/scribekeys/internal/models"
	"github.com/charlesng35/scribekeys/pkg/response"
)

// Env encapsulates a fully-wired API instance backed by an in-memory database for handler tests.
type Env struct {
	T          *testing.T
	DB         *gorm.DB
	Router     *gin.Engine
	JWT        *iauth.JWTService
	Config     *app.Config
	csrfCookie *http.Cookie
}

// Option customises the Env configuration before the router is built.
type Option func(*app.Config)

// WithSyncRateLimit caps POST /api/extension/sync per user.
func WithSyncRateLimit(requests int, window time.Duration) Option {
	return func(cfg *app.Config) {
		cfg.RateLimit.Sync = app.RateLimitWindow{Requests: requests, Window: window}
	}
}

// NewEnv provisions a fresh handler test environment with migrations and seed data applied.
// CSRF protection is on so cookie-authenticated requests exercise it.
func NewEnv(t *testing.T, opts ...Option) *Env {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db := sharedtestutil.MustOpenTestDB(t, sharedtestutil.WithSeedData())

	cfg := &app.Config{
		Server: app.ServerConfig{
			CSRF: app.CSRFConfig{Enabled: true},
		},
		Auth: app.AuthConfig{
			JWT: app.JWTSettings{
				Secret: "test-suite-super-secret-key-32-bytes!!",
				Issuer: "test-suite",
				TTL:    time.Hour,
			},
		},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	jwtSvc, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	require.NoError(t, err)

	router, err := api.NewRouter(db, jwtSvc, cfg, cache.NewMemoryCounter())
	require.NoError(t, err)

	return &Env{
		T:      t,
		DB:     db,
		Router: router,
		JWT:    jwtSvc,
		Config: cfg,
	}
}

// CreateUser inserts an active account with the given tier and role and returns it.
func (e *Env) CreateUser(tier entitlements.Tier, role entitlements.Role) *models.User {
	e.T.Helper()

	user := &models.User{
		Email:    tier.String() + "-" + uuid.NewString() + "@example.com",
		Name:     "Test " + tier.String(),
		Role:     role,
		Tier:     tier,
		IsActive: true,
	}
	require.NoError(e.T, e.DB.Create(user).Error)
	return user
}

// Token mints a session token for user the way the upstream identity service would.
func (e *Env) Token(user *models.User) string {
	e.T.Helper()

	token, err := e.JWT.GenerateAccessToken(iauth.AccessTokenInput{
		UserID:    user.ID,
		SessionID: uuid.NewString(),
		Role:      user.Role,
		Tier:      user.Tier,
	})
	require.NoError(e.T, err)
	return token
}

// APIResponse represents the canonical API envelope returned by handlers.
type APIResponse struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *response.ErrorInfo `json:"error"`
	Meta    *response.Meta      `json:"meta"`
}

// DecodeResponse parses the standard API response object from a recorder.
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// DecodeInto unmarshals the data payload into the provided destination.
func DecodeInto[T any](t *testing.T, raw json.RawMessage, dest *T) {
	t.Helper()
	if dest == nil {
		t.Fatal("destination must not be nil")
	}
	require.NoError(t, json.Unmarshal(raw, dest))
}

// Request calls the router with a bearer token, the way the browser extension does.
func (e *Env) Request(method, path string, body any, token string) *httptest.ResponseRecorder {
	e.T.Helper()
	req := e.newRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return e.serve(req)
}

// CookieRequest calls the router with the session cookie, the way the web UI does.
// Writes echo the CSRF token unless skipCSRF is set.
func (e *Env) CookieRequest(method, path string, body any, token string, skipCSRF bool) *httptest.ResponseRecorder {
	e.T.Helper()
	req := e.newRequest(method, path, body)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: middleware.DefaultSessionCookie, Value: token})
	}
	if !skipCSRF && method != http.MethodGet && method != http.MethodHead {
		if e.csrfCookie == nil {
			warmup := e.serve(e.newRequest(http.MethodGet, "/health", nil))
			require.Equal(e.T, http.StatusOK, warmup.Code, warmup.Body.String())
			require.NotNil(e.T, e.csrfCookie, "health check issued no CSRF cookie")
		}
		req.AddCookie(e.csrfCookie)
		req.Header.Set(middleware.CSRFHeaderName, e.csrfCookie.Value)
	}
	return e.serve(req)
}

func (e *Env) newRequest(method, path string, body any) *http.Request {
	e.T.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(e.T, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

// serve runs req and remembers any CSRF cookie the response hands out.
func (e *Env) serve(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == middleware.CSRFCookieName && cookie.Value != "" {
			e.csrfCookie = &http.Cookie{Name: cookie.Name, Value: cookie.Value}
		}
	}
	return w
}
