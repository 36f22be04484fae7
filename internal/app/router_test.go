package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrodash/agrodash/internal/accounts"
	"github.com/agrodash/agrodash/internal/identity"
	"github.com/agrodash/agrodash/internal/observability"
	"github.com/agrodash/agrodash/internal/shared"
	"github.com/agrodash/agrodash/jobs"
)

type nopStore struct {
	users    map[string]accounts.UserRecord
	profiles map[string]accounts.ProfileRecord
}

func (s *nopStore) GetUser(_ context.Context, userID string) (*accounts.UserRecord, error) {
	user, ok := s.users[userID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &user, nil
}

func (s *nopStore) GetProfile(_ context.Context, userID string) (*accounts.ProfileRecord, error) {
	profile, ok := s.profiles[userID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &profile, nil
}

func (s *nopStore) CreateAccount(_ context.Context, user accounts.UserRecord, profile accounts.ProfileRecord) error {
	if _, ok := s.users[user.UserID]; ok {
		return shared.ErrWriteConflict
	}
	s.users[user.UserID] = user
	s.profiles[profile.UserID] = profile
	return nil
}

func newTestRouter(t *testing.T) (http.Handler, *identity.LocalVerifier) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	verifier, err := identity.NewLocalVerifier("router-secret")
	require.NoError(t, err)
	metrics := observability.NewMetrics()
	gate := identity.Gate{Verifier: verifier, Logger: logger, Recorder: metrics}
	store := &nopStore{users: map[string]accounts.UserRecord{}, profiles: map[string]accounts.ProfileRecord{}}
	svc := accounts.NewService(store, nil, nil, logger)

	router := NewRouter(RouterParams{
		Logger:          logger,
		Config:          &Config{AppEnv: "development", CORSAllowedOrigins: []string{"https://app.agrodash.io"}},
		AccountsHandler: accounts.NewHandler(logger, svc, gate.Require, metrics),
		JobHandler:      jobs.NewHandler(nil, logger),
		Metrics:         metrics,
	})
	return router, verifier
}

func TestRouterSignupFlow(t *testing.T) {
	router, verifier := newTestRouter(t)
	token, err := verifier.Issue(identity.Identity{UserID: "abc123", Email: "farmer@example.com"}, time.Hour)
	require.NoError(t, err)

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/signup", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	rec := send()
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"message":"User record created successfully","data":{"userId":"abc123","email":"farmer@example.com","currentStep":"account"}}`, rec.Body.String())
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = send()
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), `"message":"User record already exists"`)

	metricsRec := httptest.NewRecorder()
	router.ServeHTTP(metricsRec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, metricsRec.Code)
	body := metricsRec.Body.String()
	assert.Contains(t, body, `agrodash_signup_total{outcome="created"} 1`)
	assert.Contains(t, body, `agrodash_signup_total{outcome="exists"} 1`)
	assert.Contains(t, body, `agrodash_token_verifications_total{result="ok"} 2`)
}

func TestRouterSignupWithoutToken(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/signup", bytes.NewBufferString(`{}`)))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"No token provided"}`, rec.Body.String())
}

func TestRouterJSONFallbacks(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Not found"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/signup", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Method Not Allowed", body["error"])
}

func TestRouterHealthEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, path := range []string{"/healthz", "/jobs/health"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestRouterCORSPreflight(t *testing.T) {
	router, _ := newTestRouter(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/auth/signup", nil)
	req.Header.Set("Origin", "https://app.agrodash.io")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "https://app.agrodash.io", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.True(t, strings.Contains(rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost))
}

func TestRecovererReturnsJSON(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	r.Use(recoverer(logger))
	r.Get("/boom", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Something went wrong!"}`, rec.Body.String())
}

func TestRateLimitReturnsJSON(t *testing.T) {
	r := chi.NewRouter()
	for _, mw := range MiddlewareStack(MiddlewareConfig{Config: &Config{RateLimitPerMinute: 1}}) {
		r.Use(mw)
	}
	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusNoContent, first.Code)

	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.JSONEq(t, `{"error":"Too Many Requests"}`, second.Body.String())
}
