package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valisyam/shub/internal/auth"
	"github.com/valisyam/shub/internal/config"
	"github.com/valisyam/shub/internal/domain"
	"github.com/valisyam/shub/internal/http/middleware"
	"go.uber.org/zap"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

type stubPeers struct {
	ids []uuid.UUID
	err error
}

func (s stubPeers) ListUserIDsByCompany(context.Context, uuid.UUID) ([]uuid.UUID, error) {
	return s.ids, s.err
}

func scopeFor(t *testing.T, peers stubPeers, user *auth.UserContext) (*auth.OwnerScope, bool) {
	t.Helper()
	var (
		scope *auth.OwnerScope
		found bool
	)
	m := middleware.NewCompanyScopeMiddleware(peers, zap.NewNop())
	h := m.Scope(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scope, found = auth.OwnerScopeFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/rfqs", nil)
	if user != nil {
		req = req.WithContext(auth.WithUserContext(req.Context(), user))
	}
	h.ServeHTTP(httptest.NewRecorder(), req)
	return scope, found
}

func TestCompanyScope(t *testing.T) {
	caller := uuid.New()
	peer := uuid.New()
	companyID := uuid.New()

	t.Run("admins are unscoped", func(t *testing.T) {
		_, found := scopeFor(t, stubPeers{}, &auth.UserContext{UserID: caller, Role: domain.RoleAdmin})
		assert.False(t, found)
	})

	t.Run("users without a company see only themselves", func(t *testing.T) {
		scope, found := scopeFor(t, stubPeers{}, &auth.UserContext{UserID: caller, Role: domain.RoleCustomer})
		require.True(t, found)
		assert.Equal(t, []uuid.UUID{caller}, scope.UserIDs)
	})

	t.Run("company members share records", func(t *testing.T) {
		scope, found := scopeFor(t, stubPeers{ids: []uuid.UUID{peer}},
			&auth.UserContext{UserID: caller, Role: domain.RoleCustomer, CompanyID: &companyID})
		require.True(t, found)
		assert.ElementsMatch(t, []uuid.UUID{caller, peer}, scope.UserIDs)
		assert.True(t, scope.Contains(peer))
	})

	t.Run("lookup failures fall back to the caller", func(t *testing.T) {
		scope, found := scopeFor(t, stubPeers{err: errors.New("db down")},
			&auth.UserContext{UserID: caller, Role: domain.RoleSupplier, CompanyID: &companyID})
		require.True(t, found)
		assert.Equal(t, []uuid.UUID{caller}, scope.UserIDs)
	})
}

func TestRecovery(t *testing.T) {
	h := middleware.Recovery(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/orders", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body domain.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "An unexpected error occurred", body.Message)
}

func TestSecurityHeaders(t *testing.T) {
	cfg := &config.SecurityConfig{
		EnableHSTS:            true,
		HSTSMaxAge:            31536000,
		HSTSIncludeSubdomains: true,
		FrameOptions:          "DENY",
		ContentTypeNosniff:    true,
	}
	h := middleware.SecurityHeaders(cfg)(okHandler)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/rfqs", nil))

	assert.Equal(t, "max-age=31536000; includeSubDomains", w.Header().Get("Strict-Transport-Security"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Empty(t, w.Header().Get("Content-Security-Policy"))

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Empty(t, w.Header().Get("Cache-Control"))
}

func preflight(h http.Handler, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodOptions, "/api/rfqs", nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestCORS(t *testing.T) {
	cors := &config.CORSConfig{
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}

	t.Run("production allows the portal origin", func(t *testing.T) {
		app := &config.AppConfig{Environment: "production", ClientBaseURL: "https://portal.s-hub.example"}
		h := middleware.CORS(cors, app, zap.NewNop())(okHandler)

		w := preflight(h, "https://portal.s-hub.example")
		assert.Equal(t, "https://portal.s-hub.example", w.Header().Get("Access-Control-Allow-Origin"))

		w = preflight(h, "https://evil.example")
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("development allows any origin", func(t *testing.T) {
		app := &config.AppConfig{Environment: "development"}
		h := middleware.CORS(cors, app, zap.NewNop())(okHandler)

		w := preflight(h, "http://localhost:3000")
		assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestRateLimiter(t *testing.T) {
	newHandler := func(cfg *config.RateLimitConfig) http.Handler {
		return middleware.NewRateLimiter(cfg, zap.NewNop()).LimitByIP(okHandler)
	}
	hit := func(h http.Handler, ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/rfqs", nil)
		req.RemoteAddr = ip + ":40000"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}

	t.Run("disabled never limits", func(t *testing.T) {
		h := newHandler(&config.RateLimitConfig{Enabled: false, RequestsPerMinute: 1})
		for i := 0; i < 10; i++ {
			assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1").Code)
		}
	})

	t.Run("exceeding the budget returns JSON 429", func(t *testing.T) {
		h := newHandler(&config.RateLimitConfig{Enabled: true, RequestsPerMinute: 2, RequestsPerMinuteAuth: 2})
		assert.Equal(t, http.StatusOK, hit(h, "10.0.0.2").Code)
		assert.Equal(t, http.StatusOK, hit(h, "10.0.0.2").Code)

		w := hit(h, "10.0.0.2")
		require.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "60", w.Header().Get("Retry-After"))
		var body domain.ErrorResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "Too Many Requests", body.Error)

		assert.Equal(t, http.StatusOK, hit(h, "10.0.0.3").Code, "other clients keep their own budget")
	})

	t.Run("whitelisted IPs bypass the limit", func(t *testing.T) {
		h := newHandler(&config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, RequestsPerMinuteAuth: 1, WhitelistIPs: []string{"10.0.0.4"}})
		for i := 0; i < 5; i++ {
			assert.Equal(t, http.StatusOK, hit(h, "10.0.0.4").Code)
		}
	})
}

func TestLogging_SetsRequestID(t *testing.T) {
	h := middleware.Logging(zap.NewNop())(okHandler)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/orders", nil))
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-123")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get(middleware.RequestIDHeader))
}
