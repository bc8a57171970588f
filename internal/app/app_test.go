package app

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/ledger/internal/accounting"
	closepkg "github.com/odyssey-erp/ledger/internal/close"
	"github.com/odyssey-erp/ledger/internal/observability"
	"github.com/odyssey-erp/ledger/internal/shared"
)

func TestLoadConfigDefaults(t *testing.T) {
	unsetEnv(t, "APP_ENV", "APP_ADDR", "REPORT_CACHE_TTL", "RATE_LIMIT_PER_MINUTE", "INTEGRITY_CRON", "IDEMPOTENCY_TTL")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.AppAddr)
	require.Equal(t, 10*time.Minute, cfg.ReportCacheTTL)
	require.Equal(t, 600, cfg.RateLimitPerMinute)
	require.Equal(t, "0 3 * * *", cfg.IntegrityCron)
	require.Equal(t, 72*time.Hour, cfg.IdempotencyTTL)
	require.False(t, cfg.IsProduction())
}

// unsetEnv clears keys for the duration of the test.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadConfigRejectsNegativeRateLimit(t *testing.T) {
	t.Setenv("RATE_LIMIT_PER_MINUTE", "-1")
	_, err := LoadConfig()
	require.Error(t, err)
}

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&Config{LogFormat: "json", AppEnv: "production"}, &buf)
	logger.Debug("hidden")
	logger.Info("visible", "company_id", "acme")

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, `"msg":"visible"`)
	require.Contains(t, out, `"company_id":"acme"`)
}

func TestActorMiddlewarePopulatesContext(t *testing.T) {
	var seen string
	h := actorMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = shared.ActorFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/journals", nil)
	req.Header.Set(ActorHeader, "  user-7 ")
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, "user-7", seen)

	seen = "unchanged"
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Empty(t, seen)
}

func TestRouterHealthAndReadiness(t *testing.T) {
	ready := errors.New("db down")
	router := NewRouter(RouterParams{
		Logger: NewLogger(nil),
		Config: &Config{RateLimitPerMinute: 0},
		Ready:  func(*http.Request) error { return ready },
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)

	ready = nil
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.True(t, strings.Contains(rr.Body.String(), "ready"))
}

func TestRateLimitApplied(t *testing.T) {
	router := NewRouter(RouterParams{
		Logger: NewLogger(nil),
		Config: &Config{RateLimitPerMinute: 2},
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		router.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	require.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestTestModeParsesBool(t *testing.T) {
	t.Cleanup(RefreshTestMode)

	t.Setenv(testModeEnv, "true")
	RefreshTestMode()
	require.True(t, InTestMode())

	t.Setenv(testModeEnv, "nope")
	RefreshTestMode()
	require.False(t, InTestMode())
}

func TestContainerRoutesMountsTaskEndpoints(t *testing.T) {
	c := &Container{
		Config:  &Config{RateLimitPerMinute: 0},
		Logger:  NewLogger(nil),
		Metrics: observability.NewMetrics(),
		Ledger:  accounting.NewModule(accounting.Deps{}),
		Tasks:   closepkg.NewService(closepkg.NewRepository(nil), nil),
	}
	router := c.Routes(nil)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/tasks", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	require.NotPanics(t, c.Close)
}
