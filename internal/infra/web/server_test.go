//go:build !integration

package web

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// newTestLogger creates a silent logger for tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

func newTestServer() (*Server, *AuthManager) {
	auth := NewAuthManager("test-admin-jwt-secret-please-change", false, "", time.Minute)
	srv := NewServer(&mockPlanUC{}, &mockCouponUC{}, &mockPromotionUC{}, &mockReferralUC{}, &mockStatsUC{}, auth, "test-admin-key", newTestLogger())
	return srv, auth
}

func TestAuthMiddleware(t *testing.T) {
	srv, auth := newTestServer()

	dummyHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	protected := srv.authMiddleware(dummyHandler)

	t.Run("no credentials -> 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil)
		rr := httptest.NewRecorder()
		protected.ServeHTTP(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rr.Code)
		}
	})

	t.Run("invalid bearer jwt -> 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil)
		req.Header.Set("Authorization", "Bearer invalid.jwt.token")
		rr := httptest.NewRecorder()
		protected.ServeHTTP(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rr.Code)
		}
	})

	t.Run("valid bearer jwt -> 200", func(t *testing.T) {
		token, err := auth.Mint(httptest.NewRecorder())
		if err != nil {
			t.Fatalf("Mint: %v", err)
		}
		req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		protected.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
	})

	t.Run("valid session cookie -> 200", func(t *testing.T) {
		minted := httptest.NewRecorder()
		if _, err := auth.Mint(minted); err != nil {
			t.Fatalf("Mint: %v", err)
		}
		req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil)
		for _, c := range minted.Result().Cookies() {
			req.AddCookie(c)
		}
		rr := httptest.NewRecorder()
		protected.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
	})
}

func TestHandleLogin(t *testing.T) {
	srv, _ := newTestServer()

	t.Run("wrong method -> 405", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/login", nil)
		rr := httptest.NewRecorder()
		srv.handleLogin(rr, req)
		if rr.Code != http.StatusMethodNotAllowed {
			t.Fatalf("expected 405, got %d", rr.Code)
		}
	})

	t.Run("wrong api key -> 403", func(t *testing.T) {
		body := bytes.NewBufferString(`{"api_key":"nope"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/login", body)
		rr := httptest.NewRecorder()
		srv.handleLogin(rr, req)
		if rr.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rr.Code)
		}
	})

	t.Run("correct api key mints a session", func(t *testing.T) {
		body := bytes.NewBufferString(`{"api_key":"test-admin-key"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/login", body)
		rr := httptest.NewRecorder()
		srv.handleLogin(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		var found bool
		for _, c := range rr.Result().Cookies() {
			if c.Name == "admin_session" && c.Value != "" {
				found = true
			}
		}
		if !found {
			t.Fatalf("session cookie not set")
		}
	})

	t.Run("unconfigured api key -> 403", func(t *testing.T) {
		auth := NewAuthManager("secret", false, "", time.Minute)
		srv := NewServer(&mockPlanUC{}, &mockCouponUC{}, &mockPromotionUC{}, &mockReferralUC{}, &mockStatsUC{}, auth, "", newTestLogger())
		body := bytes.NewBufferString(`{"api_key":""}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/login", body)
		rr := httptest.NewRecorder()
		srv.handleLogin(rr, req)
		if rr.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rr.Code)
		}
	})
}

func TestRoutesRequireAuth(t *testing.T) {
	srv, _ := newTestServer()
	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)

	paths := []string{
		"/api/v1/admin/stats",
		"/api/v1/admin/cupones",
		"/api/v1/admin/promociones",
		"/api/v1/admin/planes",
		"/api/v1/admin/referidos/pagos",
	}
	for _, p := range paths {
		req := httptest.NewRequest(http.MethodGet, p, nil)
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", p, rr.Code)
		}
	}
}
