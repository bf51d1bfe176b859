package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/edutour/sales-crm/internal/auth"
	"github.com/edutour/sales-crm/internal/config"
	"github.com/edutour/sales-crm/internal/domain"
	"github.com/edutour/sales-crm/internal/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func createTestRateLimiter(cfg *config.RateLimitConfig) *middleware.RateLimiter {
	return middleware.NewRateLimiter(cfg, zap.NewNop())
}

func hit(h http.Handler, path, remoteAddr string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = remoteAddr
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRateLimiter_Disabled(t *testing.T) {
	rl := createTestRateLimiter(&config.RateLimitConfig{Enabled: false, RequestsPerMinute: 5})
	h := rl.LimitByIP(okHandler())

	for i := 0; i < 100; i++ {
		assert.Equal(t, http.StatusOK, hit(h, "/api/v1/offers", "192.168.1.1:12345", nil).Code)
	}
}

func TestRateLimiter_Whitelists(t *testing.T) {
	rl := createTestRateLimiter(&config.RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: 2,
		WhitelistIPs:      []string{"127.0.0.1", "10.0.0.1", "10.0.0.2"},
		WhitelistPaths:    []string{"/health", "/swagger/*"},
	})
	h := rl.LimitByIP(okHandler())

	tests := []struct {
		name   string
		path   string
		addr   string
		header map[string]string
	}{
		{"whitelisted ip", "/api/v1/offers", "127.0.0.1:5000", nil},
		{"whitelisted path", "/health", "192.168.1.1:5000", nil},
		{"whitelisted path prefix", "/swagger/index.html", "192.168.1.1:5000", nil},
		{"forwarded for", "/api/v1/offers", "192.168.1.1:5000", map[string]string{"X-Forwarded-For": "10.0.0.1, 172.16.0.1"}},
		{"real ip", "/api/v1/offers", "192.168.1.1:5000", map[string]string{"X-Real-IP": "10.0.0.2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < 20; i++ {
				assert.Equal(t, http.StatusOK, hit(h, tt.path, tt.addr, tt.header).Code)
			}
		})
	}
}

func TestRateLimiter_LimitExceeded(t *testing.T) {
	rl := createTestRateLimiter(&config.RateLimitConfig{Enabled: true, RequestsPerMinute: 5})
	h := rl.LimitByIP(okHandler())

	var ok, limited int
	var last *httptest.ResponseRecorder
	for i := 0; i < 20; i++ {
		w := hit(h, "/api/v1/offers", "192.168.1.100:12345", nil)
		switch w.Code {
		case http.StatusOK:
			ok++
		case http.StatusTooManyRequests:
			limited++
			last = w
		}
	}

	assert.Greater(t, ok, 0, "some requests should succeed")
	assert.Greater(t, limited, 0, "some requests should be rate limited")
	require.NotNil(t, last)
	assert.Equal(t, "60", last.Header().Get("Retry-After"))

	var apiErr domain.APIError
	require.NoError(t, json.Unmarshal(last.Body.Bytes(), &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.Status)
}

func TestRateLimiter_DifferentIPsIndependent(t *testing.T) {
	rl := createTestRateLimiter(&config.RateLimitConfig{Enabled: true, RequestsPerMinute: 3})
	h := rl.LimitByIP(okHandler())

	for _, ip := range []string{"192.168.1.1:1", "192.168.1.2:1", "192.168.1.3:1"} {
		for i := 0; i < 3; i++ {
			assert.Equal(t, http.StatusOK, hit(h, "/api/v1/offers", ip, nil).Code, ip)
		}
	}
}

func TestRateLimiter_LimitKeysByUser(t *testing.T) {
	rl := createTestRateLimiter(&config.RateLimitConfig{
		Enabled:               true,
		RequestsPerMinute:     100,
		RequestsPerMinuteAuth: 2,
	})
	h := rl.Limit(okHandler())

	alice := &auth.Actor{ID: 41, Role: domain.RoleSales}
	bob := &auth.Actor{ID: 42, Role: domain.RoleSales}
	as := func(u *auth.Actor, addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/visits", nil)
		req.RemoteAddr = addr
		req = req.WithContext(auth.WithActor(req.Context(), u))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w.Code
	}

	// the same user is limited across addresses
	assert.Equal(t, http.StatusOK, as(alice, "192.168.1.1:1"))
	assert.Equal(t, http.StatusOK, as(alice, "192.168.1.2:1"))
	assert.Equal(t, http.StatusTooManyRequests, as(alice, "192.168.1.3:1"))

	assert.Equal(t, http.StatusOK, as(bob, "192.168.1.1:1"))
}
