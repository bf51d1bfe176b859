package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/edutour/sales-crm/internal/config"
	"github.com/edutour/sales-crm/internal/http/middleware"
	"github.com/stretchr/testify/assert"
)

func serveSecurity(cfg *config.SecurityConfig) http.Header {
	h := middleware.SecurityHeaders(cfg)(okHandler())
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	return w.Header()
}

func TestSecurityHeaders_DefaultConfig(t *testing.T) {
	headers := serveSecurity(&config.SecurityConfig{
		ContentTypeNosniff:    true,
		FrameOptions:          "DENY",
		XSSProtection:         "1; mode=block",
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		PermissionsPolicy:     "geolocation=(), microphone=(), camera=()",
	})

	assert.Equal(t, "nosniff", headers.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", headers.Get("X-Frame-Options"))
	assert.Equal(t, "1; mode=block", headers.Get("X-XSS-Protection"))
	assert.Equal(t, "default-src 'self'", headers.Get("Content-Security-Policy"))
	assert.Equal(t, "strict-origin-when-cross-origin", headers.Get("Referrer-Policy"))
	assert.Equal(t, "geolocation=(), microphone=(), camera=()", headers.Get("Permissions-Policy"))
	assert.Empty(t, headers.Get("Strict-Transport-Security"), "HSTS should not be set when disabled")
}

func TestSecurityHeaders_HSTS(t *testing.T) {
	tests := []struct {
		name       string
		subdomains bool
		preload    bool
		want       string
	}{
		{"max age only", false, false, "max-age=31536000"},
		{"with subdomains", true, false, "max-age=31536000; includeSubDomains"},
		{"with preload", true, true, "max-age=31536000; includeSubDomains; preload"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := serveSecurity(&config.SecurityConfig{
				EnableHSTS:            true,
				HSTSMaxAge:            31536000,
				HSTSIncludeSubdomains: tt.subdomains,
				HSTSPreload:           tt.preload,
			})
			assert.Equal(t, tt.want, headers.Get("Strict-Transport-Security"))
		})
	}
}

func TestSecurityHeaders_EmptyValuesAreOmitted(t *testing.T) {
	headers := serveSecurity(&config.SecurityConfig{})

	_, hasFrame := headers["X-Frame-Options"]
	_, hasCSP := headers["Content-Security-Policy"]
	assert.False(t, hasFrame)
	assert.False(t, hasCSP)
	assert.Empty(t, headers.Get("X-Content-Type-Options"))
}
