package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/edutour/sales-crm/internal/auth"
	"github.com/edutour/sales-crm/internal/config"
	"github.com/edutour/sales-crm/internal/domain"
	"github.com/go-chi/httprate"
	"go.uber.org/zap"
)

// exemptions lists clients and paths that bypass rate limiting. A path
// ending in "/*" exempts everything below it.
type exemptions struct {
	ips      map[string]struct{}
	paths    map[string]struct{}
	prefixes []string
}

func newExemptions(ips, paths []string) exemptions {
	e := exemptions{ips: make(map[string]struct{}), paths: make(map[string]struct{})}
	for _, ip := range ips {
		e.ips[ip] = struct{}{}
	}
	for _, p := range paths {
		if prefix, ok := strings.CutSuffix(p, "/*"); ok {
			e.prefixes = append(e.prefixes, prefix)
			continue
		}
		e.paths[p] = struct{}{}
	}
	return e
}

func (e exemptions) match(r *http.Request) bool {
	if _, ok := e.paths[r.URL.Path]; ok {
		return true
	}
	for _, prefix := range e.prefixes {
		if strings.HasPrefix(r.URL.Path, prefix) {
			return true
		}
	}
	_, ok := e.ips[clientIP(r)]
	return ok
}

// clientIP prefers proxy headers over the socket address
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimiter applies a per-IP budget to every request and a separate
// per-user budget once the actor is known
type RateLimiter struct {
	enabled bool
	logger  *zap.Logger
	exempt  exemptions
	byIP    func(http.Handler) http.Handler
	byActor func(http.Handler) http.Handler
}

// NewRateLimiter builds both limiters from cfg
func NewRateLimiter(cfg *config.RateLimitConfig, logger *zap.Logger) *RateLimiter {
	rl := &RateLimiter{
		enabled: cfg.Enabled,
		logger:  logger,
		exempt:  newExemptions(cfg.WhitelistIPs, cfg.WhitelistPaths),
	}
	rl.byIP = httprate.Limit(cfg.RequestsPerMinute, time.Minute,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			return "ip:" + clientIP(r), nil
		}),
		httprate.WithLimitHandler(rl.reject),
	)
	rl.byActor = httprate.Limit(cfg.RequestsPerMinuteAuth, time.Minute,
		httprate.WithKeyFuncs(actorKey),
		httprate.WithLimitHandler(rl.reject),
	)

	logger.Info("rate limiter configured",
		zap.Bool("enabled", cfg.Enabled),
		zap.Int("per_ip_per_minute", cfg.RequestsPerMinute),
		zap.Int("per_user_per_minute", cfg.RequestsPerMinuteAuth),
		zap.Strings("exempt_ips", cfg.WhitelistIPs),
		zap.Strings("exempt_paths", cfg.WhitelistPaths),
	)
	return rl
}

func actorKey(r *http.Request) (string, error) {
	if actor, ok := auth.FromContext(r.Context()); ok {
		return "user:" + strconv.FormatUint(uint64(actor.ID), 10), nil
	}
	return "ip:" + clientIP(r), nil
}

func (rl *RateLimiter) wrap(limiter func(http.Handler) http.Handler, next http.Handler) http.Handler {
	if !rl.enabled {
		return next
	}
	limited := limiter(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.exempt.match(r) {
			next.ServeHTTP(w, r)
			return
		}
		limited.ServeHTTP(w, r)
	})
}

// LimitByIP limits unauthenticated traffic. Mount it before authentication.
func (rl *RateLimiter) LimitByIP(next http.Handler) http.Handler {
	return rl.wrap(rl.byIP, next)
}

// Limit limits authenticated traffic per user, falling back to the client IP
// when no actor is on the context
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	if !rl.enabled {
		return next
	}
	perUser := rl.wrap(rl.byActor, next)
	perIP := rl.wrap(rl.byIP, next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.FromContext(r.Context()); ok {
			perUser.ServeHTTP(w, r)
			return
		}
		perIP.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) reject(w http.ResponseWriter, r *http.Request) {
	fields := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("client_ip", clientIP(r)),
		zap.String("request_id", RequestID(r.Context())),
	}
	if actor, ok := auth.FromContext(r.Context()); ok {
		fields = append(fields, zap.Uint("user_id", actor.ID))
	}
	rl.logger.Warn("rate limit exceeded", fields...)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", "60")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(domain.APIError{
		Type:   "rate_limited",
		Title:  http.StatusText(http.StatusTooManyRequests),
		Status: http.StatusTooManyRequests,
		Detail: "Too many requests. Please try again later.",
	})
}
