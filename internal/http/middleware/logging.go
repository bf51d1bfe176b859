package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/edutour/sales-crm/internal/auth"
	"github.com/edutour/sales-crm/internal/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestIDHeader carries the request id in both directions
const RequestIDHeader = "X-Request-ID"

type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// requestLog is filled in by handlers further down the chain and read back
// once the request completes
type requestLog struct {
	id    string
	actor *auth.Actor
}

type requestLogKey struct{}

// RequestID returns the id assigned to the request in ctx, or ""
func RequestID(ctx context.Context) string {
	if rl, ok := ctx.Value(requestLogKey{}).(*requestLog); ok {
		return rl.id
	}
	return ""
}

// Logging assigns each request an id and logs it on completion
func Logging(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.New().String()
			}
			w.Header().Set(RequestIDHeader, requestID)

			rl := &requestLog{id: requestID}
			r = r.WithContext(context.WithValue(r.Context(), requestLogKey{}, rl))

			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rw, r)

			duration := time.Since(start)
			entry := logger.WithRequest(log, r.Method, r.URL.Path, requestID)
			if rl.actor != nil {
				entry = logger.WithUser(entry, rl.actor.ID, string(rl.actor.Role))
			}

			entry.Info(
				fmt.Sprintf("%s %-30s -> %3d (%s)",
					r.Method,
					r.URL.Path,
					rw.statusCode,
					duration.Truncate(time.Microsecond),
				),
				zap.String("remote_addr", r.RemoteAddr),
				zap.Int("status_code", rw.statusCode),
				zap.Int64("response_size", rw.written),
				zap.Duration("duration", duration),
			)
		})
	}
}

// TagActor records the authenticated actor on the request log. It must run
// after authentication.
func TagActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl, ok := r.Context().Value(requestLogKey{}).(*requestLog); ok {
			if actor, ok := auth.FromContext(r.Context()); ok {
				rl.actor = actor
			}
		}
		next.ServeHTTP(w, r)
	})
}
