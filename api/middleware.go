package api

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/google/uuid"
)

// --------------------------------------------------------------------------
// Middleware
// --------------------------------------------------------------------------

// responseWriter is a custom ResponseWriter that captures the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

// WriteHeader captures the status code before writing it
func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// recoveryMiddleware converts handler panics into 500 responses. It is the
// outermost layer so a panic anywhere below still produces a response.
func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Errorf("panic in handler for %s %s: %v", r.Method, r.URL.Path, rec)
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// loggerMiddleware logs every request with a generated request id and
// counts it by method and status.
func loggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()

		// Create custom response writer to capture status code
		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		// Process request
		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		logger.Debugf("%s %s => %d took %s (req %s)", r.Method, r.URL.Path, rw.statusCode, duration, requestID)

		metrics.GetOrCreateCounter(fmt.Sprintf(
			`a2a_http_requests_total{method=%q,status="%d"}`,
			r.Method, rw.statusCode,
		)).Inc()
	})
}

// authMiddleware enforces bearer auth on the wrapped handler. With an empty
// configured token the handler is returned unwrapped.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	if !s.config.AuthEnabled() {
		return next
	}
	want := "Bearer " + s.config.AuthToken
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := r.Header.Get("Authorization")
		if subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
