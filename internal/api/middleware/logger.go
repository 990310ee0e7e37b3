package middleware

import (
	"net/http"
	"strings"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// Logger returns a middleware that logs each HTTP request with its status,
// duration, and the chi request id.
func Logger(logger *logrus.Logger) func(http.Handler) http.Handler {
	entry := logger.WithField("component", "http")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Create a response writer wrapper to capture status code
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			// Strip CR/LF from user-supplied values to prevent log injection.
			sanitize := strings.NewReplacer("\n", "", "\r", "").Replace

			fields := logrus.Fields{
				"method":      sanitize(r.Method),
				"path":        sanitize(r.URL.Path),
				"status":      wrapped.statusCode,
				"duration_ms": time.Since(start).Milliseconds(),
			}
			if id := chimiddleware.GetReqID(r.Context()); id != "" {
				fields["request_id"] = id
			}

			log := entry.WithFields(fields)
			switch {
			case wrapped.statusCode >= http.StatusInternalServerError:
				log.Error("request failed")
			case wrapped.statusCode >= http.StatusBadRequest:
				log.Warn("request rejected")
			default:
				log.Info("request completed")
			}
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
