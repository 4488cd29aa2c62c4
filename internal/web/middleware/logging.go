// Package middleware provides HTTP middleware for the viewer server.
package middleware

import (
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/sheetview/internal/logging"
)

// quietPaths are polled by load balancers and Prometheus and log at debug.
var quietPaths = map[string]bool{
	"/healthz": true,
	"/metrics": true,
}

// Logger writes one access log line per request with method, path, status,
// duration_ms, bytes, ip and user_agent. It must run after RequestID so the
// line carries request_id.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		level := slog.LevelInfo
		if quietPaths[r.URL.Path] {
			level = slog.LevelDebug
		}

		// RemoteAddr was rewritten by TrustedRealIP for trusted proxies
		logging.FromContext(r.Context()).Log(r.Context(), level, "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"bytes", ww.BytesWritten(),
			"ip", r.RemoteAddr,
			"user_agent", r.UserAgent(),
		)
	})
}
