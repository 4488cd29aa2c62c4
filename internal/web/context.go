package web

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/sheetview/internal/logging"
)

// sessionID returns the {sessionID} route parameter.
func sessionID(r *http.Request) string {
	return chi.URLParam(r, "sessionID")
}

// requestLogger returns a logger carrying the request and session IDs.
func requestLogger(r *http.Request) *slog.Logger {
	if id := sessionID(r); id != "" {
		return logging.WithSession(r.Context(), id)
	}
	return logging.FromContext(r.Context())
}
