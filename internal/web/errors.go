package web

// errors.go provides unified error response handling for the web layer.
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls respondError(w, r, err, statusCode), usually with statusFor(err)
//  3. Error is mapped via core.MapError to get user-friendly message
//  4. Technical error + context is logged with request ID for correlation
//  5. User message is rendered as JSON, an HTMX fragment, or plain text

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/render"

	"github.com/JonMunkholm/sheetview/internal/core"
	"github.com/JonMunkholm/sheetview/internal/logging"
	"github.com/JonMunkholm/sheetview/internal/web/templates"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs the technical error server-side and returns the mapped
// user message in the format the client asked for.
func respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	}
	if statusCode >= http.StatusInternalServerError {
		logger.Error("request error", attrs...)
	} else {
		logger.Warn("request error", attrs...)
	}

	switch {
	case wantsJSON(r):
		respondErrorJSON(w, r, userMsg, statusCode)
	case isHTMX(r):
		renderErrorPartial(w, r, userMsg, statusCode)
	default:
		respondErrorHTML(w, userMsg, statusCode)
	}
}

// respondErrorJSON writes a JSON error response.
func respondErrorJSON(w http.ResponseWriter, r *http.Request, msg core.UserMessage, statusCode int) {
	render.Status(r, statusCode)
	render.JSON(w, r, ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// respondErrorHTML writes a plain text error response.
func respondErrorHTML(w http.ResponseWriter, msg core.UserMessage, statusCode int) {
	http.Error(w, msg.Message+" ("+msg.Code+")", statusCode)
}

// renderErrorPartial renders an HTMX-compatible error fragment.
func renderErrorPartial(w http.ResponseWriter, r *http.Request, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	_ = templates.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w)
}

// statusFor picks the HTTP status for a service error.
func statusFor(err error) int {
	var le *core.LoadError
	switch {
	case errors.Is(err, core.ErrSessionNotFound),
		errors.Is(err, core.ErrSheetNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrLocalSourceDenied),
		errors.Is(err, core.ErrPrivateSourceDenied):
		return http.StatusForbidden
	case errors.Is(err, core.ErrSourceTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrTooManyLoads),
		errors.Is(err, core.ErrTooManySessions):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrEmptySource),
		errors.Is(err, errBadJSON),
		errors.Is(err, core.ErrMissingPrimaryColumn),
		errors.Is(err, core.ErrMissingOperationColumns),
		errors.Is(err, core.ErrInvalidOperationType),
		errors.Is(err, core.ErrInvalidOperation),
		errors.Is(err, core.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrUnsupportedFile),
		errors.Is(err, core.ErrNoSheets):
		return http.StatusUnprocessableEntity
	case errors.As(err, &le) && le.Stage == "fetch":
		return http.StatusBadGateway
	case errors.As(err, &le):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// noticeFor maps an error to the alert shown inside a page.
func noticeFor(err error) *templates.Notice {
	msg := core.MapError(err)
	return &templates.Notice{Message: msg.Message, Action: msg.Action, Code: msg.Code}
}

// isHTMX checks if the request is an HTMX request.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON checks if the client prefers a JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	return strings.Contains(r.Header.Get("Content-Type"), "application/json")
}
