package web

// errors.go turns handler errors into responses. The technical error is
// logged with the request ID; the client gets the mapped user message as
// JSON on /api routes and as an HTML alert fragment elsewhere.

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/glossary/internal/catalog"
	"github.com/JonMunkholm/glossary/internal/glossary"
	"github.com/JonMunkholm/glossary/internal/logging"
	"github.com/JonMunkholm/glossary/internal/service"
	"github.com/JonMunkholm/glossary/internal/sheet"
	"github.com/JonMunkholm/glossary/internal/store"
	"github.com/JonMunkholm/glossary/internal/web/views"
)

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusFor picks the HTTP status for err.
func statusFor(err error) int {
	var schemaErr *glossary.SchemaError
	var maxBytesErr *http.MaxBytesError

	switch {
	case errors.As(err, &schemaErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrFileTooLarge), errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, sheet.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, sheet.ErrEmptyFile), errors.Is(err, service.ErrNoFile):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrStoreDisabled), errors.Is(err, store.ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, catalog.ErrNotConfigured), errors.Is(err, service.ErrTooManyConversions):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}

	// Unreadable uploads are client errors.
	if msg := service.MapError(err); msg.Code == "FILE002" {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondError logs err and writes the user-facing message.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := service.MapError(err)

	logger := logging.FromContext(r.Context()).With(
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"code", msg.Code,
		"error", err.Error(),
	)
	if status >= http.StatusInternalServerError {
		logger.Error("request error")
	} else {
		logger.Warn("request rejected")
	}

	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "5")
	}

	if wantsJSON(r) {
		writeJSONStatus(w, status, ErrorResponse{
			Error:   errorText(err, msg),
			Message: msg.Message,
			Action:  msg.Action,
			Code:    msg.Code,
		})
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := views.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w); err != nil {
		logger.Warn("render error alert", "render_error", err)
	}
}

// errorText is the raw error for client errors. Server errors expose only
// the mapped message.
func errorText(err error, msg service.UserMessage) string {
	if service.IsUserFacing(err) {
		return err.Error()
	}
	return msg.Message
}

// wantsJSON reports whether the client expects a JSON error.
func wantsJSON(r *http.Request) bool {
	if r.Header.Get("HX-Request") == "true" {
		return false
	}
	return strings.HasPrefix(r.URL.Path, "/api/") ||
		strings.Contains(r.Header.Get("Accept"), "application/json")
}
