package transport

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/snwareresearch/project-tracker/internal"
	"github.com/snwareresearch/project-tracker/pkg/logger"
)

// BaseHandler provides common functionality for HTTP handlers
type BaseHandler struct {
	Logger *slog.Logger
}

// NewBaseHandler creates a base handler with logger
func NewBaseHandler(lg *slog.Logger) *BaseHandler {
	if lg == nil {
		lg = logger.LoggerWrapper()
	}
	return &BaseHandler{Logger: lg}
}

// WriteJSON writes a JSON response
func (h *BaseHandler) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", "error", err)
	}
}

// WriteError writes a plain status/message error response
func (h *BaseHandler) WriteError(w http.ResponseWriter, status int, message string) {
	h.WriteJSON(w, status, map[string]interface{}{
		"success": false,
		"code":    status,
		"message": message,
	})
}

// HandleError maps err to a response. AppErrors keep their status and code;
// anything else becomes an opaque 500 with the cause logged.
func (h *BaseHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	lg := logger.From(r.Context())

	appErr, ok := internal.IsAppError(err)
	if !ok {
		lg.Error("unhandled error", "error", err, "path", r.URL.Path)
		appErr = internal.NewInternalError("internal server error", err)
	}

	switch {
	case appErr.IsServerSide():
		lg.Error("request failed", "code", appErr.Code, "error", err, "path", r.URL.Path)
	case appErr.Type == internal.ErrorTypeValidation:
		// user-correctable, not an incident
	default:
		lg.Info("request rejected", "code", appErr.Code, "status", appErr.StatusCode, "path", r.URL.Path)
	}

	status, body := appErr.ToHTTPResponse()
	h.WriteJSON(w, status, body)
}

// DecodeJSON decodes the request body into dst.
func (h *BaseHandler) DecodeJSON(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return internal.ErrInvalidBody
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return internal.ErrInvalidBody.WithCause(err)
	}
	return nil
}

// ExtractTokenFromHeader extracts Bearer token from Authorization header
func (h *BaseHandler) ExtractTokenFromHeader(r *http.Request) string {
	return ExtractBearerToken(r)
}

// ExtractBearerToken returns the token of an "Authorization: Bearer" header.
func ExtractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	const prefix = "bearer "
	if len(authHeader) <= len(prefix) || !strings.EqualFold(authHeader[:len(prefix)], prefix) {
		return ""
	}

	return strings.TrimSpace(authHeader[len(prefix):])
}
