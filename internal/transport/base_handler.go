package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/frahmantamala/issue-tracker/internal"
	"github.com/frahmantamala/issue-tracker/pkg/logger"
)

const maxBodyBytes = 1 << 20

// BaseHandler provides common functionality for HTTP handlers
type BaseHandler struct {
	Logger *slog.Logger
}

// NewBaseHandler creates a base handler with logger
func NewBaseHandler(lg *slog.Logger) *BaseHandler {
	if lg == nil {
		lg = logger.LoggerWrapper()
		if lg == nil {
			lg = slog.Default()
		}
	}
	return &BaseHandler{Logger: lg}
}

type ErrorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// WriteJSON writes a JSON response
func (h *BaseHandler) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", "error", err)
	}
}

// WriteError writes an error response
func (h *BaseHandler) WriteError(w http.ResponseWriter, status int, message string) {
	if status >= http.StatusInternalServerError {
		h.Logger.Error("http error", "status", status, "message", message)
	} else {
		h.Logger.Debug("http error", "status", status, "message", message)
	}
	h.WriteJSON(w, status, ErrorResponse{Code: statusCode(status), Message: message})
}

func statusCode(status int) string {
	return strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_"))
}

// HandleServiceError maps err onto the AppError taxonomy. Errors outside it
// become a 500 with a generic message.
func (h *BaseHandler) HandleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	lg := logger.From(r.Context())

	appErr, ok := internal.IsAppError(err)
	if !ok {
		lg.Error("unhandled service error", "path", r.URL.Path, "error", err)
		h.WriteJSON(w, http.StatusInternalServerError, ErrorResponse{
			Code:    string(internal.ErrorTypeInternal),
			Message: "internal server error",
		})
		return
	}

	if appErr.StatusCode >= http.StatusInternalServerError {
		lg.Error("service error", "path", r.URL.Path, "code", appErr.Code, "error", err)
	} else {
		lg.Warn("request rejected", "path", r.URL.Path, "code", appErr.Code, "error", err)
	}

	h.WriteJSON(w, appErr.StatusCode, ErrorResponse{
		Code:    string(appErr.Code),
		Message: appErr.GetDetailedMessage(),
		Details: appErr.Details,
	})
}

// DecodeJSON reads a bounded JSON body into dst.
func (h *BaseHandler) DecodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return internal.NewValidationError("request body is required", internal.ErrCodeValidationFailed)
		case errors.As(err, &maxErr):
			return internal.NewValidationError(fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit), internal.ErrCodeValidationFailed)
		default:
			return internal.NewValidationError("invalid request body", internal.ErrCodeValidationFailed)
		}
	}
	return nil
}

// PersistenceWarningHeader flags a response whose change is held in memory
// but was not written to storage.
const PersistenceWarningHeader = "X-Persistence-Warning"

// TolerateUnpersisted swallows a persistence failure, which leaves the change
// applied in memory, and marks the response. Any other error is returned as is.
func (h *BaseHandler) TolerateUnpersisted(w http.ResponseWriter, r *http.Request, err error) error {
	if err == nil || !errors.Is(err, internal.ErrPersistenceFailed) {
		return err
	}
	logger.From(r.Context()).Warn("change applied but not persisted", "path", r.URL.Path, "error", err)
	w.Header().Set(PersistenceWarningHeader, "state not persisted")
	return nil
}
