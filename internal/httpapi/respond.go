package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/VitaminP8/tweed/internal/apperr"
)

type ErrorResponse struct {
	Error APIError `json:"error"`
}

type APIError struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]any) {
	WriteJSON(w, status, ErrorResponse{Error: APIError{
		Code:      code,
		Message:   message,
		Details:   details,
		RequestID: RequestIDFromContext(r.Context()),
	}})
}

// writeDomainError maps error kinds to status codes. Anything unrecognised is
// logged and reported as 500 without leaking the message.
func writeDomainError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	var (
		validation *apperr.ValidationError
		parent     *apperr.ParentNotFoundError
		notFound   *apperr.ResourceNotFoundError
		noThread   *apperr.ThreadNotFoundError
		rooted     *apperr.AlreadyRootedError
	)

	switch {
	case errors.As(err, &validation):
		WriteError(w, r, http.StatusBadRequest, "VALIDATION", validation.Error(),
			map[string]any{"field": validation.Field})
	case errors.As(err, &parent):
		WriteError(w, r, http.StatusNotFound, "PARENT_NOT_FOUND", parent.Error(), nil)
	case errors.As(err, &notFound):
		WriteError(w, r, http.StatusNotFound, "NOT_FOUND", notFound.Error(), nil)
	case errors.As(err, &noThread):
		log.Warn("post without thread", zap.String("post_id", noThread.PostID))
		WriteError(w, r, http.StatusConflict, "THREAD_NOT_FOUND", noThread.Error(), nil)
	case errors.As(err, &rooted):
		WriteError(w, r, http.StatusConflict, "ALREADY_ROOTED", rooted.Error(), nil)
	case errors.Is(err, apperr.ErrVersionConflict):
		WriteError(w, r, http.StatusConflict, "CONFLICT", "thread was modified concurrently, retry the request", nil)
	case errors.Is(err, apperr.ErrAlreadyExists):
		WriteError(w, r, http.StatusConflict, "ALREADY_EXISTS", err.Error(), nil)
	case errors.Is(err, apperr.ErrUnauthorized):
		WriteError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid credentials", nil)
	case errors.Is(err, apperr.ErrForbidden):
		WriteError(w, r, http.StatusForbidden, "FORBIDDEN", "forbidden", nil)
	default:
		log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", RequestIDFromContext(r.Context())),
			zap.Error(err))
		WriteError(w, r, http.StatusInternalServerError, "INTERNAL", "Internal server error", nil)
	}
}
