package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-feedback-service/internal/domain"
	"github.com/goccy/go-json"
)

// Machine-readable error kinds returned in error_code.
const (
	codeAuthentication = "authentication_error"
	codeValidation     = "validation_error"
	codeNotFound       = "not_found"
	codeTransient      = "transient_backend_error"
	codeInternal       = "internal_error"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorCode string `json:"error_code,omitempty"`
	Field     string `json:"field,omitempty"`
}

// SubmissionEnvelope acknowledges a stored submission.
type SubmissionEnvelope struct {
	ID      string `json:"id"`
	Created string `json:"created"`
}

// UploadEnvelope wraps an attachment upload response.
type UploadEnvelope struct {
	Upload *domain.Upload `json:"upload"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg, ErrorCode: code})
}

// writeServiceError maps domain errors to a status and error_code. Backend
// details are logged, never returned.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusUnprocessableEntity, MessageEnvelope{Error: ve.Error(), ErrorCode: codeValidation, Field: ve.Field})
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusUnprocessableEntity, codeValidation, "invalid request")
	case errors.Is(err, domain.ErrAuthentication):
		writeError(w, http.StatusUnauthorized, codeAuthentication, "invalid or missing credential")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, "not found")
	case errors.Is(err, domain.ErrTransientBackend):
		slog.Error("backend unavailable", "path", r.URL.Path, "err", err)
		writeError(w, http.StatusServiceUnavailable, codeTransient, "backend temporarily unavailable, retry later")
	default:
		slog.Error("unhandled error", "path", r.URL.Path, "err", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
	}
}
