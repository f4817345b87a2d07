package handler

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-feedback-service/internal/application/feedback"
	"github.com/go-feedback-service/internal/domain"
	"github.com/go-feedback-service/internal/transport/http/middleware"
	"github.com/goccy/go-json"
)

const maxSubmissionBytes = 256 << 10

// FeedbackHandler handles submission and attachment upload endpoints.
type FeedbackHandler struct {
	svc            feedback.Service
	authConfigured bool
	maxUploadBytes int64
}

func NewFeedbackHandler(svc feedback.Service, authConfigured bool, maxUploadBytes int64) *FeedbackHandler {
	return &FeedbackHandler{svc: svc, authConfigured: authConfigured, maxUploadBytes: maxUploadBytes}
}

func (h *FeedbackHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var input domain.SubmissionInput
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSubmissionBytes)).Decode(&input); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeServiceError(w, r, domain.Invalid("body", "max_size"))
			return
		}
		writeServiceError(w, r, domain.Invalid("body", "json"))
		return
	}
	rec, err := h.svc.Submit(r.Context(), middleware.Credential(r), input, middleware.ClientIP(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, SubmissionEnvelope{
		ID:      rec.FeedbackID,
		Created: rec.CreatedAt.UTC().Format(time.RFC3339),
	})
}

// Probe answers GET on the submission path so operators can check the deployment.
func (h *FeedbackHandler) Probe(w http.ResponseWriter, _ *http.Request) {
	if !h.authConfigured {
		writeError(w, http.StatusInternalServerError, codeInternal, "shared secret is not configured")
		return
	}
	w.Header().Set("Allow", http.MethodPost)
	writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "submit feedback with POST")
}

func (h *FeedbackHandler) Upload(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxUploadBytes))
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeServiceError(w, r, domain.Invalid("body", "max_size"))
			return
		}
		writeError(w, http.StatusBadRequest, codeValidation, "could not read request body")
		return
	}
	up, err := h.svc.Upload(r.Context(), r.URL.Query().Get("filename"), bytes.NewReader(data), int64(len(data)))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, UploadEnvelope{Upload: up})
}
