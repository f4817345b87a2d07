package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-feedback-service/internal/application/caretaker"
)

// CaretakerEnvelope carries the run counters. Partial is set when the run
// hit its budget before the scan finished; the next run picks up the rest.
type CaretakerEnvelope struct {
	caretaker.Result
	Partial bool `json:"partial,omitempty"`
}

// CaretakerHandler exposes the housekeeping run for an external scheduler.
// Runs are bounded by budget so the counters are written before the server's
// write deadline. Stores too large to sweep within it belong to cmd/caretaker.
type CaretakerHandler struct {
	svc       caretaker.Service
	threshold time.Duration
	budget    time.Duration
}

func NewCaretakerHandler(svc caretaker.Service, threshold, budget time.Duration) *CaretakerHandler {
	return &CaretakerHandler{svc: svc, threshold: threshold, budget: budget}
}

func (h *CaretakerHandler) Run(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.budget)
		defer cancel()
	}

	res, err := h.svc.Run(ctx, h.threshold)
	if err != nil {
		if ctx.Err() != nil && r.Context().Err() == nil {
			slog.Warn("housekeeping run exceeded its budget",
				"budget", h.budget.String(), "scanned", res.Scanned, "deleted", res.Deleted)
			writeJSON(w, http.StatusOK, CaretakerEnvelope{Result: res, Partial: true})
			return
		}
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CaretakerEnvelope{Result: res})
}
