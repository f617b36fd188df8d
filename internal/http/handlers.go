package httpapi

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/nikas17mc/digital-technician-dashboard/internal/ledger"
	"github.com/nikas17mc/digital-technician-dashboard/internal/reporting"
	"github.com/nikas17mc/digital-technician-dashboard/internal/settings"
)

// Handlers serves the workshop API on top of the ledger, the reporting
// engine and the settings manager.
type Handlers struct {
	ledger   *ledger.Ledger
	engine   *reporting.Engine
	settings *settings.Manager
	logger   *zap.Logger
}

func NewHandlers(l *ledger.Ledger, e *reporting.Engine, s *settings.Manager, logger *zap.Logger) *Handlers {
	return &Handlers{
		ledger:   l,
		engine:   e,
		settings: s,
		logger:   logger,
	}
}

type errorDetails struct {
	Errors any `json:"errors"`
}

// writeError maps domain errors to status codes. Unknown errors are logged
// and answered with a generic 500.
func (h *Handlers) writeError(w http.ResponseWriter, op string, err error) {
	var (
		verr *ledger.ValidationError
		serr *settings.ValidationError
	)
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, FailWithDetails("invalid input", errorDetails{Errors: verr.Errors}))
	case errors.As(err, &serr):
		writeJSON(w, http.StatusBadRequest, FailWithDetails("invalid settings", errorDetails{Errors: serr.Problems}))
	case errors.Is(err, settings.ErrInvalid),
		errors.Is(err, reporting.ErrInvalidRange),
		errors.Is(err, reporting.ErrInvalidDate):
		writeJSON(w, http.StatusBadRequest, Fail(err.Error()))
	case errors.Is(err, reporting.ErrReconcilerUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, Fail(err.Error()))
	default:
		h.logger.Error(op+" failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("internal server error"))
	}
}

// invalidate drops cached analyses after the ledger changed.
func (h *Handlers) invalidate(ctx context.Context) {
	if err := h.engine.ClearCache(ctx); err != nil {
		h.logger.Warn("Failed to clear analysis cache", zap.Error(err))
	}
}

// Healthz reports liveness.
func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"status":  "ok",
		"entries": h.ledger.Len(),
	}))
}
