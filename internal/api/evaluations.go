package api

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/Mockaj/duvo/internal/eval"
)

// LedgerMetrics records read-side ledger failures.
type LedgerMetrics interface {
	RecordLedgerError(op string)
}

// EvaluationsHandler serves GET /api/evaluations/{session_id} with the latest
// ledger entry. A missing or empty ledger is 404; corruption is 500 since it
// indicates a persistence bug rather than "nothing recorded yet".
type EvaluationsHandler struct {
	Ledger  *eval.Ledger
	Logger  *zap.Logger
	Metrics LedgerMetrics
}

func (h *EvaluationsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session_id")
	if sessionID == "" {
		http.Error(w, "session id is required", http.StatusBadRequest)
		return
	}

	entry, err := h.Ledger.Latest(sessionID)
	switch {
	case errors.Is(err, eval.ErrNotFound):
		http.Error(w, "no evaluation found for this session", http.StatusNotFound)
		return
	case errors.Is(err, eval.ErrCorrupted):
		h.logger().Error("evaluation ledger corrupted",
			zap.String("session_id", sessionID),
			zap.Error(err))
		if h.Metrics != nil {
			h.Metrics.RecordLedgerError("read")
		}
		http.Error(w, "corrupted evaluation data", http.StatusInternalServerError)
		return
	case err != nil:
		h.logger().Error("evaluation lookup failed",
			zap.String("session_id", sessionID),
			zap.Error(err))
		if h.Metrics != nil {
			h.Metrics.RecordLedgerError("read")
		}
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

func (h *EvaluationsHandler) logger() *zap.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return zap.NewNop()
}
