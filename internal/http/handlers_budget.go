package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"financy/internal/budget"
	"financy/internal/core"
)

type listBudgetsResponse struct {
	Alerts []alertJSON `json:"alerts"`
}

// handleListBudgets returns every limit already evaluated against the
// current snapshot, so the client renders alerts without a second
// round trip.
func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	id, ok := s.owner(w, r)
	if !ok {
		return
	}

	upd, err := s.snapshot(r.Context(), id.OwnerID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to load entries",
			"error", err, "owner_id", id.OwnerID)
		writeError(w, r, http.StatusInternalServerError, "failed to load entries")
		return
	}

	snap := core.Aggregate(upd.Entries)
	alerts := budget.Evaluate(snap.ByCategory, s.budgets.List(id.OwnerID))

	writeJSON(w, r, http.StatusOK, listBudgetsResponse{Alerts: toAlerts(alerts)})
}

type setBudgetRequest struct {
	Category string          `json:"category"`
	Limit    decimal.Decimal `json:"limit"`
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	id, ok := s.owner(w, r)
	if !ok {
		return
	}

	var req setBudgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	err := s.budgets.Set(id.OwnerID, sanitizeInput(req.Category), req.Limit)
	switch {
	case errors.Is(err, budget.ErrEmptyCategory), errors.Is(err, budget.ErrNonPositiveLimit):
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		slog.ErrorContext(r.Context(), "Failed to set budget",
			"error", err, "owner_id", id.OwnerID)
		writeError(w, r, http.StatusInternalServerError, "failed to set budget")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveBudget(w http.ResponseWriter, r *http.Request) {
	id, ok := s.owner(w, r)
	if !ok {
		return
	}

	category := r.PathValue("category")
	if category == "" {
		writeError(w, r, http.StatusBadRequest, "category required")
		return
	}

	s.budgets.Remove(id.OwnerID, category)
	w.WriteHeader(http.StatusNoContent)
}
