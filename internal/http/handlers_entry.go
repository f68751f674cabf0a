package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"financy/internal/core"
	"financy/internal/persist"
	"financy/internal/store"
)

const dateFormat = "2006-01-02"

type entryJSON struct {
	ID          string          `json:"id"`
	Kind        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Date        string          `json:"date"`
	Description string          `json:"description,omitempty"`
	CreatedAt   string          `json:"created_at,omitempty"`
}

func toEntryJSON(e core.Entry) entryJSON {
	out := entryJSON{
		ID:          e.ID,
		Kind:        string(e.Kind),
		Amount:      e.Amount,
		Category:    core.DisplayForm(e.Category),
		Date:        e.Date.Format(dateFormat),
		Description: e.Description,
	}
	if !e.CreatedAt.IsZero() {
		out.CreatedAt = e.CreatedAt.Format(time.RFC3339)
	}
	return out
}

func toEntryJSONs(entries []core.Entry) []entryJSON {
	out := make([]entryJSON, len(entries))
	for i, e := range entries {
		out[i] = toEntryJSON(e)
	}
	return out
}

type listEntriesResponse struct {
	Version int64       `json:"version"`
	Entries []entryJSON `json:"entries"`
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
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

	writeJSON(w, r, http.StatusOK, listEntriesResponse{
		Version: upd.Version,
		Entries: toEntryJSONs(upd.Entries),
	})
}

type createEntryRequest struct {
	Kind        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Date        string          `json:"date"`
	Description string          `json:"description"`
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := s.owner(w, r)
	if !ok {
		return
	}

	var req createEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	kind, err := core.ParseKind(req.Kind)
	if err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "type must be \"income\" or \"expense\"")
		return
	}

	date, err := time.Parse(dateFormat, req.Date)
	if err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "date must be YYYY-MM-DD")
		return
	}

	entry := core.Entry{
		OwnerID:     id.OwnerID,
		Kind:        kind,
		Amount:      req.Amount,
		Category:    sanitizeInput(req.Category),
		Date:        date,
		Description: sanitizeInput(req.Description),
	}
	if err := entry.Validate(); err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}

	entryID, err := s.entries.CreateEntry(r.Context(), entry)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to create entry",
			"error", err, "owner_id", id.OwnerID)
		writeError(w, r, http.StatusInternalServerError, "failed to save entry")
		return
	}

	writeJSON(w, r, http.StatusCreated, map[string]string{"id": entryID})
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := s.owner(w, r)
	if !ok {
		return
	}

	entryID := r.PathValue("id")
	if entryID == "" {
		writeError(w, r, http.StatusBadRequest, "entry id required")
		return
	}

	// Make sure the snapshot is loaded so ownership can be checked.
	if _, err := s.snapshot(r.Context(), id.OwnerID); err != nil {
		slog.ErrorContext(r.Context(), "Failed to load entries",
			"error", err, "owner_id", id.OwnerID)
		writeError(w, r, http.StatusInternalServerError, "failed to load entries")
		return
	}

	err := s.entries.DeleteEntry(r.Context(), id.OwnerID, entryID)
	switch {
	case errors.Is(err, store.ErrNotOwned), errors.Is(err, persist.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "entry not found")
		return
	case err != nil:
		slog.ErrorContext(r.Context(), "Failed to delete entry",
			"error", err, "owner_id", id.OwnerID, "entry_id", entryID)
		writeError(w, r, http.StatusInternalServerError, "failed to delete entry")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
