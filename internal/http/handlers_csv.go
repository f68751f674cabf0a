package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"financy/internal/csvio"
)

// csvBody extracts the CSV payload: the "file" field of a multipart
// upload, or the raw request body otherwise.
func csvBody(r *http.Request) (io.Reader, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			return nil, fmt.Errorf("parse multipart form: %w", err)
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, fmt.Errorf("read file field: %w", err)
		}
		return file, nil
	}
	return r.Body, nil
}

type importPreviewResponse struct {
	Rows       []entryJSON `json:"rows"`
	RowErrors  []string    `json:"row_errors"`
	ValidCount int         `json:"valid_count"`
	ErrorCount int         `json:"error_count"`
}

// handleImportPreview parses the upload and reports what would be
// imported without writing anything.
func (s *Server) handleImportPreview(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.owner(w, r); !ok {
		return
	}

	body, err := csvBody(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	res, err := csvio.Import(body)
	var headerErr *csvio.HeaderError
	switch {
	case errors.As(err, &headerErr):
		writeError(w, r, http.StatusUnprocessableEntity, headerErr.Error())
		return
	case err != nil:
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, r, http.StatusOK, importPreviewResponse{
		Rows:       toEntryJSONs(res.Rows),
		RowErrors:  res.RowErrors,
		ValidCount: len(res.Rows),
		ErrorCount: len(res.RowErrors),
	})
}

type importCommitResponse struct {
	Created   int      `json:"created"`
	RowErrors []string `json:"row_errors"`
}

// handleImportCommit parses the upload and persists the valid rows.
// Parse and persistence failures are reported together; a partially
// failed import is still a 200.
func (s *Server) handleImportCommit(w http.ResponseWriter, r *http.Request) {
	id, ok := s.owner(w, r)
	if !ok {
		return
	}

	body, err := csvBody(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	res, err := csvio.Import(body)
	var headerErr *csvio.HeaderError
	switch {
	case errors.As(err, &headerErr):
		writeError(w, r, http.StatusUnprocessableEntity, headerErr.Error())
		return
	case err != nil:
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	report, err := s.entries.ImportEntries(r.Context(), id.OwnerID, res.Rows)
	if err != nil {
		slog.ErrorContext(r.Context(), "Import failed",
			"error", err, "owner_id", id.OwnerID)
		writeError(w, r, http.StatusInternalServerError, "import failed")
		return
	}

	writeJSON(w, r, http.StatusOK, importCommitResponse{
		Created:   report.Created,
		RowErrors: append(res.RowErrors, report.RowErrors...),
	})
}

// handleExport streams the owner's entries as a CSV download.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
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

	var buf bytes.Buffer
	if err := csvio.Export(&buf, upd.Entries); err != nil {
		slog.ErrorContext(r.Context(), "Export failed",
			"error", err, "owner_id", id.OwnerID)
		writeError(w, r, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", csvio.ExportFilename(time.Now())))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
