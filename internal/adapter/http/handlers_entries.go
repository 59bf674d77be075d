package adapthttp

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"weightlog/internal/domain"
)

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	items, err := s.entries.List(r.Context(), userIDFromContext(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleUpsertEntry(w http.ResponseWriter, r *http.Request) {
	var m domain.Measurement
	if err := parseJSON(r, &m); err != nil {
		writeError(w, r, err)
		return
	}
	entry, err := s.entries.Upsert(r.Context(), userIDFromContext(r), m)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, r, fmt.Errorf("%w: entry id must be a positive integer", domain.ErrValidation))
		return
	}
	var m domain.Measurement
	if err := parseJSON(r, &m); err != nil {
		writeError(w, r, err)
		return
	}
	entry, err := s.entries.Update(r.Context(), userIDFromContext(r), id, m)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	date, err := domain.ParseDate(r.PathValue("date"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.entries.Delete(r.Context(), userIDFromContext(r), date); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteAllEntries(w http.ResponseWriter, r *http.Request) {
	n, err := s.entries.DeleteAll(r.Context(), userIDFromContext(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": n})
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.entries.ExportCSV(r.Context(), userIDFromContext(r), &buf); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="weightlog.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// handleImportCSV accepts the file either as a multipart "file" field or as
// the raw request body.
func (s *Server) handleImportCSV(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	data, err := readUpload(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if len(data) > 0 && !isText(mimetype.Detect(data)) {
		writeError(w, r, fmt.Errorf("%w: upload is not a text file", domain.ErrMalformedInput))
		return
	}

	n, err := s.entries.ImportCSV(r.Context(), userIDFromContext(r), bytes.NewReader(data))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"imported": n})
}

func readUpload(r *http.Request) ([]byte, error) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return io.ReadAll(r.Body)
	}
	f, _, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: multipart field \"file\" is required", domain.ErrMalformedInput)
	}
	defer f.Close()
	return io.ReadAll(f)
}

// isText reports whether m is text/plain or one of its descendants.
func isText(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}
