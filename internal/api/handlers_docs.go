package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/lexquest/lexquiz/internal/domain"
)

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs := s.documents.FindAll()
	out := make([]map[string]any, 0, len(docs))
	for _, d := range docs {
		out = append(out, map[string]any{
			"id":           d.ID,
			"filename":     d.Filename,
			"format":       d.Format,
			"content_hash": d.ContentHash,
			"size_bytes":   d.SizeBytes,
			"pages":        d.Pages,
			"status":       d.Status,
			"sections":     s.sections.Count(d.ID),
			"ingested_at":  d.IngestedAt,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"documents": out})
}

// handleDeleteDocument removes a document together with its sections.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	if s.documents.FindByID(docID) == nil {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}
	removed := s.sections.DeleteAll(docID)
	if err := s.documents.Delete(docID); err != nil {
		jsonError(w, "failed to delete document: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"doc_id":           docID,
		"sections_deleted": removed,
	})
}

// handleListSections returns a document's sections, optionally filtered by
// classification label.
func (s *Server) handleListSections(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	if s.documents.FindByID(docID) == nil {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}

	var sections []*domain.Section
	if raw := r.URL.Query().Get("label"); raw != "" {
		label, ok := parseLabel(raw)
		if !ok {
			jsonError(w, "unknown label: "+raw, http.StatusBadRequest)
			return
		}
		sections = s.sections.FindByLabel(docID, label)
	} else {
		sections = s.sections.FindAll(docID)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"doc_id":   docID,
		"total":    len(sections),
		"by_label": s.sections.CountByLabel(docID),
		"sections": sections,
	})
}

// handleExportSections writes the semicolon-delimited CSV snapshot of a
// document's sections and returns its path.
func (s *Server) handleExportSections(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	if s.documents.FindByID(docID) == nil {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}
	path, err := s.sections.ExportCSV(docID)
	if err != nil {
		jsonError(w, "export failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"doc_id":   docID,
		"path":     path,
		"sections": s.sections.Count(docID),
	})
}

func parseLabel(raw string) (domain.Label, bool) {
	switch domain.Label(strings.ToUpper(strings.TrimSpace(raw))) {
	case domain.LabelRelevant:
		return domain.LabelRelevant, true
	case domain.LabelDiscardable:
		return domain.LabelDiscardable, true
	case domain.LabelReviewNeeded:
		return domain.LabelReviewNeeded, true
	case domain.LabelAutoConserved:
		return domain.LabelAutoConserved, true
	}
	return "", false
}
