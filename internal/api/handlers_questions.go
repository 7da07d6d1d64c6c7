package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/lexquest/lexquiz/internal/domain"
	"github.com/lexquest/lexquiz/internal/store"
)

// handleListQuestions lists questions, narrowed by query parameters: tipo,
// status, section_id, dificultad, tags (comma separated, all_tags=true to
// require every tag).
func (s *Server) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.QuestionFilter{
		Status:       domain.QuestionStatus(q.Get("status")),
		SectionID:    q.Get("section_id"),
		Difficulty:   domain.Difficulty(q.Get("dificultad")),
		MatchAllTags: q.Get("all_tags") == "true",
	}
	if raw := q.Get("tipo"); raw != "" {
		qt, err := domain.ParseQuestionType(raw)
		if err != nil {
			jsonError(w, "invalid tipo: "+raw, http.StatusBadRequest)
			return
		}
		filter.Type = qt
	}
	if raw := q.Get("tags"); raw != "" {
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				filter.Tags = append(filter.Tags, tag)
			}
		}
	}

	questions := s.questions.Find(filter)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"total":     len(questions),
		"by_type":   s.questions.CountByType(),
		"by_status": s.questions.CountByStatus(),
		"questions": questions,
	})
}

// handleExportQuestions writes the current validated questions as a deck
// file (or an Anki card file with format=anki) and returns its path.
func (s *Server) handleExportQuestions(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")
	if prefix == "" {
		prefix = "preguntas"
	}
	var (
		path string
		err  error
	)
	if r.URL.Query().Get("format") == "anki" {
		target := strings.TrimSuffix(s.questions.ExportPath(prefix), ".json") + ".csv"
		path, err = s.questions.ExportAnkiCSV(target)
	} else {
		path, err = s.questions.ExportJSON(s.questions.ExportPath(prefix))
	}
	if err != nil {
		jsonError(w, "export failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	exported := s.questions.CountByStatus()[domain.QuestionExported]
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"path":     path,
		"exported": exported,
	})
}
