package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lexquest/lexquiz/internal/domain"
)

func (s *Server) promptType(w http.ResponseWriter, r *http.Request) (domain.QuestionType, bool) {
	raw := chi.URLParam(r, "questionType")
	qt, err := domain.ParseQuestionType(raw)
	if err != nil {
		jsonError(w, "invalid question type: "+raw, http.StatusBadRequest)
		return "", false
	}
	return qt, true
}

func (s *Server) handleListPromptVersions(w http.ResponseWriter, r *http.Request) {
	qt, ok := s.promptType(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"question_type":  qt,
		"versions":       s.prompts.Versions(qt),
		"active_version": s.prompts.ActiveVersion(qt),
	})
}

func (s *Server) handleSavePromptVersion(w http.ResponseWriter, r *http.Request) {
	qt, ok := s.promptType(w, r)
	if !ok {
		return
	}
	var req struct {
		Version     string `json:"version"`
		Content     string `json:"content"`
		Description string `json:"description"`
		SetActive   bool   `json:"set_active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.prompts.SaveVersion(qt, req.Version, req.Content, req.Description, req.SetActive); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"question_type":  qt,
		"version":        req.Version,
		"active_version": s.prompts.ActiveVersion(qt),
	})
}

func (s *Server) handleSetActivePrompt(w http.ResponseWriter, r *http.Request) {
	qt, ok := s.promptType(w, r)
	if !ok {
		return
	}
	var req struct {
		Version string `json:"version"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.prompts.SetActiveVersion(qt, req.Version); err != nil {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"question_type":  qt,
		"active_version": req.Version,
	})
}
