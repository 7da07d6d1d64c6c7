package api

import (
	"encoding/json"
	"net/http"
)

func (s *Server) handleLLMStats(w http.ResponseWriter, r *http.Request) {
	if s.client == nil || s.llmStats == nil {
		jsonError(w, "llm stats unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"provider": s.client.Provider(),
		"model":    s.client.Model(),
		"stats":    s.llmStats.Snapshot(),
	})
}

func (s *Server) handleExperimentStats(w http.ResponseWriter, r *http.Request) {
	if s.experiments == nil {
		jsonError(w, "experiment tracking disabled", http.StatusServiceUnavailable)
		return
	}
	stats, err := s.experiments.Statistics(r.Context())
	if err != nil {
		jsonError(w, "failed to load statistics: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(stats)
}

func (s *Server) handleListExperiments(w http.ResponseWriter, r *http.Request) {
	if s.experiments == nil {
		jsonError(w, "experiment tracking disabled", http.StatusServiceUnavailable)
		return
	}
	var (
		err  error
		list any
	)
	if status := r.URL.Query().Get("status"); status != "" {
		list, err = s.experiments.FindByStatus(r.Context(), status)
	} else {
		list, err = s.experiments.FindAll(r.Context())
	}
	if err != nil {
		jsonError(w, "failed to list experiments: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"experiments": list})
}
