package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lexquest/lexquiz/internal/config"
	"github.com/lexquest/lexquiz/internal/llm"
	"github.com/lexquest/lexquiz/internal/pipeline"
	"github.com/lexquest/lexquiz/internal/prompt"
	"github.com/lexquest/lexquiz/internal/store"
)

// Server is the HTTP API for the question generation service.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	client       llm.Client
	llmStats     *llm.Stats
	sections     *store.SectionStore
	questions    *store.QuestionStore
	documents    *store.DocumentStore
	experiments  *store.ExperimentStore
	prompts      *prompt.Store
	log          *slog.Logger
	cfg          config.Config
}

type ServerDeps struct {
	Orchestrator *pipeline.Orchestrator
	Client       llm.Client
	LLMStats     *llm.Stats
	Sections     *store.SectionStore
	Questions    *store.QuestionStore
	Documents    *store.DocumentStore
	Experiments  *store.ExperimentStore
	Prompts      *prompt.Store
	Log          *slog.Logger
	Config       config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(deps ServerDeps) *Server {
	s := &Server{
		orchestrator: deps.Orchestrator,
		client:       deps.Client,
		llmStats:     deps.LLMStats,
		sections:     deps.Sections,
		questions:    deps.Questions,
		documents:    deps.Documents,
		experiments:  deps.Experiments,
		prompts:      deps.Prompts,
		log:          deps.Log,
		cfg:          deps.Config,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/ingest", s.handleIngest)
		r.Post("/api/ingest/batch", s.handleBatchIngest)
		r.Get("/api/ingest/{jobID}/status", s.handleIngestStatus)

		r.Get("/api/documents", s.handleListDocuments)
		r.Delete("/api/documents/{docID}", s.handleDeleteDocument)
		r.Get("/api/documents/{docID}/sections", s.handleListSections)
		r.Post("/api/documents/{docID}/sections/export", s.handleExportSections)

		r.Get("/api/questions", s.handleListQuestions)
		r.Post("/api/questions/export", s.handleExportQuestions)

		r.Get("/api/prompts/{questionType}/versions", s.handleListPromptVersions)
		r.Post("/api/prompts/{questionType}/versions", s.handleSavePromptVersion)
		r.Put("/api/prompts/{questionType}/active", s.handleSetActivePrompt)

		r.Get("/api/stats/llm", s.handleLLMStats)
		r.Get("/api/stats/experiments", s.handleExperimentStats)
		r.Get("/api/experiments", s.handleListExperiments)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
