package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/lexquest/lexquiz/internal/api"
	"github.com/lexquest/lexquiz/internal/classify"
	"github.com/lexquest/lexquiz/internal/config"
	"github.com/lexquest/lexquiz/internal/llm"
	"github.com/lexquest/lexquiz/internal/parser"
	"github.com/lexquest/lexquiz/internal/pipeline"
	"github.com/lexquest/lexquiz/internal/prompt"
	"github.com/lexquest/lexquiz/internal/scoring"
	"github.com/lexquest/lexquiz/internal/store"
	"github.com/lexquest/lexquiz/internal/validate"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := newLLMClient(cfg)
	if err != nil {
		log.Error("failed to build llm client", "error", err)
		os.Exit(1)
	}

	sections, err := store.NewSectionStore(filepath.Join(cfg.DataDir, "sections"))
	if err != nil {
		log.Error("failed to open section store", "error", err)
		os.Exit(1)
	}
	questions, err := store.NewQuestionStore(filepath.Join(cfg.DataDir, "questions"))
	if err != nil {
		log.Error("failed to open question store", "error", err)
		os.Exit(1)
	}
	documents, err := store.NewDocumentStore(filepath.Join(cfg.DataDir, "documents"))
	if err != nil {
		log.Error("failed to open document store", "error", err)
		os.Exit(1)
	}
	experiments, err := store.OpenExperimentStore(ctx, cfg.ExperimentDSN)
	if err != nil {
		log.Error("failed to open experiment store", "error", err)
		os.Exit(1)
	}

	engine := scoring.NewEngine()
	engine.AddDomainTerms(cfg.DomainTerms...)
	classifier := classify.New(engine)
	if err := classifier.SetThresholds(classify.Thresholds{
		Relevant:           cfg.RelevantThreshold,
		Review:             cfg.ReviewThreshold,
		AutoConserveLength: cfg.AutoConserveLength,
	}); err != nil {
		log.Error("invalid classification thresholds", "error", err)
		os.Exit(1)
	}

	sectionizer, err := parser.NewSectionizer(parser.SectionizerConfig{
		MinSectionLength:   cfg.MinSectionLength,
		MergeShortSections: cfg.MergeShortSections,
		MergeThreshold:     parser.DefaultSectionizerConfig().MergeThreshold,
	}, pipeline.NewID)
	if err != nil {
		log.Error("invalid sectionizer configuration", "error", err)
		os.Exit(1)
	}

	prompts := prompt.NewStore(cfg.PromptDir)
	llmStats := llm.NewStats(time.Hour)
	validator := validate.New(validate.Level(cfg.ValidationLevel), cfg.AutoFix)

	generator, err := pipeline.NewGenerator(client, prompts, validator, llmStats, log, pipeline.GeneratorConfig{
		PromptVersion: cfg.PromptVersion,
		Temperature:   cfg.Temperature,
		MaxTokens:     cfg.MaxTokens,
	})
	if err != nil {
		log.Error("failed to build generator", "error", err)
		os.Exit(1)
	}

	worker := pipeline.NewWorker(pipeline.WorkerDeps{
		Sectionizer:   sectionizer,
		Classifier:    classifier,
		Generator:     generator,
		Sections:      sections,
		Questions:     questions,
		Documents:     documents,
		Experiments:   experiments,
		Log:           log,
		BatchSize:     cfg.BatchSize,
		Provider:      client.Provider(),
		Model:         client.Model(),
		PromptVersion: cfg.PromptVersion,
	})

	orch := pipeline.NewOrchestrator(cfg, worker, log)
	orch.Start(ctx)

	srv := api.NewServer(api.ServerDeps{
		Orchestrator: orch,
		Client:       client,
		LLMStats:     llmStats,
		Sections:     sections,
		Questions:    questions,
		Documents:    documents,
		Experiments:  experiments,
		Prompts:      prompts,
		Log:          log,
		Config:       cfg,
	})

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		if err := experiments.Close(); err != nil {
			log.Warn("experiment store close failed", "error", err)
		}
	}()

	log.Info("starting lexquiz",
		"port", cfg.Port, "provider", client.Provider(), "model", client.Model(),
		"question_type", cfg.QuestionType, "workers", cfg.WorkerCount)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

// newLLMClient builds the configured generation backend.
func newLLMClient(cfg config.Config) (llm.Client, error) {
	switch cfg.Provider {
	case "anthropic":
		return llm.NewAnthropicClient(cfg.AnthropicAPIKey, cfg.AnthropicModel), nil
	case "ollama":
		return llm.NewOllamaClient(cfg.OllamaHost, cfg.OllamaModel)
	case "openai":
		return llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL, "openai"), nil
	case "mock":
		return llm.NewMockClient(), nil
	}
	return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
}
