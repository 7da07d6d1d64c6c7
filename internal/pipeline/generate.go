package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lexquest/lexquiz/internal/domain"
	"github.com/lexquest/lexquiz/internal/llm"
	"github.com/lexquest/lexquiz/internal/prompt"
	"github.com/lexquest/lexquiz/internal/reconcile"
	"github.com/lexquest/lexquiz/internal/validate"
)

// Generator runs the LLM generation step over planned batches. Batches are
// processed sequentially; one failed batch never aborts the remaining ones.
type Generator struct {
	client     llm.Client
	prompts    *prompt.Store
	builder    *prompt.Builder
	reconciler *reconcile.Reconciler
	validator  *validate.Validator
	stats      *llm.Stats
	log        *slog.Logger

	promptVersion string
	temperature   float64
	maxTokens     int
}

// GeneratorConfig tunes one Generator.
type GeneratorConfig struct {
	PromptVersion string
	Temperature   float64
	MaxTokens     int
}

func NewGenerator(client llm.Client, prompts *prompt.Store, validator *validate.Validator, stats *llm.Stats, log *slog.Logger, cfg GeneratorConfig) (*Generator, error) {
	if client == nil {
		return nil, fmt.Errorf("generator: llm client is required")
	}
	if prompts == nil {
		return nil, fmt.Errorf("generator: prompt store is required")
	}
	reconciler, err := reconcile.New(NewShortID)
	if err != nil {
		return nil, err
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = llm.DefaultMaxTokens
	}
	return &Generator{
		client:        client,
		prompts:       prompts,
		builder:       prompt.NewBuilder(),
		reconciler:    reconciler,
		validator:     validator,
		stats:         stats,
		log:           log,
		promptVersion: cfg.PromptVersion,
		temperature:   cfg.Temperature,
		maxTokens:     cfg.MaxTokens,
	}, nil
}

// Outcome is the aggregate of one generation run.
type Outcome struct {
	Questions []*domain.Question
	Invalid   []*domain.Question
	Totals    domain.BatchResult
}

// Run processes every batch and returns all reconciled questions together
// with run totals. The onBatch callback, when set, fires after each batch.
func (g *Generator) Run(ctx context.Context, batches []*domain.Batch, qt domain.QuestionType, onBatch func(*domain.Batch, domain.BatchResult)) (*Outcome, error) {
	system, err := g.prompts.SystemPrompt(qt, g.promptVersion)
	if err != nil {
		return nil, fmt.Errorf("load system prompt: %w", err)
	}

	outcome := &Outcome{}
	for _, batch := range batches {
		select {
		case <-ctx.Done():
			return outcome, ctx.Err()
		default:
		}

		result := g.runBatch(ctx, batch, qt, system, outcome)
		outcome.Totals.Merge(result)
		if onBatch != nil {
			onBatch(batch, result)
		}
	}
	return outcome, nil
}

func (g *Generator) runBatch(ctx context.Context, batch *domain.Batch, qt domain.QuestionType, system string, outcome *Outcome) domain.BatchResult {
	log := g.log.With("batch_id", batch.ID, "batch_index", batch.Index, "sections", len(batch.Sections))
	result := domain.BatchResult{BatchID: batch.ID}

	if err := batch.Start(); err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	promptText := g.builder.Build(batch.Sections, qt)
	log.Debug("prompt built", "estimated_tokens", prompt.EstimateTokens(promptText))

	resp, err := g.generate(ctx, log, llm.Request{
		System:      system,
		Prompt:      promptText,
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
	})
	if err != nil {
		log.Error("generation failed", "error", err)
		_ = batch.Fail(err)
		result.Errors = append(result.Errors, fmt.Sprintf("batch %d: %s", batch.Index, err))
		result.Elapsed = batch.Duration()
		return result
	}
	if g.stats != nil {
		g.stats.Record(resp)
	}

	questions, warnings := g.reconciler.Reconcile(resp.Content, qt, batch.Sections)
	result.Warnings = append(result.Warnings, warnings...)

	report := g.validator.Run(questions)
	for _, q := range questions {
		if q.IsValid() {
			outcome.Questions = append(outcome.Questions, q)
		} else {
			outcome.Invalid = append(outcome.Invalid, q)
		}
	}

	_ = batch.Complete(report.Valid, report.Invalid)

	result.Generated = report.Total
	result.Valid = report.Valid
	result.Invalid = report.Invalid
	result.InputTokens = resp.InputTokens
	result.OutputTokens = resp.OutputTokens
	result.CostUSD = resp.CostUSD
	result.Elapsed = batch.Duration()

	log.Info("batch processed",
		"generated", report.Total, "valid", report.Valid, "invalid", report.Invalid,
		"fixed", report.Fixed, "tokens", resp.TotalTokens(), "cost_usd", resp.CostUSD)
	return result
}

// generate calls the backend with bounded retries on transient errors.
func (g *Generator) generate(ctx context.Context, log *slog.Logger, req llm.Request) (*llm.Response, error) {
	var resp *llm.Response
	var lastErr error
	for attempt := range MaxRetries {
		resp, lastErr = g.client.Generate(ctx, req)
		if lastErr == nil || !IsRetryable(lastErr) {
			break
		}
		log.Warn("retryable generation error", "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(Backoff(attempt)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return resp, lastErr
}
