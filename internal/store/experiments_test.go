package store

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestExperiments(t *testing.T) *ExperimentStore {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "experiments.db")
	s, err := OpenExperimentStore(context.Background(), dsn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestExperimentStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	s := openTestExperiments(t)

	exp := &Experiment{
		ID:            "exp-1",
		Provider:      "anthropic",
		Model:         "claude-3-5-haiku-latest",
		BatchSize:     5,
		QuestionType:  "flashcards",
		PromptVersion: "1.0",
		SourceHash:    "abc123",
	}
	if err := s.Create(ctx, exp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := s.FindByID(ctx, "exp-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.Status != ExperimentRunning {
		t.Fatalf("expected running experiment, got %+v", got)
	}
	if got.Provider != "anthropic" || got.BatchSize != 5 || got.PromptVersion != "1.0" {
		t.Errorf("config not persisted: %+v", got)
	}
	if got.CompletedAt != nil {
		t.Error("expected no completion time yet")
	}

	if err := s.UpdateResults(ctx, "exp-1", 20, 18, 42.5, 0.0132, 15000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Complete(ctx, "exp-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err = s.FindByID(ctx, "exp-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != ExperimentCompleted || got.CompletedAt == nil {
		t.Errorf("expected completed experiment, got %+v", got)
	}
	if got.TotalQuestions != 20 || got.ValidQuestions != 18 || got.TokensUsed != 15000 {
		t.Errorf("results not persisted: %+v", got)
	}
	if got.TotalCostUSD != 0.0132 {
		t.Errorf("unexpected cost: %g", got.TotalCostUSD)
	}
}

func TestExperimentStore_FailAndStatistics(t *testing.T) {
	ctx := context.Background()
	s := openTestExperiments(t)

	for _, exp := range []*Experiment{
		{ID: "exp-1", Provider: "anthropic", Model: "m", BatchSize: 5, QuestionType: "flashcards"},
		{ID: "exp-2", Provider: "ollama", Model: "m", BatchSize: 3, QuestionType: "cloze"},
		{ID: "exp-3", Provider: "ollama", Model: "m", BatchSize: 3, QuestionType: "cloze"},
	} {
		if err := s.Create(ctx, exp); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if err := s.UpdateResults(ctx, "exp-1", 10, 9, 30, 0.01, 5000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Complete(ctx, "exp-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Fail(ctx, "exp-2", "provider timeout"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	failed, err := s.FindByStatus(ctx, ExperimentFailed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(failed) != 1 || failed[0].Error != "provider timeout" {
		t.Errorf("unexpected failed experiments: %+v", failed)
	}

	stats, err := s.Statistics(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Total != 3 || stats.Completed != 1 || stats.Failed != 1 || stats.Running != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if stats.TotalQuestions != 10 || stats.TotalCostUSD != 0.01 {
		t.Errorf("unexpected completed aggregates: %+v", stats)
	}
	if stats.AvgExecSecs != 30 {
		t.Errorf("unexpected average execution time: %g", stats.AvgExecSecs)
	}

	missing, err := s.FindByID(ctx, "exp-404")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing id, got %+v", missing)
	}
}
