package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lexquest/lexquiz/internal/classify"
	"github.com/lexquest/lexquiz/internal/domain"
	"github.com/lexquest/lexquiz/internal/llm"
	"github.com/lexquest/lexquiz/internal/parser"
	"github.com/lexquest/lexquiz/internal/prompt"
	"github.com/lexquest/lexquiz/internal/scoring"
	"github.com/lexquest/lexquiz/internal/store"
	"github.com/lexquest/lexquiz/internal/validate"
)

const workerFixture = `# Código Civil

## Artículo 1545

El contrato legalmente celebrado es una ley para los contratantes, y no puede
ser invalidado sino por su consentimiento mutuo o por causas legales. Las
obligaciones que nacen del contrato deben cumplirse de buena fe, y por
consiguiente obligan no solo a lo que en ellas se expresa. El deudor que
incumple una obligación contractual responde de los perjuicios causados al
acreedor, salvo que pruebe caso fortuito o fuerza mayor.

## Artículo 1560

Conocida claramente la intención de los contratantes, debe estarse a ella más
que a lo literal de las palabras. La interpretación del contrato busca la
voluntad común de las partes contratantes por sobre el sentido gramatical de
las cláusulas, y el juez debe preferir el sentido en que una cláusula puede
producir algún efecto jurídico sobre aquel en que no produce efecto alguno.
`

func newTestWorker(t *testing.T, client llm.Client) (*Worker, *store.QuestionStore) {
	t.Helper()
	base := t.TempDir()

	sectionizer, err := parser.NewSectionizer(parser.DefaultSectionizerConfig(), NewID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sections, err := store.NewSectionStore(filepath.Join(base, "sections"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	questions, err := store.NewQuestionStore(filepath.Join(base, "questions"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	documents, err := store.NewDocumentStore(filepath.Join(base, "documents"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	generator, err := NewGenerator(client, prompt.NewStore(""), validate.New(validate.LevelModerate, true),
		llm.NewStats(time.Hour), testLogger(), GeneratorConfig{Temperature: 0.7, MaxTokens: 1024})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	w := NewWorker(WorkerDeps{
		Sectionizer: sectionizer,
		Classifier:  classify.New(scoring.NewEngine()),
		Generator:   generator,
		Sections:    sections,
		Questions:   questions,
		Documents:   documents,
		Log:         testLogger(),
		BatchSize:   10,
		Provider:    "mock",
		Model:       "mock-model",
	})
	return w, questions
}

func newTestJob(filename string, data []byte) *Job {
	job := &Job{
		ID:           NewID(),
		DocID:        NewShortID(),
		Filename:     filename,
		QuestionType: domain.TypeFlashcard,
		CreatedAt:    time.Now(),
	}
	job.SetStatus(StatusQueued, "queued")
	job.SetFileData(data)
	return job
}

func TestWorker_ProcessCompletesDocument(t *testing.T) {
	client := llm.NewMockClient(flashcardPayload)
	w, questions := newTestWorker(t, client)

	job := newTestJob("codigo.md", []byte(workerFixture))
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected completed job, got %s (errors: %v)", snap.Status, snap.Progress.Errors)
	}
	if snap.Progress.TotalSections == 0 || snap.Progress.RelevantSections == 0 {
		t.Errorf("section counts not recorded: %+v", snap.Progress)
	}
	if snap.Progress.QuestionsValid == 0 {
		t.Errorf("no valid questions recorded: %+v", snap.Progress)
	}
	if snap.ExportPath == "" {
		t.Fatal("expected an export path on the finished job")
	}
	if _, err := os.Stat(snap.ExportPath); err != nil {
		t.Errorf("export file missing: %v", err)
	}
	if !strings.Contains(filepath.Base(snap.ExportPath), "preguntas_flashcards") {
		t.Errorf("unexpected export filename: %s", snap.ExportPath)
	}
	if got := questions.CountByStatus()[domain.QuestionExported]; got == 0 {
		t.Errorf("exported questions not marked, counts: %v", questions.CountByStatus())
	}
}

func TestWorker_SkipsDuplicateContent(t *testing.T) {
	client := llm.NewMockClient(flashcardPayload)
	w, _ := newTestWorker(t, client)

	first := newTestJob("codigo.md", []byte(workerFixture))
	w.Process(context.Background(), first)
	if first.Snapshot().Status != StatusCompleted {
		t.Fatalf("setup run failed: %+v", first.Snapshot())
	}

	second := newTestJob("codigo-copia.md", []byte(workerFixture))
	w.Process(context.Background(), second)
	if second.Snapshot().Status != StatusDupSkipped {
		t.Errorf("expected duplicate_skipped, got %s", second.Snapshot().Status)
	}
}

func TestWorker_UnsupportedFormatFails(t *testing.T) {
	w, _ := newTestWorker(t, llm.NewMockClient())
	job := newTestJob("imagen.png", []byte{0x89, 0x50})
	w.Process(context.Background(), job)
	if job.Snapshot().Status != StatusFailed {
		t.Errorf("expected failed job, got %s", job.Snapshot().Status)
	}
}

func TestWorker_GenerationFailureFailsJob(t *testing.T) {
	client := llm.NewMockClient()
	client.FailWith(llm.ErrMockFailure)
	w, _ := newTestWorker(t, client)

	job := newTestJob("codigo.md", []byte(workerFixture))
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusFailed {
		t.Errorf("expected failed job, got %s", snap.Status)
	}
	if len(snap.Progress.Errors) == 0 {
		t.Error("expected recorded errors on the failed job")
	}
}
