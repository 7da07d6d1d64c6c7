package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/lexquest/lexquiz/internal/classify"
	"github.com/lexquest/lexquiz/internal/domain"
	"github.com/lexquest/lexquiz/internal/parser"
	"github.com/lexquest/lexquiz/internal/planner"
	"github.com/lexquest/lexquiz/internal/store"
)

// Worker runs one document through the full pipeline: parse, sectionize,
// classify, generate, validate, export.
type Worker struct {
	sectionizer *parser.Sectionizer
	classifier  *classify.Classifier
	generator   *Generator
	sections    *store.SectionStore
	questions   *store.QuestionStore
	documents   *store.DocumentStore
	experiments *store.ExperimentStore
	log         *slog.Logger

	// batchSize 0 means size adapts to section length distribution.
	batchSize     int
	provider      string
	model         string
	promptVersion string
}

type WorkerDeps struct {
	Sectionizer *parser.Sectionizer
	Classifier  *classify.Classifier
	Generator   *Generator
	Sections    *store.SectionStore
	Questions   *store.QuestionStore
	Documents   *store.DocumentStore
	Experiments *store.ExperimentStore
	Log         *slog.Logger

	BatchSize     int
	Provider      string
	Model         string
	PromptVersion string
}

func NewWorker(deps WorkerDeps) *Worker {
	return &Worker{
		sectionizer:   deps.Sectionizer,
		classifier:    deps.Classifier,
		generator:     deps.Generator,
		sections:      deps.Sections,
		questions:     deps.Questions,
		documents:     deps.Documents,
		experiments:   deps.Experiments,
		log:           deps.Log,
		batchSize:     deps.BatchSize,
		provider:      deps.Provider,
		model:         deps.Model,
		promptVersion: deps.PromptVersion,
	}
}

// Process runs the pipeline for a job. Failures at any phase mark the job
// failed; a generation run with some valid questions and some batch errors
// ends partial.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID, "filename", job.Filename)
	data := job.FileData()
	defer job.SetFileData(nil)

	// Phase 1: parse.
	job.SetStatus(StatusParsing, "parsing")
	p, err := parser.ForFile(job.Filename)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	tree, err := p.Parse(bytes.NewReader(data), job.Filename)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	if job.Title != "" {
		tree.Title = job.Title
	}

	// Dedup on raw content hash before doing any expensive work.
	hash := domain.HashContent(data)
	job.ContentHash = hash
	if existing := w.documents.FindByHash(hash); existing != nil {
		log.Info("duplicate document, skipping", "existing_doc_id", existing.ID)
		job.AddError(fmt.Sprintf("duplicate of document %s", existing.ID))
		job.SetStatus(StatusDupSkipped, "dedup")
		return
	}

	format := strings.TrimPrefix(filepath.Ext(job.Filename), ".")
	doc, err := domain.NewDocument(job.DocID, job.Filename, format, data)
	if err != nil {
		log.Error("document record failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	doc.Pages = tree.Pages
	if err := w.documents.Save(doc); err != nil {
		log.Warn("document save failed", "error", err)
	}

	// Phase 2: sectionize.
	job.SetStatus(StatusSectioning, "sectioning")
	sections, err := w.sectionizer.Sections(job.DocID, tree)
	if err != nil {
		log.Error("sectioning failed", "error", err)
		job.AddError(fmt.Sprintf("sectionize: %s", err))
		w.failDocument(doc, job, "sectioning")
		return
	}
	if len(sections) == 0 {
		log.Warn("no usable sections")
		job.AddError("no usable sections")
		w.failDocument(doc, job, "sectioning")
		return
	}
	doc.Status = domain.DocumentSectioned
	_ = w.documents.Save(doc)

	// Phase 3: classify.
	job.SetStatus(StatusClassifying, "classifying")
	stats, err := w.classifier.ClassifyAll(sections)
	if err != nil {
		log.Error("classification failed", "error", err)
		job.AddError(fmt.Sprintf("classify: %s", err))
		w.failDocument(doc, job, "classifying")
		return
	}
	w.sections.SaveAll(sections)
	relevant := w.sections.FindRelevant(job.DocID)
	job.SetSections(stats.Total, len(relevant))
	log.Info("sections classified",
		"total", stats.Total, "relevant", stats.Relevant, "auto_conserved", stats.AutoKept,
		"review_needed", stats.ReviewNeeded, "discardable", stats.Discardable,
		"avg_score", stats.AvgScore())

	if csvPath, err := w.sections.ExportCSV(job.DocID); err != nil {
		log.Warn("section export failed", "error", err)
	} else {
		log.Info("sections exported", "path", csvPath)
	}

	if len(relevant) == 0 {
		log.Warn("no relevant sections, nothing to generate")
		job.AddError("no relevant sections after classification")
		w.failDocument(doc, job, "classifying")
		return
	}

	// Phase 4: plan and generate.
	job.SetStatus(StatusGenerating, "generating")
	size := w.batchSize
	if size <= 0 {
		size = planner.OptimalBatchSize(relevant)
	}
	plan, err := planner.New(size, NewID)
	if err != nil {
		job.AddError(err.Error())
		w.failDocument(doc, job, "generating")
		return
	}
	batches, err := plan.Plan(relevant)
	if err != nil {
		log.Error("batch planning failed", "error", err)
		job.AddError(fmt.Sprintf("plan: %s", err))
		w.failDocument(doc, job, "generating")
		return
	}
	job.SetTotalBatches(len(batches))
	log.Info("batches planned", "batches", len(batches), "batch_size", size)

	expID := w.startExperiment(ctx, job, size, hash, log)
	started := time.Now()

	outcome, runErr := w.generator.Run(ctx, batches, job.QuestionType, func(b *domain.Batch, r domain.BatchResult) {
		job.IncrBatchesProcessed()
		job.AddQuestions(r.Generated, r.Valid, r.CostUSD)
	})
	if runErr != nil {
		log.Error("generation aborted", "error", runErr)
		job.AddError(fmt.Sprintf("generate: %s", runErr))
		w.finishExperiment(ctx, expID, outcome, time.Since(started), runErr)
		w.failDocument(doc, job, "generating")
		return
	}
	for _, msg := range outcome.Totals.Errors {
		job.AddError(msg)
	}

	// Phase 5: persist and export. Validation already ran per batch.
	job.SetStatus(StatusValidating, "validating")
	w.questions.SaveAll(outcome.Questions)
	w.questions.SaveAll(outcome.Invalid)

	job.SetStatus(StatusExporting, "exporting")
	exportPath := ""
	if len(outcome.Questions) > 0 {
		path := w.questions.ExportPath("preguntas_" + string(job.QuestionType))
		if written, err := w.questions.ExportJSON(path); err != nil {
			log.Error("question export failed", "error", err)
			job.AddError(fmt.Sprintf("export: %s", err))
		} else {
			exportPath = written
		}
	}
	if len(outcome.Invalid) > 0 {
		invalidPath := w.questions.ExportPath("preguntas_invalidas")
		if _, err := w.questions.ExportInvalid(outcome.Invalid, invalidPath); err != nil {
			log.Warn("invalid question export failed", "error", err)
		}
	}
	job.SetExportPath(exportPath)

	w.finishExperiment(ctx, expID, outcome, time.Since(started), nil)

	hadErrors := len(outcome.Totals.Errors) > 0
	switch {
	case hadErrors && len(outcome.Questions) > 0:
		doc.Status = domain.DocumentProcessed
		_ = w.documents.Save(doc)
		job.SetStatus(StatusPartial, "done")
	case hadErrors || len(outcome.Questions) == 0:
		w.failDocument(doc, job, "generating")
		return
	default:
		doc.Status = domain.DocumentProcessed
		_ = w.documents.Save(doc)
		job.SetStatus(StatusCompleted, "done")
	}
	log.Info("job finished",
		"status", job.Snapshot().Status, "questions_valid", len(outcome.Questions),
		"questions_invalid", len(outcome.Invalid), "cost_usd", outcome.Totals.CostUSD,
		"export_path", exportPath)
}

func (w *Worker) failDocument(doc *domain.Document, job *Job, phase string) {
	doc.Status = domain.DocumentFailed
	_ = w.documents.Save(doc)
	job.SetStatus(StatusFailed, phase)
}

// startExperiment records run configuration for later comparison. A nil
// experiment store disables tracking.
func (w *Worker) startExperiment(ctx context.Context, job *Job, batchSize int, hash string, log *slog.Logger) string {
	if w.experiments == nil {
		return ""
	}
	exp := &store.Experiment{
		ID:            NewShortID(),
		Provider:      w.provider,
		Model:         w.model,
		BatchSize:     batchSize,
		QuestionType:  string(job.QuestionType),
		PromptVersion: w.promptVersion,
		SourceHash:    hash,
	}
	if err := w.experiments.Create(ctx, exp); err != nil {
		log.Warn("experiment create failed", "error", err)
		return ""
	}
	job.SetExperimentID(exp.ID)
	return exp.ID
}

func (w *Worker) finishExperiment(ctx context.Context, id string, outcome *Outcome, elapsed time.Duration, runErr error) {
	if w.experiments == nil || id == "" {
		return
	}
	if outcome != nil {
		_ = w.experiments.UpdateResults(ctx, id,
			outcome.Totals.Generated, outcome.Totals.Valid,
			elapsed.Seconds(), outcome.Totals.CostUSD,
			outcome.Totals.InputTokens+outcome.Totals.OutputTokens)
	}
	if runErr != nil {
		_ = w.experiments.Fail(ctx, id, runErr.Error())
		return
	}
	_ = w.experiments.Complete(ctx, id)
}
