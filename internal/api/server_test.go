package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

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

const testAPIKey = "test-key"

func newTestServer(t *testing.T) *Server {
	t.Helper()
	base := t.TempDir()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := config.Config{
		APIKey:         testAPIKey,
		QuestionType:   "flashcards",
		WorkerCount:    1,
		MaxQueueSize:   4,
		JobTTL:         time.Hour,
		MaxUploadBytes: 1 << 20,
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

	client := llm.NewMockClient()
	stats := llm.NewStats(time.Hour)
	prompts := prompt.NewStore(filepath.Join(base, "prompts"))

	sectionizer, err := parser.NewSectionizer(parser.DefaultSectionizerConfig(), pipeline.NewID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	generator, err := pipeline.NewGenerator(client, prompts, validate.New(validate.LevelModerate, true),
		stats, log, pipeline.GeneratorConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	worker := pipeline.NewWorker(pipeline.WorkerDeps{
		Sectionizer: sectionizer,
		Classifier:  classify.New(scoring.NewEngine()),
		Generator:   generator,
		Sections:    sections,
		Questions:   questions,
		Documents:   documents,
		Log:         log,
		BatchSize:   10,
		Provider:    client.Provider(),
		Model:       client.Model(),
	})
	orch := pipeline.NewOrchestrator(cfg, worker, log)

	return NewServer(ServerDeps{
		Orchestrator: orch,
		Client:       client,
		LLMStats:     stats,
		Sections:     sections,
		Questions:    questions,
		Documents:    documents,
		Prompts:      prompts,
		Log:          log,
		Config:       cfg,
	})
}

func authed(req *http.Request) *http.Request {
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	return req
}

func multipartUpload(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return &body, mw.FormDataContentType()
}

func TestHealthIsPublic(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/questions", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without a key, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/questions", nil)
	req.Header.Set("Authorization", "Bearer wrong-key")
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 with a bad key, got %d", rec.Code)
	}
}

func TestIngestAcceptsSupportedFile(t *testing.T) {
	s := newTestServer(t)

	body, contentType := multipartUpload(t, "file", "codigo.md", "# Artículo 1\n\nTexto legal de prueba.")
	req := authed(httptest.NewRequest(http.MethodPost, "/api/ingest", body))
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	jobID, _ := resp["job_id"].(string)
	if jobID == "" {
		t.Fatalf("expected a job_id, got %v", resp)
	}
	if resp["question_type"] != "flashcards" {
		t.Errorf("expected default question type, got %v", resp["question_type"])
	}

	statusReq := authed(httptest.NewRequest(http.MethodGet, "/api/ingest/"+jobID+"/status", nil))
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, statusReq)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for job status, got %d", rec.Code)
	}
}

func TestIngestRejectsUnsupportedFile(t *testing.T) {
	s := newTestServer(t)

	body, contentType := multipartUpload(t, "file", "imagen.png", "not really an image")
	req := authed(httptest.NewRequest(http.MethodPost, "/api/ingest", body))
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestIngestStatusUnknownJob(t *testing.T) {
	s := newTestServer(t)
	req := authed(httptest.NewRequest(http.MethodGet, "/api/ingest/nope/status", nil))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestListQuestionsEmpty(t *testing.T) {
	s := newTestServer(t)
	req := authed(httptest.NewRequest(http.MethodGet, "/api/questions", nil))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Total int `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if resp.Total != 0 {
		t.Errorf("expected empty listing, got %d", resp.Total)
	}
}

func TestListQuestionsRejectsUnknownType(t *testing.T) {
	s := newTestServer(t)
	req := authed(httptest.NewRequest(http.MethodGet, "/api/questions?tipo=ensayo", nil))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestPromptVersionLifecycle(t *testing.T) {
	s := newTestServer(t)

	payload := map[string]any{
		"version": "1.1",
		"content": "Genera preguntas tipo flashcard en JSON. Cada pregunta debe tener " +
			"anverso y reverso, y cada respuesta debe citar el texto legal de origen.",
		"set_active": true,
	}
	raw, _ := json.Marshal(payload)
	req := authed(httptest.NewRequest(http.MethodPost, "/api/prompts/flashcards/versions", bytes.NewReader(raw)))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	req = authed(httptest.NewRequest(http.MethodGet, "/api/prompts/flashcards/versions", nil))
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	var resp struct {
		Versions []string `json:"versions"`
		Active   string   `json:"active_version"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if len(resp.Versions) != 1 || resp.Active != "1.1" {
		t.Errorf("unexpected versions: %+v", resp)
	}

	req = authed(httptest.NewRequest(http.MethodGet, "/api/prompts/ensayo/versions", nil))
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown type, got %d", rec.Code)
	}
}
