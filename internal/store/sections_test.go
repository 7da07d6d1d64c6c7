package store

import (
	"strings"
	"testing"

	"github.com/lexquest/lexquiz/internal/domain"
)

func storedSection(t *testing.T, id, docID, title string, page int, text string) *domain.Section {
	t.Helper()
	section, err := domain.NewSection(id, docID, title, page, text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return section
}

func classify(t *testing.T, section *domain.Section, label domain.Label, score float64) {
	t.Helper()
	metrics, err := domain.NewClassificationMetrics(0.8, 0.7, 0.6, 0.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	result, err := domain.NewClassificationResult(label, score, metrics, "test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := section.Classify(&result); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSectionStore_SaveAndFilters(t *testing.T) {
	s, err := NewSectionStore(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a := storedSection(t, "sec-1", "doc-1", "Artículo 1", 1, "El contrato es ley para las partes.")
	b := storedSection(t, "sec-2", "doc-1", "Índice", 1, "pág. 3")
	c := storedSection(t, "sec-3", "doc-1", "Artículo 2", 2, "La obligación se extingue por el pago.")
	classify(t, a, domain.LabelRelevant, 0.8)
	classify(t, b, domain.LabelDiscardable, 0.1)
	classify(t, c, domain.LabelAutoConserved, 0.6)
	s.SaveAll([]*domain.Section{a, b, c})

	if got := s.Count("doc-1"); got != 3 {
		t.Fatalf("expected 3 sections, got %d", got)
	}
	if got := len(s.FindRelevant("doc-1")); got != 2 {
		t.Errorf("expected 2 relevant sections, got %d", got)
	}
	if got := len(s.FindByLabel("doc-1", domain.LabelDiscardable)); got != 1 {
		t.Errorf("expected 1 discardable section, got %d", got)
	}
	counts := s.CountByLabel("doc-1")
	if counts[domain.LabelRelevant] != 1 || counts[domain.LabelAutoConserved] != 1 {
		t.Errorf("unexpected label counts: %v", counts)
	}

	// Save with an existing id replaces, not duplicates.
	a2 := storedSection(t, "sec-1", "doc-1", "Artículo 1 bis", 1, "Texto actualizado del artículo.")
	s.Save(a2)
	if got := s.Count("doc-1"); got != 3 {
		t.Errorf("expected replace to keep count at 3, got %d", got)
	}
	if got := s.FindByID("doc-1", "sec-1"); got == nil || got.Title != "Artículo 1 bis" {
		t.Errorf("expected replaced section, got %+v", got)
	}
}

func TestSectionStore_CSVRoundTrip(t *testing.T) {
	s, err := NewSectionStore(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	section := storedSection(t, "sec-1", "doc-1", "Artículo 5; plazos", 2,
		"El plazo será de diez días;\ncontados desde la notificación.")
	coords, _ := domain.NewCoordinates(56.7, 70.1, 480, 12.5)
	section.Coordinates = &coords
	classify(t, section, domain.LabelRelevant, 0.7512)
	s.Save(section)

	path, err := s.ExportCSV("doc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(path, "secciones_doc-1_") {
		t.Errorf("unexpected export path %q", path)
	}

	latest, err := s.LatestCSV()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if latest != path {
		t.Errorf("expected latest csv %q, got %q", path, latest)
	}

	loaded, err := s.LoadCSV(path, "doc-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("expected 1 loaded section, got %d", len(loaded))
	}

	got := loaded[0]
	if got.ID != "sec-1" || got.DocumentID != "doc-2" {
		t.Errorf("unexpected identity: id=%q doc=%q", got.ID, got.DocumentID)
	}
	if got.Title != "Artículo 5; plazos" {
		t.Errorf("semicolon in title not preserved: %q", got.Title)
	}
	if got.Text != section.Text {
		t.Errorf("text not preserved: %q", got.Text)
	}
	if got.Page != 2 || got.Status != domain.SectionClassified {
		t.Errorf("unexpected page/status: %d %s", got.Page, got.Status)
	}
	if got.Coordinates == nil || got.Coordinates.X != 56.7 {
		t.Errorf("coordinates not preserved: %+v", got.Coordinates)
	}
	if got.Classification == nil {
		t.Fatal("classification not preserved")
	}
	if got.Classification.Label != domain.LabelRelevant || got.Classification.Score != 0.7512 {
		t.Errorf("unexpected classification: %+v", got.Classification)
	}
	if got.Classification.Metrics.SemanticAutonomy != 0.8 {
		t.Errorf("metrics not preserved: %+v", got.Classification.Metrics)
	}
}

func TestSectionStore_LatestCSVEmpty(t *testing.T) {
	s, err := NewSectionStore(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	latest, err := s.LatestCSV()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if latest != "" {
		t.Errorf("expected no latest csv, got %q", latest)
	}
}
