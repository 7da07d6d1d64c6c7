package parser

import (
	"fmt"
	"strings"
	"testing"

	"github.com/lexquest/lexquiz/internal/doctree"
)

func testIDFunc() IDFunc {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("sec-%03d", n)
	}
}

func TestSectionizer_DocumentOrder(t *testing.T) {
	tree := &doctree.DocTree{
		Title: "Código de Comercio",
		Pages: 2,
		Children: []*doctree.DocNode{
			{Title: "Título I", Page: 1, Text: strings.Repeat("El comerciante responde por sus obligaciones. ", 10)},
			{Title: "Título II", Page: 2, Text: strings.Repeat("Los actos de comercio se rigen por esta norma. ", 10)},
		},
	}

	s, err := NewSectionizer(DefaultSectionizerConfig(), testIDFunc())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sections, err := s.Sections("doc-1", tree)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(sections))
	}
	if sections[0].Title != "Título I" || sections[1].Title != "Título II" {
		t.Errorf("sections out of order: %q, %q", sections[0].Title, sections[1].Title)
	}
	if sections[0].ID != "sec-001" || sections[1].ID != "sec-002" {
		t.Errorf("unexpected ids: %q, %q", sections[0].ID, sections[1].ID)
	}
	if sections[1].Page != 2 {
		t.Errorf("expected page 2, got %d", sections[1].Page)
	}
	if sections[0].DocumentID != "doc-1" {
		t.Errorf("expected document id doc-1, got %q", sections[0].DocumentID)
	}
}

func TestSectionizer_DropsTinyFragments(t *testing.T) {
	tree := &doctree.DocTree{
		Children: []*doctree.DocNode{
			{Title: "Índice", Page: 1, Text: "pág. 3"},
			{Title: "Título I", Page: 1, Text: strings.Repeat("Contenido sustantivo del título. ", 10)},
		},
	}

	s, _ := NewSectionizer(DefaultSectionizerConfig(), testIDFunc())
	sections, err := s.Sections("doc-1", tree)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sections) != 1 {
		t.Fatalf("expected tiny fragment dropped, got %d sections", len(sections))
	}
	if sections[0].Title != "Título I" {
		t.Errorf("expected surviving section Título I, got %q", sections[0].Title)
	}
}

func TestSectionizer_MergesShortIntoPrevious(t *testing.T) {
	long := strings.Repeat("El contrato requiere consentimiento de las partes. ", 10)
	short := "Parágrafo. La excepción aplica a los menores de edad no emancipados."

	tree := &doctree.DocTree{
		Children: []*doctree.DocNode{
			{Title: "Artículo 10", Page: 3, Text: long},
			{Title: "Parágrafo", Page: 3, Text: short},
		},
	}

	s, _ := NewSectionizer(DefaultSectionizerConfig(), testIDFunc())
	sections, err := s.Sections("doc-1", tree)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sections) != 1 {
		t.Fatalf("expected short fragment merged, got %d sections", len(sections))
	}
	if !strings.Contains(sections[0].Text, "menores de edad") {
		t.Errorf("expected merged text, got %q", sections[0].Text)
	}
}

func TestSectionizer_NoMergeAcrossPages(t *testing.T) {
	long := strings.Repeat("El contrato requiere consentimiento de las partes. ", 10)
	short := "Parágrafo breve con contenido apenas suficiente para superar el mínimo."

	tree := &doctree.DocTree{
		Children: []*doctree.DocNode{
			{Title: "Artículo 10", Page: 3, Text: long},
			{Title: "Parágrafo", Page: 4, Text: short},
		},
	}

	s, _ := NewSectionizer(DefaultSectionizerConfig(), testIDFunc())
	sections, err := s.Sections("doc-1", tree)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sections) != 2 {
		t.Fatalf("expected page boundary to block merging, got %d sections", len(sections))
	}
}

func TestSectionizer_FallbackTitleAndBounds(t *testing.T) {
	tree := &doctree.DocTree{
		Children: []*doctree.DocNode{
			{
				Page:   5,
				Text:   strings.Repeat("Texto de la página sin encabezado reconocible. ", 10),
				Bounds: &doctree.Rect{X: 56.7, Y: 70.1, Width: 480, Height: 650},
			},
		},
	}

	s, _ := NewSectionizer(DefaultSectionizerConfig(), testIDFunc())
	sections, err := s.Sections("doc-1", tree)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(sections))
	}
	if sections[0].Title != "Página 5" {
		t.Errorf("expected fallback title %q, got %q", "Página 5", sections[0].Title)
	}
	if sections[0].Coordinates == nil {
		t.Fatal("expected coordinates carried over")
	}
	if sections[0].Coordinates.X != 56.7 || sections[0].Coordinates.Height != 650 {
		t.Errorf("unexpected coordinates: %+v", sections[0].Coordinates)
	}
}

func TestSectionizer_Validation(t *testing.T) {
	if _, err := NewSectionizer(DefaultSectionizerConfig(), nil); err == nil {
		t.Error("expected error for nil id func")
	}
	s, _ := NewSectionizer(DefaultSectionizerConfig(), testIDFunc())
	if _, err := s.Sections("", &doctree.DocTree{}); err == nil {
		t.Error("expected error for empty document id")
	}
	sections, err := s.Sections("doc-1", nil)
	if err != nil || sections != nil {
		t.Errorf("expected nil, nil for nil tree, got %v, %v", sections, err)
	}
}
