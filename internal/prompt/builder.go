// Package prompt builds the LLM prompts for question generation and manages
// versioned system prompt templates on disk.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lexquest/lexquiz/internal/domain"
)

// Builder renders user prompts from a batch of sections. Sections are
// numbered from 1 inside the prompt; responses reference them by that
// batch-relative number.
type Builder struct {
	includeContext bool
}

// NewBuilder returns a builder that wraps sections with the context header
// and instruction footer.
func NewBuilder() *Builder {
	return &Builder{includeContext: true}
}

// NewBareBuilder returns a builder that emits only the section blocks, for
// callers that supply their own framing.
func NewBareBuilder() *Builder {
	return &Builder{}
}

// sectionLede returns the body label for the section block of each type.
func sectionLede(qt domain.QuestionType) string {
	switch qt {
	case domain.TypeTrueFalse:
		return "Contenido"
	case domain.TypeMultipleChoice:
		return "Material de referencia"
	case domain.TypeCloze:
		return "Texto base"
	}
	return "Texto"
}

// typeDisplay is the human-readable name shown in the prompt header.
func typeDisplay(qt domain.QuestionType) string {
	switch qt {
	case domain.TypeFlashcard:
		return "Flashcard (pregunta-respuesta)"
	case domain.TypeTrueFalse:
		return "Verdadero/Falso"
	case domain.TypeMultipleChoice:
		return "Opción Múltiple"
	case domain.TypeCloze:
		return "Completar espacios (Cloze)"
	}
	return string(qt)
}

// Build renders the user prompt for a batch of sections.
func (b *Builder) Build(sections []*domain.Section, qt domain.QuestionType) string {
	var sb strings.Builder

	if b.includeContext {
		fmt.Fprintf(&sb, "# Contexto del documento\n\n"+
			"A continuación se presentan %d secciones de un documento legal.\n"+
			"Genera preguntas de tipo **%s** basándote en el contenido.\n\n---\n\n",
			len(sections), typeDisplay(qt))
	}

	lede := sectionLede(qt)
	for i, s := range sections {
		title := s.Title
		if title == "" {
			title = "Sección " + s.ID
		}
		fmt.Fprintf(&sb, "### Sección %d: %s\n**Página:** %d\n**%s:**\n%s\n---\n",
			i+1, title, s.Page, lede, cleanText(s.Text))
	}

	if b.includeContext {
		sb.WriteString("\n---\n\n## Instrucciones finales\n\n" +
			"- Genera preguntas únicamente basadas en el texto proporcionado.\n" +
			"- No inventes información que no esté en las secciones.\n" +
			"- Asegúrate de que cada pregunta tenga una única respuesta correcta.\n" +
			"- Incluye la referencia a la sección de origen en cada pregunta.\n\n" +
			"**Responde en formato JSON.**\n")
	}

	return sb.String()
}

// BuildWithExamples prepends up to two few-shot examples to the prompt.
func (b *Builder) BuildWithExamples(sections []*domain.Section, qt domain.QuestionType, examples []map[string]any) (string, error) {
	if len(examples) == 0 {
		return b.Build(sections, qt), nil
	}
	if len(examples) > 2 {
		examples = examples[:2]
	}
	encoded, err := json.MarshalIndent(examples, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode prompt examples: %w", err)
	}
	var sb strings.Builder
	sb.WriteString("\n## Ejemplos de formato esperado\n\n```json\n")
	sb.Write(encoded)
	sb.WriteString("\n```\n\n")
	sb.WriteString(b.Build(sections, qt))
	return sb.String(), nil
}

// EstimateTokens approximates the token count of the rendered prompt. Word
// count scaled by 1.33 tracks subword tokenizers closely enough for batch
// planning; exact counts are not needed.
func (b *Builder) EstimateTokens(sections []*domain.Section, qt domain.QuestionType) int {
	return EstimateTokens(b.Build(sections, qt))
}

// EstimateTokens estimates tokens for arbitrary text.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	words := len(strings.Fields(text))
	tokens := int(float64(words) * 1.33)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}

// cleanText collapses blank lines and strips per-line whitespace so section
// text does not bloat the prompt.
func cleanText(text string) string {
	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return strings.Join(cleaned, "\n")
}
