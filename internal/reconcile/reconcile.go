// Package reconcile turns raw LLM output into domain questions. Model output
// is treated as hostile: reasoning tags, markdown fences, prose around the
// JSON and renamed fields all occur in practice, so extraction degrades
// through a chain of progressively looser strategies before giving up.
package reconcile

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/lexquest/lexquiz/internal/domain"
)

// IDFunc mints question ids.
type IDFunc func() string

// Reconciler builds questions from decoded LLM responses, remapping the
// batch-relative section numbers the model saw back to real section ids.
type Reconciler struct {
	newID IDFunc
}

// New builds a reconciler.
func New(newID IDFunc) (*Reconciler, error) {
	if newID == nil {
		return nil, fmt.Errorf("reconcile: id func is required")
	}
	return &Reconciler{newID: newID}, nil
}

var (
	thoughtRe   = regexp.MustCompile(`(?s)<thought>.*?</thought>`)
	jsonBlockRe = regexp.MustCompile(`(?s)(\{.*\}|\[.*\])`)
)

// ExtractJSON recovers a JSON value from raw model output. Strategies in
// order: strip reasoning tags, parse directly, parse a json-labelled fence,
// parse any fence, parse the largest brace or bracket span. Returns nil when
// nothing decodes.
func ExtractJSON(raw string) any {
	content := raw
	if strings.Contains(content, "<thought>") {
		content = thoughtRe.ReplaceAllString(content, "")
	}

	var decoded any
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &decoded); err == nil {
		return decoded
	}

	var fenced string
	if _, after, ok := strings.Cut(content, "```json"); ok {
		fenced, _, _ = strings.Cut(after, "```")
	} else if _, after, ok := strings.Cut(content, "```"); ok {
		fenced, _, _ = strings.Cut(after, "```")
	}
	if fenced != "" {
		if err := json.Unmarshal([]byte(strings.TrimSpace(fenced)), &decoded); err == nil {
			return decoded
		}
		return nil
	}

	if span := jsonBlockRe.FindString(content); span != "" {
		if err := json.Unmarshal([]byte(span), &decoded); err == nil {
			return decoded
		}
	}
	return nil
}

// questionList finds the list of question objects inside a decoded response.
// A list root is used directly; an object root is searched for the known keys
// and then for any list-valued entry.
func questionList(decoded any) []any {
	switch v := decoded.(type) {
	case []any:
		return v
	case map[string]any:
		if list, ok := v["preguntas"].([]any); ok && len(list) > 0 {
			return list
		}
		if list, ok := v["questions"].([]any); ok && len(list) > 0 {
			return list
		}
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if list, ok := v[k].([]any); ok && len(list) > 0 {
				return list
			}
		}
	}
	return nil
}

// Reconcile parses raw output and builds questions of the given type.
// sections are the batch sections in prompt order; the model's 1-based
// section numbers are resolved against them. Items that cannot be built are
// skipped and reported as warnings. Unparseable output yields no questions
// and a single warning, not an error: a bad response is an expected outcome.
func (r *Reconciler) Reconcile(raw string, qt domain.QuestionType, sections []*domain.Section) ([]*domain.Question, []string) {
	decoded := ExtractJSON(raw)
	if decoded == nil {
		return nil, []string{"response contains no parseable JSON"}
	}
	items := questionList(decoded)
	if len(items) == 0 {
		return nil, []string{"response contains no question list"}
	}

	var questions []*domain.Question
	var warnings []string
	for i, entry := range items {
		item, ok := entry.(map[string]any)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("item %d: not an object", i+1))
			continue
		}
		q, err := r.buildQuestion(item, qt, sections)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("item %d: %v", i+1, err))
			continue
		}
		questions = append(questions, q)
	}
	return questions, warnings
}

func (r *Reconciler) buildQuestion(item map[string]any, qt domain.QuestionType, sections []*domain.Section) (*domain.Question, error) {
	origin := r.resolveOrigin(item, sections)
	meta := domain.MetadataFromMap(domain.FirstMap(item, "sm2_metadata", "metadata"))

	payload := domain.FirstMap(item, "contenido_tipo", "content")
	if payload == nil {
		payload = item
	}

	content, err := buildContent(payload, item, qt)
	if err != nil {
		return nil, err
	}
	return domain.NewQuestion(r.newID(), content, origin, meta)
}

// resolveOrigin maps the model's batch-relative section number (1..N) back to
// the real section. Out-of-range or missing numbers resolve to the first
// section of the batch so a hallucinated index never orphans a question.
func (r *Reconciler) resolveOrigin(item map[string]any, sections []*domain.Section) domain.Origin {
	originData := domain.FirstMap(item, "origen", "origin")
	if originData == nil {
		originData = map[string]any{}
	}

	var resolved *domain.Section
	if len(sections) > 0 {
		switch raw := originData["section_id"].(type) {
		case float64:
			idx := int(raw) - 1
			if idx >= 0 && idx < len(sections) {
				resolved = sections[idx]
			} else {
				resolved = sections[0]
			}
		default:
			if domain.FirstString(originData, "", "section_id", "id_seccion") == "" {
				resolved = sections[0]
			}
		}
	}

	origin, _ := domain.OriginFromMap(originData)
	if resolved != nil {
		origin.SectionID = resolved.ID
		if _, hasPage := domain.FirstValue(originData, "pagina", "page"); !hasPage {
			origin.Page = resolved.Page
		}
		if origin.Title == "Sin título" && resolved.Title != "" {
			origin.Title = resolved.Title
		}
		if origin.TextLength == 0 {
			origin.TextLength = resolved.TextLength()
		}
	}
	return origin
}

// buildContent constructs the typed payload, accepting the field aliases the
// different providers emit. root is the full item, consulted for top-level
// fallbacks like a bare "pregunta"/"respuesta" pair.
func buildContent(payload, root map[string]any, qt domain.QuestionType) (domain.Content, error) {
	switch qt {
	case domain.TypeFlashcard:
		front := domain.FirstString(payload, "", "anverso", "frente", "front")
		if front == "" {
			front = domain.FirstString(root, "", "pregunta")
		}
		back := domain.FirstString(payload, "", "reverso", "back")
		if back == "" {
			back = domain.FirstString(root, "", "respuesta")
		}
		if front == "" || back == "" {
			return nil, fmt.Errorf("flashcard missing front or back")
		}
		return domain.FlashcardContent{Front: front, Back: back}, nil

	case domain.TypeTrueFalse:
		statement := domain.FirstString(payload, "", "pregunta", "afirmacion", "question", "statement")
		if statement == "" {
			return nil, fmt.Errorf("true/false statement missing")
		}
		return domain.TrueFalseContent{
			Statement:     statement,
			Answer:        domain.FirstBool(payload, true, "respuesta_correcta", "respuesta", "correct_answer"),
			Justification: domain.FirstString(payload, "", "explicacion", "justificacion", "explanation"),
		}, nil

	case domain.TypeMultipleChoice:
		question := domain.FirstString(payload, "", "pregunta", "question")
		if question == "" {
			question = domain.FirstString(root, "", "pregunta")
		}
		options := domain.FirstStringSlice(payload, "opciones", "options")
		if question == "" || len(options) == 0 {
			return nil, fmt.Errorf("multiple choice missing question or options")
		}
		return domain.MultipleChoiceContent{
			Question:     question,
			Options:      options,
			CorrectIndex: domain.FirstInt(payload, 0, "respuesta_correcta", "correct_answer"),
			Explanation:  domain.FirstString(payload, "", "explicacion", "explanation"),
		}, nil

	case domain.TypeCloze:
		text := domain.FirstString(payload, "", "texto_con_espacios", "text")
		if text == "" {
			return nil, fmt.Errorf("cloze text missing")
		}
		return domain.ClozeContent{
			Text:    text,
			Answers: domain.FirstStringSlice(payload, "respuestas_validas", "answers"),
		}, nil
	}
	return nil, fmt.Errorf("unsupported question type %q", qt)
}
