package store

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/lexquest/lexquiz/internal/domain"
)

// QuestionStore keeps generated questions in memory and exports them as JSON
// compatible with the deck files older tooling consumes.
type QuestionStore struct {
	base string

	mu        sync.RWMutex
	questions []*domain.Question
	byID      map[string]*domain.Question
}

func NewQuestionStore(base string) (*QuestionStore, error) {
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("create question store dir: %w", err)
	}
	return &QuestionStore{
		base: base,
		byID: make(map[string]*domain.Question),
	}, nil
}

// Save inserts or replaces a question by id.
func (s *QuestionStore) Save(q *domain.Question) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[q.ID]; exists {
		for i, existing := range s.questions {
			if existing.ID == q.ID {
				s.questions[i] = q
				break
			}
		}
	} else {
		s.questions = append(s.questions, q)
	}
	s.byID[q.ID] = q
}

func (s *QuestionStore) SaveAll(questions []*domain.Question) {
	for _, q := range questions {
		s.Save(q)
	}
}

func (s *QuestionStore) FindByID(id string) *domain.Question {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byID[id]
}

func (s *QuestionStore) FindAll() []*domain.Question {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Question, len(s.questions))
	copy(out, s.questions)
	return out
}

// QuestionFilter narrows listings. Zero-valued fields match everything.
type QuestionFilter struct {
	Type       domain.QuestionType
	Status     domain.QuestionStatus
	SectionID  string
	Difficulty domain.Difficulty
	Tags       []string
	// MatchAllTags requires every tag instead of any.
	MatchAllTags bool
}

// Find returns the questions matching all set filter fields, in insertion
// order.
func (s *QuestionStore) Find(filter QuestionFilter) []*domain.Question {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Question
	for _, q := range s.questions {
		if filter.Type != "" && q.Type != filter.Type {
			continue
		}
		if filter.Status != "" && q.Status != filter.Status {
			continue
		}
		if filter.SectionID != "" && q.Origin.SectionID != filter.SectionID {
			continue
		}
		if filter.Difficulty != "" && q.Metadata.Difficulty != filter.Difficulty {
			continue
		}
		if len(filter.Tags) > 0 && !matchTags(q.Metadata.Tags, filter.Tags, filter.MatchAllTags) {
			continue
		}
		out = append(out, q)
	}
	return out
}

func matchTags(have, want []string, all bool) bool {
	set := make(map[string]bool, len(have))
	for _, tag := range have {
		set[tag] = true
	}
	for _, tag := range want {
		if set[tag] {
			if !all {
				return true
			}
		} else if all {
			return false
		}
	}
	return all
}

func (s *QuestionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.questions)
}

// CountByType tallies questions per question type.
func (s *QuestionStore) CountByType() map[domain.QuestionType]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[domain.QuestionType]int)
	for _, q := range s.questions {
		counts[q.Type]++
	}
	return counts
}

// CountByStatus tallies questions per lifecycle status.
func (s *QuestionStore) CountByStatus() map[domain.QuestionStatus]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[domain.QuestionStatus]int)
	for _, q := range s.questions {
		counts[q.Status]++
	}
	return counts
}

func (s *QuestionStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[id]; !exists {
		return false
	}
	delete(s.byID, id)
	for i, q := range s.questions {
		if q.ID == id {
			s.questions = append(s.questions[:i], s.questions[i+1:]...)
			break
		}
	}
	return true
}

// ExportJSON writes every stored question to path in the deck format and
// returns the path. Validated questions transition to exported.
func (s *QuestionStore) ExportJSON(path string) (string, error) {
	questions := s.FindAll()

	byType := make(map[string]int, 4)
	items := make([]map[string]any, 0, len(questions))
	for _, q := range questions {
		byType[string(q.Type)]++
		items = append(items, questionMap(q))
	}

	payload := map[string]any{
		"metadata": map[string]any{
			"version":            "2.0",
			"generated_at":       time.Now().UTC().Format(time.RFC3339),
			"total_preguntas":    len(questions),
			"preguntas_por_tipo": byType,
		},
		"preguntas": items,
	}
	if err := writeJSON(path, payload); err != nil {
		return "", err
	}

	for _, q := range questions {
		if q.Status == domain.QuestionValidated {
			_ = q.MarkExported()
		}
	}
	return path, nil
}

// ExportInvalid writes the given rejected questions to path for manual
// review.
func (s *QuestionStore) ExportInvalid(questions []*domain.Question, path string) (string, error) {
	items := make([]map[string]any, 0, len(questions))
	for _, q := range questions {
		items = append(items, questionMap(q))
	}
	payload := map[string]any{
		"metadata": map[string]any{
			"exported_at":   time.Now().UTC().Format(time.RFC3339),
			"total_invalid": len(questions),
		},
		"preguntas_invalidas": items,
	}
	if err := writeJSON(path, payload); err != nil {
		return "", err
	}
	return path, nil
}

// ExportAnkiCSV writes validated and exported questions as a
// semicolon-delimited card file (front;back;tags) Anki can import.
func (s *QuestionStore) ExportAnkiCSV(path string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create anki export: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = ';'
	for _, q := range s.FindAll() {
		if q.Status != domain.QuestionValidated && q.Status != domain.QuestionExported {
			continue
		}
		if err := w.Write([]string{q.QuestionText, answerText(q), q.Metadata.AnkiTags()}); err != nil {
			return "", fmt.Errorf("write anki row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush anki export: %w", err)
	}
	return path, nil
}

// answerText renders the card back for each content variant.
func answerText(q *domain.Question) string {
	switch c := q.Content.(type) {
	case domain.FlashcardContent:
		return c.Back
	case domain.TrueFalseContent:
		answer := "Falso"
		if c.Answer {
			answer = "Verdadero"
		}
		if c.Justification != "" {
			return answer + ". " + c.Justification
		}
		return answer
	case domain.MultipleChoiceContent:
		if c.Explanation != "" {
			return c.CorrectOption() + ". " + c.Explanation
		}
		return c.CorrectOption()
	case domain.ClozeContent:
		return strings.Join(c.Answers, ", ")
	}
	return ""
}

// LoadJSON imports questions from a deck file. Items that cannot be rebuilt
// are skipped.
func (s *QuestionStore) LoadJSON(path string) ([]*domain.Question, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read json: %w", err)
	}

	var items []map[string]any
	var wrapped struct {
		Preguntas []map[string]any `json:"preguntas"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Preguntas != nil {
		items = wrapped.Preguntas
	} else if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}

	var questions []*domain.Question
	for _, item := range items {
		q, err := mapQuestion(item)
		if err != nil {
			continue
		}
		questions = append(questions, q)
	}
	s.SaveAll(questions)
	return questions, nil
}

// LatestJSON returns the most recently modified deck export under base, or
// "" when none exists.
func (s *QuestionStore) LatestJSON() (string, error) {
	matches, err := filepath.Glob(filepath.Join(s.base, "preguntas_*.json"))
	if err != nil {
		return "", err
	}
	var latest string
	var latestMod time.Time
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if latest == "" || info.ModTime().After(latestMod) {
			latest = path
			latestMod = info.ModTime()
		}
	}
	return latest, nil
}

// ExportPath builds a timestamped deck path under the store's base dir.
func (s *QuestionStore) ExportPath(prefix string) string {
	name := fmt.Sprintf("%s_%s.json", prefix, time.Now().Format("20060102_150405"))
	return filepath.Join(s.base, name)
}

// questionMap renders a question in the deck schema. Flashcards duplicate
// front/back at the top level, other types duplicate the question text.
func questionMap(q *domain.Question) map[string]any {
	m := map[string]any{
		"id":                q.ID,
		"tipo":              string(q.Type),
		"contenido_tipo":    q.Content,
		"origen":            q.Origin.ToMap(),
		"sm2_metadata":      q.Metadata,
		"status":            string(q.Status),
		"created_at":        q.CreatedAt.Format(time.RFC3339),
		"validation_errors": q.ValidationErrors,
	}
	if fc, ok := q.Content.(domain.FlashcardContent); ok {
		m["anverso"] = fc.Front
		m["reverso"] = fc.Back
	} else {
		m["pregunta"] = q.QuestionText
	}
	return m
}

func mapQuestion(data map[string]any) (*domain.Question, error) {
	qt, err := domain.ParseQuestionType(domain.FirstString(data, string(domain.TypeFlashcard), "tipo"))
	if err != nil {
		qt = domain.TypeFlashcard
	}

	payload := domain.FirstMap(data, "contenido_tipo")
	if payload == nil {
		payload = map[string]any{}
	}

	var content domain.Content
	switch qt {
	case domain.TypeFlashcard:
		content = domain.FlashcardContent{
			Front: domain.FirstString(payload, domain.FirstString(data, "", "pregunta", "anverso"), "anverso", "frente"),
			Back:  domain.FirstString(payload, domain.FirstString(data, "", "respuesta", "reverso"), "reverso"),
		}
	case domain.TypeTrueFalse:
		content = domain.TrueFalseContent{
			Statement:     domain.FirstString(payload, domain.FirstString(data, "", "pregunta"), "pregunta", "afirmacion"),
			Answer:        domain.FirstBool(payload, true, "respuesta_correcta", "respuesta"),
			Justification: domain.FirstString(payload, "", "explicacion", "justificacion"),
		}
	case domain.TypeMultipleChoice:
		content = domain.MultipleChoiceContent{
			Question:     domain.FirstString(payload, domain.FirstString(data, "", "pregunta"), "pregunta"),
			Options:      domain.FirstStringSlice(payload, "opciones"),
			CorrectIndex: domain.FirstInt(payload, 0, "respuesta_correcta", "correct_index"),
			Explanation:  domain.FirstString(payload, "", "explicacion", "justificacion"),
		}
	case domain.TypeCloze:
		content = domain.ClozeContent{
			Text:    domain.FirstString(payload, "", "texto_con_espacios", "text_with_blanks"),
			Answers: domain.FirstStringSlice(payload, "respuestas_validas", "valid_answers"),
		}
	}

	origin, err := domain.OriginFromMap(domain.FirstMap(data, "origen"))
	if err != nil {
		return nil, err
	}
	meta := domain.MetadataFromMap(domain.FirstMap(data, "sm2_metadata", "metadata"))

	id := domain.FirstString(data, "", "id")
	if id == "" {
		return nil, fmt.Errorf("question without id")
	}
	q, err := domain.NewQuestion(id, content, origin, meta)
	if err != nil {
		return nil, err
	}
	if status := domain.FirstString(data, "", "status"); status != "" {
		q.Status = domain.QuestionStatus(status)
	}
	if errs := domain.FirstStringSlice(data, "validation_errors"); len(errs) > 0 {
		q.ValidationErrors = errs
	}
	if created := domain.FirstString(data, "", "created_at"); created != "" {
		if t, err := time.Parse(time.RFC3339, created); err == nil {
			q.CreatedAt = t
		}
	}
	return q, nil
}

func writeJSON(path string, payload any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal export: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}
