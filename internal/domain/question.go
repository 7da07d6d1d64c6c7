package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// QuestionType identifies the exercise format of a generated question.
type QuestionType string

const (
	TypeFlashcard      QuestionType = "flashcards"
	TypeTrueFalse      QuestionType = "verdadero_falso"
	TypeMultipleChoice QuestionType = "opcion_multiple"
	TypeCloze          QuestionType = "completar_espacios"
)

// ParseQuestionType normalizes a type name from LLM output or persisted data.
func ParseQuestionType(v string) (QuestionType, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "flashcards", "flashcard":
		return TypeFlashcard, nil
	case "verdadero_falso", "true_false", "truefalse":
		return TypeTrueFalse, nil
	case "opcion_multiple", "multiple_choice":
		return TypeMultipleChoice, nil
	case "completar_espacios", "cloze", "fill_in_the_blank":
		return TypeCloze, nil
	}
	return "", fmt.Errorf("unknown question type %q", v)
}

// QuestionStatus tracks a question through its validation lifecycle.
type QuestionStatus string

const (
	QuestionGenerated QuestionStatus = "generated"
	QuestionValidated QuestionStatus = "validated"
	QuestionInvalid   QuestionStatus = "invalid"
	QuestionExported  QuestionStatus = "exported"
)

// Content is the type-specific payload of a question.
type Content interface {
	Type() QuestionType
	// Prompt is the unified question text shown to the learner.
	Prompt() string
	// Check returns the structural defects of the payload, empty when sound.
	Check() []string
}

// FlashcardContent is a front/back memorization card.
type FlashcardContent struct {
	Front string `json:"anverso"`
	Back  string `json:"reverso"`
}

func (c FlashcardContent) Type() QuestionType { return TypeFlashcard }
func (c FlashcardContent) Prompt() string     { return c.Front }

func (c FlashcardContent) Check() []string {
	var issues []string
	front := strings.TrimSpace(c.Front)
	if front == "" {
		issues = append(issues, "flashcard front is empty")
	} else if !strings.HasSuffix(front, "?") {
		issues = append(issues, "flashcard front must be phrased as a question")
	}
	if strings.TrimSpace(c.Back) == "" {
		issues = append(issues, "flashcard back is empty")
	}
	return issues
}

// TrueFalseContent is a statement the learner judges true or false.
type TrueFalseContent struct {
	Statement     string `json:"pregunta"`
	Answer        bool   `json:"respuesta_correcta"`
	Justification string `json:"explicacion,omitempty"`
}

func (c TrueFalseContent) Type() QuestionType { return TypeTrueFalse }
func (c TrueFalseContent) Prompt() string     { return c.Statement }

func (c TrueFalseContent) Check() []string {
	var issues []string
	if strings.TrimSpace(c.Statement) == "" {
		issues = append(issues, "statement is empty")
	}
	return issues
}

// MultipleChoiceContent is a question with exactly four answer options.
type MultipleChoiceContent struct {
	Question     string   `json:"pregunta"`
	Options      []string `json:"opciones"`
	CorrectIndex int      `json:"respuesta_correcta"`
	Explanation  string   `json:"explicacion,omitempty"`
}

func (c MultipleChoiceContent) Type() QuestionType { return TypeMultipleChoice }
func (c MultipleChoiceContent) Prompt() string     { return c.Question }

func (c MultipleChoiceContent) Check() []string {
	var issues []string
	if strings.TrimSpace(c.Question) == "" {
		issues = append(issues, "question is empty")
	}
	if len(c.Options) != 4 {
		issues = append(issues, fmt.Sprintf("expected 4 options, got %d", len(c.Options)))
	} else {
		seen := make(map[string]bool, 4)
		for _, opt := range c.Options {
			key := strings.ToLower(strings.TrimSpace(opt))
			if key == "" {
				issues = append(issues, "option is empty")
				continue
			}
			if seen[key] {
				issues = append(issues, fmt.Sprintf("duplicate option %q", opt))
			}
			seen[key] = true
		}
	}
	if c.CorrectIndex < 0 || c.CorrectIndex >= len(c.Options) {
		issues = append(issues, fmt.Sprintf("correct index %d out of range", c.CorrectIndex))
	}
	return issues
}

// CorrectOption returns the text of the correct option, empty if the index is
// out of range.
func (c MultipleChoiceContent) CorrectOption() string {
	if c.CorrectIndex < 0 || c.CorrectIndex >= len(c.Options) {
		return ""
	}
	return c.Options[c.CorrectIndex]
}

// ClozeContent is a fill-in-the-blank exercise. Blanks are marked with
// {{...}} or a run of underscores.
type ClozeContent struct {
	Text    string   `json:"texto_con_espacios"`
	Answers []string `json:"respuestas_validas"`
}

var clozeBlankRe = regexp.MustCompile(`\{\{[^}]*\}\}|_{3,}`)

func (c ClozeContent) Type() QuestionType { return TypeCloze }
func (c ClozeContent) Prompt() string     { return c.Text }

func (c ClozeContent) Check() []string {
	var issues []string
	if strings.TrimSpace(c.Text) == "" {
		issues = append(issues, "cloze text is empty")
	} else if !clozeBlankRe.MatchString(c.Text) {
		issues = append(issues, "cloze text has no blank markers")
	}
	if len(c.Answers) == 0 {
		issues = append(issues, "cloze has no accepted answers")
	}
	for _, a := range c.Answers {
		if strings.TrimSpace(a) == "" {
			issues = append(issues, "cloze answer is empty")
		}
	}
	return issues
}

// Blanks counts the blank markers in the cloze text.
func (c ClozeContent) Blanks() int {
	return len(clozeBlankRe.FindAllString(c.Text, -1))
}

// Question is a generated study question with its source reference and
// spaced-repetition metadata.
type Question struct {
	ID               string           `json:"id"`
	Type             QuestionType     `json:"tipo"`
	QuestionText     string           `json:"pregunta"`
	Content          Content          `json:"contenido_tipo"`
	Origin           Origin           `json:"origen"`
	Metadata         QuestionMetadata `json:"sm2_metadata"`
	Status           QuestionStatus   `json:"status"`
	CreatedAt        time.Time        `json:"created_at"`
	ValidationErrors []string         `json:"validation_errors"`
}

// NewQuestion builds a question in the generated state. The unified question
// text is derived from the content payload.
func NewQuestion(id string, content Content, origin Origin, meta QuestionMetadata) (*Question, error) {
	if id == "" {
		return nil, fmt.Errorf("question: id is required")
	}
	if content == nil {
		return nil, fmt.Errorf("question %s: content is required", id)
	}
	return &Question{
		ID:           id,
		Type:         content.Type(),
		QuestionText: content.Prompt(),
		Content:      content,
		Origin:       origin,
		Metadata:     meta,
		Status:       QuestionGenerated,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// Validate re-runs structural validation, replacing any previous errors and
// re-deriving the status from scratch.
func (q *Question) Validate() bool {
	q.ValidationErrors = q.Content.Check()
	if strings.TrimSpace(q.QuestionText) == "" {
		q.ValidationErrors = append(q.ValidationErrors, "question text is empty")
	}
	if len(q.ValidationErrors) == 0 {
		q.Status = QuestionValidated
		return true
	}
	q.Status = QuestionInvalid
	return false
}

// IsValid reports whether the last validation pass found no defects.
func (q *Question) IsValid() bool { return q.Status == QuestionValidated }

// MarkExported records that the question was written to an export target.
// Only validated questions may be exported.
func (q *Question) MarkExported() error {
	if q.Status != QuestionValidated {
		return fmt.Errorf("question %s: cannot export in status %s", q.ID, q.Status)
	}
	q.Status = QuestionExported
	return nil
}
