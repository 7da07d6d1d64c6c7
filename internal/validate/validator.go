// Package validate applies quality rules to generated questions and marks
// their validation status. Rules beyond the structural checks of the domain
// layer depend on the configured strictness level.
package validate

import (
	"fmt"
	"strings"

	"github.com/lexquest/lexquiz/internal/domain"
)

// Level selects a rule set.
type Level string

const (
	LevelStrict   Level = "strict"
	LevelModerate Level = "moderate"
	LevelLenient  Level = "lenient"
)

// Rules is the active validation configuration.
type Rules struct {
	MinQuestionLength    int
	MinAnswerLength      int
	RequireJustification bool
	CheckDuplicates      bool
	CheckCompleteness    bool
}

// RulesFor returns the rule set for a level. Unknown levels get moderate.
func RulesFor(level Level) Rules {
	switch level {
	case LevelStrict:
		return Rules{
			MinQuestionLength:    20,
			MinAnswerLength:      10,
			RequireJustification: true,
			CheckDuplicates:      true,
			CheckCompleteness:    true,
		}
	case LevelLenient:
		return Rules{
			MinQuestionLength: 10,
			MinAnswerLength:   3,
		}
	default:
		return Rules{
			MinQuestionLength: 15,
			MinAnswerLength:   5,
			CheckDuplicates:   true,
			CheckCompleteness: true,
		}
	}
}

// Severity distinguishes blocking defects from advisories. Both kinds mark
// the question invalid; severity is reporting detail.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one defect found in a question.
type Issue struct {
	QuestionID  string   `json:"question_id"`
	Field       string   `json:"field"`
	Type        string   `json:"issue_type"`
	Message     string   `json:"message"`
	Severity    Severity `json:"severity"`
	AutoFixable bool     `json:"auto_fixable"`
}

// Report aggregates a validation run.
type Report struct {
	Total        int            `json:"total_questions"`
	Valid        int            `json:"valid_questions"`
	Invalid      int            `json:"invalid_questions"`
	Fixed        int            `json:"fixed_questions"`
	Issues       []Issue        `json:"issues,omitempty"`
	IssuesByType map[string]int `json:"issues_by_type,omitempty"`
}

// Validator checks questions against a rule set.
type Validator struct {
	rules   Rules
	autoFix bool
}

// New builds a validator for a level. autoFix enables in-place repair of
// fixable issues before the final verdict.
func New(level Level, autoFix bool) *Validator {
	return &Validator{rules: RulesFor(level), autoFix: autoFix}
}

// Rules returns the active rule set.
func (v *Validator) Rules() Rules { return v.rules }

// Run validates every question, updating each question's status and
// validation errors. Questions are processed in order; duplicate detection
// flags later occurrences, never the first.
func (v *Validator) Run(questions []*domain.Question) Report {
	report := Report{Total: len(questions), IssuesByType: make(map[string]int)}

	seen := make(map[string]bool, len(questions))
	for _, q := range questions {
		issues := v.Check(q)

		if v.rules.CheckDuplicates {
			key := strings.ToLower(strings.TrimSpace(q.QuestionText))
			if key != "" {
				if seen[key] {
					issues = append(issues, Issue{
						QuestionID: q.ID,
						Field:      "question_text",
						Type:       "duplicate_question",
						Message:    "Pregunta duplicada en el lote",
						Severity:   SeverityError,
					})
				}
				seen[key] = true
			}
		}

		if len(issues) > 0 && v.autoFix && v.fix(q, issues) {
			report.Fixed++
			issues = v.Check(q)
		}

		if len(issues) == 0 {
			q.ValidationErrors = nil
			q.Status = domain.QuestionValidated
			report.Valid++
			continue
		}

		messages := make([]string, len(issues))
		for i, issue := range issues {
			messages[i] = issue.Message
			report.IssuesByType[issue.Type]++
		}
		q.ValidationErrors = messages
		q.Status = domain.QuestionInvalid
		report.Invalid++
		report.Issues = append(report.Issues, issues...)
	}
	return report
}

// Check returns the issues of a single question without changing its state.
func (v *Validator) Check(q *domain.Question) []Issue {
	var issues []Issue

	text := q.QuestionText
	if strings.TrimSpace(text) == "" {
		issues = append(issues, Issue{
			QuestionID: q.ID, Field: "question_text", Type: "empty_content",
			Message: "Pregunta vacía", Severity: SeverityError,
		})
	} else if len([]rune(text)) < v.rules.MinQuestionLength {
		issues = append(issues, Issue{
			QuestionID: q.ID, Field: "question_text", Type: "too_short",
			Message:  fmt.Sprintf("Pregunta muy corta (%d caracteres)", len([]rune(text))),
			Severity: SeverityError,
		})
	}

	if q.Origin.SectionID == "" {
		issues = append(issues, Issue{
			QuestionID: q.ID, Field: "origin", Type: "missing_origin",
			Message: "Falta referencia a sección de origen", Severity: SeverityWarning,
		})
	}

	if chars := problematicChars(text); chars != "" {
		issues = append(issues, Issue{
			QuestionID: q.ID, Field: "question_text", Type: "problematic_chars",
			Message:  "Caracteres problemáticos: " + chars,
			Severity: SeverityWarning, AutoFixable: true,
		})
	}

	issues = append(issues, v.checkByType(q)...)
	return issues
}

func (v *Validator) checkByType(q *domain.Question) []Issue {
	var issues []Issue
	switch content := q.Content.(type) {
	case domain.FlashcardContent:
		if strings.TrimSpace(content.Front) == "" {
			issues = append(issues, Issue{
				QuestionID: q.ID, Field: "content.front", Type: "empty_front",
				Message: "Frente de flashcard vacío", Severity: SeverityError,
			})
		}
		back := strings.TrimSpace(content.Back)
		if back == "" {
			issues = append(issues, Issue{
				QuestionID: q.ID, Field: "content.back", Type: "empty_back",
				Message: "Reverso de flashcard vacío", Severity: SeverityError,
			})
		} else if len([]rune(back)) < v.rules.MinAnswerLength {
			issues = append(issues, Issue{
				QuestionID: q.ID, Field: "content.back", Type: "answer_too_short",
				Message:  fmt.Sprintf("Respuesta muy corta (%d caracteres)", len([]rune(back))),
				Severity: SeverityError,
			})
		}

	case domain.TrueFalseContent:
		if v.rules.RequireJustification && strings.TrimSpace(content.Justification) == "" {
			issues = append(issues, Issue{
				QuestionID: q.ID, Field: "content.justification", Type: "missing_justification",
				Message: "Falta justificación", Severity: SeverityWarning,
			})
		}

	case domain.MultipleChoiceContent:
		if len(content.Options) < 3 {
			issues = append(issues, Issue{
				QuestionID: q.ID, Field: "content.options", Type: "insufficient_options",
				Message:  fmt.Sprintf("Muy pocas opciones (%d)", len(content.Options)),
				Severity: SeverityError,
			})
		}
		if content.CorrectIndex < 0 || content.CorrectIndex >= len(content.Options) {
			issues = append(issues, Issue{
				QuestionID: q.ID, Field: "content.correct_index", Type: "invalid_correct_index",
				Message: "Índice de respuesta correcta inválido", Severity: SeverityError,
			})
		}
		optionSet := make(map[string]bool, len(content.Options))
		duplicated := false
		for _, opt := range content.Options {
			key := strings.ToLower(strings.TrimSpace(opt))
			if optionSet[key] {
				duplicated = true
			}
			optionSet[key] = true
		}
		if duplicated {
			issues = append(issues, Issue{
				QuestionID: q.ID, Field: "content.options", Type: "duplicate_options",
				Message: "Opciones duplicadas", Severity: SeverityError,
			})
		}
		if v.rules.CheckCompleteness && strings.TrimSpace(content.Explanation) == "" {
			issues = append(issues, Issue{
				QuestionID: q.ID, Field: "content.explanation", Type: "missing_explanation",
				Message: "Falta explicación de la respuesta", Severity: SeverityWarning,
			})
		}

	case domain.ClozeContent:
		if content.Blanks() == 0 {
			issues = append(issues, Issue{
				QuestionID: q.ID, Field: "content.text", Type: "no_blanks",
				Message: "No se encontraron espacios en blanco", Severity: SeverityError,
			})
		}
		if len(content.Answers) == 0 {
			issues = append(issues, Issue{
				QuestionID: q.ID, Field: "content.answers", Type: "no_valid_answers",
				Message: "No hay respuestas válidas definidas", Severity: SeverityError,
			})
		}
	}
	return issues
}

// problematicChars reports control characters outside \n\r\t and decoding
// replacement characters, at most five code points.
func problematicChars(text string) string {
	var found []string
	for _, r := range text {
		if (r < 32 && r != '\n' && r != '\r' && r != '\t') || r == '�' {
			found = append(found, fmt.Sprintf("U+%04X", r))
			if len(found) == 5 {
				break
			}
		}
	}
	return strings.Join(found, ", ")
}

// fix repairs auto-fixable issues in place. Returns true when anything
// changed.
func (v *Validator) fix(q *domain.Question, issues []Issue) bool {
	fixed := false
	for _, issue := range issues {
		if !issue.AutoFixable || issue.Type != "problematic_chars" {
			continue
		}
		cleaned := stripProblematic(q.QuestionText)
		if cleaned != q.QuestionText {
			q.QuestionText = cleaned
			q.Content = cleanContent(q.Content)
			fixed = true
		}
	}
	return fixed
}

func stripProblematic(text string) string {
	return strings.Map(func(r rune) rune {
		if (r < 32 && r != '\n' && r != '\r' && r != '\t') || r == '�' {
			return -1
		}
		return r
	}, text)
}

// cleanContent re-applies the character fix to the prompt-bearing field of
// the typed payload so content and question text stay in sync.
func cleanContent(content domain.Content) domain.Content {
	switch c := content.(type) {
	case domain.FlashcardContent:
		c.Front = stripProblematic(c.Front)
		return c
	case domain.TrueFalseContent:
		c.Statement = stripProblematic(c.Statement)
		return c
	case domain.MultipleChoiceContent:
		c.Question = stripProblematic(c.Question)
		return c
	case domain.ClozeContent:
		c.Text = stripProblematic(c.Text)
		return c
	}
	return content
}
