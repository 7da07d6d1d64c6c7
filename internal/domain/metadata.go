package domain

import (
	"fmt"
	"strings"
)

// Difficulty is the spaced-repetition difficulty level of a question.
type Difficulty string

const (
	DifficultyBasic        Difficulty = "basico"
	DifficultyIntermediate Difficulty = "intermedio"
	DifficultyAdvanced     Difficulty = "avanzado"
)

// ParseDifficulty accepts domain-language names, English names and numeric
// codes 0-3. Unknown values fall back to basic.
func ParseDifficulty(v any) Difficulty {
	switch d := v.(type) {
	case string:
		switch strings.ToLower(strings.TrimSpace(d)) {
		case "basico", "basic", "básico":
			return DifficultyBasic
		case "intermedio", "intermediate":
			return DifficultyIntermediate
		case "avanzado", "advanced":
			return DifficultyAdvanced
		}
	case float64:
		return difficultyFromCode(int(d))
	case int:
		return difficultyFromCode(d)
	}
	return DifficultyBasic
}

func difficultyFromCode(code int) Difficulty {
	switch code {
	case 0, 1:
		return DifficultyBasic
	case 2:
		return DifficultyIntermediate
	case 3:
		return DifficultyAdvanced
	}
	return DifficultyIntermediate
}

// Subtype categorizes a question within the domain vocabulary.
type Subtype string

const (
	SubtypeDefinition     Subtype = "definicion"
	SubtypeRequirement    Subtype = "requisito"
	SubtypeException      Subtype = "excepcion"
	SubtypeEffect         Subtype = "efecto"
	SubtypeComparison     Subtype = "comparacion"
	SubtypeTimeline       Subtype = "plazo"
	SubtypeSubject        Subtype = "sujeto"
	SubtypeProcedure      Subtype = "procedimiento"
	SubtypeClassification Subtype = "clasificacion"
	SubtypeCharacteristic Subtype = "caracteristica"
	SubtypeExample        Subtype = "ejemplo"
	SubtypeList           Subtype = "lista"
	SubtypeConcept        Subtype = "concept"
	SubtypeCase           Subtype = "case"
)

// subtypeSynonyms maps English subtype names to the canonical domain names.
var subtypeSynonyms = map[string]Subtype{
	"definition":     SubtypeDefinition,
	"requirement":    SubtypeRequirement,
	"exception":      SubtypeException,
	"effect":         SubtypeEffect,
	"comparison":     SubtypeComparison,
	"timeline":       SubtypeTimeline,
	"subject":        SubtypeSubject,
	"procedure":      SubtypeProcedure,
	"classification": SubtypeClassification,
	"characteristic": SubtypeCharacteristic,
	"example":        SubtypeExample,
	"list":           SubtypeList,
	"concept":        SubtypeConcept,
	"case":           SubtypeCase,
}

var validSubtypes = map[Subtype]bool{
	SubtypeDefinition: true, SubtypeRequirement: true, SubtypeException: true,
	SubtypeEffect: true, SubtypeComparison: true, SubtypeTimeline: true,
	SubtypeSubject: true, SubtypeProcedure: true, SubtypeClassification: true,
	SubtypeCharacteristic: true, SubtypeExample: true, SubtypeList: true,
	SubtypeConcept: true, SubtypeCase: true,
}

// ParseSubtype normalizes a subtype name, mapping English synonyms to the
// canonical vocabulary. Unknown values fall back to "definicion".
func ParseSubtype(value string) Subtype {
	v := strings.ToLower(strings.TrimSpace(value))
	if canonical, ok := subtypeSynonyms[v]; ok {
		return canonical
	}
	if validSubtypes[Subtype(v)] {
		return Subtype(v)
	}
	return SubtypeDefinition
}

// QuestionMetadata is the SM-2 categorization metadata of a question.
// Immutable.
type QuestionMetadata struct {
	Difficulty      Difficulty `json:"dificultad"`
	Tags            []string   `json:"tags"`
	Subtype         Subtype    `json:"subtipo"`
	Topic           string     `json:"tema,omitempty"`
	RelatedConcepts []string   `json:"conceptos_relacionados,omitempty"`
}

// NewQuestionMetadata builds metadata with normalized tags: lowercased,
// spaces replaced by underscores, empty entries dropped.
func NewQuestionMetadata(difficulty Difficulty, tags []string, subtype Subtype, topic string, related []string) QuestionMetadata {
	normalized := make([]string, 0, len(tags))
	for _, tag := range tags {
		t := strings.TrimSpace(tag)
		if t == "" {
			continue
		}
		normalized = append(normalized, strings.ReplaceAll(strings.ToLower(t), " ", "_"))
	}
	return QuestionMetadata{
		Difficulty:      difficulty,
		Tags:            normalized,
		Subtype:         subtype,
		Topic:           topic,
		RelatedConcepts: related,
	}
}

// MetadataFromMap is the lenient constructor used when reconciling LLM
// output: primary and legacy key names are both accepted, difficulty may be a
// numeric code, subtype may be an English synonym.
func MetadataFromMap(data map[string]any) QuestionMetadata {
	var difficulty any = "basico"
	if v, ok := FirstValue(data, "dificultad", "difficulty"); ok {
		difficulty = v
	}
	return NewQuestionMetadata(
		ParseDifficulty(difficulty),
		FirstStringSlice(data, "tags"),
		ParseSubtype(FirstString(data, "definicion", "subtipo", "subtype")),
		FirstString(data, "", "tema", "topic"),
		FirstStringSlice(data, "conceptos_relacionados", "related_concepts"),
	)
}

// AnkiTags renders the tags in Anki's space-separated format with
// difficulty/type/topic pseudo-tags appended.
func (m QuestionMetadata) AnkiTags() string {
	all := make([]string, 0, len(m.Tags)+3)
	all = append(all, m.Tags...)
	all = append(all, "difficulty::"+string(m.Difficulty))
	all = append(all, "type::"+string(m.Subtype))
	if m.Topic != "" {
		all = append(all, "topic::"+m.Topic)
	}
	return strings.Join(all, " ")
}

// InitialEaseFactor returns the initial SM-2 ease factor for the difficulty.
// 2.5 is the SM-2 default for intermediate material.
func (m QuestionMetadata) InitialEaseFactor() float64 {
	switch m.Difficulty {
	case DifficultyBasic:
		return 2.7
	case DifficultyAdvanced:
		return 2.3
	}
	return 2.5
}

func (m QuestionMetadata) String() string {
	return fmt.Sprintf("%s | %s | %s", m.Difficulty, m.Subtype, strings.Join(m.Tags, ", "))
}
