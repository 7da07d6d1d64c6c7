package domain

import "testing"

func TestParseDifficulty(t *testing.T) {
	tests := []struct {
		in   any
		want Difficulty
	}{
		{"basico", DifficultyBasic},
		{"BASIC", DifficultyBasic},
		{"intermedio", DifficultyIntermediate},
		{"advanced", DifficultyAdvanced},
		{float64(0), DifficultyBasic},
		{float64(1), DifficultyBasic},
		{float64(2), DifficultyIntermediate},
		{float64(3), DifficultyAdvanced},
		{"dificilisimo", DifficultyBasic},
		{nil, DifficultyBasic},
	}
	for _, tt := range tests {
		if got := ParseDifficulty(tt.in); got != tt.want {
			t.Errorf("ParseDifficulty(%v) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestParseSubtype(t *testing.T) {
	tests := []struct {
		in   string
		want Subtype
	}{
		{"definicion", SubtypeDefinition},
		{"definition", SubtypeDefinition},
		{"Requirement", SubtypeRequirement},
		{"timeline", SubtypeTimeline},
		{"plazo", SubtypeTimeline},
		{"concept", SubtypeConcept},
		{"whatever", SubtypeDefinition},
	}
	for _, tt := range tests {
		if got := ParseSubtype(tt.in); got != tt.want {
			t.Errorf("ParseSubtype(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestTagNormalization(t *testing.T) {
	m := NewQuestionMetadata(DifficultyBasic, []string{"Derecho Civil", "  ", "PLAZOS"}, SubtypeDefinition, "", nil)
	want := []string{"derecho_civil", "plazos"}
	if len(m.Tags) != len(want) {
		t.Fatalf("tags = %v, want %v", m.Tags, want)
	}
	for i := range want {
		if m.Tags[i] != want[i] {
			t.Errorf("tag[%d] = %q, want %q", i, m.Tags[i], want[i])
		}
	}
}

func TestMetadataFromMapAliases(t *testing.T) {
	m := MetadataFromMap(map[string]any{
		"difficulty":       float64(3),
		"subtype":          "exception",
		"topic":            "contratos",
		"related_concepts": []any{"nulidad", "rescisión"},
		"tags":             []any{"Derecho Civil"},
	})
	if m.Difficulty != DifficultyAdvanced {
		t.Errorf("difficulty = %s", m.Difficulty)
	}
	if m.Subtype != SubtypeException {
		t.Errorf("subtype = %s", m.Subtype)
	}
	if m.Topic != "contratos" {
		t.Errorf("topic = %q", m.Topic)
	}
	if len(m.RelatedConcepts) != 2 {
		t.Errorf("related = %v", m.RelatedConcepts)
	}
	if len(m.Tags) != 1 || m.Tags[0] != "derecho_civil" {
		t.Errorf("tags = %v", m.Tags)
	}
}

func TestInitialEaseFactor(t *testing.T) {
	tests := []struct {
		d    Difficulty
		want float64
	}{
		{DifficultyBasic, 2.7},
		{DifficultyIntermediate, 2.5},
		{DifficultyAdvanced, 2.3},
	}
	for _, tt := range tests {
		m := QuestionMetadata{Difficulty: tt.d}
		if got := m.InitialEaseFactor(); got != tt.want {
			t.Errorf("InitialEaseFactor(%s) = %v, want %v", tt.d, got, tt.want)
		}
	}
}

func TestAnkiTags(t *testing.T) {
	m := NewQuestionMetadata(DifficultyIntermediate, []string{"plazos"}, SubtypeTimeline, "prescripcion", nil)
	got := m.AnkiTags()
	want := "plazos difficulty::intermedio type::plazo topic::prescripcion"
	if got != want {
		t.Errorf("AnkiTags() = %q, want %q", got, want)
	}
}
