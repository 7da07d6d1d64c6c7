package classify

import (
	"strings"
	"testing"

	"github.com/lexquest/lexquiz/internal/domain"
	"github.com/lexquest/lexquiz/internal/scoring"
)

func newSection(t *testing.T, id, text string) *domain.Section {
	t.Helper()
	s, err := domain.NewSection(id, "doc-1", "Artículo "+id, 1, text)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func legalProse(n int) string {
	sentences := []string{
		"Artículo 12: la obligación prescribe a los diez años contados desde su vencimiento.",
		"El tribunal competente resuelve el recurso dentro del plazo legal establecido.",
		"Se entiende por parte demandante quien promueve la demanda ante el juez.",
	}
	var b strings.Builder
	for i := 0; b.Len() < n; i++ {
		b.WriteString(sentences[i%len(sentences)])
		b.WriteString(" ")
	}
	return b.String()
}

func TestLongAutonomousSectionAutoConserved(t *testing.T) {
	c := New(scoring.NewEngine())
	s := newSection(t, "s-1", legalProse(600))
	r, err := c.Classify(s)
	if err != nil {
		t.Fatal(err)
	}
	if r.Label != domain.LabelAutoConserved {
		t.Errorf("label = %s, want AUTO_CONSERVADA (len=%d, sa=%g)", r.Label, s.TextLength(), r.Metrics.SemanticAutonomy)
	}
	if s.Status != domain.SectionClassified {
		t.Errorf("section status = %s, want classified", s.Status)
	}
	if s.Classification == nil || s.Classification.Label != r.Label {
		t.Error("result not attached to section")
	}
}

func TestTinySectionDiscardable(t *testing.T) {
	c := New(scoring.NewEngine())
	s := newSection(t, "s-2", "Ver anexo.")
	r, err := c.Classify(s)
	if err != nil {
		t.Fatal(err)
	}
	if r.Label != domain.LabelDiscardable {
		t.Errorf("label = %s, want DESCARTABLE (score=%g)", r.Label, r.Score)
	}
	if s.IsRelevant() {
		t.Error("discardable section reported as relevant")
	}
}

func TestAutoConservePriorityOverRelevant(t *testing.T) {
	// A long, dense legal section satisfies both the auto-conserve rule and
	// the relevant rule; auto-conserve wins by priority.
	c := New(scoring.NewEngine())
	s := newSection(t, "s-3", legalProse(900))
	r, err := c.Classify(s)
	if err != nil {
		t.Fatal(err)
	}
	if r.Metrics.SemanticAutonomy < 0.5 {
		t.Skipf("prose not autonomous enough for this case: sa=%g", r.Metrics.SemanticAutonomy)
	}
	if r.Label != domain.LabelAutoConserved {
		t.Errorf("label = %s, want AUTO_CONSERVADA", r.Label)
	}
}

func TestRelevantRequiresLegalRelevance(t *testing.T) {
	c := New(scoring.NewEngine())
	if err := c.SetThresholds(Thresholds{Relevant: 0.3, Review: 0.2, AutoConserveLength: 100000}); err != nil {
		t.Fatal(err)
	}
	legal := newSection(t, "s-4", legalProse(400))
	r, err := c.Classify(legal)
	if err != nil {
		t.Fatal(err)
	}
	if r.Metrics.LegalRelevance < 0.6 {
		t.Fatalf("fixture drifted: lr=%g", r.Metrics.LegalRelevance)
	}
	if r.Label != domain.LabelRelevant {
		t.Errorf("label = %s, want RELEVANTE (score=%g lr=%g)", r.Label, r.Score, r.Metrics.LegalRelevance)
	}
}

func TestSetWeightsRejectsBadSum(t *testing.T) {
	c := New(scoring.NewEngine())
	err := c.SetWeights(domain.MetricWeights{SemanticAutonomy: 0.5, LegalRelevance: 0.5, ConceptDensity: 0.5})
	if err == nil {
		t.Fatal("weights summing to 1.5 accepted")
	}
	if c.Weights() != domain.DefaultWeights() {
		t.Error("rejected weights replaced the active ones")
	}
	if err := c.SetWeights(domain.MetricWeights{SemanticAutonomy: 0.25, LegalRelevance: 0.25, ConceptDensity: 0.25, ContextCoherence: 0.25}); err != nil {
		t.Fatalf("valid weights rejected: %v", err)
	}
}

func TestSetThresholdsValidation(t *testing.T) {
	c := New(scoring.NewEngine())
	if err := c.SetThresholds(Thresholds{Relevant: 0.4, Review: 0.6}); err == nil {
		t.Error("relevant below review accepted")
	}
	if err := c.SetThresholds(Thresholds{Relevant: 0.8, Review: 0.6, AutoConserveLength: -1}); err == nil {
		t.Error("negative auto-conserve length accepted")
	}
}

func TestClassifyAllStats(t *testing.T) {
	c := New(scoring.NewEngine())
	sections := []*domain.Section{
		newSection(t, "s-1", legalProse(600)),
		newSection(t, "s-2", "Ver anexo."),
		newSection(t, "s-3", legalProse(500)),
	}
	stats, err := c.ClassifyAll(sections)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Total != 3 {
		t.Fatalf("total = %d, want 3", stats.Total)
	}
	if stats.Discardable != 1 {
		t.Errorf("discardable = %d, want 1", stats.Discardable)
	}
	if got := stats.Relevant + stats.ReviewNeeded + stats.AutoKept + stats.Discardable; got != stats.Total {
		t.Errorf("label counts sum to %d, want %d", got, stats.Total)
	}
	if stats.AvgScore() <= 0 || stats.AvgScore() > 1 {
		t.Errorf("avg score = %g out of range", stats.AvgScore())
	}
	if want := 2.0 / 3.0; stats.KeptRatio() != want {
		t.Errorf("kept ratio = %g, want %g", stats.KeptRatio(), want)
	}
}
