package domain

import (
	"fmt"
	"math"
)

// Label is the relevance classification assigned to a section.
type Label string

const (
	LabelRelevant      Label = "RELEVANTE"
	LabelDiscardable   Label = "DESCARTABLE"
	LabelReviewNeeded  Label = "REVISION_MANUAL"
	LabelAutoConserved Label = "AUTO_CONSERVADA"
)

// MetricWeights are the composite-score weights for the four metrics.
// They must sum to 1.0.
type MetricWeights struct {
	SemanticAutonomy float64
	LegalRelevance   float64
	ConceptDensity   float64
	ContextCoherence float64
}

// DefaultWeights returns the reference weighting: SA 30%, LR 40%, CD 20%, CC 10%.
func DefaultWeights() MetricWeights {
	return MetricWeights{
		SemanticAutonomy: 0.30,
		LegalRelevance:   0.40,
		ConceptDensity:   0.20,
		ContextCoherence: 0.10,
	}
}

// Validate checks that the weights sum to 1.0 (within a small tolerance).
func (w MetricWeights) Validate() error {
	sum := w.SemanticAutonomy + w.LegalRelevance + w.ConceptDensity + w.ContextCoherence
	if math.Abs(sum-1.0) > 1e-6 {
		return fmt.Errorf("metric weights must sum to 1.0, got %g", sum)
	}
	return nil
}

// ClassificationMetrics holds the four scoring sub-metrics. Each is a
// normalized float in [0,1] (the documentation-facing 0-100 scale is purely
// descriptive; values are stored natively as 0-1). Immutable.
type ClassificationMetrics struct {
	SemanticAutonomy float64 `json:"autonomia_semantica"`
	LegalRelevance   float64 `json:"relevancia_juridica"`
	ConceptDensity   float64 `json:"densidad_conceptos"`
	ContextCoherence float64 `json:"contexto_coherencia"`
}

// NewClassificationMetrics validates that every metric is within [0,1].
func NewClassificationMetrics(sa, lr, cd, cc float64) (ClassificationMetrics, error) {
	for _, m := range []struct {
		name  string
		value float64
	}{
		{"semantic_autonomy", sa},
		{"legal_relevance", lr},
		{"concept_density", cd},
		{"context_coherence", cc},
	} {
		if m.value < 0 || m.value > 1 {
			return ClassificationMetrics{}, fmt.Errorf("%s must be in [0,1], got %g", m.name, m.value)
		}
	}
	return ClassificationMetrics{
		SemanticAutonomy: sa,
		LegalRelevance:   lr,
		ConceptDensity:   cd,
		ContextCoherence: cc,
	}, nil
}

// CompositeScore computes the weighted score in [0,1], rounded to 4 decimals.
func (m ClassificationMetrics) CompositeScore(w MetricWeights) float64 {
	score := m.SemanticAutonomy*w.SemanticAutonomy +
		m.LegalRelevance*w.LegalRelevance +
		m.ConceptDensity*w.ConceptDensity +
		m.ContextCoherence*w.ContextCoherence
	return Round4(score)
}

// Round4 rounds to 4 decimal places, the precision metrics are reported at.
func Round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// ClassificationResult is the outcome of classifying one section. Immutable.
type ClassificationResult struct {
	Label   Label                 `json:"clasificacion"`
	Score   float64               `json:"score"`
	Metrics ClassificationMetrics `json:"metricas"`
	Reason  string                `json:"razon"`
}

// NewClassificationResult validates that the composite score is in [0,1].
func NewClassificationResult(label Label, score float64, metrics ClassificationMetrics, reason string) (ClassificationResult, error) {
	if score < 0 || score > 1 {
		return ClassificationResult{}, fmt.Errorf("score must be in [0,1], got %g", score)
	}
	return ClassificationResult{Label: label, Score: score, Metrics: metrics, Reason: reason}, nil
}

// IsRelevant reports whether the label permits downstream question generation.
func (r ClassificationResult) IsRelevant() bool {
	switch r.Label {
	case LabelRelevant, LabelAutoConserved, LabelReviewNeeded:
		return true
	}
	return false
}
