// Package classify assigns relevance labels to sections from their scoring
// metrics, deciding which sections reach question generation.
package classify

import (
	"fmt"

	"github.com/lexquest/lexquiz/internal/domain"
	"github.com/lexquest/lexquiz/internal/scoring"
)

// Thresholds control the label decision.
type Thresholds struct {
	// Relevant is the minimum composite score for the RELEVANTE label.
	Relevant float64
	// Review is the minimum composite score for REVISION_MANUAL.
	Review float64
	// AutoConserveLength is the minimum text length for AUTO_CONSERVADA.
	AutoConserveLength int
}

// DefaultThresholds returns the reference thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{Relevant: 0.7, Review: 0.5, AutoConserveLength: 300}
}

func (t Thresholds) validate() error {
	if t.Relevant < t.Review {
		return fmt.Errorf("relevant threshold %g below review threshold %g", t.Relevant, t.Review)
	}
	if t.AutoConserveLength < 0 {
		return fmt.Errorf("auto-conserve length must be >= 0, got %d", t.AutoConserveLength)
	}
	return nil
}

// Classifier scores sections and assigns one of the four labels.
type Classifier struct {
	engine     *scoring.Engine
	weights    domain.MetricWeights
	thresholds Thresholds
}

// Name identifies the rule set for run records.
const Name = "semantic-rules-v2"

// New builds a classifier with default weights and thresholds.
func New(engine *scoring.Engine) *Classifier {
	return &Classifier{
		engine:     engine,
		weights:    domain.DefaultWeights(),
		thresholds: DefaultThresholds(),
	}
}

// SetWeights replaces the metric weights. Weights that do not sum to 1.0 are
// rejected so misconfiguration fails at setup, not at scoring time.
func (c *Classifier) SetWeights(w domain.MetricWeights) error {
	if err := w.Validate(); err != nil {
		return err
	}
	c.weights = w
	return nil
}

// Weights returns the active metric weights.
func (c *Classifier) Weights() domain.MetricWeights { return c.weights }

// SetThresholds replaces the decision thresholds.
func (c *Classifier) SetThresholds(t Thresholds) error {
	if err := t.validate(); err != nil {
		return err
	}
	c.thresholds = t
	return nil
}

// Thresholds returns the active decision thresholds.
func (c *Classifier) Thresholds() Thresholds { return c.thresholds }

// Classify scores a section, assigns its label and attaches the result.
func (c *Classifier) Classify(section *domain.Section) (*domain.ClassificationResult, error) {
	metrics := c.engine.Metrics(section.Text)
	score := metrics.CompositeScore(c.weights)

	label, reason := c.decide(section, score, metrics)
	result, err := domain.NewClassificationResult(label, score, metrics, reason)
	if err != nil {
		return nil, fmt.Errorf("classify section %s: %w", section.ID, err)
	}
	if err := section.Classify(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ClassifyAll classifies sections in order, accumulating per-label counts.
// Sections that reject the transition are skipped and reported in the stats.
func (c *Classifier) ClassifyAll(sections []*domain.Section) (Stats, error) {
	var stats Stats
	for _, s := range sections {
		result, err := c.Classify(s)
		if err != nil {
			return stats, err
		}
		stats.add(result)
	}
	return stats, nil
}

// decide applies the label rules in priority order.
func (c *Classifier) decide(section *domain.Section, score float64, m domain.ClassificationMetrics) (domain.Label, string) {
	length := section.TextLength()

	// Long sections with self-contained text are kept regardless of score.
	if length >= c.thresholds.AutoConserveLength && m.SemanticAutonomy >= 0.5 {
		return domain.LabelAutoConserved,
			fmt.Sprintf("longitud %d con autonomía %.2f", length, m.SemanticAutonomy)
	}
	if score >= c.thresholds.Relevant && m.LegalRelevance >= 0.6 {
		return domain.LabelRelevant,
			fmt.Sprintf("score %.2f con relevancia jurídica %.2f", score, m.LegalRelevance)
	}
	if score >= c.thresholds.Review {
		return domain.LabelReviewNeeded, fmt.Sprintf("score intermedio %.2f", score)
	}
	if length < 100 || score < 0.3 {
		return domain.LabelDiscardable,
			fmt.Sprintf("longitud %d, score %.2f", length, score)
	}
	return domain.LabelAutoConserved, "contenido intermedio conservado por defecto"
}

// Stats aggregates the outcome of a classification run.
type Stats struct {
	Total        int     `json:"total_sections"`
	Relevant     int     `json:"relevant"`
	ReviewNeeded int     `json:"review_needed"`
	AutoKept     int     `json:"auto_conserved"`
	Discardable  int     `json:"discardable"`
	ScoreSum     float64 `json:"-"`
}

func (s *Stats) add(r *domain.ClassificationResult) {
	s.Total++
	s.ScoreSum += r.Score
	switch r.Label {
	case domain.LabelRelevant:
		s.Relevant++
	case domain.LabelReviewNeeded:
		s.ReviewNeeded++
	case domain.LabelAutoConserved:
		s.AutoKept++
	case domain.LabelDiscardable:
		s.Discardable++
	}
}

// AvgScore is the mean composite score across the run.
func (s Stats) AvgScore() float64 {
	if s.Total == 0 {
		return 0
	}
	return s.ScoreSum / float64(s.Total)
}

// KeptRatio is the share of sections that remain eligible for generation.
func (s Stats) KeptRatio() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Total-s.Discardable) / float64(s.Total)
}
