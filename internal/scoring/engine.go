// Package scoring computes the four relevance metrics a section is
// classified on: semantic autonomy, legal relevance, concept density and
// context coherence. All metrics are normalized to [0,1] and rounded to four
// decimals.
package scoring

import (
	"sort"
	"strings"

	"github.com/lexquest/lexquiz/internal/domain"
)

// Engine scores raw section text. The legal vocabulary can be extended at
// runtime with domain-specific terms; each engine owns its copy.
type Engine struct {
	terms map[string]struct{}
}

// NewEngine builds an engine seeded with the built-in legal vocabulary.
func NewEngine() *Engine {
	terms := make(map[string]struct{}, len(defaultLegalTerms))
	for _, t := range defaultLegalTerms {
		terms[t] = struct{}{}
	}
	return &Engine{terms: terms}
}

// AddDomainTerms extends the vocabulary. Terms are lowercased; duplicates are
// ignored.
func (e *Engine) AddDomainTerms(terms ...string) {
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			e.terms[t] = struct{}{}
		}
	}
}

// DomainTerms returns the current vocabulary, sorted.
func (e *Engine) DomainTerms() []string {
	out := make([]string, 0, len(e.terms))
	for t := range e.terms {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Metrics computes all four metrics for a section text.
func (e *Engine) Metrics(text string) domain.ClassificationMetrics {
	return domain.ClassificationMetrics{
		SemanticAutonomy: e.SemanticAutonomy(text),
		LegalRelevance:   e.LegalRelevance(text),
		ConceptDensity:   e.ConceptDensity(text),
		ContextCoherence: e.ContextCoherence(text),
	}
}

// SemanticAutonomy measures whether the text stands on its own: length in the
// useful range, lexical diversity, and presence of complete sentences.
func (e *Engine) SemanticAutonomy(text string) float64 {
	lower := strings.ToLower(text)
	length := len(lower)

	var lengthScore float64
	switch {
	case length < 100:
		lengthScore = 0.2
	case length < 200:
		lengthScore = 0.5
	case length <= 1500:
		lengthScore = 1.0
	case length <= 3000:
		lengthScore = 0.8
	default:
		lengthScore = 0.6
	}

	words := wordRe.FindAllString(lower, -1)
	var diversity float64
	if len(words) > 0 {
		distinct := make(map[string]struct{}, len(words))
		for _, w := range words {
			distinct[w] = struct{}{}
		}
		diversity = float64(len(distinct)) / float64(len(words))
	}

	var complete int
	for _, s := range sentenceRe.Split(text, -1) {
		if len(strings.TrimSpace(s)) > 20 {
			complete++
		}
	}
	sentenceScore := clamp01(float64(complete) / 3)

	return domain.Round4(lengthScore*0.4 + diversity*0.3 + sentenceScore*0.3)
}

// LegalRelevance measures how legal the text is: vocabulary density, explicit
// citations, and article-style structure.
func (e *Engine) LegalRelevance(text string) float64 {
	lower := strings.ToLower(text)

	var termCount int
	for term := range e.terms {
		termCount += strings.Count(lower, term)
	}
	wordCount := len(wordRe.FindAllString(lower, -1))
	var termDensity float64
	if wordCount > 0 {
		termDensity = clamp01(float64(termCount) / (float64(wordCount) * 0.1))
	}

	var citations int
	for _, re := range referencePatterns {
		citations += len(re.FindAllString(lower, -1))
	}
	citationScore := clamp01(float64(citations) / 3)

	structureScore := 0.3
	if articleRe.MatchString(lower) {
		structureScore = 1.0
	}

	return domain.Round4(termDensity*0.5 + citationScore*0.3 + structureScore*0.2)
}

// ConceptDensity measures how many distinct legal concepts the text packs:
// definitions, enumerations, cross references and keyword ratio.
func (e *Engine) ConceptDensity(text string) float64 {
	lower := strings.ToLower(text)

	concepts := len(definitionRe.FindAllString(lower, -1)) +
		len(enumerationRe.FindAllString(lower, -1))
	for _, re := range referencePatterns {
		concepts += len(re.FindAllString(lower, -1))
	}
	conceptScore := clamp01(float64(concepts) / 5)

	words := wordRe.FindAllString(lower, -1)
	var keywordRatio float64
	if len(words) > 0 {
		var keywords int
		for _, w := range words {
			if _, ok := e.terms[w]; ok || len([]rune(w)) > 8 {
				keywords++
			}
		}
		keywordRatio = clamp01(float64(keywords) / float64(len(words)) / 0.3)
	}

	return domain.Round4(conceptScore*0.6 + keywordRatio*0.4)
}

// ContextCoherence measures readability without the surrounding document:
// discourse connectors and paragraph structure. The title component is a
// fixed baseline because the title is not visible from the text alone.
func (e *Engine) ContextCoherence(text string) float64 {
	lower := strings.ToLower(text)

	var connectors int
	for _, indicator := range clarityIndicators {
		if strings.Contains(lower, indicator) {
			connectors++
		}
	}
	connectorScore := clamp01(float64(connectors) / 3)

	var paragraphs int
	for _, p := range strings.Split(text, "\n\n") {
		if len(strings.TrimSpace(p)) > 50 {
			paragraphs++
		}
	}
	paragraphScore := clamp01(float64(paragraphs) / 2)

	const titleBaseline = 0.5
	return domain.Round4(titleBaseline*0.3 + connectorScore*0.4 + paragraphScore*0.3)
}

func clamp01(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v
}
