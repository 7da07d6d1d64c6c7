package parser

import (
	"fmt"
	"strings"

	"github.com/lexquest/lexquiz/internal/doctree"
	"github.com/lexquest/lexquiz/internal/domain"
)

// IDFunc supplies identifiers for new sections.
type IDFunc func() string

// SectionizerConfig tunes how a DocTree is flattened into sections.
type SectionizerConfig struct {
	// MinSectionLength drops fragments too small to carry meaning.
	MinSectionLength int
	// MergeShortSections folds short fragments into the previous section
	// instead of emitting them standalone.
	MergeShortSections bool
	// MergeThreshold is the length below which a fragment is folded.
	MergeThreshold int
}

// DefaultSectionizerConfig matches the extraction defaults used across the
// pipeline.
func DefaultSectionizerConfig() SectionizerConfig {
	return SectionizerConfig{
		MinSectionLength:   50,
		MergeShortSections: true,
		MergeThreshold:     200,
	}
}

// Sectionizer flattens a parsed DocTree into the ordered sections the
// classifier and planner operate on.
type Sectionizer struct {
	cfg   SectionizerConfig
	newID IDFunc
}

func NewSectionizer(cfg SectionizerConfig, newID IDFunc) (*Sectionizer, error) {
	if newID == nil {
		return nil, fmt.Errorf("sectionizer: id func is required")
	}
	if cfg.MinSectionLength < 0 || cfg.MergeThreshold < 0 {
		return nil, fmt.Errorf("sectionizer: lengths must be non-negative")
	}
	return &Sectionizer{cfg: cfg, newID: newID}, nil
}

// Sections walks the tree depth first so document order is preserved.
func (s *Sectionizer) Sections(documentID string, tree *doctree.DocTree) ([]*domain.Section, error) {
	if documentID == "" {
		return nil, fmt.Errorf("sectionizer: document id is required")
	}
	if tree == nil {
		return nil, nil
	}

	var sections []*domain.Section
	for _, node := range tree.TextNodes() {
		text := strings.TrimSpace(node.Text)
		if text == "" {
			continue
		}
		if len(text) < s.cfg.MinSectionLength {
			continue
		}

		if s.cfg.MergeShortSections && len(text) < s.cfg.MergeThreshold && len(sections) > 0 {
			prev := sections[len(sections)-1]
			if prev.Page == pageOrDefault(node.Page) {
				prev.Text = prev.Text + "\n\n" + text
				continue
			}
		}

		title := strings.TrimSpace(node.Title)
		if title == "" {
			title = fmt.Sprintf("Página %d", pageOrDefault(node.Page))
		}
		section, err := domain.NewSection(s.newID(), documentID, title, pageOrDefault(node.Page), text)
		if err != nil {
			return nil, err
		}
		if node.Bounds != nil {
			coords, err := domain.NewCoordinates(node.Bounds.X, node.Bounds.Y, node.Bounds.Width, node.Bounds.Height)
			if err == nil {
				section.Coordinates = &coords
			}
		}
		sections = append(sections, section)
	}
	return sections, nil
}

func pageOrDefault(page int) int {
	if page < 1 {
		return 1
	}
	return page
}
