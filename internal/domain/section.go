package domain

import (
	"fmt"
	"time"
)

// SectionStatus tracks a section through classification and generation.
type SectionStatus string

const (
	SectionPending    SectionStatus = "pending"
	SectionClassified SectionStatus = "classified"
	SectionProcessed  SectionStatus = "processed"
	SectionSkipped    SectionStatus = "skipped"
	SectionError      SectionStatus = "error"
)

var sectionTransitions = map[SectionStatus][]SectionStatus{
	SectionPending:    {SectionClassified, SectionSkipped, SectionError},
	SectionClassified: {SectionProcessed, SectionSkipped, SectionError},
	SectionProcessed:  {},
	SectionSkipped:    {SectionClassified},
	SectionError:      {SectionPending},
}

// Section is an extracted fragment of a source document: the unit that gets
// classified and, if relevant, fed to question generation.
type Section struct {
	ID             string                `json:"id"`
	DocumentID     string                `json:"document_id"`
	Title          string                `json:"title"`
	Page           int                   `json:"page"`
	Text           string                `json:"text"`
	Coordinates    *Coordinates          `json:"coordinates,omitempty"`
	Status         SectionStatus         `json:"status"`
	Classification *ClassificationResult `json:"classification,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
}

// NewSection validates the identifying fields. Text length is derived from the
// text, never stored independently.
func NewSection(id, documentID, title string, page int, text string) (*Section, error) {
	if id == "" {
		return nil, fmt.Errorf("section: id is required")
	}
	if documentID == "" {
		return nil, fmt.Errorf("section: document id is required")
	}
	if page < 1 {
		return nil, fmt.Errorf("section %s: page must be >= 1, got %d", id, page)
	}
	return &Section{
		ID:         id,
		DocumentID: documentID,
		Title:      title,
		Page:       page,
		Text:       text,
		Status:     SectionPending,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// TextLength is the byte length of the section text.
func (s *Section) TextLength() int {
	return len(s.Text)
}

// Classify attaches a classification result and advances the status.
func (s *Section) Classify(result *ClassificationResult) error {
	if err := s.transition(SectionClassified); err != nil {
		return err
	}
	s.Classification = result
	return nil
}

// MarkProcessed records that questions were generated from this section.
func (s *Section) MarkProcessed() error { return s.transition(SectionProcessed) }

// MarkSkipped excludes the section from generation.
func (s *Section) MarkSkipped() error { return s.transition(SectionSkipped) }

// MarkError records a processing failure.
func (s *Section) MarkError() error { return s.transition(SectionError) }

func (s *Section) transition(to SectionStatus) error {
	for _, allowed := range sectionTransitions[s.Status] {
		if allowed == to {
			s.Status = to
			return nil
		}
	}
	return fmt.Errorf("section %s: invalid transition %s -> %s", s.ID, s.Status, to)
}

// IsRelevant reports whether the section should reach generation. Unclassified
// sections count as relevant so a missing classification pass never silently
// drops content.
func (s *Section) IsRelevant() bool {
	if s.Classification == nil {
		return true
	}
	return s.Classification.IsRelevant()
}

// Preview returns the first n bytes of text for logs and listings.
func (s *Section) Preview(n int) string {
	if len(s.Text) <= n {
		return s.Text
	}
	return s.Text[:n] + "..."
}
