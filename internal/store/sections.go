package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/lexquest/lexquiz/internal/domain"
)

// sectionColumns is the section CSV schema. Older exports use the same
// layout, so files produced here stay importable by existing tooling.
var sectionColumns = []string{
	"id",
	"document_id",
	"title",
	"page",
	"text",
	"text_length",
	"coord_x",
	"coord_y",
	"coord_width",
	"coord_height",
	"status",
	"classification",
	"classification_score",
	"semantic_autonomy",
	"legal_relevance",
	"concept_density",
	"context_coherence",
}

// SectionStore keeps sections in memory per document and round-trips them
// through semicolon-delimited CSV files under its base directory.
type SectionStore struct {
	base string

	mu    sync.RWMutex
	cache map[string][]*domain.Section
}

func NewSectionStore(base string) (*SectionStore, error) {
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("create section store dir: %w", err)
	}
	return &SectionStore{
		base:  base,
		cache: make(map[string][]*domain.Section),
	}, nil
}

// Save inserts or replaces a section within its document.
func (s *SectionStore) Save(section *domain.Section) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sections := s.cache[section.DocumentID]
	for i, existing := range sections {
		if existing.ID == section.ID {
			sections[i] = section
			return
		}
	}
	s.cache[section.DocumentID] = append(sections, section)
}

func (s *SectionStore) SaveAll(sections []*domain.Section) {
	for _, section := range sections {
		s.Save(section)
	}
}

// FindByID returns the section or nil when absent.
func (s *SectionStore) FindByID(documentID, sectionID string) *domain.Section {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, section := range s.cache[documentID] {
		if section.ID == sectionID {
			return section
		}
	}
	return nil
}

// FindAll returns the document's sections in document order.
func (s *SectionStore) FindAll(documentID string) []*domain.Section {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sections := s.cache[documentID]
	out := make([]*domain.Section, len(sections))
	copy(out, sections)
	return out
}

// FindRelevant returns the sections whose classification permits generation.
func (s *SectionStore) FindRelevant(documentID string) []*domain.Section {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Section
	for _, section := range s.cache[documentID] {
		if section.Classification != nil && section.Classification.IsRelevant() {
			out = append(out, section)
		}
	}
	return out
}

// FindByLabel returns the sections carrying a given classification label.
func (s *SectionStore) FindByLabel(documentID string, label domain.Label) []*domain.Section {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Section
	for _, section := range s.cache[documentID] {
		if section.Classification != nil && section.Classification.Label == label {
			out = append(out, section)
		}
	}
	return out
}

func (s *SectionStore) Count(documentID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cache[documentID])
}

// CountByLabel tallies classified sections per label.
func (s *SectionStore) CountByLabel(documentID string) map[domain.Label]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[domain.Label]int)
	for _, section := range s.cache[documentID] {
		if section.Classification != nil {
			counts[section.Classification.Label]++
		}
	}
	return counts
}

// DeleteAll drops a document's sections and reports how many were removed.
func (s *SectionStore) DeleteAll(documentID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := len(s.cache[documentID])
	delete(s.cache, documentID)
	return count
}

// ExportCSV writes the document's sections to a timestamped CSV file in the
// base directory and returns its path.
func (s *SectionStore) ExportCSV(documentID string) (string, error) {
	sections := s.FindAll(documentID)

	name := fmt.Sprintf("secciones_%s_%s.csv", documentID, time.Now().Format("20060102_150405"))
	path := filepath.Join(s.base, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = ';'
	if err := w.Write(sectionColumns); err != nil {
		return "", fmt.Errorf("write csv header: %w", err)
	}
	for _, section := range sections {
		if err := w.Write(sectionRow(section)); err != nil {
			return "", fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}
	return path, nil
}

// LoadCSV imports sections from a CSV export, forcing the given document id,
// and caches them.
func (s *SectionStore) LoadCSV(path, documentID string) ([]*domain.Section, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = ';'
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) < 1 {
		return nil, nil
	}

	index := make(map[string]int, len(records[0]))
	for i, col := range records[0] {
		index[col] = i
	}

	var sections []*domain.Section
	for _, record := range records[1:] {
		section := rowSection(record, index)
		section.DocumentID = documentID
		sections = append(sections, section)
	}

	if len(sections) > 0 {
		s.mu.Lock()
		s.cache[documentID] = sections
		s.mu.Unlock()
	}
	return sections, nil
}

// LatestCSV returns the most recently modified section export, or "" when
// none exists.
func (s *SectionStore) LatestCSV() (string, error) {
	matches, err := filepath.Glob(filepath.Join(s.base, "secciones_*.csv"))
	if err != nil {
		return "", err
	}
	var latest string
	var latestMod time.Time
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if latest == "" || info.ModTime().After(latestMod) {
			latest = path
			latestMod = info.ModTime()
		}
	}
	return latest, nil
}

func sectionRow(section *domain.Section) []string {
	var cx, cy, cw, ch float64
	if section.Coordinates != nil {
		cx = section.Coordinates.X
		cy = section.Coordinates.Y
		cw = section.Coordinates.Width
		ch = section.Coordinates.Height
	}

	label, score := "", 0.0
	var metrics domain.ClassificationMetrics
	if section.Classification != nil {
		label = string(section.Classification.Label)
		score = section.Classification.Score
		metrics = section.Classification.Metrics
	}

	return []string{
		section.ID,
		section.DocumentID,
		section.Title,
		strconv.Itoa(section.Page),
		section.Text,
		strconv.Itoa(section.TextLength()),
		formatFloat(cx),
		formatFloat(cy),
		formatFloat(cw),
		formatFloat(ch),
		string(section.Status),
		label,
		formatFloat(score),
		formatFloat(metrics.SemanticAutonomy),
		formatFloat(metrics.LegalRelevance),
		formatFloat(metrics.ConceptDensity),
		formatFloat(metrics.ContextCoherence),
	}
}

func rowSection(record []string, index map[string]int) *domain.Section {
	field := func(name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	section := &domain.Section{
		ID:         field("id"),
		DocumentID: field("document_id"),
		Title:      field("title"),
		Page:       parseInt(field("page"), 1),
		Text:       field("text"),
		Status:     domain.SectionStatus(defaultString(field("status"), string(domain.SectionPending))),
	}

	coords := domain.Coordinates{
		X:      parseFloat(field("coord_x")),
		Y:      parseFloat(field("coord_y")),
		Width:  parseFloat(field("coord_width")),
		Height: parseFloat(field("coord_height")),
	}
	if coords != (domain.Coordinates{}) {
		section.Coordinates = &coords
	}

	if label := field("classification"); label != "" {
		metrics := domain.ClassificationMetrics{
			SemanticAutonomy: parseFloat(field("semantic_autonomy")),
			LegalRelevance:   parseFloat(field("legal_relevance")),
			ConceptDensity:   parseFloat(field("concept_density")),
			ContextCoherence: parseFloat(field("context_coherence")),
		}
		section.Classification = &domain.ClassificationResult{
			Label:   domain.Label(label),
			Score:   parseFloat(field("classification_score")),
			Metrics: metrics,
		}
	}
	return section
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func parseFloat(v string) float64 {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return f
}

func parseInt(v string, def int) int {
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func defaultString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
