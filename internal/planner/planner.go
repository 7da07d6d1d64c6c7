// Package planner splits classified sections into LLM request batches.
package planner

import (
	"fmt"
	"sort"

	"github.com/lexquest/lexquiz/internal/domain"
)

// IDFunc mints batch ids. Injected so callers control the id scheme.
type IDFunc func() string

// Planner groups sections into fixed-size batches. A zero MaxBatchSize means
// the size is chosen per run from the section length distribution.
type Planner struct {
	maxBatchSize int
	newID        IDFunc
}

// New builds a planner. maxBatchSize <= 0 enables adaptive sizing.
func New(maxBatchSize int, newID IDFunc) (*Planner, error) {
	if newID == nil {
		return nil, fmt.Errorf("planner: id func is required")
	}
	return &Planner{maxBatchSize: maxBatchSize, newID: newID}, nil
}

// Plan splits sections into batches in input order, indexed from zero.
// Sections are not reordered: batch boundaries follow document order so
// prompts keep adjacent context together.
func (p *Planner) Plan(sections []*domain.Section) ([]*domain.Batch, error) {
	if len(sections) == 0 {
		return nil, nil
	}
	size := p.maxBatchSize
	if size <= 0 {
		size = OptimalBatchSize(sections)
	}

	batches := make([]*domain.Batch, 0, (len(sections)+size-1)/size)
	for start := 0; start < len(sections); start += size {
		end := start + size
		if end > len(sections) {
			end = len(sections)
		}
		b, err := domain.NewBatch(p.newID(), len(batches), sections[start:end])
		if err != nil {
			return nil, fmt.Errorf("plan batch %d: %w", len(batches), err)
		}
		batches = append(batches, b)
	}
	return batches, nil
}

// OptimalBatchSize picks a batch size from the P90 of section text lengths:
// long sections get small batches so prompts stay within model context.
//
//	P90 > 5000 -> 2
//	P90 > 3000 -> 3
//	P90 > 1500 -> 5
//	otherwise  -> 10
func OptimalBatchSize(sections []*domain.Section) int {
	if len(sections) == 0 {
		return 10
	}
	lengths := make([]int, len(sections))
	for i, s := range sections {
		lengths[i] = s.TextLength()
	}
	sort.Ints(lengths)

	idx := int(float64(len(lengths)) * 0.90)
	if idx >= len(lengths) {
		idx = len(lengths) - 1
	}
	p90 := lengths[idx]

	switch {
	case p90 > 5000:
		return 2
	case p90 > 3000:
		return 3
	case p90 > 1500:
		return 5
	default:
		return 10
	}
}
