package planner

import (
	"fmt"
	"strings"
	"testing"

	"github.com/lexquest/lexquiz/internal/domain"
)

func sectionsOfLength(t *testing.T, lengths ...int) []*domain.Section {
	t.Helper()
	out := make([]*domain.Section, len(lengths))
	for i, n := range lengths {
		s, err := domain.NewSection(fmt.Sprintf("s-%d", i), "doc-1", "T", 1, strings.Repeat("a", n))
		if err != nil {
			t.Fatal(err)
		}
		out[i] = s
	}
	return out
}

func seqIDs() IDFunc {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("b-%d", n)
	}
}

func TestPlanFixedSize(t *testing.T) {
	p, err := New(2, seqIDs())
	if err != nil {
		t.Fatal(err)
	}
	sections := sectionsOfLength(t, 100, 100, 100, 100, 100)
	batches, err := p.Plan(sections)
	if err != nil {
		t.Fatal(err)
	}
	if len(batches) != 3 {
		t.Fatalf("batches = %d, want 3", len(batches))
	}
	for i, b := range batches {
		if b.Index != i {
			t.Errorf("batch %d: index = %d", i, b.Index)
		}
	}
	if len(batches[2].Sections) != 1 {
		t.Errorf("last batch has %d sections, want 1", len(batches[2].Sections))
	}
	// Document order preserved across batch boundaries.
	var got []string
	for _, b := range batches {
		got = append(got, b.SectionIDs()...)
	}
	for i, id := range got {
		if want := fmt.Sprintf("s-%d", i); id != want {
			t.Errorf("position %d: id = %s, want %s", i, id, want)
		}
	}
}

func TestPlanEmpty(t *testing.T) {
	p, _ := New(0, seqIDs())
	batches, err := p.Plan(nil)
	if err != nil || batches != nil {
		t.Errorf("Plan(nil) = %v, %v; want nil, nil", batches, err)
	}
}

func TestOptimalBatchSize(t *testing.T) {
	tests := []struct {
		name    string
		lengths []int
		want    int
	}{
		{"all short", []int{100, 200, 300, 400}, 10},
		{"p90 medium", []int{100, 100, 100, 100, 100, 100, 100, 100, 100, 2000}, 5},
		{"p90 large", []int{500, 500, 500, 500, 500, 500, 500, 500, 500, 3500}, 3},
		{"p90 huge", []int{500, 500, 500, 500, 500, 500, 500, 500, 500, 6000}, 2},
		{"single long", []int{6000}, 2},
		{"outlier below p90", []int{100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 6000}, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OptimalBatchSize(sectionsOfLength(t, tt.lengths...)); got != tt.want {
				t.Errorf("OptimalBatchSize = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPlanAdaptiveSize(t *testing.T) {
	p, _ := New(0, seqIDs())
	lengths := make([]int, 20)
	for i := range lengths {
		lengths[i] = 6000
	}
	batches, err := p.Plan(sectionsOfLength(t, lengths...))
	if err != nil {
		t.Fatal(err)
	}
	if len(batches) != 10 {
		t.Errorf("batches = %d, want 10 (size 2 for oversized sections)", len(batches))
	}
}
