package domain

import (
	"fmt"
	"time"
)

// BatchStatus tracks a generation batch through its lifecycle.
type BatchStatus string

const (
	BatchPending    BatchStatus = "pending"
	BatchProcessing BatchStatus = "processing"
	BatchCompleted  BatchStatus = "completed"
	BatchFailed     BatchStatus = "failed"
	BatchPartial    BatchStatus = "partial"
)

var batchTransitions = map[BatchStatus][]BatchStatus{
	BatchPending:    {BatchProcessing, BatchFailed},
	BatchProcessing: {BatchCompleted, BatchFailed, BatchPartial},
	BatchCompleted:  {},
	BatchFailed:     {BatchPending},
	BatchPartial:    {BatchPending},
}

// Batch groups sections submitted to the LLM in a single request.
type Batch struct {
	ID        string      `json:"id"`
	Index     int         `json:"index"`
	Sections  []*Section  `json:"sections"`
	Status    BatchStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	StartedAt time.Time   `json:"started_at,omitempty"`
	EndedAt   time.Time   `json:"ended_at,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// NewBatch requires at least one section; the index is the batch's position
// within its generation run, starting at zero.
func NewBatch(id string, index int, sections []*Section) (*Batch, error) {
	if id == "" {
		return nil, fmt.Errorf("batch: id is required")
	}
	if index < 0 {
		return nil, fmt.Errorf("batch %s: index must be >= 0, got %d", id, index)
	}
	if len(sections) == 0 {
		return nil, fmt.Errorf("batch %s: at least one section is required", id)
	}
	return &Batch{
		ID:        id,
		Index:     index,
		Sections:  sections,
		Status:    BatchPending,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Start marks the batch as in flight.
func (b *Batch) Start() error {
	if err := b.transition(BatchProcessing); err != nil {
		return err
	}
	b.StartedAt = time.Now().UTC()
	return nil
}

// Complete records the outcome of a finished batch. A run that produced both
// valid and invalid questions lands in the partial state; all valid, or none
// generated at all, counts as completed.
func (b *Batch) Complete(validCount, invalidCount int) error {
	target := BatchCompleted
	if validCount > 0 && invalidCount > 0 {
		target = BatchPartial
	}
	if err := b.transition(target); err != nil {
		return err
	}
	b.EndedAt = time.Now().UTC()
	for _, s := range b.Sections {
		if s.Status == SectionClassified {
			_ = s.MarkProcessed()
		}
	}
	return nil
}

// Fail records a failure that prevented any questions from being produced.
func (b *Batch) Fail(cause error) error {
	if err := b.transition(BatchFailed); err != nil {
		return err
	}
	b.EndedAt = time.Now().UTC()
	if cause != nil {
		b.Error = cause.Error()
	}
	for _, s := range b.Sections {
		_ = s.MarkError()
	}
	return nil
}

// Reset returns a failed or partial batch to pending for a retry.
func (b *Batch) Reset() error {
	if err := b.transition(BatchPending); err != nil {
		return err
	}
	b.StartedAt = time.Time{}
	b.EndedAt = time.Time{}
	b.Error = ""
	return nil
}

func (b *Batch) transition(to BatchStatus) error {
	for _, allowed := range batchTransitions[b.Status] {
		if allowed == to {
			b.Status = to
			return nil
		}
	}
	return fmt.Errorf("batch %s: invalid transition %s -> %s", b.ID, b.Status, to)
}

// SectionIDs returns the ids of the batch's sections in order.
func (b *Batch) SectionIDs() []string {
	ids := make([]string, len(b.Sections))
	for i, s := range b.Sections {
		ids[i] = s.ID
	}
	return ids
}

// TotalTextLength sums the text lengths of the batch's sections.
func (b *Batch) TotalTextLength() int {
	var total int
	for _, s := range b.Sections {
		total += s.TextLength()
	}
	return total
}

// Duration is the wall time the batch spent processing.
func (b *Batch) Duration() time.Duration {
	if b.StartedAt.IsZero() || b.EndedAt.IsZero() {
		return 0
	}
	return b.EndedAt.Sub(b.StartedAt)
}

// BatchResult aggregates the outcome of one batch for run-level reporting.
type BatchResult struct {
	BatchID      string        `json:"batch_id"`
	Generated    int           `json:"generated"`
	Valid        int           `json:"valid"`
	Invalid      int           `json:"invalid"`
	Errors       []string      `json:"errors,omitempty"`
	Warnings     []string      `json:"warnings,omitempty"`
	InputTokens  int           `json:"input_tokens"`
	OutputTokens int           `json:"output_tokens"`
	CostUSD      float64       `json:"cost_usd"`
	Elapsed      time.Duration `json:"elapsed"`
}

// Merge folds another result into r for run totals.
func (r *BatchResult) Merge(other BatchResult) {
	r.Generated += other.Generated
	r.Valid += other.Valid
	r.Invalid += other.Invalid
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
	r.InputTokens += other.InputTokens
	r.OutputTokens += other.OutputTokens
	r.CostUSD += other.CostUSD
	r.Elapsed += other.Elapsed
}
