package pipeline

import (
	"sync"
	"time"

	"github.com/lexquest/lexquiz/internal/domain"
)

// JobStatus represents the state of a document processing job.
type JobStatus string

const (
	StatusQueued      JobStatus = "queued"
	StatusParsing     JobStatus = "parsing"
	StatusSectioning  JobStatus = "sectioning"
	StatusClassifying JobStatus = "classifying"
	StatusGenerating  JobStatus = "generating"
	StatusValidating  JobStatus = "validating"
	StatusExporting   JobStatus = "exporting"
	StatusCompleted   JobStatus = "completed"
	StatusFailed      JobStatus = "failed"
	StatusPartial     JobStatus = "partial"
	StatusDupSkipped  JobStatus = "duplicate_skipped"
)

// Job tracks the state of a single document run from upload to export.
type Job struct {
	mu sync.Mutex

	ID    string `json:"job_id"`
	DocID string `json:"doc_id"`

	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`
	Title    string    `json:"title"`

	QuestionType domain.QuestionType `json:"question_type"`

	Progress Progress `json:"progress"`

	ContentHash  string    `json:"content_hash,omitempty"`
	ExperimentID string    `json:"experiment_id,omitempty"`
	ExportPath   string    `json:"export_path,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData []byte
	errors   []string
}

// Progress tracks batch-level processing progress.
type Progress struct {
	TotalSections      int      `json:"total_sections"`
	RelevantSections   int      `json:"relevant_sections"`
	TotalBatches       int      `json:"total_batches"`
	BatchesProcessed   int      `json:"batches_processed"`
	QuestionsGenerated int      `json:"questions_generated"`
	QuestionsValid     int      `json:"questions_valid"`
	CostUSD            float64  `json:"cost_usd"`
	Errors             []string `json:"errors"`
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.UpdatedAt) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetSections records section counts after classification.
func (j *Job) SetSections(total, relevant int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.TotalSections = total
	j.Progress.RelevantSections = relevant
	j.UpdatedAt = time.Now()
}

// SetTotalBatches records the planned batch count.
func (j *Job) SetTotalBatches(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.TotalBatches = n
	j.UpdatedAt = time.Now()
}

// IncrBatchesProcessed atomically increments batches processed.
func (j *Job) IncrBatchesProcessed() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.BatchesProcessed++
	j.UpdatedAt = time.Now()
}

// AddQuestions records generated/valid question counts and spend.
func (j *Job) AddQuestions(generated, valid int, costUSD float64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.QuestionsGenerated += generated
	j.Progress.QuestionsValid += valid
	j.Progress.CostUSD += costUSD
	j.UpdatedAt = time.Now()
}

func (j *Job) SetExperimentID(id string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ExperimentID = id
	j.UpdatedAt = time.Now()
}

func (j *Job) SetExportPath(path string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ExportPath = path
	j.UpdatedAt = time.Now()
}

// SetFileData sets the raw file bytes for processing.
func (j *Job) SetFileData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID           string              `json:"job_id"`
	DocID        string              `json:"doc_id"`
	Status       JobStatus           `json:"status"`
	Phase        string              `json:"phase"`
	Filename     string              `json:"filename"`
	Title        string              `json:"title"`
	QuestionType domain.QuestionType `json:"question_type"`
	ExperimentID string              `json:"experiment_id,omitempty"`
	ExportPath   string              `json:"export_path,omitempty"`
	Progress     Progress            `json:"progress"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := j.Progress.Errors
	if errs == nil {
		errs = []string{}
	}
	progress := j.Progress
	progress.Errors = errs
	return JobSnapshot{
		ID:           j.ID,
		DocID:        j.DocID,
		Status:       j.Status,
		Phase:        j.Phase,
		Filename:     j.Filename,
		Title:        j.Title,
		QuestionType: j.QuestionType,
		ExperimentID: j.ExperimentID,
		ExportPath:   j.ExportPath,
		Progress:     progress,
	}
}
