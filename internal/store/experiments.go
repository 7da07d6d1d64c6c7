package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // driver: sqlite
)

// Experiment records one generation run for reproducibility and cost
// analysis.
type Experiment struct {
	ID            string
	Status        string
	Provider      string
	Model         string
	BatchSize     int
	QuestionType  string
	PromptVersion string
	SourceHash    string
	Error         string

	TotalQuestions int
	ValidQuestions int
	ExecutionSecs  float64
	TotalCostUSD   float64
	TokensUsed     int

	CreatedAt   time.Time
	CompletedAt *time.Time
}

const (
	ExperimentRunning   = "running"
	ExperimentCompleted = "completed"
	ExperimentFailed    = "failed"
)

// ExperimentStore persists experiments in SQLite.
type ExperimentStore struct {
	db *sql.DB
}

// OpenExperimentStore opens (or creates) the experiment database and ensures
// the schema exists.
func OpenExperimentStore(ctx context.Context, dsn string) (*ExperimentStore, error) {
	if dsn == "" {
		dsn = "file:experiments.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open experiment db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping experiment db: %w", err)
	}
	if _, err := db.ExecContext(ctx, experimentSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure experiment schema: %w", err)
	}
	return &ExperimentStore{db: db}, nil
}

const experimentSchema = `
CREATE TABLE IF NOT EXISTS experiments (
  id TEXT PRIMARY KEY,
  status TEXT NOT NULL,
  provider TEXT NOT NULL,
  model TEXT NOT NULL,
  batch_size INTEGER NOT NULL,
  question_type TEXT NOT NULL,
  prompt_version TEXT NOT NULL DEFAULT '',
  source_hash TEXT NOT NULL DEFAULT '',
  error TEXT NOT NULL DEFAULT '',
  total_questions INTEGER NOT NULL DEFAULT 0,
  valid_questions INTEGER NOT NULL DEFAULT 0,
  execution_seconds REAL NOT NULL DEFAULT 0,
  total_cost_usd REAL NOT NULL DEFAULT 0,
  tokens_used INTEGER NOT NULL DEFAULT 0,
  created_at INTEGER NOT NULL,
  completed_at INTEGER
);

CREATE INDEX IF NOT EXISTS idx_experiments_status ON experiments(status);
CREATE INDEX IF NOT EXISTS idx_experiments_provider ON experiments(provider);
`

// Create inserts a new running experiment.
func (s *ExperimentStore) Create(ctx context.Context, exp *Experiment) error {
	if exp.ID == "" {
		return fmt.Errorf("experiment: id is required")
	}
	exp.Status = ExperimentRunning
	exp.CreatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO experiments (
			id, status, provider, model, batch_size, question_type,
			prompt_version, source_hash, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		exp.ID, exp.Status, exp.Provider, exp.Model, exp.BatchSize,
		exp.QuestionType, exp.PromptVersion, exp.SourceHash,
		exp.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("create experiment: %w", err)
	}
	return nil
}

// UpdateResults stores the outcome counters of a run.
func (s *ExperimentStore) UpdateResults(ctx context.Context, id string, total, valid int, execSecs, costUSD float64, tokens int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE experiments SET
			total_questions = ?, valid_questions = ?,
			execution_seconds = ?, total_cost_usd = ?, tokens_used = ?
		WHERE id = ?`,
		total, valid, execSecs, costUSD, tokens, id,
	)
	if err != nil {
		return fmt.Errorf("update experiment %s: %w", id, err)
	}
	return nil
}

// Complete marks an experiment as finished.
func (s *ExperimentStore) Complete(ctx context.Context, id string) error {
	return s.finish(ctx, id, ExperimentCompleted, "")
}

// Fail marks an experiment as failed with a cause.
func (s *ExperimentStore) Fail(ctx context.Context, id, cause string) error {
	return s.finish(ctx, id, ExperimentFailed, cause)
}

func (s *ExperimentStore) finish(ctx context.Context, id, status, cause string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE experiments SET status = ?, error = ?, completed_at = ? WHERE id = ?`,
		status, cause, time.Now().UTC().Unix(), id,
	)
	if err != nil {
		return fmt.Errorf("finish experiment %s: %w", id, err)
	}
	return nil
}

// FindByID returns the experiment or nil when absent.
func (s *ExperimentStore) FindByID(ctx context.Context, id string) (*Experiment, error) {
	rows, err := s.query(ctx, "WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// FindByStatus lists experiments in a given status, most recent first.
func (s *ExperimentStore) FindByStatus(ctx context.Context, status string) ([]*Experiment, error) {
	return s.query(ctx, "WHERE status = ? ORDER BY created_at DESC", status)
}

// FindAll lists every experiment, most recent first.
func (s *ExperimentStore) FindAll(ctx context.Context) ([]*Experiment, error) {
	return s.query(ctx, "ORDER BY created_at DESC")
}

func (s *ExperimentStore) query(ctx context.Context, clause string, args ...any) ([]*Experiment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, status, provider, model, batch_size, question_type,
			prompt_version, source_hash, error,
			total_questions, valid_questions, execution_seconds,
			total_cost_usd, tokens_used, created_at, completed_at
		FROM experiments `+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("query experiments: %w", err)
	}
	defer rows.Close()

	var out []*Experiment
	for rows.Next() {
		var exp Experiment
		var created int64
		var completed sql.NullInt64
		if err := rows.Scan(
			&exp.ID, &exp.Status, &exp.Provider, &exp.Model, &exp.BatchSize,
			&exp.QuestionType, &exp.PromptVersion, &exp.SourceHash, &exp.Error,
			&exp.TotalQuestions, &exp.ValidQuestions, &exp.ExecutionSecs,
			&exp.TotalCostUSD, &exp.TokensUsed, &created, &completed,
		); err != nil {
			return nil, fmt.Errorf("scan experiment: %w", err)
		}
		exp.CreatedAt = time.Unix(created, 0).UTC()
		if completed.Valid {
			t := time.Unix(completed.Int64, 0).UTC()
			exp.CompletedAt = &t
		}
		out = append(out, &exp)
	}
	return out, rows.Err()
}

// ExperimentStats summarizes all runs.
type ExperimentStats struct {
	Total          int     `json:"total_experiments"`
	Completed      int     `json:"completed"`
	Failed         int     `json:"failed"`
	Running        int     `json:"running"`
	TotalQuestions int     `json:"total_questions_generated"`
	TotalCostUSD   float64 `json:"total_cost_usd"`
	AvgExecSecs    float64 `json:"average_execution_time"`
}

// Statistics aggregates over completed runs.
func (s *ExperimentStore) Statistics(ctx context.Context) (*ExperimentStats, error) {
	var stats ExperimentStats
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'running' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'completed' THEN total_questions ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'completed' THEN total_cost_usd ELSE 0 END), 0),
			COALESCE(AVG(CASE WHEN status = 'completed' THEN execution_seconds END), 0)
		FROM experiments`,
	).Scan(
		&stats.Total, &stats.Completed, &stats.Failed, &stats.Running,
		&stats.TotalQuestions, &stats.TotalCostUSD, &stats.AvgExecSecs,
	)
	if err != nil {
		return nil, fmt.Errorf("experiment statistics: %w", err)
	}
	return &stats, nil
}

func (s *ExperimentStore) Close() error { return s.db.Close() }
