// Package llm abstracts the model providers used for question generation.
// Providers share one request/response shape so the pipeline does not care
// which backend is wired in.
package llm

import (
	"context"
	"fmt"
	"time"
)

// Request is one generation call.
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Response is the provider output plus the accounting the experiment log
// records.
type Response struct {
	Content      string
	InputTokens  int
	OutputTokens int
	CostUSD      float64
	Latency      time.Duration
}

// TotalTokens is input plus output tokens.
func (r *Response) TotalTokens() int { return r.InputTokens + r.OutputTokens }

// Client is a generation backend.
type Client interface {
	// Generate runs one completion. Implementations must honor ctx
	// cancellation and return *RetryableError for transient failures.
	Generate(ctx context.Context, req Request) (*Response, error)
	// Verify checks that the backend is reachable and configured.
	Verify(ctx context.Context) error
	Provider() string
	Model() string
}

// DefaultMaxTokens applies when a request does not set a limit.
const DefaultMaxTokens = 4096

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
