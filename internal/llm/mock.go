package llm

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockClient returns scripted responses, for tests and offline development.
// Responses are served in order; the last one repeats once the script runs
// out. An empty script serves a minimal valid payload.
type MockClient struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	calls     int
	served    int

	// Prompts records every prompt received, for assertions.
	Prompts []string
}

// NewMockClient builds a mock serving the given responses.
func NewMockClient(responses ...string) *MockClient {
	return &MockClient{responses: responses}
}

// FailWith queues an error returned before any scripted responses.
func (m *MockClient) FailWith(errs ...error) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs = append(m.errs, errs...)
	return m
}

func (m *MockClient) Provider() string { return "mock" }
func (m *MockClient) Model() string    { return "mock-model" }

const mockPayload = `{"preguntas": [{"anverso": "¿Qué establece la sección?", "reverso": "Lo que dice el texto.", "origen": {"section_id": 1}}]}`

func (m *MockClient) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Prompts = append(m.Prompts, req.Prompt)
	m.calls++
	if len(m.errs) > 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		return nil, err
	}

	content := mockPayload
	if len(m.responses) > 0 {
		idx := m.served
		if idx >= len(m.responses) {
			idx = len(m.responses) - 1
		}
		content = m.responses[idx]
	}
	m.served++

	return &Response{
		Content:      content,
		InputTokens:  EstimateTokensFallback(req.System + req.Prompt),
		OutputTokens: EstimateTokensFallback(content),
		Latency:      time.Millisecond,
	}, nil
}

func (m *MockClient) Verify(ctx context.Context) error { return nil }

// Calls reports how many generations were attempted, including queued errors.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

var _ Client = (*MockClient)(nil)

// ErrMockFailure is a ready-made non-retryable failure for tests.
var ErrMockFailure = fmt.Errorf("mock backend failure")
