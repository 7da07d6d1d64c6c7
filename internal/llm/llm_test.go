package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestPricingCost(t *testing.T) {
	p := Pricing{InputPerMTok: 3.00, OutputPerMTok: 15.00}
	got := p.Cost(1_000_000, 200_000)
	if want := 3.0 + 3.0; got != want {
		t.Errorf("Cost = %g, want %g", got, want)
	}
	if got := (Pricing{}).Cost(5000, 5000); got != 0 {
		t.Errorf("zero pricing should cost 0, got %g", got)
	}
	if got := PricingFor("nobody", "nothing"); got != (Pricing{}) {
		t.Errorf("unknown model pricing = %+v", got)
	}
}

func TestOpenAIClientGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("auth header = %q", got)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("messages = %+v", req.Messages)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": `{"preguntas": []}`}},
			},
			"usage": map[string]any{"prompt_tokens": 120, "completion_tokens": 30},
		})
	}))
	defer srv.Close()

	c := NewOpenAIClient("test-key", "gpt-4o-mini", srv.URL, "openai")
	resp, err := c.Generate(context.Background(), Request{System: "sys", Prompt: "user"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Content != `{"preguntas": []}` {
		t.Errorf("content = %q", resp.Content)
	}
	if resp.InputTokens != 120 || resp.OutputTokens != 30 {
		t.Errorf("tokens = %d/%d", resp.InputTokens, resp.OutputTokens)
	}
	wantCost := Pricing{InputPerMTok: 0.15, OutputPerMTok: 0.60}.Cost(120, 30)
	if resp.CostUSD != wantCost {
		t.Errorf("cost = %g, want %g", resp.CostUSD, wantCost)
	}
}

func TestOpenAIClientRetryableStatuses(t *testing.T) {
	for _, code := range []int{http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		}))
		c := NewOpenAIClient("k", "m", srv.URL, "")
		_, err := c.Generate(context.Background(), Request{Prompt: "p"})
		srv.Close()

		var retryable *RetryableError
		if !errors.As(err, &retryable) {
			t.Errorf("status %d: error %v is not retryable", code, err)
		} else if retryable.StatusCode != code {
			t.Errorf("status %d recorded as %d", code, retryable.StatusCode)
		}
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()
	c := NewOpenAIClient("k", "m", srv.URL, "")
	_, err := c.Generate(context.Background(), Request{Prompt: "p"})
	var retryable *RetryableError
	if errors.As(err, &retryable) {
		t.Error("401 must not be retryable")
	}
	if err == nil {
		t.Error("401 should be an error")
	}
}

func TestMockClientScript(t *testing.T) {
	m := NewMockClient("first", "second")
	ctx := context.Background()

	r1, _ := m.Generate(ctx, Request{Prompt: "a"})
	r2, _ := m.Generate(ctx, Request{Prompt: "b"})
	r3, _ := m.Generate(ctx, Request{Prompt: "c"})
	if r1.Content != "first" || r2.Content != "second" || r3.Content != "second" {
		t.Errorf("script order broken: %q %q %q", r1.Content, r2.Content, r3.Content)
	}
	if m.Calls() != 3 || len(m.Prompts) != 3 {
		t.Errorf("calls = %d prompts = %d", m.Calls(), len(m.Prompts))
	}

	failing := NewMockClient("ok").FailWith(ErrMockFailure)
	if _, err := failing.Generate(ctx, Request{}); !errors.Is(err, ErrMockFailure) {
		t.Errorf("queued error not returned: %v", err)
	}
	if resp, err := failing.Generate(ctx, Request{}); err != nil || resp.Content != "ok" {
		t.Errorf("after queued error: %v %v", resp, err)
	}
}

func TestStatsSnapshot(t *testing.T) {
	s := NewStats(time.Hour)
	if snap := s.Snapshot(); snap.Count != 0 {
		t.Errorf("empty snapshot = %+v", snap)
	}

	for _, ms := range []int64{10, 20, 30, 40} {
		s.Record(&Response{
			Latency:      time.Duration(ms) * time.Millisecond,
			InputTokens:  100,
			OutputTokens: 50,
			CostUSD:      0.01,
		})
	}
	snap := s.Snapshot()
	if snap.Count != 4 {
		t.Fatalf("count = %d", snap.Count)
	}
	if snap.MinMs != 10 || snap.MaxMs != 40 {
		t.Errorf("min/max = %d/%d", snap.MinMs, snap.MaxMs)
	}
	if snap.AvgMs != 25 {
		t.Errorf("avg = %g", snap.AvgMs)
	}
	if snap.P50Ms != 25 {
		t.Errorf("p50 = %g", snap.P50Ms)
	}
	if snap.TotalTokens != 600 {
		t.Errorf("tokens = %d", snap.TotalTokens)
	}
	if snap.TotalCost < 0.039 || snap.TotalCost > 0.041 {
		t.Errorf("cost = %g", snap.TotalCost)
	}
}

func TestStatsWindowPruning(t *testing.T) {
	s := NewStats(time.Nanosecond)
	s.Record(&Response{Latency: 5 * time.Millisecond})
	time.Sleep(time.Millisecond)
	if snap := s.Snapshot(); snap.Count != 0 {
		t.Errorf("expired sample kept: %+v", snap)
	}
}
