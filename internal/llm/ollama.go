package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/ollama/ollama/envconfig"
)

// OllamaClient generates questions through a local Ollama server. Local
// inference has no per-token cost; CostUSD is always zero.
type OllamaClient struct {
	client *api.Client
	model  string
}

// NewOllamaClient builds a client. host "" uses the OLLAMA_HOST environment
// convention.
func NewOllamaClient(host, model string) (*OllamaClient, error) {
	hostURL := envconfig.Host()
	if host != "" {
		parsed, err := url.Parse(host)
		if err != nil {
			return nil, fmt.Errorf("parse ollama host: %w", err)
		}
		hostURL = parsed
	}
	return &OllamaClient{
		client: api.NewClient(hostURL, http.DefaultClient),
		model:  model,
	}, nil
}

func (c *OllamaClient) Provider() string { return "ollama" }
func (c *OllamaClient) Model() string    { return c.model }

// Generate runs one completion, accumulating the streamed chunks.
func (c *OllamaClient) Generate(ctx context.Context, req Request) (*Response, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	genReq := api.GenerateRequest{
		Model:  c.model,
		Prompt: req.Prompt,
		System: req.System,
		Options: map[string]any{
			"temperature": req.Temperature,
			"num_predict": maxTokens,
		},
	}

	var content strings.Builder
	var inputTokens, outputTokens int

	start := time.Now()
	err := c.client.Generate(ctx, &genReq, func(resp api.GenerateResponse) error {
		content.WriteString(resp.Response)
		if resp.Done {
			inputTokens = resp.PromptEvalCount
			outputTokens = resp.EvalCount
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama generate: %w", err)
	}

	if inputTokens == 0 {
		inputTokens = EstimateTokensFallback(req.System + req.Prompt)
	}
	if outputTokens == 0 {
		outputTokens = EstimateTokensFallback(content.String())
	}
	return &Response{
		Content:      content.String(),
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		Latency:      time.Since(start),
	}, nil
}

// Verify checks the server is up and the model is pulled.
func (c *OllamaClient) Verify(ctx context.Context) error {
	models, err := c.client.List(ctx)
	if err != nil {
		return fmt.Errorf("ollama unreachable: %w", err)
	}
	for _, m := range models.Models {
		if m.Name == c.model || strings.TrimSuffix(m.Name, ":latest") == c.model {
			return nil
		}
	}
	return fmt.Errorf("ollama model %q not found, pull it first", c.model)
}

// EstimateTokensFallback approximates tokens at 4 bytes per token, for
// backends that do not report usage.
func EstimateTokensFallback(text string) int {
	return len(text) / 4
}
