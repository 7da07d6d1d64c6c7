package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8091" {
		t.Errorf("expected default port 8091, got %q", cfg.Port)
	}
	if cfg.Provider != "anthropic" {
		t.Errorf("expected default provider anthropic, got %q", cfg.Provider)
	}
	if cfg.ValidationLevel != "moderate" {
		t.Errorf("expected default validation level moderate, got %q", cfg.ValidationLevel)
	}
	if cfg.RelevantThreshold != 0.7 || cfg.ReviewThreshold != 0.5 {
		t.Errorf("unexpected default thresholds: %g / %g", cfg.RelevantThreshold, cfg.ReviewThreshold)
	}
	if cfg.JobTTL != time.Hour {
		t.Errorf("expected default job ttl 1h, got %s", cfg.JobTTL)
	}
	if cfg.MinSectionLength != 50 {
		t.Errorf("expected default min section length 50, got %d", cfg.MinSectionLength)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lexquiz.yaml")
	yamlBody := "port: \"9000\"\nprovider: ollama\nbatch_size: 7\nvalidation_level: strict\n"
	if err := os.WriteFile(path, []byte(yamlBody), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Setenv("LEXQUIZ_CONFIG", path)
	t.Setenv("LLM_PROVIDER", "mock")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9000" {
		t.Errorf("expected yaml port 9000, got %q", cfg.Port)
	}
	if cfg.BatchSize != 7 {
		t.Errorf("expected yaml batch size 7, got %d", cfg.BatchSize)
	}
	if cfg.ValidationLevel != "strict" {
		t.Errorf("expected yaml validation level strict, got %q", cfg.ValidationLevel)
	}
	// Environment beats the file.
	if cfg.Provider != "mock" {
		t.Errorf("expected env provider mock, got %q", cfg.Provider)
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		cfg := Config{APIKey: "k", Provider: "mock"}
		cfg.applyDefaults()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid mock", func(c *Config) {}, false},
		{"missing api key", func(c *Config) { c.APIKey = "" }, true},
		{"anthropic without key", func(c *Config) { c.Provider = "anthropic"; c.AnthropicAPIKey = "" }, true},
		{"anthropic with key", func(c *Config) { c.Provider = "anthropic"; c.AnthropicAPIKey = "sk" }, false},
		{"openai without key", func(c *Config) { c.Provider = "openai" }, true},
		{"unknown provider", func(c *Config) { c.Provider = "bard" }, true},
		{"unknown validation level", func(c *Config) { c.ValidationLevel = "pedantic" }, true},
		{"inverted thresholds", func(c *Config) { c.RelevantThreshold = 0.4; c.ReviewThreshold = 0.5 }, true},
		{"ollama needs no key", func(c *Config) { c.Provider = "ollama" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
