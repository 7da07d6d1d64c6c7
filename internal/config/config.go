package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all service settings. Values come from an optional YAML file
// (LEXQUIZ_CONFIG) overridden by environment variables.
type Config struct {
	Port   string `yaml:"port"`
	APIKey string `yaml:"api_key"`

	// LLM backend: anthropic | ollama | openai | mock.
	Provider        string  `yaml:"provider"`
	AnthropicAPIKey string  `yaml:"anthropic_api_key"`
	AnthropicModel  string  `yaml:"anthropic_model"`
	OllamaHost      string  `yaml:"ollama_host"`
	OllamaModel     string  `yaml:"ollama_model"`
	OpenAIBaseURL   string  `yaml:"openai_base_url"`
	OpenAIAPIKey    string  `yaml:"openai_api_key"`
	OpenAIModel     string  `yaml:"openai_model"`
	Temperature     float64 `yaml:"temperature"`
	MaxTokens       int     `yaml:"max_tokens"`

	// Generation defaults.
	QuestionType  string `yaml:"question_type"`
	BatchSize     int    `yaml:"batch_size"` // 0 means adaptive P90 sizing
	PromptDir     string `yaml:"prompt_dir"`
	PromptVersion string `yaml:"prompt_version"` // "" means active version

	// Validation.
	ValidationLevel string `yaml:"validation_level"` // strict | moderate | lenient
	AutoFix         bool   `yaml:"auto_fix"`

	// Classification thresholds.
	RelevantThreshold  float64  `yaml:"relevant_threshold"`
	ReviewThreshold    float64  `yaml:"review_threshold"`
	AutoConserveLength int      `yaml:"auto_conserve_length"`
	DomainTerms        []string `yaml:"domain_terms"`

	// Extraction.
	MinSectionLength     int  `yaml:"min_section_length"`
	MergeShortSections   bool `yaml:"merge_short_sections"`
	PDFFallbackPdftotext bool `yaml:"pdf_fallback_pdftotext"`

	// Worker pool and jobs.
	WorkerCount    int           `yaml:"worker_count"`
	MaxQueueSize   int           `yaml:"max_queue_size"`
	JobTTL         time.Duration `yaml:"job_ttl"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`

	// Storage.
	DataDir       string `yaml:"data_dir"`
	ExperimentDSN string `yaml:"experiment_dsn"`
}

// Load builds the configuration: YAML file first when LEXQUIZ_CONFIG is set,
// environment variables on top, then defaults for anything still unset.
func Load() (Config, error) {
	var cfg Config
	if path := os.Getenv("LEXQUIZ_CONFIG"); path != "" {
		loaded, err := LoadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("load config file: %w", err)
		}
		cfg = *loaded
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	envStr("PORT", &c.Port)
	envStr("LEXQUIZ_API_KEY", &c.APIKey)

	envStr("LLM_PROVIDER", &c.Provider)
	envStr("ANTHROPIC_API_KEY", &c.AnthropicAPIKey)
	envStr("ANTHROPIC_MODEL", &c.AnthropicModel)
	envStr("OLLAMA_HOST", &c.OllamaHost)
	envStr("OLLAMA_MODEL", &c.OllamaModel)
	envStr("OPENAI_BASE_URL", &c.OpenAIBaseURL)
	envStr("OPENAI_API_KEY", &c.OpenAIAPIKey)
	envStr("OPENAI_MODEL", &c.OpenAIModel)
	envFloat("LLM_TEMPERATURE", &c.Temperature)
	envInt("LLM_MAX_TOKENS", &c.MaxTokens)

	envStr("QUESTION_TYPE", &c.QuestionType)
	envInt("BATCH_SIZE", &c.BatchSize)
	envStr("PROMPT_DIR", &c.PromptDir)
	envStr("PROMPT_VERSION", &c.PromptVersion)

	envStr("VALIDATION_LEVEL", &c.ValidationLevel)
	envBool("VALIDATION_AUTO_FIX", &c.AutoFix)

	envFloat("RELEVANT_THRESHOLD", &c.RelevantThreshold)
	envFloat("REVIEW_THRESHOLD", &c.ReviewThreshold)
	envInt("AUTO_CONSERVE_LENGTH", &c.AutoConserveLength)

	envInt("MIN_SECTION_LENGTH", &c.MinSectionLength)
	envBool("MERGE_SHORT_SECTIONS", &c.MergeShortSections)
	envBool("PDF_FALLBACK_PDFTOTEXT", &c.PDFFallbackPdftotext)

	envInt("WORKER_COUNT", &c.WorkerCount)
	envInt("MAX_QUEUE_SIZE", &c.MaxQueueSize)
	envDuration("JOB_TTL", &c.JobTTL)
	envInt64("MAX_UPLOAD_BYTES", &c.MaxUploadBytes)

	envStr("DATA_DIR", &c.DataDir)
	envStr("EXPERIMENT_DSN", &c.ExperimentDSN)
}

func (c *Config) applyDefaults() {
	if c.Port == "" {
		c.Port = "8091"
	}
	if c.Provider == "" {
		c.Provider = "anthropic"
	}
	if c.AnthropicModel == "" {
		c.AnthropicModel = "claude-3-5-haiku-latest"
	}
	if c.OllamaModel == "" {
		c.OllamaModel = "llama3.2"
	}
	if c.OpenAIModel == "" {
		c.OpenAIModel = "gpt-4o-mini"
	}
	if c.Temperature <= 0 {
		c.Temperature = 0.7
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 4096
	}
	if c.QuestionType == "" {
		c.QuestionType = "flashcards"
	}
	if c.ValidationLevel == "" {
		c.ValidationLevel = "moderate"
	}
	if c.RelevantThreshold <= 0 {
		c.RelevantThreshold = 0.7
	}
	if c.ReviewThreshold <= 0 {
		c.ReviewThreshold = 0.5
	}
	if c.AutoConserveLength <= 0 {
		c.AutoConserveLength = 300
	}
	if c.MinSectionLength <= 0 {
		c.MinSectionLength = 50
	}
	if c.WorkerCount <= 0 {
		c.WorkerCount = 2
	}
	if c.MaxQueueSize <= 0 {
		c.MaxQueueSize = 50
	}
	if c.JobTTL <= 0 {
		c.JobTTL = 1 * time.Hour
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = 52428800 // 50MB
	}
	if c.DataDir == "" {
		c.DataDir = "data"
	}
}

// Validate fails fast on settings the service cannot run without.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("LEXQUIZ_API_KEY is required")
	}
	switch c.Provider {
	case "anthropic":
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required for provider anthropic")
		}
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for provider openai")
		}
	case "ollama", "mock":
	default:
		return fmt.Errorf("unknown LLM provider %q", c.Provider)
	}
	switch c.ValidationLevel {
	case "strict", "moderate", "lenient":
	default:
		return fmt.Errorf("unknown validation level %q", c.ValidationLevel)
	}
	if c.RelevantThreshold < c.ReviewThreshold {
		return fmt.Errorf("relevant_threshold must be >= review_threshold")
	}
	return nil
}

func envStr(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envInt64(key string, dst *int64) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func envFloat(key string, dst *float64) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func envBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func envDuration(key string, dst *time.Duration) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
