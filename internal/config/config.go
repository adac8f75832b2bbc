package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/dgallion1/offerstruct/internal/chunker"
)

type Config struct {
	Port string

	// Auth for the HTTP API
	APIKey string

	// Model backend: "anthropic" or "openai" (any OpenAI-compatible server)
	LLMProvider     string
	AnthropicAPIKey string
	AnthropicModel  string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	OpenAIModel     string
	MaxTokens       int
	ModelTimeout    time.Duration
	MaxRetries      int

	// Chunking
	ChunkSize      int
	OverlapSize    int
	BoundaryWindow int

	// Number of recent groups described to the model with each chunk
	ContextRecentGroups int

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	// PDF
	PDFFallbackPdftotext bool
}

const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

var defaults = map[string]any{
	"port":                   "8090",
	"offerstruct_api_key":    "",
	"llm_provider":           ProviderAnthropic,
	"anthropic_api_key":      "",
	"anthropic_model":        "claude-sonnet-4-5-20250929",
	"openai_api_key":         "",
	"openai_base_url":        "",
	"openai_model":           "gpt-4o-mini",
	"max_tokens":             8192,
	"model_timeout":          5 * time.Minute,
	"max_retries":            3,
	"chunk_size":             4000,
	"overlap_size":           400,
	"boundary_window":        150,
	"context_recent_groups":  3,
	"worker_count":           2,
	"max_queue_size":         50,
	"max_upload_bytes":       int64(52428800), // 50MB
	"job_ttl":                time.Hour,
	"pdf_fallback_pdftotext": true,
}

// Load builds a Config from defaults, an optional YAML file and the
// environment. Environment variables are the keys upper-cased, e.g.
// CHUNK_SIZE or ANTHROPIC_API_KEY. With cfgFile empty, offerstruct.yaml
// is looked up in the working directory and $HOME/.offerstruct.
func Load(cfgFile string) (Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("offerstruct")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.offerstruct")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := Config{
		Port:   v.GetString("port"),
		APIKey: v.GetString("offerstruct_api_key"),

		LLMProvider:     strings.ToLower(v.GetString("llm_provider")),
		AnthropicAPIKey: v.GetString("anthropic_api_key"),
		AnthropicModel:  v.GetString("anthropic_model"),
		OpenAIAPIKey:    v.GetString("openai_api_key"),
		OpenAIBaseURL:   v.GetString("openai_base_url"),
		OpenAIModel:     v.GetString("openai_model"),
		MaxTokens:       v.GetInt("max_tokens"),
		ModelTimeout:    v.GetDuration("model_timeout"),
		MaxRetries:      v.GetInt("max_retries"),

		ChunkSize:      v.GetInt("chunk_size"),
		OverlapSize:    v.GetInt("overlap_size"),
		BoundaryWindow: v.GetInt("boundary_window"),

		ContextRecentGroups: v.GetInt("context_recent_groups"),

		WorkerCount:  v.GetInt("worker_count"),
		MaxQueueSize: v.GetInt("max_queue_size"),

		MaxUploadBytes: v.GetInt64("max_upload_bytes"),
		JobTTL:         v.GetDuration("job_ttl"),

		PDFFallbackPdftotext: v.GetBool("pdf_fallback_pdftotext"),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 50
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = time.Hour
	}
	if cfg.ContextRecentGroups <= 0 {
		cfg.ContextRecentGroups = 3
	}
	return cfg, nil
}

// Chunker returns the chunk geometry as a chunker.Config.
func (c Config) Chunker() chunker.Config {
	return chunker.Config{
		ChunkSize:      c.ChunkSize,
		OverlapSize:    c.OverlapSize,
		BoundaryWindow: c.BoundaryWindow,
	}
}

// Validate checks everything needed to extract a document: chunk geometry
// and credentials for the selected model provider.
func (c Config) Validate() error {
	if err := c.Chunker().Validate(); err != nil {
		return err
	}
	switch c.LLMProvider {
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required for provider %q", c.LLMProvider)
		}
	case ProviderOpenAI:
		// Local OpenAI-compatible servers usually take no key.
		if c.OpenAIAPIKey == "" && c.OpenAIBaseURL == "" {
			return fmt.Errorf("OPENAI_API_KEY or OPENAI_BASE_URL is required for provider %q", c.LLMProvider)
		}
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q (want %q or %q)", c.LLMProvider, ProviderAnthropic, ProviderOpenAI)
	}
	if c.ModelTimeout < 0 {
		return fmt.Errorf("MODEL_TIMEOUT must not be negative")
	}
	return nil
}

// ValidateServer additionally requires the API key guarding the HTTP API.
func (c Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.APIKey == "" {
		return fmt.Errorf("OFFERSTRUCT_API_KEY is required")
	}
	return nil
}
