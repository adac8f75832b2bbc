package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/offerstruct/internal/config"
	"github.com/dgallion1/offerstruct/internal/extract"
)

// backend is the configured model client with its retry and latency layers.
type backend struct {
	completer extract.Completer
	stats     *extract.LLMStats
	model     string
	close     func()
}

func newBackend(cfg config.Config, log *slog.Logger) (*backend, error) {
	var (
		base  extract.Completer
		model string
		closeFn = func() {}
	)
	switch cfg.LLMProvider {
	case config.ProviderAnthropic:
		c := extract.NewClaudeClient(cfg.AnthropicAPIKey, cfg.AnthropicModel, extract.WithClaudeMaxTokens(cfg.MaxTokens))
		base, model, closeFn = c, cfg.AnthropicModel, c.Close
	case config.ProviderOpenAI:
		base = extract.NewOpenAIClient(extract.OpenAIConfig{
			APIKey:    cfg.OpenAIAPIKey,
			BaseURL:   cfg.OpenAIBaseURL,
			Model:     cfg.OpenAIModel,
			MaxTokens: cfg.MaxTokens,
			Timeout:   cfg.ModelTimeout,
		})
		model = cfg.OpenAIModel
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLMProvider)
	}

	stats := extract.NewLLMStats(time.Hour)
	rc := extract.DefaultRetryConfig()
	if cfg.MaxRetries >= 0 {
		rc.Attempts = uint(cfg.MaxRetries) + 1
	}
	completer := extract.WithRetry(extract.Metered(base, stats), rc, log)

	log.Info("model backend ready", "provider", cfg.LLMProvider, "model", model, "attempts", rc.Attempts)
	return &backend{completer: completer, stats: stats, model: model, close: closeFn}, nil
}
