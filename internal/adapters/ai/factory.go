package ai

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/selivandex/market-digest/internal/adapters/config"
	"github.com/selivandex/market-digest/pkg/logger"
)

// ProviderType represents the model provider selected by the model prefix
type ProviderType string

const (
	ProviderGroq   ProviderType = "groq"
	ProviderOpenAI ProviderType = "openai"
	ProviderClaude ProviderType = "claude"
	ProviderGemini ProviderType = "gemini"
)

const (
	groqBaseURL = "https://api.groq.com/openai/v1"
)

// DetectProvider splits a model string such as "groq/llama3-8b-8192" into
// its provider and bare model name. Strings without a known prefix are
// matched on the model name and default to Groq.
func DetectProvider(model string) (ProviderType, string) {
	model = strings.TrimSpace(model)
	lower := strings.ToLower(model)

	prefixes := []struct {
		prefix   string
		provider ProviderType
	}{
		{"groq/", ProviderGroq},
		{"openai/", ProviderOpenAI},
		{"anthropic/", ProviderClaude},
		{"claude/", ProviderClaude},
		{"gemini/", ProviderGemini},
		{"google/", ProviderGemini},
	}
	for _, p := range prefixes {
		if strings.HasPrefix(lower, p.prefix) {
			return p.provider, model[len(p.prefix):]
		}
	}

	switch {
	case strings.HasPrefix(lower, "claude-"):
		return ProviderClaude, model
	case strings.HasPrefix(lower, "gemini-"):
		return ProviderGemini, model
	case strings.HasPrefix(lower, "gpt-"), strings.HasPrefix(lower, "o1"), strings.HasPrefix(lower, "o3"):
		return ProviderOpenAI, model
	}

	return ProviderGroq, model
}

// NewCompleter builds the provider client for cfg.Model and wraps it with the
// shared rate limiter and per-call timeout.
func NewCompleter(ctx context.Context, cfg *config.LLMConfig) (Completer, error) {
	provider, model := DetectProvider(cfg.Model)
	if model == "" {
		return nil, fmt.Errorf("model name is empty in %q", cfg.Model)
	}

	var (
		completer Completer
		err       error
	)

	switch provider {
	case ProviderGroq:
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = groqBaseURL
		}
		completer = NewOpenAIProvider(string(provider), cfg.APIKey, baseURL, model, cfg)
	case ProviderOpenAI:
		completer = NewOpenAIProvider(string(provider), cfg.APIKey, cfg.BaseURL, model, cfg)
	case ProviderClaude:
		completer = NewClaudeProvider(cfg.APIKey, cfg.BaseURL, model, cfg)
	case ProviderGemini:
		completer, err = NewGeminiProvider(ctx, cfg.APIKey, cfg.BaseURL, model, cfg)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported model provider %q", provider)
	}

	logger.Info("language model initialized",
		zap.String("provider", string(provider)),
		zap.String("model", model),
		zap.Int("requests_per_minute", cfg.RequestsPerMinute),
	)

	return NewRateLimited(completer, cfg.RequestsPerMinute, cfg.Timeout), nil
}
