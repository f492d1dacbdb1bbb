package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/selivandex/market-digest/internal/adapters/config"
	"github.com/selivandex/market-digest/pkg/logger"
)

// ClaudeProvider implements Completer for Anthropic Claude
type ClaudeProvider struct {
	client    anthropic.Client
	model     string
	maxTokens int
}

// NewClaudeProvider creates a Claude provider. The SDK's own retries are
// disabled so each stage makes exactly one attempt.
func NewClaudeProvider(apiKey, baseURL, model string, cfg *config.LLMConfig) *ClaudeProvider {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}

	return &ClaudeProvider{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: maxTokens,
	}
}

func (c *ClaudeProvider) Name() string {
	return "claude/" + c.model
}

func (c *ClaudeProvider) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.User)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}

	startTime := time.Now()
	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("claude API call failed: %w", err)
	}

	var out strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}

	content := strings.TrimSpace(out.String())
	if content == "" {
		return "", fmt.Errorf("claude: %w", ErrEmptyResponse)
	}

	logger.Debug("claude completion received",
		zap.String("model", c.model),
		zap.Duration("latency", time.Since(startTime)),
		zap.Int("response_length", len(content)),
	)

	return content, nil
}
