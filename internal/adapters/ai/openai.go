package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/selivandex/market-digest/internal/adapters/config"
	"github.com/selivandex/market-digest/pkg/logger"
)

// OpenAIProvider implements Completer for OpenAI-compatible chat APIs
// (OpenAI itself and Groq).
type OpenAIProvider struct {
	client    *openai.Client
	name      string
	model     string
	maxTokens int
}

// NewOpenAIProvider creates an OpenAI-compatible provider. An empty baseURL
// keeps the library default (api.openai.com).
func NewOpenAIProvider(name, apiKey, baseURL, model string, cfg *config.LLMConfig) *OpenAIProvider {
	clientCfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(baseURL, "/")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	clientCfg.HTTPClient = &http.Client{Timeout: timeout}

	return &OpenAIProvider{
		client:    openai.NewClientWithConfig(clientCfg),
		name:      name,
		model:     model,
		maxTokens: cfg.MaxTokens,
	}
}

func (o *OpenAIProvider) Name() string {
	return o.name + "/" + o.model
}

func (o *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.User,
	})

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = o.maxTokens
	}

	startTime := time.Now()
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: float32(req.Temperature),
	})
	if err != nil {
		return "", fmt.Errorf("%s chat completion failed: %w", o.name, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s: no choices in response: %w", o.name, ErrEmptyResponse)
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("%s: %w", o.name, ErrEmptyResponse)
	}

	logger.Debug("chat completion received",
		zap.String("provider", o.name),
		zap.String("model", o.model),
		zap.Duration("latency", time.Since(startTime)),
		zap.Int("response_length", len(content)),
	)

	return content, nil
}
