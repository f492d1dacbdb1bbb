package ai

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned when a provider answers without any text.
var ErrEmptyResponse = errors.New("empty response from model")

// CompletionRequest is a single system+user exchange.
type CompletionRequest struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

// Completer represents a language-model collaborator. The model identifier
// and credential are bound when the completer is constructed.
type Completer interface {
	// Complete returns the model's text answer for the request
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// Name returns provider/model for logging
	Name() string
}

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(ctx context.Context, req CompletionRequest) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	return f(ctx, req)
}

// Name implements Completer.
func (f CompleterFunc) Name() string {
	return "func"
}
