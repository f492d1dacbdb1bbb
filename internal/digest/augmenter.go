package digest

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/selivandex/market-digest/internal/adapters/ai"
	"github.com/selivandex/market-digest/internal/prompts"
	"github.com/selivandex/market-digest/pkg/logger"
	"github.com/selivandex/market-digest/pkg/models"
)

// AnalysisUnavailable replaces the analysis when the model call fails.
const AnalysisUnavailable = "Analysis unavailable"

const analysisWords = 200

// Augmenter asks the model for a short advisory analysis of the news.
type Augmenter struct {
	llm     ai.Completer
	prompts *prompts.Prompts
}

func NewAugmenter(llm ai.Completer, p *prompts.Prompts) *Augmenter {
	return &Augmenter{llm: llm, prompts: p}
}

// Augment returns the model's analysis or AnalysisUnavailable.
func (a *Augmenter) Augment(ctx context.Context, articles []models.NewsArticle) Outcome[string] {
	system, user, err := a.prompts.Analysis(FormatArticles(articles), analysisWords)
	if err != nil {
		return a.fail(fmt.Errorf("render analysis prompt: %w", err), len(articles))
	}

	analysis, err := complete(ctx, a.llm, ai.CompletionRequest{
		System:      system,
		User:        user,
		Temperature: 0.3,
	})
	if err != nil {
		return a.fail(fmt.Errorf("analysis completion: %w", err), len(articles))
	}

	logger.Info("analysis received",
		zap.String("stage", "augmenter"),
		zap.Int("articles", len(articles)),
		zap.Int("words", CountWords(analysis)),
	)
	return Succeeded(analysis)
}

func (a *Augmenter) fail(err error, articles int) Outcome[string] {
	logger.Error("analysis unavailable",
		zap.String("stage", "augmenter"),
		zap.String("model", a.llm.Name()),
		zap.Int("articles", articles),
		zap.Error(err),
	)
	return Fallback(AnalysisUnavailable, err)
}
