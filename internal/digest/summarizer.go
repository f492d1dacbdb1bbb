package digest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/market-digest/internal/adapters/ai"
	"github.com/selivandex/market-digest/internal/prompts"
	"github.com/selivandex/market-digest/pkg/logger"
	"github.com/selivandex/market-digest/pkg/models"
)

// NoSummaryAvailable is the fallback narrative when there is neither a model
// answer nor any article to build one from.
const NoSummaryAvailable = "No market summary is available for this session."

const fallbackKeyPoints = 5

// Summarizer produces the bounded market narrative.
type Summarizer struct {
	llm     ai.Completer
	prompts *prompts.Prompts
	now     func() time.Time
}

func NewSummarizer(llm ai.Completer, p *prompts.Prompts) *Summarizer {
	return &Summarizer{llm: llm, prompts: p, now: time.Now}
}

// Summarize asks the model for a narrative of at most maxWords words. On
// failure a headline digest is substituted.
func (s *Summarizer) Summarize(ctx context.Context, articles []models.NewsArticle, augmentation string, maxWords int) Outcome[models.MarketSummary] {
	date := s.now().Format("2006-01-02")

	system, user, err := s.prompts.Summary(date, FormatArticles(articles), augmentation, maxWords)
	if err != nil {
		return s.fail(fmt.Errorf("render summary prompt: %w", err), articles, date, maxWords)
	}

	text, err := complete(ctx, s.llm, ai.CompletionRequest{
		System:      system,
		User:        user,
		Temperature: 0.3,
	})
	if err != nil {
		return s.fail(fmt.Errorf("summary completion: %w", err), articles, date, maxWords)
	}

	summary := buildSummary(text, maxWords)
	logger.Info("summary generated",
		zap.String("stage", "summarizer"),
		zap.Int("words", CountWords(summary.Text)),
		zap.Int("key_points", len(summary.KeyPoints)),
	)
	return Succeeded(summary)
}

func (s *Summarizer) fail(err error, articles []models.NewsArticle, date string, maxWords int) Outcome[models.MarketSummary] {
	logger.Error("summary generation failed, using headline digest",
		zap.String("stage", "summarizer"),
		zap.String("model", s.llm.Name()),
		zap.Int("articles", len(articles)),
		zap.Error(err),
	)
	return Fallback(FallbackSummary(articles, date, maxWords), err)
}

func buildSummary(text string, maxWords int) models.MarketSummary {
	text = strings.TrimSpace(text)
	if clamped, cut := clampSummary(text, maxWords); cut {
		logger.Warn("summary exceeded word limit, truncated",
			zap.String("stage", "summarizer"),
			zap.Int("max_words", maxWords),
			zap.Int("words", CountWords(text)),
		)
		text = clamped
	}
	points := KeyPoints(text)
	if points == nil {
		points = []string{}
	}
	return models.MarketSummary{
		Text:      text,
		KeyPoints: points,
		ChartURLs: []string{},
		Language:  models.OriginalLanguage,
	}
}

// clampSummary enforces maxWords. A trailing "Key Points" section that fits
// in half the allowance is kept whole and the narrative above it is clamped.
func clampSummary(text string, maxWords int) (string, bool) {
	if CountWords(text) <= maxWords {
		return text, false
	}

	narrative, section := SplitKeyPoints(text)
	if sectionWords := CountWords(section); section != "" && sectionWords <= maxWords/2 {
		clamped, _ := ClampWords(narrative, maxWords-sectionWords)
		if clamped = strings.TrimSpace(clamped); clamped == "" {
			return section, true
		}
		return clamped + "\n\n" + section, true
	}
	return ClampWords(text, maxWords)
}

// FallbackSummary builds a deterministic narrative from article headlines.
func FallbackSummary(articles []models.NewsArticle, date string, maxWords int) models.MarketSummary {
	var headlines []string
	for _, a := range articles {
		if a.Title == "" {
			continue
		}
		if a.Source != "" {
			headlines = append(headlines, fmt.Sprintf("%s (%s)", a.Title, a.Source))
		} else {
			headlines = append(headlines, a.Title)
		}
	}

	if len(headlines) == 0 {
		return models.MarketSummary{
			Text:      NoSummaryAvailable,
			KeyPoints: []string{},
			ChartURLs: []string{},
			Language:  models.OriginalLanguage,
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Market headlines for %s.\n\n", date)
	for _, h := range headlines {
		fmt.Fprintf(&b, "- %s\n", h)
	}
	text, _ := ClampWords(strings.TrimRight(b.String(), "\n"), maxWords)

	points := headlines
	if len(points) > fallbackKeyPoints {
		points = points[:fallbackKeyPoints]
	}
	return models.MarketSummary{
		Text:      text,
		KeyPoints: append([]string(nil), points...),
		ChartURLs: []string{},
		Language:  models.OriginalLanguage,
	}
}

// complete treats a blank answer as a failure.
func complete(ctx context.Context, llm ai.Completer, req ai.CompletionRequest) (string, error) {
	out, err := llm.Complete(ctx, req)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(out) == "" {
		return "", ai.ErrEmptyResponse
	}
	return strings.TrimSpace(out), nil
}
