package digest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/market-digest/internal/adapters/search"
	"github.com/selivandex/market-digest/pkg/logger"
	"github.com/selivandex/market-digest/pkg/models"
)

// NewsSearcher is the news side of the search collaborator.
type NewsSearcher interface {
	Search(ctx context.Context, query string, limit int, kind search.Kind) ([]search.NewsResult, error)
}

// HeadlineSource is an optional secondary news source such as an RSS feed.
type HeadlineSource interface {
	Name() string
	Fetch(ctx context.Context, since time.Time, limit int) ([]models.NewsArticle, error)
}

// Collector gathers recent financial news.
type Collector struct {
	searcher NewsSearcher
	sources  []HeadlineSource
	now      func() time.Time
}

// NewCollector creates a collector. Extra sources are consulted after the
// search collaborator.
func NewCollector(searcher NewsSearcher, sources ...HeadlineSource) *Collector {
	return &Collector{
		searcher: searcher,
		sources:  sources,
		now:      time.Now,
	}
}

// BuildNewsQuery appends the "after" date and domain keywords to topic.
func BuildNewsQuery(topic string, now time.Time, window time.Duration) string {
	after := now.Add(-window).Format("2006-01-02")
	return fmt.Sprintf("%s after:%s financial markets trading stocks", strings.TrimSpace(topic), after)
}

// Collect queries the search collaborator once and returns at most maxItems
// articles. A failed search yields an empty list with Err set; it never
// aborts the run.
func (c *Collector) Collect(ctx context.Context, topic string, window time.Duration, maxItems int) Outcome[[]models.NewsArticle] {
	now := c.now()
	query := BuildNewsQuery(topic, now, window)
	articles := make([]models.NewsArticle, 0, maxItems)

	var searchErr error
	hits, err := c.searcher.Search(ctx, query, maxItems, search.KindNews)
	if err != nil {
		searchErr = fmt.Errorf("news search: %w", err)
		logger.Error("news search failed, continuing without search results",
			zap.String("stage", "collector"),
			zap.String("query", query),
			zap.Error(err),
		)
	}
	for _, hit := range hits {
		if len(articles) >= maxItems {
			break
		}
		article := models.NewsArticle{
			Title:   hit.Title,
			Snippet: hit.Snippet,
			Link:    hit.Link,
			Date:    hit.Date,
			Source:  hit.Source,
		}.Normalize()
		articles = append(articles, article)
	}

	for _, source := range c.sources {
		if len(articles) >= maxItems {
			break
		}
		extra, err := source.Fetch(ctx, now.Add(-window), maxItems-len(articles))
		if err != nil {
			logger.Warn("headline source failed",
				zap.String("stage", "collector"),
				zap.String("source", source.Name()),
				zap.Error(err),
			)
			continue
		}
		for _, article := range extra {
			if len(articles) >= maxItems {
				break
			}
			articles = append(articles, article.Normalize())
		}
	}

	logger.Info("news collected",
		zap.String("stage", "collector"),
		zap.Int("articles", len(articles)),
		zap.Int("search_hits", len(hits)),
	)

	if searchErr != nil {
		return Fallback(articles, searchErr)
	}
	return Succeeded(articles)
}
