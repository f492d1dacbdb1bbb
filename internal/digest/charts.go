package digest

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/selivandex/market-digest/internal/adapters/search"
	"github.com/selivandex/market-digest/pkg/logger"
)

const (
	// MaxCharts is the most charts attached to one report.
	MaxCharts = 2

	chartSearchLimit = 10
)

var chartKeywords = []string{"chart", "graph", "market", "stock", "trading"}

// ImageSearcher is the image side of the search collaborator.
type ImageSearcher interface {
	SearchImages(ctx context.Context, query string, limit int) ([]search.ImageResult, error)
}

// ChartFinder picks chart images relevant to the topic.
type ChartFinder struct {
	searcher ImageSearcher
}

func NewChartFinder(searcher ImageSearcher) *ChartFinder {
	return &ChartFinder{searcher: searcher}
}

// BuildChartQuery returns the image query for topic.
func BuildChartQuery(topic string) string {
	return strings.TrimSpace(topic) + " financial chart graph market trading"
}

// FindCharts returns at most MaxCharts image URLs whose titles mention a
// chart keyword, in search order.
func (f *ChartFinder) FindCharts(ctx context.Context, topic string) Outcome[[]string] {
	query := BuildChartQuery(topic)

	images, err := f.searcher.SearchImages(ctx, query, chartSearchLimit)
	if err != nil {
		err = fmt.Errorf("chart search: %w", err)
		logger.Error("chart search failed, continuing without charts",
			zap.String("stage", "charts"),
			zap.String("query", query),
			zap.Error(err),
		)
		return Fallback([]string{}, err)
	}

	urls := make([]string, 0, MaxCharts)
	for _, img := range images {
		if len(urls) == MaxCharts {
			break
		}
		if strings.TrimSpace(img.ImageURL) == "" || !isChartTitle(img.Title) {
			continue
		}
		urls = append(urls, strings.TrimSpace(img.ImageURL))
	}

	logger.Info("charts selected",
		zap.String("stage", "charts"),
		zap.Int("candidates", len(images)),
		zap.Int("selected", len(urls)),
	)
	return Succeeded(urls)
}

func isChartTitle(title string) bool {
	title = strings.ToLower(title)
	for _, kw := range chartKeywords {
		if strings.Contains(title, kw) {
			return true
		}
	}
	return false
}
