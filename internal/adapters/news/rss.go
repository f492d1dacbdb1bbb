package news

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/selivandex/market-digest/pkg/logger"
	"github.com/selivandex/market-digest/pkg/models"
)

const maxConcurrentFeeds = 4

// RSSProvider reads headlines from RSS/Atom feeds.
type RSSProvider struct {
	feeds  []string
	client *http.Client
}

// NewRSSProvider creates a provider for the given feed URLs.
func NewRSSProvider(feeds []string, timeout time.Duration) *RSSProvider {
	return &RSSProvider{
		feeds:  feeds,
		client: &http.Client{Timeout: timeout},
	}
}

func (p *RSSProvider) Name() string {
	return "rss"
}

type datedArticle struct {
	article   models.NewsArticle
	published time.Time
}

// Fetch returns up to limit items published at or after since, newest first.
// Undated items are skipped. Individual feed failures are logged; an error is
// returned only when every feed failed.
func (p *RSSProvider) Fetch(ctx context.Context, since time.Time, limit int) ([]models.NewsArticle, error) {
	if len(p.feeds) == 0 || limit <= 0 {
		return nil, nil
	}

	var (
		mu     sync.Mutex
		items  []datedArticle
		failed int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFeeds)
	for _, url := range p.feeds {
		g.Go(func() error {
			got, err := p.fetchFeed(gctx, url, since)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				logger.Warn("failed to fetch feed",
					zap.String("url", url),
					zap.Error(err),
				)
				return nil
			}
			items = append(items, got...)
			return nil
		})
	}
	_ = g.Wait()

	if failed == len(p.feeds) {
		return nil, fmt.Errorf("all %d feeds failed", failed)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].published.After(items[j].published)
	})
	if len(items) > limit {
		items = items[:limit]
	}

	out := make([]models.NewsArticle, 0, len(items))
	for _, it := range items {
		out = append(out, it.article)
	}

	logger.Debug("fetched RSS headlines",
		zap.Int("feeds", len(p.feeds)),
		zap.Int("count", len(out)),
	)
	return out, nil
}

func (p *RSSProvider) fetchFeed(ctx context.Context, url string, since time.Time) ([]datedArticle, error) {
	fp := gofeed.NewParser()
	fp.Client = p.client

	feed, err := fp.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, fmt.Errorf("parsing feed %q: %w", url, err)
	}
	return feedArticles(feed, since), nil
}

func feedArticles(feed *gofeed.Feed, since time.Time) []datedArticle {
	source := strings.TrimSpace(feed.Title)

	var out []datedArticle
	for _, item := range feed.Items {
		published := item.PublishedParsed
		if published == nil {
			published = item.UpdatedParsed
		}
		if published == nil || published.Before(since) {
			continue
		}

		date := item.Published
		if date == "" {
			date = published.UTC().Format(time.RFC1123)
		}

		out = append(out, datedArticle{
			article: models.NewsArticle{
				Title:   item.Title,
				Snippet: stripHTML(item.Description),
				Link:    item.Link,
				Date:    date,
				Source:  source,
			}.Normalize(),
			published: *published,
		})
	}
	return out
}

func stripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
