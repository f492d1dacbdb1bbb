package digest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/selivandex/market-digest/internal/adapters/ai"
	"github.com/selivandex/market-digest/internal/adapters/search"
	"github.com/selivandex/market-digest/internal/prompts"
	"github.com/selivandex/market-digest/pkg/logger"
	"github.com/selivandex/market-digest/pkg/models"
)

var errUnavailable = errors.New("service unavailable")

func setupTest(t *testing.T) *prompts.Prompts {
	t.Helper()
	prev := logger.Log
	logger.Log = zaptest.NewLogger(t)
	t.Cleanup(func() { logger.Log = prev })

	p, err := prompts.Load()
	require.NoError(t, err)
	return p
}

func fixedNow() time.Time {
	return time.Date(2026, 10, 19, 20, 30, 0, 0, time.UTC)
}

func sampleArticles(n int) []models.NewsArticle {
	titles := []string{
		"Stocks close higher as tech rallies",
		"Fed signals patience on rates",
		"Oil slips on supply worries",
		"Bank earnings beat estimates",
		"Treasury yields edge lower",
	}
	out := make([]models.NewsArticle, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, models.NewsArticle{
			Title:   titles[i%len(titles)],
			Snippet: "Snippet for " + titles[i%len(titles)],
			Link:    "https://news.example.com/" + strings.ReplaceAll(strings.ToLower(titles[i%len(titles)]), " ", "-"),
			Date:    "1 hour ago",
			Source:  "Reuters",
		})
	}
	return out
}

type fakeSearcher struct {
	hits   []search.NewsResult
	images []search.ImageResult
	err    error

	mu      sync.Mutex
	queries []string
	limits  []int
}

func (f *fakeSearcher) Search(_ context.Context, query string, limit int, kind search.Kind) ([]search.NewsResult, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.limits = append(f.limits, limit)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.hits, nil
}

func (f *fakeSearcher) SearchImages(_ context.Context, query string, limit int) ([]search.ImageResult, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.limits = append(f.limits, limit)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.images, nil
}

func staticCompleter(answer string, err error) ai.Completer {
	return ai.CompleterFunc(func(ctx context.Context, req ai.CompletionRequest) (string, error) {
		return answer, err
	})
}

type fakeMessenger struct {
	textErr    error
	attachErrs map[string]error

	mu          sync.Mutex
	texts       []string
	attachments []string
}

func (m *fakeMessenger) SendText(_ context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts = append(m.texts, text)
	return m.textErr
}

func (m *fakeMessenger) SendAttachment(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attachments = append(m.attachments, path)
	return m.attachErrs[path]
}
