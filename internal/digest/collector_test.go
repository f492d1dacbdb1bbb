package digest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selivandex/market-digest/internal/adapters/search"
	"github.com/selivandex/market-digest/pkg/models"
)

type fakeSource struct {
	name     string
	articles []models.NewsArticle
	err      error
	since    time.Time
}

func (s *fakeSource) Name() string { return s.name }

func (s *fakeSource) Fetch(_ context.Context, since time.Time, limit int) ([]models.NewsArticle, error) {
	s.since = since
	if s.err != nil {
		return nil, s.err
	}
	if len(s.articles) > limit {
		return s.articles[:limit], nil
	}
	return s.articles, nil
}

func TestBuildNewsQuery(t *testing.T) {
	got := BuildNewsQuery("US stock market close", fixedNow(), time.Hour)
	assert.Equal(t, "US stock market close after:2026-10-19 financial markets trading stocks", got)

	got = BuildNewsQuery("earnings", time.Date(2026, 10, 19, 0, 30, 0, 0, time.UTC), time.Hour)
	assert.Equal(t, "earnings after:2026-10-18 financial markets trading stocks", got)
}

func TestCollectCapsAndNormalizes(t *testing.T) {
	setupTest(t)

	hits := make([]search.NewsResult, 0, 25)
	for i := 0; i < 25; i++ {
		hits = append(hits, search.NewsResult{Title: fmt.Sprintf("  Headline %d ", i), Source: "AP"})
	}
	searcher := &fakeSearcher{hits: hits}
	c := NewCollector(searcher)
	c.now = fixedNow

	out := c.Collect(context.Background(), "US stock market close", time.Hour, 20)
	require.NoError(t, out.Err)
	require.Len(t, out.Value, 20)
	assert.Equal(t, "Headline 0", out.Value[0].Title)
	assert.Equal(t, "", out.Value[0].Link)

	require.Len(t, searcher.queries, 1)
	assert.Equal(t, 20, searcher.limits[0])
	assert.Contains(t, searcher.queries[0], "after:2026-10-19")
}

func TestCollectSearchFailure(t *testing.T) {
	setupTest(t)

	c := NewCollector(&fakeSearcher{err: &search.APIError{StatusCode: 401, Endpoint: "/search"}})
	c.now = fixedNow

	out := c.Collect(context.Background(), "stocks", time.Hour, 20)
	require.Error(t, out.Err)
	assert.True(t, out.Degraded())
	assert.NotNil(t, out.Value)
	assert.Empty(t, out.Value)

	var apiErr *search.APIError
	assert.True(t, errors.As(out.Err, &apiErr))
}

func TestCollectAppendsHeadlineSources(t *testing.T) {
	setupTest(t)

	rss := &fakeSource{name: "rss", articles: sampleArticles(4)}
	broken := &fakeSource{name: "broken", err: errUnavailable}
	c := NewCollector(&fakeSearcher{err: errUnavailable}, broken, rss)
	c.now = fixedNow

	out := c.Collect(context.Background(), "stocks", 2*time.Hour, 3)
	require.Error(t, out.Err)
	require.Len(t, out.Value, 3)
	assert.Equal(t, fixedNow().Add(-2*time.Hour), rss.since)
}
