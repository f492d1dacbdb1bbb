package digest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/selivandex/market-digest/pkg/models"
)

func TestMarkerPositions(t *testing.T) {
	tests := []struct {
		paragraphs, charts int
		want               []int
	}{
		{4, 2, []int{1, 2}},
		{6, 2, []int{2, 4}},
		{1, 2, []int{1, 1}},
		{3, 1, []int{1}},
		{5, 0, []int{}},
		{0, 2, []int{0, 0}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MarkerPositions(tt.paragraphs, tt.charts), "%d paragraphs, %d charts", tt.paragraphs, tt.charts)
	}
}

func TestFormat(t *testing.T) {
	summary := models.MarketSummary{Text: "P1\n\nP2\n\nP3\n\nP4", Language: models.OriginalLanguage}

	t.Run("two charts", func(t *testing.T) {
		report := Format(summary, []string{"https://a.png", "https://b.png", "https://c.png"})
		assert.Equal(t, "P1\n\n[CHART 1]\n\nP2\n\n[CHART 2]\n\nP3\n\nP4", report.Content)
		assert.Equal(t, []string{"https://a.png", "https://b.png"}, report.ImageURLs)
		assert.Equal(t, []string{"Chart 1: after paragraph 1 of 4", "Chart 2: after paragraph 2 of 4"}, report.ChartDescriptions)
		assert.True(t, report.HasCharts())
	})

	t.Run("no charts", func(t *testing.T) {
		report := Format(summary, nil)
		assert.Equal(t, "P1\n\nP2\n\nP3\n\nP4", report.Content)
		assert.NotNil(t, report.ImageURLs)
		assert.False(t, report.HasCharts())
		assert.False(t, models.ChartMarkerPattern.MatchString(report.Content))
	})

	t.Run("single paragraph", func(t *testing.T) {
		report := Format(models.MarketSummary{Text: "Only one."}, []string{"https://a.png"})
		assert.Equal(t, "Only one.\n\n[CHART 1]", report.Content)
		assert.Equal(t, []string{"Chart 1: after the closing paragraph"}, report.ChartDescriptions)
	})

	t.Run("marker never first", func(t *testing.T) {
		report := Format(summary, []string{"https://a.png", "https://b.png"})
		assert.False(t, strings.HasPrefix(report.Content, "[CHART"))
	})
}
