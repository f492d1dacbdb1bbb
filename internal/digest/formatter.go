package digest

import (
	"fmt"
	"strings"

	"github.com/selivandex/market-digest/pkg/models"
)

// Format merges the summary with chart markers. Markers are spread evenly
// between paragraphs and never precede the first one. At most MaxCharts
// charts are used.
func Format(summary models.MarketSummary, charts []string) models.FormattedReport {
	if len(charts) > MaxCharts {
		charts = charts[:MaxCharts]
	}
	urls := append([]string{}, charts...)

	paragraphs := Paragraphs(summary.Text)
	positions := MarkerPositions(len(paragraphs), len(urls))

	blocks := make([]string, 0, len(paragraphs)+len(urls))
	descriptions := make([]string, 0, len(urls))
	next := 0
	for i, p := range paragraphs {
		blocks = append(blocks, p)
		for next < len(urls) && positions[next] == i+1 {
			blocks = append(blocks, models.ChartMarker(next+1))
			descriptions = append(descriptions, describePlacement(next+1, positions[next], len(paragraphs)))
			next++
		}
	}
	// Only reached when the narrative has no paragraphs.
	for ; next < len(urls); next++ {
		blocks = append(blocks, models.ChartMarker(next+1))
		descriptions = append(descriptions, describePlacement(next+1, 0, 0))
	}

	return models.FormattedReport{
		Content:           strings.Join(blocks, "\n\n"),
		ImageURLs:         urls,
		ChartDescriptions: descriptions,
	}
}

// MarkerPositions returns, for each of k charts, the number of paragraphs
// preceding its marker. Positions are non-decreasing and at least 1 when
// there is any paragraph.
func MarkerPositions(paragraphs, k int) []int {
	positions := make([]int, k)
	if paragraphs == 0 {
		return positions
	}
	prev := 1
	for i := range positions {
		pos := (i + 1) * paragraphs / (k + 1)
		pos = max(pos, prev, 1)
		pos = min(pos, paragraphs)
		positions[i] = pos
		prev = pos
	}
	return positions
}

func describePlacement(n, after, total int) string {
	switch {
	case total == 0:
		return fmt.Sprintf("Chart %d: shown on its own", n)
	case after == total:
		return fmt.Sprintf("Chart %d: after the closing paragraph", n)
	default:
		return fmt.Sprintf("Chart %d: after paragraph %d of %d", n, after, total)
	}
}
