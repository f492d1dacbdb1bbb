package models

import (
	"fmt"
	"regexp"
)

// OriginalLanguage labels content that has not been translated.
const OriginalLanguage = "English"

// MarketSummary is the narrative produced once per run.
type MarketSummary struct {
	Text      string   `json:"text"`
	KeyPoints []string `json:"key_points"`
	ChartURLs []string `json:"chart_urls"`
	Language  string   `json:"language"`
}

// FormattedReport is the summary merged with chart markers. It is the unit
// handed to translation and rendering.
type FormattedReport struct {
	Content           string   `json:"content"`
	ImageURLs         []string `json:"image_urls"`
	ChartDescriptions []string `json:"chart_descriptions"`
}

// HasCharts reports whether any chart was attached.
func (r FormattedReport) HasCharts() bool {
	return len(r.ImageURLs) > 0
}

// DocumentArtifact describes one rendered document.
type DocumentArtifact struct {
	Path          string   `json:"path"`
	Language      string   `json:"language"`
	Paragraphs    int      `json:"paragraphs"`
	Images        int      `json:"images"`
	SkippedImages []string `json:"skipped_images,omitempty"`
}

// ChartMarkerPattern matches placement markers such as "[CHART 1]".
var ChartMarkerPattern = regexp.MustCompile(`\[CHART (\d+)\]`)

// ChartMarker returns the placement marker for the n-th chart (1-based).
func ChartMarker(n int) string {
	return fmt.Sprintf("[CHART %d]", n)
}
