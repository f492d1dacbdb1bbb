package telegram

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"github.com/selivandex/market-digest/pkg/models"
	"github.com/selivandex/market-digest/pkg/templates"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const digestTemplate = "digest.tmpl"

// DefaultHashtags close every published digest.
var DefaultHashtags = []string{"FinancialNews", "MarketSummary", "StockMarket"}

var (
	managerOnce sync.Once
	manager     *templates.Manager
	managerErr  error
)

func templateManager() (*templates.Manager, error) {
	managerOnce.Do(func() {
		manager, managerErr = templates.NewManagerWithValidation(templateFS, []string{digestTemplate}, "templates/*.tmpl")
	})
	return manager, managerErr
}

// DigestMessage is the data behind a published digest.
type DigestMessage struct {
	Date         string
	Content      string
	Translations []string
	Hashtags     []string
}

// ComposeDigest renders the channel message for an English report. Chart
// markers become links to their images; markers without an image are dropped.
func ComposeDigest(date string, report models.FormattedReport, translations []string) (string, error) {
	tm, err := templateManager()
	if err != nil {
		return "", fmt.Errorf("failed to load telegram templates: %w", err)
	}

	out, err := tm.ExecuteTemplate(digestTemplate, DigestMessage{
		Date:         date,
		Content:      LinkCharts(report.Content, report.ImageURLs),
		Translations: translations,
		Hashtags:     DefaultHashtags,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// LinkCharts replaces "[CHART n]" markers with markdown links to urls[n-1].
func LinkCharts(content string, urls []string) string {
	out := models.ChartMarkerPattern.ReplaceAllStringFunc(content, func(marker string) string {
		var n int
		if _, err := fmt.Sscanf(marker, "[CHART %d]", &n); err != nil || n < 1 || n > len(urls) {
			return ""
		}
		return fmt.Sprintf("[📈 Chart %d](%s)", n, urls[n-1])
	})
	return strings.TrimSpace(extraBlank.ReplaceAllString(out, "\n\n"))
}
