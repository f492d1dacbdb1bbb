package telegram

import (
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selivandex/market-digest/pkg/models"
)

func TestToHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bold and italic", "**Dow** gains *slightly*", "<b>Dow</b> gains <i>slightly</i>"},
		{"escapes", "S&P < 5000", "S&amp;P &lt; 5000"},
		{"heading", "## Outlook\n\nCalm.", "<b>Outlook</b>\n\nCalm."},
		{"link", "[Chart](https://img.example.com/a.png)", `<a href="https://img.example.com/a.png">Chart</a>`},
		{"bullets", "Key Points:\n\n- Up\n- Down", "Key Points:\n\n• Up\n• Down"},
		{"ordered", "1. First\n2. Second", "1. First\n2. Second"},
		{"code", "Use `SPX`", "Use <code>SPX</code>"},
		{"raw html escaped", "a <br> b", "a &lt;br&gt; b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToHTML(tt.in))
		})
	}
}

func TestFormatText(t *testing.T) {
	out, mode := FormatText("**x**", "html")
	assert.Equal(t, "<b>x</b>", out)
	assert.Equal(t, ModeHTML, mode)

	out, mode = FormatText("**x**", "Markdown")
	assert.Equal(t, "**x**", out)
	assert.Equal(t, ModeMarkdown, mode)

	out, mode = FormatText("a.b", "MarkdownV2")
	assert.Equal(t, `a\.b`, out)
	assert.Equal(t, ModeMarkdownV2, mode)

	out, mode = FormatText("**x**", "")
	assert.Equal(t, "**x**", out)
	assert.Equal(t, "", mode)
}

func TestSplitMessage(t *testing.T) {
	assert.Equal(t, []string{"short"}, SplitMessage("short", 10))

	chunks := SplitMessage("aaaa\n\nbbbb\n\ncccc", 10)
	assert.Equal(t, []string{"aaaa", "bbbb\n\ncccc"}, chunks)

	long := strings.Repeat("é", 25)
	chunks = SplitMessage(long, 10)
	require.Len(t, chunks, 3)
	for _, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c)), 10)
	}
	assert.Equal(t, long, strings.Join(chunks, ""))
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

func visibleText(s string) string {
	return strings.Join(strings.Fields(tagPattern.ReplaceAllString(s, "")), "")
}

// linkedParagraph builds one markdown line well over the message limit.
func linkedParagraph(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "Stocks moved on [earnings article](https://example.com/a/very/long/path/%03d) today. ", i)
	}
	return strings.TrimSpace(b.String())
}

func assertWellFormedChunk(t *testing.T, chunk string, limit int) {
	t.Helper()
	assert.LessOrEqual(t, len([]rune(chunk)), limit)
	assert.Equal(t, strings.Count(chunk, "<"), strings.Count(chunk, ">"), "cut inside a tag: %q", chunk)
	assert.Equal(t, strings.Count(chunk, "<a "), strings.Count(chunk, "</a>"), "unbalanced link: %q", chunk)
	assert.Equal(t, strings.Count(chunk, "<b>"), strings.Count(chunk, "</b>"), "unbalanced bold: %q", chunk)
}

func TestSplitHTMLKeepsLinksIntact(t *testing.T) {
	body := ToHTML(linkedParagraph(200))
	require.Greater(t, len([]rune(body)), MaxMessageLength)

	chunks := SplitHTML(body, MaxMessageLength)
	require.Greater(t, len(chunks), 1)

	var joined strings.Builder
	for _, chunk := range chunks {
		assertWellFormedChunk(t, chunk, MaxMessageLength)
		joined.WriteString(chunk)
	}
	assert.Equal(t, visibleText(body), visibleText(joined.String()))
}

func TestSplitHTML(t *testing.T) {
	t.Run("fits", func(t *testing.T) {
		assert.Equal(t, []string{"<b>short</b>"}, SplitHTML("<b>short</b>", 100))
	})

	t.Run("reopens tags across a cut", func(t *testing.T) {
		assert.Equal(t, []string{"<b>aaaa </b>", "<b>bbbb</b>"}, SplitHTML("<b>aaaa bbbb</b>", 12))
	})

	t.Run("prefers paragraph boundaries", func(t *testing.T) {
		assert.Equal(t, []string{"one two", "three four"}, SplitHTML("one two\n\nthree four", 12))
	})

	t.Run("keeps entities whole", func(t *testing.T) {
		assert.Equal(t, []string{"&amp;", "&amp;", "&amp;"}, SplitHTML("&amp;&amp;&amp;", 6))
	})

	t.Run("nested tags", func(t *testing.T) {
		in := `<blockquote><a href="https://example.com/x">` + strings.Repeat("word ", 30) + "</a></blockquote>"
		chunks := SplitHTML(in, 100)
		require.Greater(t, len(chunks), 1)
		for _, chunk := range chunks {
			assertWellFormedChunk(t, chunk, 100)
			assert.True(t, strings.HasPrefix(chunk, `<blockquote><a href="https://example.com/x">`), chunk)
			assert.True(t, strings.HasSuffix(chunk, "</a></blockquote>"), chunk)
		}
		assert.Equal(t, visibleText(in), visibleText(strings.Join(chunks, "")))
	})
}

func TestComposeDigest(t *testing.T) {
	report := models.FormattedReport{
		Content:   "Stocks rose.\n\n[CHART 1]\n\nOutlook calm.\n\n[CHART 2]",
		ImageURLs: []string{"https://img.example.com/spx.png"},
	}

	msg, err := ComposeDigest("2026-10-19", report, []string{"Arabic", "Hindi"})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(msg, "📊 **Financial Market Summary - 2026-10-19**"))
	assert.Contains(t, msg, "[📈 Chart 1](https://img.example.com/spx.png)")
	assert.NotContains(t, msg, "[CHART 2]")
	assert.Contains(t, msg, "Translations available: Arabic, Hindi")
	assert.True(t, strings.HasSuffix(msg, "#FinancialNews #MarketSummary #StockMarket"))
}

func TestLinkChartsWithoutImages(t *testing.T) {
	assert.Equal(t, "A\n\nB", LinkCharts("A\n\n[CHART 1]\n\nB", nil))
}
