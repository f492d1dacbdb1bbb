package render

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/selivandex/market-digest/pkg/models"
)

// Block is one paragraph of document text.
type Block struct {
	Text    string
	Heading bool
}

var (
	blankLines  = regexp.MustCompile(`\n\s*\n`)
	headingMark = regexp.MustCompile(`^#{1,6}\s*`)
	bulletMark  = regexp.MustCompile(`(?m)^\s*[-*]\s+`)
)

// Blocks turns report content into document paragraphs: HTML is stripped,
// chart markers are removed and paragraphs left empty are dropped.
func Blocks(content string) []Block {
	content = strings.ReplaceAll(content, "\r\n", "\n")

	var blocks []Block
	for _, raw := range blankLines.Split(content, -1) {
		p := models.ChartMarkerPattern.ReplaceAllString(raw, "")
		p = strings.TrimSpace(StripHTML(p))
		if p == "" {
			continue
		}

		b := Block{}
		if headingMark.MatchString(p) {
			b.Heading = true
			p = headingMark.ReplaceAllString(p, "")
		}
		p = strings.ReplaceAll(p, "**", "")
		p = strings.ReplaceAll(p, "__", "")
		p = bulletMark.ReplaceAllString(p, "• ")
		b.Text = strings.TrimSpace(p)
		if b.Text != "" {
			blocks = append(blocks, b)
		}
	}
	return blocks
}

// StripHTML removes tags and decodes entities, keeping line breaks.
func StripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	doc.Find("br").ReplaceWithHtml("\n")
	return doc.Text()
}
