package digest

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/selivandex/market-digest/pkg/models"
)

var paragraphSplit = regexp.MustCompile(`\n\s*\n`)

// Paragraphs splits text into trimmed, non-empty blank-line separated blocks.
func Paragraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []string
	for _, p := range paragraphSplit.Split(text, -1) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// CountWords counts whitespace separated words.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// ClampWords cuts text to at most maxWords words, keeping the original
// formatting. When the cut lands mid-sentence and a sentence end exists in the
// second half of the kept text, the text is cut there instead.
func ClampWords(text string, maxWords int) (string, bool) {
	if maxWords <= 0 || CountWords(text) <= maxWords {
		return text, false
	}

	words := 0
	inWord := false
	cut := len(text)
	for i, r := range text {
		if unicode.IsSpace(r) {
			inWord = false
			continue
		}
		if !inWord {
			words++
			inWord = true
			if words > maxWords {
				cut = i
				break
			}
		}
	}

	kept := strings.TrimRightFunc(text[:cut], unicode.IsSpace)
	if end := lastSentenceEnd(kept); end > len(kept)/2 {
		kept = kept[:end]
	}
	return kept, true
}

func lastSentenceEnd(text string) int {
	best := -1
	for i, r := range text {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		next := i + 1
		if next == len(text) || text[next] == ' ' || text[next] == '\n' {
			best = next
		}
	}
	return best
}

var (
	bulletLine   = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s+(.+)$`)
	keyPointHead = regexp.MustCompile(`(?i)^\s*[*#_\s]*key\s+points[*_\s]*:?[*_\s]*$`)
)

// KeyPoints extracts bullet lines. Bullets under a "Key Points" heading win;
// without such a heading every bullet line is returned.
func KeyPoints(text string) []string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	start := 0
	for i, line := range lines {
		if keyPointHead.MatchString(line) {
			start = i + 1
			break
		}
	}

	var points []string
	for _, line := range lines[start:] {
		if m := bulletLine.FindStringSubmatch(line); m != nil {
			point := strings.Trim(strings.TrimSpace(m[1]), "*_")
			if point != "" {
				points = append(points, point)
			}
		}
	}
	return points
}

// SplitKeyPoints separates the narrative from a "Key Points" section starting
// at its heading. section is empty when there is no heading.
func SplitKeyPoints(text string) (narrative, section string) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i, line := range lines {
		if keyPointHead.MatchString(line) {
			narrative = strings.TrimSpace(strings.Join(lines[:i], "\n"))
			section = strings.TrimSpace(strings.Join(lines[i:], "\n"))
			return narrative, section
		}
	}
	return strings.TrimSpace(text), ""
}

// FormatArticles renders articles as a numbered plain-text list. Output is
// deterministic for a given input.
func FormatArticles(articles []models.NewsArticle) string {
	if len(articles) == 0 {
		return "No news items were found for this period."
	}

	var b strings.Builder
	for i, a := range articles {
		source := a.Source
		if source == "" {
			source = "unknown source"
		}
		fmt.Fprintf(&b, "%d. [%s] %s", i+1, source, a.Title)
		if a.Date != "" {
			fmt.Fprintf(&b, " (%s)", a.Date)
		}
		b.WriteString("\n")
		if a.Snippet != "" {
			fmt.Fprintf(&b, "   %s\n", a.Snippet)
		}
		if a.Link != "" {
			fmt.Fprintf(&b, "   %s\n", a.Link)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
