package telegram

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// Parse modes accepted by TELEGRAM_PARSE_MODE.
const (
	ModeHTML       = "HTML"
	ModeMarkdown   = "Markdown"
	ModeMarkdownV2 = "MarkdownV2"
)

var (
	markdown   = goldmark.New(goldmark.WithExtensions(extension.Strikethrough))
	extraBlank = regexp.MustCompile(`\n{3,}`)
)

// FormatText prepares markdown content for the configured parse mode and
// returns the parse mode to send with it.
func FormatText(content, parseMode string) (string, string) {
	switch strings.ToLower(strings.TrimSpace(parseMode)) {
	case "html":
		return ToHTML(content), ModeHTML
	case "markdownv2":
		return tgbotapi.EscapeText(ModeMarkdownV2, content), ModeMarkdownV2
	case "markdown":
		return content, ModeMarkdown
	default:
		return content, ""
	}
}

// ToHTML converts markdown into the HTML subset Telegram accepts
// (b, i, s, code, pre, a, blockquote).
func ToHTML(content string) string {
	src := []byte(content)
	doc := markdown.Parser().Parse(text.NewReader(src))

	w := &htmlWriter{src: src}
	_ = ast.Walk(doc, w.walk)

	out := extraBlank.ReplaceAllString(w.b.String(), "\n\n")
	return strings.TrimSpace(out)
}

type htmlWriter struct {
	src   []byte
	b     strings.Builder
	lists []int
}

func (w *htmlWriter) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node := n.(type) {
	case *ast.Heading:
		if entering {
			w.b.WriteString("<b>")
		} else {
			w.b.WriteString("</b>\n\n")
		}

	case *ast.Paragraph:
		if !entering {
			w.b.WriteString("\n\n")
		}

	case *ast.TextBlock:
		if !entering && node.NextSibling() != nil {
			w.b.WriteString("\n")
		}

	case *ast.List:
		if entering {
			w.lists = append(w.lists, node.Start)
		} else {
			w.lists = w.lists[:len(w.lists)-1]
			w.b.WriteString("\n")
		}

	case *ast.ListItem:
		if entering {
			list, _ := node.Parent().(*ast.List)
			if list != nil && list.IsOrdered() {
				top := len(w.lists) - 1
				fmt.Fprintf(&w.b, "%d. ", w.lists[top])
				w.lists[top]++
			} else {
				w.b.WriteString("• ")
			}
		} else if !strings.HasSuffix(w.b.String(), "\n") {
			w.b.WriteString("\n")
		}

	case *ast.Blockquote:
		if entering {
			w.b.WriteString("<blockquote>")
		} else {
			w.trimTrailingNewlines()
			w.b.WriteString("</blockquote>\n\n")
		}

	case *ast.ThematicBreak:
		if entering {
			w.b.WriteString("\n")
		}

	case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock:
		if entering {
			w.b.WriteString("<pre>")
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				w.b.WriteString(html.EscapeString(string(seg.Value(w.src))))
			}
			w.trimTrailingNewlines()
			w.b.WriteString("</pre>\n\n")
		}
		return ast.WalkSkipChildren, nil

	case *ast.Emphasis:
		tag := "i"
		if node.Level >= 2 {
			tag = "b"
		}
		w.tag(tag, entering)

	case *east.Strikethrough:
		w.tag("s", entering)

	case *ast.CodeSpan:
		w.tag("code", entering)

	case *ast.Link:
		if entering {
			fmt.Fprintf(&w.b, `<a href="%s">`, html.EscapeString(string(node.Destination)))
		} else {
			w.b.WriteString("</a>")
		}

	case *ast.Image:
		if entering {
			fmt.Fprintf(&w.b, `<a href="%s">`, html.EscapeString(string(node.Destination)))
		} else {
			w.b.WriteString("</a>")
		}

	case *ast.AutoLink:
		if entering {
			url := html.EscapeString(string(node.URL(w.src)))
			fmt.Fprintf(&w.b, `<a href="%s">%s</a>`, url, html.EscapeString(string(node.Label(w.src))))
		}
		return ast.WalkSkipChildren, nil

	case *ast.RawHTML:
		if entering {
			for i := 0; i < node.Segments.Len(); i++ {
				seg := node.Segments.At(i)
				w.b.WriteString(html.EscapeString(string(seg.Value(w.src))))
			}
		}
		return ast.WalkSkipChildren, nil

	case *ast.Text:
		if entering {
			w.b.WriteString(html.EscapeString(string(node.Segment.Value(w.src))))
			if node.SoftLineBreak() || node.HardLineBreak() {
				w.b.WriteString("\n")
			}
		}

	case *ast.String:
		if entering {
			w.b.WriteString(html.EscapeString(string(node.Value)))
		}
	}

	return ast.WalkContinue, nil
}

func (w *htmlWriter) tag(name string, entering bool) {
	if entering {
		fmt.Fprintf(&w.b, "<%s>", name)
	} else {
		fmt.Fprintf(&w.b, "</%s>", name)
	}
}

func (w *htmlWriter) trimTrailingNewlines() {
	s := strings.TrimRight(w.b.String(), "\n")
	w.b.Reset()
	w.b.WriteString(s)
}

// SplitMessage breaks text into chunks of at most limit runes, preferring
// paragraph boundaries, then line boundaries.
func SplitMessage(text string, limit int) []string {
	if limit <= 0 || runeLen(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			chunks = append(chunks, s)
		}
		current.Reset()
	}

	for _, block := range splitKeep(text, "\n\n") {
		if runeLen(current.String())+runeLen(block) <= limit {
			current.WriteString(block)
			continue
		}
		flush()
		if runeLen(block) <= limit {
			current.WriteString(block)
			continue
		}
		for _, line := range splitKeep(block, "\n") {
			if runeLen(current.String())+runeLen(line) > limit {
				flush()
			}
			for runeLen(line) > limit {
				r := []rune(line)
				chunks = append(chunks, string(r[:limit]))
				line = string(r[limit:])
			}
			current.WriteString(line)
		}
	}
	flush()
	return chunks
}

// splitKeep splits s after every sep, keeping the separator on the left part.
func splitKeep(s, sep string) []string {
	parts := strings.SplitAfter(s, sep)
	if last := len(parts) - 1; last >= 0 && parts[last] == "" {
		parts = parts[:last]
	}
	return parts
}

func runeLen(s string) int {
	return len([]rune(s))
}

type htmlToken struct {
	text string
	name string
	open bool
	shut bool
}

// SplitHTML breaks Telegram HTML into chunks of at most limit runes. Tags and
// entities are never cut; tags open at a cut are closed at the end of the
// chunk and reopened at the start of the next one. Cuts prefer paragraph
// boundaries, then line boundaries.
func SplitHTML(text string, limit int) []string {
	if limit <= 0 || runeLen(text) <= limit {
		return []string{text}
	}

	tokens := tokenizeHTML(text)
	var chunks []string
	var reopen []htmlToken

	for start := 0; start < len(tokens); {
		stack := append([]htmlToken(nil), reopen...)
		size := tagsLen(reopen)

		end := start
		para, line := -1, -1
		var paraStack, lineStack []htmlToken
		prevNewline := false

		for end < len(tokens) {
			t := tokens[end]
			next := applyToken(stack, t)
			if end > start && size+runeLen(t.text)+closersLen(next) > limit {
				break
			}
			stack = next
			size += runeLen(t.text)
			end++

			if t.text == "\n" {
				if prevNewline {
					para, paraStack = end, append([]htmlToken(nil), stack...)
				} else {
					line, lineStack = end, append([]htmlToken(nil), stack...)
				}
				prevNewline = true
			} else {
				prevNewline = false
			}
		}

		cut, cutStack := end, stack
		if end < len(tokens) {
			switch {
			case para > start:
				cut, cutStack = para, paraStack
			case line > start:
				cut, cutStack = line, lineStack
			}
		}

		var b strings.Builder
		body := false
		for _, t := range reopen {
			b.WriteString(t.text)
		}
		for _, t := range tokens[start:cut] {
			if t.name == "" && strings.TrimSpace(t.text) != "" {
				body = true
			}
			b.WriteString(t.text)
		}
		for i := len(cutStack) - 1; i >= 0; i-- {
			b.WriteString("</" + cutStack[i].name + ">")
		}
		if body {
			chunks = append(chunks, strings.TrimSpace(b.String()))
		}

		reopen = cutStack
		start = cut
	}
	return chunks
}

// tokenizeHTML splits s into tags, entities and single runes.
func tokenizeHTML(s string) []htmlToken {
	var tokens []htmlToken
	for i := 0; i < len(s); {
		switch s[i] {
		case '<':
			if j := strings.IndexByte(s[i:], '>'); j > 0 {
				tag := s[i : i+j+1]
				tokens = append(tokens, parseTag(tag))
				i += j + 1
				continue
			}
		case '&':
			if j := strings.IndexByte(s[i:], ';'); j > 0 && j <= 10 {
				tokens = append(tokens, htmlToken{text: s[i : i+j+1]})
				i += j + 1
				continue
			}
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		tokens = append(tokens, htmlToken{text: s[i : i+size]})
		i += size
	}
	return tokens
}

func parseTag(tag string) htmlToken {
	inner := strings.TrimSuffix(strings.TrimPrefix(tag, "<"), ">")
	shut := strings.HasPrefix(inner, "/")
	inner = strings.TrimPrefix(inner, "/")
	name := inner
	if i := strings.IndexAny(inner, " \t\n"); i >= 0 {
		name = inner[:i]
	}
	name = strings.ToLower(name)
	if name == "" {
		name = "?"
	}
	return htmlToken{text: tag, name: name, open: !shut, shut: shut}
}

func applyToken(stack []htmlToken, t htmlToken) []htmlToken {
	switch {
	case t.open:
		return append(stack[:len(stack):len(stack)], t)
	case t.shut:
		for i := len(stack) - 1; i >= 0; i-- {
			if stack[i].name == t.name {
				return stack[:i:i]
			}
		}
	}
	return stack
}

func tagsLen(tags []htmlToken) int {
	n := 0
	for _, t := range tags {
		n += runeLen(t.text)
	}
	return n
}

func closersLen(stack []htmlToken) int {
	n := 0
	for _, t := range stack {
		n += len(t.name) + 3
	}
	return n
}
