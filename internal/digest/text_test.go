package digest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/selivandex/market-digest/pkg/models"
)

func TestParagraphs(t *testing.T) {
	got := Paragraphs("First line\r\n\r\n  Second  \n \n\n\nThird\nstill third\n\n")
	assert.Equal(t, []string{"First line", "Second", "Third\nstill third"}, got)
	assert.Empty(t, Paragraphs("  \n\n "))
}

func TestClampWords(t *testing.T) {
	t.Run("within limit", func(t *testing.T) {
		out, cut := ClampWords("Markets rose today.", 10)
		assert.False(t, cut)
		assert.Equal(t, "Markets rose today.", out)
	})

	t.Run("cuts at sentence end", func(t *testing.T) {
		out, cut := ClampWords("One two three. Four five six seven.", 5)
		assert.True(t, cut)
		assert.Equal(t, "One two three.", out)
	})

	t.Run("cuts at word boundary without sentence end", func(t *testing.T) {
		out, cut := ClampWords("a b c d e f", 3)
		assert.True(t, cut)
		assert.Equal(t, "a b c", out)
	})

	t.Run("long text never exceeds limit", func(t *testing.T) {
		text := strings.Repeat("The index gained ground. ", 200)
		out, cut := ClampWords(text, 500)
		assert.True(t, cut)
		assert.LessOrEqual(t, CountWords(out), 500)
		assert.True(t, strings.HasSuffix(out, "."))
	})
}

func TestKeyPoints(t *testing.T) {
	t.Run("bullets under heading", func(t *testing.T) {
		text := "Stocks rose.\n\n- ignored bullet\n\n**Key Points:**\n- Dow up\n* Nasdaq flat\n1. Oil down"
		assert.Equal(t, []string{"Dow up", "Nasdaq flat", "Oil down"}, KeyPoints(text))
	})

	t.Run("all bullets without heading", func(t *testing.T) {
		assert.Equal(t, []string{"a", "b"}, KeyPoints("Intro\n- a\n- b"))
	})

	t.Run("no bullets", func(t *testing.T) {
		assert.Empty(t, KeyPoints("Plain narrative only."))
	})
}

func TestFormatArticles(t *testing.T) {
	assert.Equal(t, "No news items were found for this period.", FormatArticles(nil))

	out := FormatArticles([]models.NewsArticle{
		{Title: "Fed holds", Snippet: "Rates unchanged", Link: "https://example.com/fed", Date: "1 hour ago", Source: "Reuters"},
		{Title: "Untitled source"},
	})
	assert.Equal(t, "1. [Reuters] Fed holds (1 hour ago)\n   Rates unchanged\n   https://example.com/fed\n2. [unknown source] Untitled source", out)

	// deterministic
	assert.Equal(t, out, FormatArticles([]models.NewsArticle{
		{Title: "Fed holds", Snippet: "Rates unchanged", Link: "https://example.com/fed", Date: "1 hour ago", Source: "Reuters"},
		{Title: "Untitled source"},
	}))
}

func TestSplitKeyPoints(t *testing.T) {
	narrative, section := SplitKeyPoints("Stocks rose.\n\nBonds fell.\n\n**Key Points:**\n- Dow up")
	assert.Equal(t, "Stocks rose.\n\nBonds fell.", narrative)
	assert.Equal(t, "**Key Points:**\n- Dow up", section)

	narrative, section = SplitKeyPoints(" Plain narrative. ")
	assert.Equal(t, "Plain narrative.", narrative)
	assert.Empty(t, section)
}
