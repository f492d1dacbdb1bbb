package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitPrompt(t *testing.T) {
	system, user := SplitPrompt("sys line\n=== USER PROMPT ===\n user line \n")
	assert.Equal(t, "sys line", system)
	assert.Equal(t, "user line", user)

	system, user = SplitPrompt("only user")
	assert.Equal(t, "", system)
	assert.Equal(t, "only user", user)
}

func TestEmbeddedTemplatesRender(t *testing.T) {
	p, err := Load()
	require.NoError(t, err)

	t.Run("analysis", func(t *testing.T) {
		system, user, err := p.Analysis("1. [Reuters] Fed holds", 150)
		require.NoError(t, err)
		assert.Contains(t, system, "financial analyst")
		assert.Contains(t, user, "Fed holds")
	})

	t.Run("summary", func(t *testing.T) {
		system, user, err := p.Summary("2026-10-19", "NEWS BODY", "ANALYSIS BODY", 500)
		require.NoError(t, err)
		assert.NotEmpty(t, system)
		assert.Contains(t, user, "UNDER 500 words")
		assert.Contains(t, user, "2026-10-19")
		assert.Contains(t, user, "NEWS BODY")
		assert.Contains(t, user, "ANALYSIS BODY")
		assert.Contains(t, user, "Key Points:")
		for _, section := range []string{"closing prices", "news events", "Economic indicators", "corporate developments", "outlook"} {
			assert.Contains(t, user, section)
		}
	})

	t.Run("translation", func(t *testing.T) {
		system, user, err := p.Translation("Arabic", "Stocks rose 1.2% [CHART 1] https://x.test/a.png")
		require.NoError(t, err)
		assert.Contains(t, system, "translator")
		assert.Contains(t, user, "to Arabic")
		assert.Contains(t, user, "[CHART 1]")
		assert.Contains(t, user, "URLs and numerical data unchanged")
	})
}
