package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslationSetKeepsInsertionOrder(t *testing.T) {
	set := NewTranslationSet(3)
	set.Set("Hindi", "hi")
	set.Set("Arabic", "ar")
	set.Set("Hebrew", "he")
	set.Set("Hindi", "hi-2")

	assert.Equal(t, []string{"Hindi", "Arabic", "Hebrew"}, set.Languages())
	assert.Equal(t, 3, set.Len())

	content, ok := set.Get("Hindi")
	assert.True(t, ok)
	assert.Equal(t, "hi-2", content)

	var seen []string
	set.Each(func(language, content string) {
		seen = append(seen, language+"="+content)
	})
	assert.Equal(t, []string{"Hindi=hi-2", "Arabic=ar", "Hebrew=he"}, seen)
}

func TestTranslationSetLanguagesIsACopy(t *testing.T) {
	set := NewTranslationSet(1)
	set.Set("Arabic", "ar")

	langs := set.Languages()
	langs[0] = "mutated"

	assert.Equal(t, []string{"Arabic"}, set.Languages())
}
