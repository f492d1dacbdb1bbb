package models

// TranslationSet maps language name to translated content and remembers the
// order in which languages were added.
type TranslationSet struct {
	order   []string
	entries map[string]string
}

// NewTranslationSet creates an empty set sized for n languages.
func NewTranslationSet(n int) *TranslationSet {
	return &TranslationSet{
		order:   make([]string, 0, n),
		entries: make(map[string]string, n),
	}
}

// Set stores content for language. Re-setting a language keeps its position.
func (s *TranslationSet) Set(language, content string) {
	if _, ok := s.entries[language]; !ok {
		s.order = append(s.order, language)
	}
	s.entries[language] = content
}

// Get returns the content stored for language.
func (s *TranslationSet) Get(language string) (string, bool) {
	content, ok := s.entries[language]
	return content, ok
}

// Languages returns the keys in insertion order.
func (s *TranslationSet) Languages() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of languages.
func (s *TranslationSet) Len() int {
	return len(s.order)
}

// Each calls fn for every entry in insertion order.
func (s *TranslationSet) Each(fn func(language, content string)) {
	for _, lang := range s.order {
		fn(lang, s.entries[lang])
	}
}
