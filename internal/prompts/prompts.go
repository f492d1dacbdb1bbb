package prompts

import (
	"embed"
	"fmt"
	"strings"

	"github.com/selivandex/market-digest/pkg/templates"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const (
	analysisTemplate  = "analysis.tmpl"
	summaryTemplate   = "summary.tmpl"
	translateTemplate = "translate.tmpl"

	userSeparator = "=== USER PROMPT ==="
)

// Prompts renders the system/user prompt pairs sent to the language model.
type Prompts struct {
	renderer templates.Renderer
}

// Load parses the embedded prompt templates.
func Load() (*Prompts, error) {
	manager, err := templates.NewManagerWithValidation(
		templateFS,
		[]string{analysisTemplate, summaryTemplate, translateTemplate},
		"templates/*.tmpl",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load prompt templates: %w", err)
	}
	return New(manager), nil
}

// New wraps an existing renderer.
func New(renderer templates.Renderer) *Prompts {
	return &Prompts{renderer: renderer}
}

// Analysis builds the insight prompt for serialized news.
func (p *Prompts) Analysis(news string, maxWords int) (system, user string, err error) {
	return p.render(analysisTemplate, map[string]any{
		"News":     news,
		"MaxWords": maxWords,
	})
}

// Summary builds the market summary prompt.
func (p *Prompts) Summary(date, news, analysis string, maxWords int) (system, user string, err error) {
	return p.render(summaryTemplate, map[string]any{
		"Date":     date,
		"News":     news,
		"Analysis": analysis,
		"MaxWords": maxWords,
	})
}

// Translation builds the prompt translating content into language.
func (p *Prompts) Translation(language, content string) (system, user string, err error) {
	return p.render(translateTemplate, map[string]any{
		"Language": language,
		"Content":  content,
	})
}

func (p *Prompts) render(name string, data map[string]any) (string, string, error) {
	output, err := p.renderer.ExecuteTemplate(name, data)
	if err != nil {
		return "", "", err
	}
	system, user := SplitPrompt(output)
	return system, user, nil
}

// SplitPrompt splits rendered template output into system and user parts.
// Output without a separator is treated as a user prompt only.
func SplitPrompt(output string) (systemPrompt string, userPrompt string) {
	idx := strings.Index(output, userSeparator)
	if idx == -1 {
		return "", strings.TrimSpace(output)
	}

	systemPrompt = strings.TrimSpace(output[:idx])
	userPrompt = strings.TrimSpace(output[idx+len(userSeparator):])
	return systemPrompt, userPrompt
}
