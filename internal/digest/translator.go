package digest

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/selivandex/market-digest/internal/adapters/ai"
	"github.com/selivandex/market-digest/internal/prompts"
	"github.com/selivandex/market-digest/pkg/logger"
	"github.com/selivandex/market-digest/pkg/models"
)

// TranslationUnavailable replaces the content of a language whose
// translation failed.
const TranslationUnavailable = "Translation unavailable"

const maxConcurrentTranslations = 4

// Translator renders a formatted report into other languages.
type Translator struct {
	llm      ai.Completer
	prompts  *prompts.Prompts
	parallel bool
}

func NewTranslator(llm ai.Completer, p *prompts.Prompts, parallel bool) *Translator {
	return &Translator{llm: llm, prompts: p, parallel: parallel}
}

type translation struct {
	content string
	err     error
}

// Translate returns one entry per language in the given order. Failed
// languages carry TranslationUnavailable and appear in the returned error map.
func (t *Translator) Translate(ctx context.Context, report models.FormattedReport, languages []string) (*models.TranslationSet, map[string]error) {
	slots := make([]translation, len(languages))

	g := new(errgroup.Group)
	if t.parallel {
		g.SetLimit(maxConcurrentTranslations)
	} else {
		g.SetLimit(1)
	}
	for i, lang := range languages {
		g.Go(func() error {
			content, err := t.translateOne(ctx, report.Content, lang)
			slots[i] = translation{content: content, err: err}
			return nil
		})
	}
	_ = g.Wait()

	set := models.NewTranslationSet(len(languages))
	failures := make(map[string]error)
	for i, lang := range languages {
		if err := slots[i].err; err != nil {
			logger.Error("translation failed",
				zap.String("stage", "translator"),
				zap.String("language", lang),
				zap.Error(err),
			)
			failures[lang] = err
			set.Set(lang, TranslationUnavailable)
			continue
		}
		set.Set(lang, slots[i].content)
	}

	logger.Info("translations complete",
		zap.String("stage", "translator"),
		zap.Int("languages", len(languages)),
		zap.Int("failed", len(failures)),
	)
	return set, failures
}

func (t *Translator) translateOne(ctx context.Context, content, language string) (string, error) {
	system, user, err := t.prompts.Translation(language, content)
	if err != nil {
		return "", fmt.Errorf("render translation prompt for %s: %w", language, err)
	}
	out, err := complete(ctx, t.llm, ai.CompletionRequest{
		System:      system,
		User:        user,
		Temperature: 0.1,
	})
	if err != nil {
		return "", fmt.Errorf("translate to %s: %w", language, err)
	}
	return out, nil
}
