package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/selivandex/market-digest/internal/adapters/ai"
	"github.com/selivandex/market-digest/internal/adapters/config"
	"github.com/selivandex/market-digest/internal/adapters/news"
	"github.com/selivandex/market-digest/internal/adapters/search"
	"github.com/selivandex/market-digest/internal/adapters/telegram"
	"github.com/selivandex/market-digest/internal/digest"
	"github.com/selivandex/market-digest/internal/prompts"
	"github.com/selivandex/market-digest/internal/render"
	"github.com/selivandex/market-digest/pkg/logger"
	"github.com/selivandex/market-digest/pkg/models"
)

const maxConcurrentRenders = 4

// Searcher is the search collaborator used for news and charts.
type Searcher interface {
	digest.NewsSearcher
	digest.ImageSearcher
}

// DocumentRenderer writes one report document.
type DocumentRenderer interface {
	Render(ctx context.Context, content string, imageURLs []string, label, outputPath string) (models.DocumentArtifact, error)
}

// Deps are the collaborators a pipeline runs against.
type Deps struct {
	Searcher  Searcher
	LLM       ai.Completer
	Messenger digest.Messenger
	Renderer  DocumentRenderer
	Sources   []digest.HeadlineSource
}

// Pipeline runs one digest end to end.
type Pipeline struct {
	cfg *config.Config

	collector   *digest.Collector
	augmenter   *digest.Augmenter
	summarizer  *digest.Summarizer
	charts      *digest.ChartFinder
	translator  *digest.Translator
	renderer    DocumentRenderer
	distributor *digest.Distributor

	now func() time.Time

	mu   sync.RWMutex
	last *models.RunStatus
}

// New wires a pipeline from explicit collaborators.
func New(cfg *config.Config, deps Deps) (*Pipeline, error) {
	p, err := prompts.Load()
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		cfg:         cfg,
		collector:   digest.NewCollector(deps.Searcher, deps.Sources...),
		augmenter:   digest.NewAugmenter(deps.LLM, p),
		summarizer:  digest.NewSummarizer(deps.LLM, p),
		charts:      digest.NewChartFinder(deps.Searcher),
		translator:  digest.NewTranslator(deps.LLM, p, cfg.Digest.Parallel),
		renderer:    deps.Renderer,
		distributor: digest.NewDistributor(deps.Messenger),
		now:         time.Now,
	}, nil
}

// NewFromConfig builds the production collaborators from cfg.
func NewFromConfig(ctx context.Context, cfg *config.Config) (*Pipeline, error) {
	llm, err := ai.NewCompleter(ctx, &cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to create model client: %w", err)
	}

	notifier, err := telegram.NewNotifier(&cfg.Telegram)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram notifier: %w", err)
	}

	var sources []digest.HeadlineSource
	if len(cfg.Search.RSSFeeds) > 0 {
		sources = append(sources, news.NewRSSProvider(cfg.Search.RSSFeeds, cfg.Search.Timeout))
	}

	return New(cfg, Deps{
		Searcher:  search.NewClient(&cfg.Search),
		LLM:       llm,
		Messenger: notifier,
		Renderer:  render.NewRenderer(&cfg.Digest),
		Sources:   sources,
	})
}

// Name implements worker.Worker.
func (p *Pipeline) Name() string {
	return "market_digest"
}

// Run implements worker.Worker. It fails when the digest did not reach the
// channel.
func (p *Pipeline) Run(ctx context.Context) error {
	status, err := p.Execute(ctx)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.last = status
	p.mu.Unlock()

	if !status.MessagingSent {
		return fmt.Errorf("digest %s not delivered: %s", status.RunID, status.DistributionResult)
	}
	return nil
}

// LastStatus returns the status of the most recent Run, or nil.
func (p *Pipeline) LastStatus() *models.RunStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.last
}

// Execute runs every stage once. Collaborator failures are absorbed by stage
// fallbacks and listed in RunStatus.Degraded; only a cancelled context
// returns an error.
func (p *Pipeline) Execute(ctx context.Context) (*models.RunStatus, error) {
	status := &models.RunStatus{
		RunID:     uuid.NewString(),
		StartedAt: p.now(),
	}
	log := logger.With(zap.String("run_id", status.RunID))
	log.Info("digest run started",
		zap.String("topic", p.cfg.Search.Topic),
		zap.Strings("languages", p.cfg.Digest.TargetLanguages),
	)

	degrade := func(stage string, err error) {
		if err != nil {
			status.Degraded = append(status.Degraded, stage)
		}
	}

	collected := p.collector.Collect(ctx, p.cfg.Search.Topic, p.cfg.SearchWindow(), p.cfg.Search.MaxItems)
	degrade("collector", collected.Err)

	analysis := p.augmenter.Augment(ctx, collected.Value)
	degrade("augmenter", analysis.Err)

	summary := p.summarizer.Summarize(ctx, collected.Value, analysis.Value, p.cfg.Digest.MaxSummaryWords)
	degrade("summarizer", summary.Err)

	charts := p.charts.FindCharts(ctx, p.cfg.Search.Topic)
	degrade("charts", charts.Err)

	report := digest.Format(summary.Value, charts.Value)

	translations, failures := p.translator.Translate(ctx, report, p.cfg.Digest.TargetLanguages)
	for _, lang := range translations.Languages() {
		degrade("translator:"+lang, failures[lang])
	}

	documents := p.renderAll(ctx, report, translations)
	for _, doc := range documents {
		if doc.err != nil {
			degrade("renderer:"+doc.language, doc.err)
			continue
		}
		status.DocumentPaths = append(status.DocumentPaths, doc.artifact.Path)
	}

	if err := ctx.Err(); err != nil {
		status.FinishedAt = p.now()
		return status, fmt.Errorf("digest run %s cancelled: %w", status.RunID, err)
	}

	message, err := telegram.ComposeDigest(status.StartedAt.Format("2006-01-02"), report, translations.Languages())
	if err != nil {
		log.Warn("failed to compose digest message, sending report content", zap.Error(err))
		message = telegram.LinkCharts(report.Content, report.ImageURLs)
	}

	var attachments []string
	if p.cfg.Telegram.AttachDocuments {
		attachments = status.DocumentPaths
	}
	delivery := p.distributor.Distribute(ctx, message, attachments)

	status.MessagingSent = delivery.Sent
	status.DistributionResult = delivery.Summary()
	status.FinishedAt = p.now()

	log.Info("digest run finished",
		zap.Bool("sent", status.MessagingSent),
		zap.String("result", status.DistributionResult),
		zap.Int("documents", len(status.DocumentPaths)),
		zap.Strings("degraded", status.Degraded),
		zap.Duration("duration", status.Duration()),
	)
	return status, nil
}

type renderedDocument struct {
	language string
	artifact models.DocumentArtifact
	err      error
}

// renderAll renders the English report followed by every translation, in
// that order.
func (p *Pipeline) renderAll(ctx context.Context, report models.FormattedReport, translations *models.TranslationSet) []renderedDocument {
	type job struct {
		language string
		content  string
	}
	jobs := []job{{language: models.OriginalLanguage, content: report.Content}}
	translations.Each(func(language, content string) {
		jobs = append(jobs, job{language: language, content: content})
	})

	docs := make([]renderedDocument, len(jobs))
	g := new(errgroup.Group)
	if p.cfg.Digest.Parallel {
		g.SetLimit(maxConcurrentRenders)
	} else {
		g.SetLimit(1)
	}
	for i, j := range jobs {
		g.Go(func() error {
			path := DocumentPath(p.cfg.Digest.OutputDir, j.language)
			artifact, err := p.renderer.Render(ctx, j.content, report.ImageURLs, j.language, path)
			if err != nil {
				logger.Error("document rendering failed",
					zap.String("stage", "renderer"),
					zap.String("language", j.language),
					zap.String("path", path),
					zap.Error(err),
				)
			}
			docs[i] = renderedDocument{language: j.language, artifact: artifact, err: err}
			return nil
		})
	}
	_ = g.Wait()
	return docs
}

// DocumentPath returns where the document for language is written.
func DocumentPath(outputDir, language string) string {
	name := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return '_'
	}, strings.TrimSpace(language))
	return filepath.Join(outputDir, fmt.Sprintf("financial_summary_%s.pdf", name))
}
