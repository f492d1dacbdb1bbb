package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"

	"github.com/selivandex/market-digest/internal/adapters/config"
	"github.com/selivandex/market-digest/pkg/logger"
	"github.com/selivandex/market-digest/pkg/models"
)

const (
	maxImages = 2

	fontFamily  = "Helvetica"
	unicodeFont = "DigestSans"
	margin      = 50.0
	lineHeight  = 16.0
	bodySize    = 11.0
	headingSize = 13.0
	titleSize   = 16.0
)

// Error is returned when a document cannot be written.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("render %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Renderer writes reports as A4 PDF documents.
type Renderer struct {
	fetcher  *ImageFetcher
	fontPath string
	now      func() time.Time
}

// NewRenderer creates a renderer from the digest settings.
func NewRenderer(cfg *config.DigestConfig) *Renderer {
	return &Renderer{
		fetcher:  NewImageFetcher(cfg.ImageTimeout),
		fontPath: cfg.FontPath,
		now:      time.Now,
	}
}

type document struct {
	pdf    *fpdf.Fpdf
	family string
	tr     func(string) string
}

// Render writes content and at most two images to outputPath. Images that
// cannot be fetched or decoded are skipped and listed in the artifact.
func (r *Renderer) Render(ctx context.Context, content string, imageURLs []string, label, outputPath string) (models.DocumentArtifact, error) {
	artifact := models.DocumentArtifact{Path: outputPath, Language: label}

	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return artifact, &Error{Path: outputPath, Err: fmt.Errorf("create output directory: %w", err)}
		}
	}

	doc := r.newDocument()
	title := fmt.Sprintf("Financial Market Summary - %s (%s)", r.now().Format("2006-01-02"), label)
	doc.pdf.SetTitle(title, true)
	doc.pdf.SetCreator("market-digest", true)

	doc.pdf.SetFont(doc.family, "B", titleSize)
	doc.pdf.MultiCell(0, titleSize+4, doc.tr(title), "", "C", false)
	doc.pdf.Ln(lineHeight / 2)

	for _, block := range Blocks(content) {
		if block.Heading {
			doc.pdf.SetFont(doc.family, "B", headingSize)
			doc.pdf.MultiCell(0, lineHeight, doc.tr(block.Text), "", "L", false)
		} else {
			doc.pdf.SetFont(doc.family, "", bodySize)
			doc.pdf.MultiCell(0, lineHeight, doc.tr(block.Text), "", "L", false)
		}
		doc.pdf.Ln(lineHeight / 2)
		artifact.Paragraphs++
	}

	if len(imageURLs) > maxImages {
		imageURLs = imageURLs[:maxImages]
	}
	for i, url := range imageURLs {
		if err := r.embedImage(ctx, doc, url, i); err != nil {
			logger.Warn("skipping chart image",
				zap.String("stage", "renderer"),
				zap.String("language", label),
				zap.String("url", url),
				zap.Error(err),
			)
			artifact.SkippedImages = append(artifact.SkippedImages, url)
			continue
		}
		artifact.Images++
	}

	if err := doc.pdf.OutputFileAndClose(outputPath); err != nil {
		return artifact, &Error{Path: outputPath, Err: err}
	}

	logger.Info("document rendered",
		zap.String("stage", "renderer"),
		zap.String("language", label),
		zap.String("path", outputPath),
		zap.Int("paragraphs", artifact.Paragraphs),
		zap.Int("images", artifact.Images),
		zap.Int("skipped_images", len(artifact.SkippedImages)),
	)
	return artifact, nil
}

func (r *Renderer) newDocument() *document {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)

	doc := &document{pdf: pdf, family: fontFamily, tr: toWindows1252}

	if r.fontPath != "" {
		if font, err := os.ReadFile(r.fontPath); err != nil {
			logger.Warn("unicode font unavailable, using core font",
				zap.String("font", r.fontPath),
				zap.Error(err),
			)
		} else {
			pdf.AddUTF8FontFromBytes(unicodeFont, "", font)
			pdf.AddUTF8FontFromBytes(unicodeFont, "B", font)
			doc.family = unicodeFont
			doc.tr = func(s string) string { return s }
		}
	}

	pdf.AddPage()
	return doc
}

// toWindows1252 re-encodes s for the core fonts. Runes outside the code page
// become '?'.
func toWindows1252(s string) string {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		b, ok := charmap.Windows1252.EncodeRune(r)
		if !ok {
			b = '?'
		}
		out = append(out, b)
	}
	return string(out)
}

func (r *Renderer) embedImage(ctx context.Context, doc *document, url string, index int) error {
	img, err := r.fetcher.Fetch(ctx, url)
	if err != nil {
		return err
	}
	img = Downscale(img)

	path, err := writeTempPNG(img)
	if err != nil {
		return err
	}
	defer os.Remove(path)

	pdf := doc.pdf
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	info := pdf.RegisterImageOptions(path, opts)
	if pdf.Err() {
		err := pdf.Error()
		pdf.ClearError()
		return fmt.Errorf("embed image %d: %w", index+1, err)
	}
	if info == nil {
		return errors.New("embed image: no image info")
	}

	w, h := float64(img.Bounds().Dx()), float64(img.Bounds().Dy())
	pageW, pageH := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	if pdf.GetY()+h > pageH-bottom {
		pdf.AddPage()
	}
	y := pdf.GetY()
	pdf.ImageOptions(path, (pageW-w)/2, y, w, h, false, opts, 0, "")
	pdf.SetY(y + h + lineHeight)
	return nil
}
