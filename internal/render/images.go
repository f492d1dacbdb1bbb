package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Largest chart size placed in a document, in points.
const (
	MaxImageWidth  = 400
	MaxImageHeight = 300
)

// ImageFetcher downloads and prepares chart images.
type ImageFetcher struct {
	client *resty.Client
}

// NewImageFetcher creates a fetcher with a per-request timeout.
func NewImageFetcher(timeout time.Duration) *ImageFetcher {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", "market-digest/1.0")

	return &ImageFetcher{client: client}
}

// Fetch downloads url and decodes it as png, jpeg, gif or webp.
func (f *ImageFetcher) Fetch(ctx context.Context, url string) (image.Image, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("download image: status %d", resp.StatusCode())
	}

	img, _, err := image.Decode(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// FitSize scales w×h down to fit maxW×maxH, preserving aspect ratio. Sizes
// that already fit are returned unchanged.
func FitSize(w, h, maxW, maxH int) (int, int) {
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	if w <= maxW && h <= maxH {
		return w, h
	}
	if w*maxH > h*maxW {
		return maxW, max(1, h*maxW/w)
	}
	return max(1, w*maxH/h), maxH
}

// Downscale resizes img to fit MaxImageWidth×MaxImageHeight and flattens it
// onto a white background.
func Downscale(img image.Image) image.Image {
	b := img.Bounds()
	w, h := FitSize(b.Dx(), b.Dy(), MaxImageWidth, MaxImageHeight)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
		return dst
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// writeTempPNG encodes img into a new temporary file and returns its path.
// The caller removes the file.
func writeTempPNG(img image.Image) (string, error) {
	f, err := os.CreateTemp("", "digest-chart-*.png")
	if err != nil {
		return "", fmt.Errorf("create temp image: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("encode temp image: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("close temp image: %w", err)
	}
	return f.Name(), nil
}
