package search

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/selivandex/market-digest/internal/adapters/config"
	"github.com/selivandex/market-digest/pkg/logger"
)

// Kind selects the Serper result vertical.
type Kind string

const (
	KindNews   Kind = "news"
	KindSearch Kind = "search"
)

// NewsResult is one news hit as returned by Serper.
type NewsResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Link    string `json:"link"`
	Date    string `json:"date"`
	Source  string `json:"source"`
}

// ImageResult is one image hit as returned by Serper.
type ImageResult struct {
	Title    string `json:"title"`
	ImageURL string `json:"imageUrl"`
	Source   string `json:"source"`
	Link     string `json:"link"`
}

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Endpoint   string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("serper API error (status %d, endpoint %s): %s", e.StatusCode, e.Endpoint, e.Body)
}

type searchRequest struct {
	Query string `json:"q"`
	Num   int    `json:"num"`
	Type  string `json:"type,omitempty"`
}

type searchResponse struct {
	News    []NewsResult `json:"news"`
	Organic []NewsResult `json:"organic"`
}

type imagesResponse struct {
	Images []ImageResult `json:"images"`
}

// Client talks to the Serper search API
type Client struct {
	client *resty.Client
}

// NewClient creates a Serper client with the configured base URL and timeout.
func NewClient(cfg *config.SearchConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	client := resty.New()
	client.SetBaseURL(cfg.BaseURL)
	client.SetTimeout(timeout)
	client.SetHeader("X-API-KEY", cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")

	return &Client{client: client}
}

// Search runs a text search. News hits are returned for KindNews; organic
// hits otherwise.
func (c *Client) Search(ctx context.Context, query string, limit int, kind Kind) ([]NewsResult, error) {
	var result searchResponse

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(searchRequest{Query: query, Num: limit, Type: string(kind)}).
		SetResult(&result).
		Post("/search")
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	if resp.IsError() {
		return nil, &APIError{StatusCode: resp.StatusCode(), Endpoint: "/search", Body: truncate(resp.String(), 300)}
	}

	hits := result.News
	if kind != KindNews {
		hits = result.Organic
	}

	logger.Debug("serper search completed",
		zap.String("query", query),
		zap.String("kind", string(kind)),
		zap.Int("results", len(hits)),
		zap.Duration("latency", resp.Time()),
	)

	return hits, nil
}

// SearchImages runs an image search.
func (c *Client) SearchImages(ctx context.Context, query string, limit int) ([]ImageResult, error) {
	var result imagesResponse

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(searchRequest{Query: query, Num: limit}).
		SetResult(&result).
		Post("/images")
	if err != nil {
		return nil, fmt.Errorf("image search request failed: %w", err)
	}
	if resp.IsError() {
		return nil, &APIError{StatusCode: resp.StatusCode(), Endpoint: "/images", Body: truncate(resp.String(), 300)}
	}

	logger.Debug("serper image search completed",
		zap.String("query", query),
		zap.Int("results", len(result.Images)),
	)

	return result.Images, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
