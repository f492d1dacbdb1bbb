package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config represents application configuration
type Config struct {
	Search   SearchConfig   `envconfig:"SEARCH"`
	LLM      LLMConfig      `envconfig:"LLM"`
	Telegram TelegramConfig `envconfig:"TELEGRAM"`
	Digest   DigestConfig   `envconfig:"DIGEST"`
	Schedule ScheduleConfig `envconfig:"SCHEDULE"`
	Logging  LoggingConfig  `envconfig:"LOGGING"`
}

// SearchConfig represents the news/image search collaborator settings
type SearchConfig struct {
	APIKey    string        `envconfig:"SERPER_API_KEY"`
	BaseURL   string        `envconfig:"SERPER_BASE_URL" default:"https://google.serper.dev"`
	Topic     string        `envconfig:"SEARCH_TOPIC" default:"US stock market close"`
	HoursBack int           `envconfig:"SEARCH_HOURS_BACK" default:"1"`
	MaxItems  int           `envconfig:"MAX_NEWS_ITEMS" default:"20"`
	Timeout   time.Duration `envconfig:"SEARCH_TIMEOUT" default:"15s"`
	RSSFeeds  []string      `envconfig:"NEWS_RSS_FEEDS"`
}

// LLMConfig represents the language-model collaborator settings
type LLMConfig struct {
	APIKey            string        `envconfig:"GROQ_API_KEY"`
	Model             string        `envconfig:"LITELLM_MODEL" default:"groq/llama3-8b-8192"`
	BaseURL           string        `envconfig:"LLM_BASE_URL"`
	Timeout           time.Duration `envconfig:"LLM_TIMEOUT" default:"60s"`
	MaxTokens         int           `envconfig:"LLM_MAX_TOKENS" default:"2048"`
	RequestsPerMinute int           `envconfig:"LLM_REQUESTS_PER_MINUTE" default:"30"`
}

// TelegramConfig represents Telegram channel configuration
type TelegramConfig struct {
	BotToken        string        `envconfig:"TELEGRAM_BOT_TOKEN"`
	ChannelID       string        `envconfig:"TELEGRAM_CHANNEL_ID"`
	ParseMode       string        `envconfig:"TELEGRAM_PARSE_MODE" default:"HTML"`
	Timeout         time.Duration `envconfig:"TELEGRAM_TIMEOUT" default:"30s"`
	AttachDocuments bool          `envconfig:"TELEGRAM_ATTACH_DOCUMENTS" default:"false"`
}

// DigestConfig represents summary, translation and rendering parameters
type DigestConfig struct {
	MaxSummaryWords int           `envconfig:"MAX_SUMMARY_WORDS" default:"500"`
	TargetLanguages []string      `envconfig:"TARGET_LANGUAGES" default:"Arabic,Hindi,Hebrew"`
	OutputDir       string        `envconfig:"OUTPUT_DIR" default:"output"`
	ImageTimeout    time.Duration `envconfig:"IMAGE_TIMEOUT" default:"10s"`
	FontPath        string        `envconfig:"PDF_FONT_PATH"`
	Parallel        bool          `envconfig:"DIGEST_PARALLEL" default:"true"`
}

// ScheduleConfig represents cron scheduling for daemon mode
type ScheduleConfig struct {
	Cron       string `envconfig:"SCHEDULE_CRON" default:"5 16 * * 1-5"`
	Timezone   string `envconfig:"SCHEDULE_TIMEZONE" default:"America/New_York"`
	HealthAddr string `envconfig:"HEALTH_ADDR"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level string `envconfig:"LOG_LEVEL" default:"info"`
	File  string `envconfig:"LOG_FILE" default:"logs/digest.log"`
}

// MissingError lists every required variable that was empty or absent.
type MissingError struct {
	Missing []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("missing required environment variables: %s", strings.Join(e.Missing, ", "))
}

// Load reads configuration from environment variables. A .env file in the
// working directory is applied first when present; real environment values win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}
	return LoadFromEnv()
}

// LoadFromEnv reads configuration from the process environment only.
func LoadFromEnv() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) normalize() {
	c.Search.APIKey = strings.TrimSpace(c.Search.APIKey)
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	c.Telegram.BotToken = strings.TrimSpace(c.Telegram.BotToken)
	c.Telegram.ChannelID = strings.TrimSpace(c.Telegram.ChannelID)
	c.Digest.TargetLanguages = NormalizeLanguages(c.Digest.TargetLanguages)
	c.Search.RSSFeeds = compact(c.Search.RSSFeeds)
}

// Validate checks if configuration is valid. Missing secrets are reported
// together before any other check.
func (c *Config) Validate() error {
	var missing []string
	if c.Search.APIKey == "" {
		missing = append(missing, "SERPER_API_KEY")
	}
	if c.LLM.APIKey == "" {
		missing = append(missing, "GROQ_API_KEY")
	}
	if c.Telegram.BotToken == "" {
		missing = append(missing, "TELEGRAM_BOT_TOKEN")
	}
	if c.Telegram.ChannelID == "" {
		missing = append(missing, "TELEGRAM_CHANNEL_ID")
	}
	if len(missing) > 0 {
		return &MissingError{Missing: missing}
	}

	if len(c.Digest.TargetLanguages) == 0 {
		return fmt.Errorf("invalid configuration: TARGET_LANGUAGES must name at least one language")
	}
	if c.Search.HoursBack < 1 {
		return fmt.Errorf("invalid configuration: SEARCH_HOURS_BACK must be at least 1")
	}
	if c.Search.MaxItems < 1 {
		return fmt.Errorf("invalid configuration: MAX_NEWS_ITEMS must be at least 1")
	}
	if c.Digest.MaxSummaryWords < 1 {
		return fmt.Errorf("invalid configuration: MAX_SUMMARY_WORDS must be at least 1")
	}
	if c.Digest.OutputDir == "" {
		return fmt.Errorf("invalid configuration: OUTPUT_DIR must not be empty")
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("invalid configuration: LITELLM_MODEL must not be empty")
	}

	timeouts := []struct {
		name  string
		value time.Duration
	}{
		{"SEARCH_TIMEOUT", c.Search.Timeout},
		{"LLM_TIMEOUT", c.LLM.Timeout},
		{"TELEGRAM_TIMEOUT", c.Telegram.Timeout},
		{"IMAGE_TIMEOUT", c.Digest.ImageTimeout},
	}
	for _, timeout := range timeouts {
		if timeout.value <= 0 {
			return fmt.Errorf("invalid configuration: %s must be positive, got %s", timeout.name, timeout.value)
		}
	}

	return nil
}

// SearchWindow returns how far back news is searched.
func (c *Config) SearchWindow() time.Duration {
	return time.Duration(c.Search.HoursBack) * time.Hour
}

// Location resolves the schedule timezone, falling back to UTC.
func (c *ScheduleConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Describe renders the configuration for operators with secrets masked.
func (c *Config) Describe() string {
	var b strings.Builder
	b.WriteString("=== Financial Summary Configuration ===\n")
	fmt.Fprintf(&b, "LLM Model: %s\n", c.LLM.Model)
	fmt.Fprintf(&b, "Output Directory: %s\n", c.Digest.OutputDir)
	fmt.Fprintf(&b, "Search Topic: %s\n", c.Search.Topic)
	fmt.Fprintf(&b, "Search Hours Back: %d\n", c.Search.HoursBack)
	fmt.Fprintf(&b, "Max News Items: %d\n", c.Search.MaxItems)
	fmt.Fprintf(&b, "Max Summary Words: %d\n", c.Digest.MaxSummaryWords)
	fmt.Fprintf(&b, "Target Languages: %s\n", strings.Join(c.Digest.TargetLanguages, ", "))
	fmt.Fprintf(&b, "Telegram Parse Mode: %s\n", c.Telegram.ParseMode)
	fmt.Fprintf(&b, "Schedule: %s (%s)\n", c.Schedule.Cron, c.Schedule.Timezone)
	fmt.Fprintf(&b, "Serper API Key: %s\n", mask(c.Search.APIKey))
	fmt.Fprintf(&b, "Model API Key: %s\n", mask(c.LLM.APIKey))
	fmt.Fprintf(&b, "Telegram Bot Token: %s\n", mask(c.Telegram.BotToken))
	fmt.Fprintf(&b, "Telegram Channel ID: %s\n", mask(c.Telegram.ChannelID))
	b.WriteString("=======================================")
	return b.String()
}

// NormalizeLanguages trims names, drops empties and removes case-insensitive
// duplicates while keeping the first spelling and the original order.
func NormalizeLanguages(languages []string) []string {
	seen := make(map[string]struct{}, len(languages))
	out := make([]string, 0, len(languages))
	for _, lang := range languages {
		lang = strings.TrimSpace(lang)
		if lang == "" {
			continue
		}
		key := strings.ToLower(lang)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, lang)
	}
	return out
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func mask(secret string) string {
	if secret == "" {
		return "✗ Missing"
	}
	return "✓ Set"
}
