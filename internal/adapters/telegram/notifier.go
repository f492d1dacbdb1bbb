package telegram

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/selivandex/market-digest/internal/adapters/config"
	"github.com/selivandex/market-digest/pkg/logger"
)

// MaxMessageLength is Telegram's limit for one text message.
const MaxMessageLength = 4096

var photoExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// Notifier publishes digests to a single Telegram channel.
type Notifier struct {
	cfg      *config.TelegramConfig
	endpoint string
	client   *http.Client

	chatID   int64
	username string

	mu  sync.Mutex
	api *tgbotapi.BotAPI
}

// NewNotifier creates a notifier for the configured channel. The bot is
// connected lazily on the first send.
func NewNotifier(cfg *config.TelegramConfig) (*Notifier, error) {
	return NewNotifierWithEndpoint(cfg, tgbotapi.APIEndpoint)
}

// NewNotifierWithEndpoint is NewNotifier against a custom Bot API endpoint
// in tgbotapi format ("https://host/bot%s/%s").
func NewNotifierWithEndpoint(cfg *config.TelegramConfig, endpoint string) (*Notifier, error) {
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}
	if cfg.ChannelID == "" {
		return nil, fmt.Errorf("telegram channel id is required")
	}

	n := &Notifier{
		cfg:      cfg,
		endpoint: endpoint,
		client:   &http.Client{Timeout: cfg.Timeout},
	}
	if id, err := strconv.ParseInt(cfg.ChannelID, 10, 64); err == nil {
		n.chatID = id
	} else {
		n.username = cfg.ChannelID
		if !strings.HasPrefix(n.username, "@") {
			n.username = "@" + n.username
		}
	}
	return n, nil
}

func (n *Notifier) bot() (*tgbotapi.BotAPI, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.api != nil {
		return n.api, nil
	}

	api, err := tgbotapi.NewBotAPIWithClient(n.cfg.BotToken, n.endpoint, n.client)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}
	api.Debug = false

	logger.Info("telegram notifier initialized",
		zap.String("bot_username", api.Self.UserName),
		zap.String("channel", n.cfg.ChannelID),
	)

	n.api = api
	return api, nil
}

// address points a request at the configured channel.
func (n *Notifier) address(chat *tgbotapi.BaseChat) {
	if n.username != "" {
		chat.ChatID = 0
		chat.ChannelUsername = n.username
		return
	}
	chat.ChatID = n.chatID
}

// SendText formats text for the configured parse mode and sends it, split
// into as many messages as needed. All parts must succeed.
func (n *Notifier) SendText(ctx context.Context, text string) error {
	api, err := n.bot()
	if err != nil {
		return err
	}

	body, parseMode := FormatText(text, n.cfg.ParseMode)
	var chunks []string
	if parseMode == ModeHTML {
		chunks = SplitHTML(body, MaxMessageLength)
	} else {
		chunks = SplitMessage(body, MaxMessageLength)
	}

	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}

		msg := tgbotapi.NewMessage(0, chunk)
		n.address(&msg.BaseChat)
		msg.ParseMode = parseMode

		if _, err := api.Send(msg); err != nil {
			logger.Error("failed to send telegram message",
				zap.String("channel", n.cfg.ChannelID),
				zap.Int("part", i+1),
				zap.Int("parts", len(chunks)),
				zap.Error(err),
			)
			return fmt.Errorf("send message part %d/%d: %w", i+1, len(chunks), err)
		}
	}

	logger.Debug("telegram message sent",
		zap.String("channel", n.cfg.ChannelID),
		zap.Int("parts", len(chunks)),
	)
	return nil
}

// SendAttachment uploads a file. Images go as photos, anything else as a
// document.
func (n *Notifier) SendAttachment(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	api, err := n.bot()
	if err != nil {
		return err
	}

	var chattable tgbotapi.Chattable
	file := tgbotapi.FilePath(path)
	if photoExtensions[strings.ToLower(filepath.Ext(path))] {
		photo := tgbotapi.NewPhoto(0, file)
		n.address(&photo.BaseChat)
		chattable = photo
	} else {
		doc := tgbotapi.NewDocument(0, file)
		n.address(&doc.BaseChat)
		doc.Caption = filepath.Base(path)
		chattable = doc
	}

	if _, err := api.Send(chattable); err != nil {
		logger.Error("failed to send telegram attachment",
			zap.String("channel", n.cfg.ChannelID),
			zap.String("file", filepath.Base(path)),
			zap.Error(err),
		)
		return fmt.Errorf("send attachment %s: %w", filepath.Base(path), err)
	}
	return nil
}
