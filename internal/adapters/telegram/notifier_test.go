package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selivandex/market-digest/internal/adapters/config"
)

type botRequest struct {
	method string
	form   map[string]string
}

type fakeBot struct {
	mu       sync.Mutex
	requests []botRequest
	failOn   string
}

func (b *fakeBot) handler(w http.ResponseWriter, r *http.Request) {
	method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]

	form := map[string]string{}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if err := r.ParseMultipartForm(1 << 20); err == nil {
			for k, v := range r.MultipartForm.Value {
				form[k] = v[0]
			}
		}
	} else if err := r.ParseForm(); err == nil {
		for k, v := range r.PostForm {
			form[k] = v[0]
		}
	}

	b.mu.Lock()
	b.requests = append(b.requests, botRequest{method: method, form: form})
	b.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case method == "getMe":
		_, _ = w.Write([]byte(`{"ok":true,"result":{"id":42,"is_bot":true,"first_name":"Digest","username":"digest_bot"}}`))
	case method == b.failOn:
		_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
	default:
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":1700000000,"chat":{"id":-100123,"type":"channel"}}}`))
	}
}

func (b *fakeBot) sent(method string) []botRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []botRequest
	for _, r := range b.requests {
		if r.method == method {
			out = append(out, r)
		}
	}
	return out
}

func newTestNotifier(t *testing.T, channel, parseMode string) (*Notifier, *fakeBot) {
	t.Helper()
	bot := &fakeBot{}
	srv := httptest.NewServer(http.HandlerFunc(bot.handler))
	t.Cleanup(srv.Close)

	n, err := NewNotifierWithEndpoint(&config.TelegramConfig{
		BotToken:  "123:abc",
		ChannelID: channel,
		ParseMode: parseMode,
		Timeout:   2 * time.Second,
	}, srv.URL+"/bot%s/%s")
	require.NoError(t, err)
	return n, bot
}

func TestNewNotifierValidation(t *testing.T) {
	_, err := NewNotifier(&config.TelegramConfig{ChannelID: "@c"})
	require.Error(t, err)

	_, err = NewNotifier(&config.TelegramConfig{BotToken: "t"})
	require.Error(t, err)
}

func TestSendTextToChannelUsername(t *testing.T) {
	n, bot := newTestNotifier(t, "@market_digest", "HTML")

	err := n.SendText(context.Background(), "**Stocks** rose & yields fell")
	require.NoError(t, err)

	msgs := bot.sent("sendMessage")
	require.Len(t, msgs, 1)
	assert.Equal(t, "@market_digest", msgs[0].form["chat_id"])
	assert.Equal(t, "HTML", msgs[0].form["parse_mode"])
	assert.Equal(t, "<b>Stocks</b> rose &amp; yields fell", msgs[0].form["text"])
}

func TestSendTextNumericChat(t *testing.T) {
	n, bot := newTestNotifier(t, "-100123", "")

	require.NoError(t, n.SendText(context.Background(), "plain"))
	msgs := bot.sent("sendMessage")
	require.Len(t, msgs, 1)
	assert.Equal(t, "-100123", msgs[0].form["chat_id"])
	assert.Equal(t, "plain", msgs[0].form["text"])
	assert.Empty(t, msgs[0].form["parse_mode"])
}

func TestSendTextSplitsLongMessages(t *testing.T) {
	n, bot := newTestNotifier(t, "@c", "")

	para := strings.Repeat("x", 3000)
	require.NoError(t, n.SendText(context.Background(), para+"\n\n"+para))

	msgs := bot.sent("sendMessage")
	require.Len(t, msgs, 2)
	assert.Equal(t, para, msgs[0].form["text"])
}

func TestSendTextSplitsLongLinkedParagraph(t *testing.T) {
	n, bot := newTestNotifier(t, "@c", "HTML")

	require.NoError(t, n.SendText(context.Background(), linkedParagraph(200)))

	msgs := bot.sent("sendMessage")
	require.Greater(t, len(msgs), 1)
	for _, msg := range msgs {
		assert.Equal(t, "HTML", msg.form["parse_mode"])
		assertWellFormedChunk(t, msg.form["text"], MaxMessageLength)
	}
}

func TestSendTextFailure(t *testing.T) {
	n, bot := newTestNotifier(t, "@c", "HTML")
	bot.failOn = "sendMessage"

	err := n.SendText(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestSendAttachment(t *testing.T) {
	n, bot := newTestNotifier(t, "@c", "HTML")
	dir := t.TempDir()

	pdf := filepath.Join(dir, "financial_summary_english.pdf")
	png := filepath.Join(dir, "chart.png")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF-1.3"), 0o644))
	require.NoError(t, os.WriteFile(png, []byte("png"), 0o644))

	require.NoError(t, n.SendAttachment(context.Background(), pdf))
	require.NoError(t, n.SendAttachment(context.Background(), png))

	docs := bot.sent("sendDocument")
	require.Len(t, docs, 1)
	assert.Equal(t, "@c", docs[0].form["chat_id"])
	assert.Equal(t, "financial_summary_english.pdf", docs[0].form["caption"])
	assert.Len(t, bot.sent("sendPhoto"), 1)

	bot.failOn = "sendDocument"
	require.Error(t, n.SendAttachment(context.Background(), pdf))
}
