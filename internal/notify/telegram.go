package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/samber/lo"
)

// TelegramMaxRunes 单条消息上限
const TelegramMaxRunes = 4096

// Telegram 通过 Bot API 推送纯文本，超长正文按行切分为多条消息
type Telegram struct {
	token    string
	chatID   int64
	endpoint string
	client   *http.Client

	once sync.Once
	api  *tgbotapi.BotAPI
	err  error
}

func newTelegram(token string, chatID int64, o options) *Telegram {
	endpoint := tgbotapi.APIEndpoint
	if o.baseURL != "" {
		endpoint = o.baseURL + "/bot%s/%s"
	}
	return &Telegram{
		token:    token,
		chatID:   chatID,
		endpoint: endpoint,
		client:   &http.Client{Timeout: o.timeout},
	}
}

func (t *Telegram) Channel() string { return ChannelTelegram }
func (t *Telegram) Format() Format  { return FormatText }

// bot 首次推送时才连接，创建时会调用 getMe 校验 token
func (t *Telegram) bot() (*tgbotapi.BotAPI, error) {
	t.once.Do(func() {
		api, err := tgbotapi.NewBotAPIWithClient(t.token, t.endpoint, t.client)
		if err != nil {
			t.err = fmt.Errorf("make new api: %w", err)
			return
		}
		t.api = api
	})
	return t.api, t.err
}

func (t *Telegram) Push(ctx context.Context, title, body string) (err error) {
	defer func() { record(ChannelTelegram, err) }()

	api, err := t.bot()
	if err != nil {
		return err
	}

	text := strings.TrimSpace(body)
	if title != "" && !strings.HasPrefix(text, title) {
		text = title + "\n\n" + text
	}

	for i, chunk := range SplitMessage(text, TelegramMaxRunes) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		msg := tgbotapi.NewMessage(t.chatID, chunk)
		msg.DisableWebPagePreview = true
		if _, err = api.Send(msg); err != nil {
			return fmt.Errorf("send message part %d: %w", i+1, err)
		}
	}
	return nil
}

// SplitMessage 按行拼接为不超过 max 个字符的片段；单行超长时按字符硬切
func SplitMessage(text string, max int) []string {
	if max <= 0 || text == "" {
		return nil
	}

	var (
		chunks []string
		cur    []rune
	)
	flush := func() {
		if len(cur) > 0 {
			chunks = append(chunks, string(cur))
			cur = nil
		}
	}

	for _, line := range strings.Split(text, "\n") {
		rs := []rune(line)
		if len(rs) > max {
			flush()
			parts := lo.Chunk(rs, max)
			for _, p := range parts[:len(parts)-1] {
				chunks = append(chunks, string(p))
			}
			cur = append(cur, parts[len(parts)-1]...)
			continue
		}

		need := len(rs)
		if len(cur) > 0 {
			need++
		}
		if len(cur)+need > max {
			flush()
		}
		if len(cur) > 0 {
			cur = append(cur, '\n')
		}
		cur = append(cur, rs...)
	}
	flush()
	return chunks
}
