package notify

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"jobmonitor/internal/domain"
	"jobmonitor/internal/pipeline"
)

// maxTelegramJobs caps per-run pushes; Telegram throttles bursts to one chat.
const maxTelegramJobs = 20

// Sender sends an HTML message to a chat.
type Sender interface {
	SendHTML(ctx context.Context, chatID int64, text string) error
}

// BotSender implements Sender with tgbotapi.
type BotSender struct {
	api *tgbotapi.BotAPI
}

func NewBotSender(token string) (*BotSender, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}
	return &BotSender{api: api}, nil
}

func (s *BotSender) SendHTML(_ context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	_, err := s.api.Send(msg)
	return err
}

// Telegram pushes one message per listing, then a short summary when the
// run had more than it sends.
type Telegram struct {
	Sender    Sender
	ChatID    int64
	SendEmpty bool
}

func (t *Telegram) Name() string { return "telegram" }

func (t *Telegram) Notify(ctx context.Context, res pipeline.RunResult, _ time.Time) error {
	if t.ChatID == 0 {
		return fmt.Errorf("telegram: notification.telegram.chat_id is not set")
	}
	if len(res.Listings) == 0 {
		if !t.SendEmpty {
			return nil
		}
		return t.Sender.SendHTML(ctx, t.ChatID, "No new matching jobs today.")
	}

	for i, l := range res.Listings {
		if i == maxTelegramJobs {
			rest := len(res.Listings) - maxTelegramJobs
			return t.Sender.SendHTML(ctx, t.ChatID, fmt.Sprintf("…and %d more in the report.", rest))
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := t.Sender.SendHTML(ctx, t.ChatID, FormatListing(l)); err != nil {
			return fmt.Errorf("telegram send %s: %w", l.Key(), err)
		}
	}
	return nil
}

// FormatListing renders l as a Telegram HTML message.
func FormatListing(l domain.ScoredListing) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b>\n", html.EscapeString(l.Title))
	fmt.Fprintf(&b, "%s · %s\n", html.EscapeString(l.Company), html.EscapeString(l.Location))
	fmt.Fprintf(&b, "Score %d", l.Score)
	if len(l.MatchedKeywords) > 0 {
		fmt.Fprintf(&b, " (%s)", html.EscapeString(strings.Join(l.MatchedKeywords, ", ")))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "<a href=\"%s\">Apply</a>", html.EscapeString(l.URL))
	return b.String()
}
