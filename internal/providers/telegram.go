package providers

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"golang.org/x/time/rate"

	"fuelbot/internal/config"
	"fuelbot/internal/logging"
	"fuelbot/internal/models"
)

const (
	// telegramMaxMessage is the Bot API limit on message text length.
	telegramMaxMessage = 4096
	telegramMaxTitle   = 256
	ellipsis           = "…"
)

var stateIcons = map[models.FuelState]string{
	models.StateDanger:  "🔴",
	models.StateWarning: "🟡",
	models.StateGood:    "🟢",
}

// Telegram sends notifications to one chat, splitting them to fit the message size limit.
type Telegram struct {
	bot     *bot.Bot
	chatID  int64
	limiter *rate.Limiter
	logger  *logging.Logger
}

// NewTelegram creates the bot client. opts are passed to bot.New, e.g. to point it at a test server.
func NewTelegram(cfg config.TelegramConfig, logger *logging.Logger, opts ...bot.Option) (*Telegram, error) {
	opts = append([]bot.Option{bot.WithSkipGetMe()}, opts...)
	b, err := bot.New(cfg.BotToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}
	rps := cfg.RatePerSecond
	if rps <= 0 {
		rps = 1
	}
	return &Telegram{
		bot:     b,
		chatID:  cfg.ChatID,
		limiter: rate.NewLimiter(rate.Limit(float64(rps)), 1),
		logger:  logger,
	}, nil
}

func (t *Telegram) Name() string {
	return "telegram"
}

func (t *Telegram) Send(ctx context.Context, n models.Notification) error {
	for i, text := range telegramMessages(n) {
		if err := t.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("telegram rate limit wait: %w", err)
		}
		params := &bot.SendMessageParams{
			ChatID:    t.chatID,
			Text:      text,
			ParseMode: tgmodels.ParseModeHTML,
		}
		if _, err := t.bot.SendMessage(ctx, params); err != nil {
			return fmt.Errorf("failed to send Telegram message %d to chat_id %d: %w", i+1, t.chatID, err)
		}
	}
	t.logger.Debugf("Telegram delivered %d alerts to chat_id %d", len(n.Alerts), t.chatID)
	return nil
}

// telegramMessages renders the notification as HTML and packs whole alerts into messages.
// Alerts too long for a message of their own are truncated.
func telegramMessages(n models.Notification) []string {
	header := "<b>" + html.EscapeString(n.Summary) + "</b>"
	if n.Panic {
		header = "🚨 " + header
	}
	budget := telegramMaxMessage - len(header) - len("\n\n")

	var msgs []string
	var cur strings.Builder
	cur.WriteString(header)
	for _, a := range n.Alerts {
		block := "\n\n" + telegramBlock(a, budget)
		if cur.Len()+len(block) > telegramMaxMessage && cur.Len() > 0 {
			msgs = append(msgs, cur.String())
			cur.Reset()
			block = strings.TrimPrefix(block, "\n\n")
		}
		cur.WriteString(block)
	}
	if cur.Len() > 0 {
		msgs = append(msgs, cur.String())
	}
	return msgs
}

// telegramBlock renders one alert in at most limit bytes.
func telegramBlock(a models.Alert, limit int) string {
	head := fmt.Sprintf("%s <b>%s</b>\n", stateIcons[a.State], escapeTruncated(a.Title, telegramMaxTitle))
	return head + escapeTruncated(a.Text, limit-len(head))
}

// escapeTruncated HTML-escapes s and cuts it at a rune boundary so the result fits in limit bytes.
func escapeTruncated(s string, limit int) string {
	escaped := html.EscapeString(s)
	if len(escaped) <= limit {
		return escaped
	}
	if limit < len(ellipsis) {
		return ""
	}
	var b strings.Builder
	for _, r := range s {
		e := html.EscapeString(string(r))
		if b.Len()+len(e)+len(ellipsis) > limit {
			break
		}
		b.WriteString(e)
	}
	return b.String() + ellipsis
}
