package providers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/slack-go/slack"

	"fuelbot/internal/config"
	"fuelbot/internal/logging"
	"fuelbot/internal/models"
)

// slackPanicPrefix pings the whole channel when something needs fuel.
const slackPanicPrefix = "<!channel> :scream: "

// Slack posts notifications to an incoming webhook as one message with an attachment per alert.
type Slack struct {
	webhookURL string
	defaults   config.SlackDefaults
	client     *http.Client
	logger     *logging.Logger
}

func NewSlack(cfg config.SlackConfig, client *http.Client, logger *logging.Logger) *Slack {
	if client == nil {
		client = http.DefaultClient
	}
	return &Slack{webhookURL: cfg.WebhookURL, defaults: cfg.Defaults, client: client, logger: logger}
}

func (s *Slack) Name() string {
	return "slack"
}

// Send delivers the notification. Slack renders the danger/warning/good colors natively.
func (s *Slack) Send(ctx context.Context, n models.Notification) error {
	msg := s.message(n)
	if err := slack.PostWebhookCustomHTTPContext(ctx, s.webhookURL, s.client, msg); err != nil {
		return fmt.Errorf("failed to post Slack webhook: %w", err)
	}
	s.logger.Debugf("Slack webhook accepted %d attachments", len(msg.Attachments))
	return nil
}

func (s *Slack) message(n models.Notification) *slack.WebhookMessage {
	text := n.Summary
	if n.Panic {
		text = slackPanicPrefix + text
	}

	attachments := make([]slack.Attachment, 0, len(n.Alerts))
	for _, a := range n.Alerts {
		attachments = append(attachments, slack.Attachment{
			Title:    a.Title,
			Color:    a.Color.String(),
			Text:     a.Text,
			Fallback: a.Fallback,
			ThumbURL: a.ThumbURL,
		})
	}

	return &slack.WebhookMessage{
		Channel:     s.defaults.Channel,
		Username:    s.defaults.Username,
		IconEmoji:   s.defaults.IconEmoji,
		IconURL:     s.defaults.IconURL,
		Text:        text,
		Attachments: attachments,
	}
}
