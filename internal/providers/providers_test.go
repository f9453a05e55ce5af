package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fuelbot/internal/config"
	"fuelbot/internal/logging"
)

func TestFromConfig(t *testing.T) {
	cfg := config.Config{
		Slack:    config.SlackConfig{WebhookURL: "https://hooks.slack.com/services/T/B/X"},
		Telegram: config.TelegramConfig{BotToken: "123:abc", ChatID: 42},
		Kafka:    config.KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "fuel"},
	}

	notifiers, err := FromConfig(cfg, logging.NewNop())
	require.NoError(t, err)
	require.Len(t, notifiers, 3)

	names := make([]string, 0, len(notifiers))
	for _, n := range notifiers {
		names = append(names, n.Name())
	}
	assert.Equal(t, []string{"slack", "telegram", "kafka"}, names)
}

func TestFromConfig_None(t *testing.T) {
	notifiers, err := FromConfig(config.Config{}, logging.NewNop())
	require.NoError(t, err)
	assert.Empty(t, notifiers)
}
