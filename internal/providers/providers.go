// Package providers builds the notification channels enabled in the configuration.
package providers

import (
	"fmt"
	"net/http"

	"fuelbot/internal/config"
	"fuelbot/internal/kafka"
	"fuelbot/internal/logging"
	"fuelbot/internal/notification"
)

var providerFuncs = map[string]func(config.Config, *logging.Logger) (notification.Notifier, error){
	"slack": func(cfg config.Config, logger *logging.Logger) (notification.Notifier, error) {
		return NewSlack(cfg.Slack, &http.Client{Timeout: cfg.ESI.Timeout}, logger), nil
	},
	"telegram": func(cfg config.Config, logger *logging.Logger) (notification.Notifier, error) {
		return NewTelegram(cfg.Telegram, logger)
	},
	"kafka": func(cfg config.Config, logger *logging.Logger) (notification.Notifier, error) {
		return kafka.NewPublisher(cfg.Kafka, logger), nil
	},
}

// FromConfig returns a Notifier for every configured channel, in a stable order.
func FromConfig(cfg config.Config, logger *logging.Logger) ([]notification.Notifier, error) {
	var out []notification.Notifier
	for _, name := range cfg.Channels() {
		build, ok := providerFuncs[name]
		if !ok {
			return nil, fmt.Errorf("unknown notification channel %q", name)
		}
		n, err := build(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to set up %s channel: %w", name, err)
		}
		out = append(out, n)
	}
	return out, nil
}
