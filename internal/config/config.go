package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"fuelbot/internal/fuel"
)

// DefaultPath is read when no config file is named on the command line.
const DefaultPath = "config.yaml"

// ErrMissingConfig is returned when required settings are absent.
var ErrMissingConfig = errors.New("missing required configurations")

// Config holds application configuration loaded from the YAML file and environment.
type Config struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RefreshToken string `yaml:"refresh_token"`

	// Pointers so an explicit 0 can be told apart from an absent key.
	DangerDays  *int `yaml:"danger_days"`
	WarningDays *int `yaml:"warning_days"`

	Systems   []string `yaml:"systems"`
	StateFile string   `yaml:"statefile"`

	Slack    SlackConfig    `yaml:"slack"`
	Telegram TelegramConfig `yaml:"telegram"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Store    StoreConfig    `yaml:"store"`
	ESI      ESIConfig      `yaml:"esi"`
	Logging  LoggingConfig  `yaml:"log"`
	API      APIConfig      `yaml:"api"`
}

type SlackConfig struct {
	WebhookURL string        `yaml:"webhook_url"`
	Defaults   SlackDefaults `yaml:"defaults"`
}

// SlackDefaults are merged into every webhook message.
type SlackDefaults struct {
	Channel   string `yaml:"channel"`
	Username  string `yaml:"username"`
	IconEmoji string `yaml:"icon_emoji"`
	IconURL   string `yaml:"icon_url"`
}

type TelegramConfig struct {
	BotToken      string `yaml:"bot_token"`
	ChatID        int64  `yaml:"chat_id"`
	RatePerSecond int    `yaml:"rate_per_second"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// StoreConfig selects where the last observed fuel states are kept.
type StoreConfig struct {
	Driver string `yaml:"driver"` // file or postgres
	DSN    string `yaml:"dsn"`
}

type ESIConfig struct {
	BaseURL   string        `yaml:"base_url"`
	LoginURL  string        `yaml:"login_url"`
	UserAgent string        `yaml:"user_agent"`
	Timeout   time.Duration `yaml:"timeout"`
}

type LoggingConfig struct {
	Dir   string `yaml:"dir"`
	Level string `yaml:"level"`
}

type APIConfig struct {
	Port string `yaml:"port"`
}

// Thresholds returns the configured bands, falling back to the defaults per key.
func (c Config) Thresholds() fuel.Thresholds {
	t := fuel.DefaultThresholds()
	if c.DangerDays != nil {
		t.DangerDays = float64(*c.DangerDays)
	}
	if c.WarningDays != nil {
		t.WarningDays = float64(*c.WarningDays)
	}
	return t
}

// Channels lists the notification channels that have enough settings to be used.
func (c Config) Channels() []string {
	var ch []string
	if c.Slack.WebhookURL != "" {
		ch = append(ch, "slack")
	}
	if c.Telegram.BotToken != "" && c.Telegram.ChatID != 0 {
		ch = append(ch, "telegram")
	}
	if len(c.Kafka.Brokers) > 0 {
		ch = append(ch, "kafka")
	}
	return ch
}

// Load reads the YAML file at path, applies environment overrides and defaults, and validates the result.
func Load(path string) (Config, error) {
	// Load .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("failed to load .env file: %w", err)
	}

	if path == "" {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse builds a Config from YAML bytes plus the process environment.
func Parse(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	overrides := map[string]*string{
		"FUELBOT_CLIENT_ID":          &cfg.ClientID,
		"FUELBOT_CLIENT_SECRET":      &cfg.ClientSecret,
		"FUELBOT_REFRESH_TOKEN":      &cfg.RefreshToken,
		"FUELBOT_SLACK_WEBHOOK_URL":  &cfg.Slack.WebhookURL,
		"FUELBOT_TELEGRAM_BOT_TOKEN": &cfg.Telegram.BotToken,
		"FUELBOT_STORE_DSN":          &cfg.Store.DSN,
	}
	for key, dst := range overrides {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.StateFile == "" {
		cfg.StateFile = "state.yaml"
	}
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = "file"
	}
	if cfg.ESI.BaseURL == "" {
		cfg.ESI.BaseURL = "https://esi.evetech.net/latest"
	}
	if cfg.ESI.LoginURL == "" {
		cfg.ESI.LoginURL = "https://login.eveonline.com"
	}
	if cfg.ESI.UserAgent == "" {
		cfg.ESI.UserAgent = "fuelbot"
	}
	if cfg.ESI.Timeout == 0 {
		cfg.ESI.Timeout = 30 * time.Second
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = "structure_fuel_state"
	}
	if cfg.Telegram.RatePerSecond == 0 {
		cfg.Telegram.RatePerSecond = 1
	}
	if cfg.API.Port == "" {
		cfg.API.Port = ":8080"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

func validate(cfg Config) error {
	missing := []string{}
	if cfg.ClientID == "" {
		missing = append(missing, "client_id")
	}
	if cfg.ClientSecret == "" {
		missing = append(missing, "client_secret")
	}
	if cfg.RefreshToken == "" {
		missing = append(missing, "refresh_token")
	}
	if len(cfg.Channels()) == 0 {
		missing = append(missing, "slack.webhook_url|telegram|kafka.brokers")
	}
	switch cfg.Store.Driver {
	case "file":
	case "postgres":
		if cfg.Store.DSN == "" {
			missing = append(missing, "store.dsn")
		}
	default:
		return fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %v", ErrMissingConfig, missing)
	}
	return nil
}
