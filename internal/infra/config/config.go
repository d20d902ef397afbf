package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"system_rent_tracker/internal/domain/notify"
)

// Notifier kinds selectable via NOTIFIER.
const (
	NotifierDiscord  = "discord"
	NotifierTelegram = "telegram"
)

// AppConfig holds all configuration for the application. It is loaded once
// at startup and passed explicitly into the services; an invalid offset set,
// lookback or template is fatal before any tick runs.
type AppConfig struct {
	DatabaseURL string
	LogLevel    string
	Environment string

	// Cron cadences for the two independent ticks.
	CronSpecGeneration   string
	CronSpecNotification string

	// Offsets is the immutable reminder schedule relative to due dates.
	Offsets []notify.Offset
	// LookbackMonths bounds catch-up cycle generation. Required: there is no
	// safe implicit default for how far back missed periods may be billed.
	LookbackMonths int

	MessageTemplate     string
	RoleMentionTemplate string
	DeliverTimeout      time.Duration

	Notifier               string
	DiscordWebhookURL      string
	DiscordWebhookTemplate string
	TelegramToken          string
	TelegramChatID         int64
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	offsetsStr := os.Getenv("NOTIFY_OFFSETS")
	if offsetsStr == "" {
		return nil, fmt.Errorf("NOTIFY_OFFSETS is not set (e.g. \"-72h,-24h,0s,24h\")")
	}
	cfg.Offsets, err = notify.ParseOffsets(offsetsStr)
	if err != nil {
		return nil, fmt.Errorf("invalid NOTIFY_OFFSETS: %w", err)
	}

	lookbackStr := os.Getenv("GENERATION_LOOKBACK_MONTHS")
	if lookbackStr == "" {
		return nil, fmt.Errorf("GENERATION_LOOKBACK_MONTHS is not set")
	}
	cfg.LookbackMonths, err = strconv.Atoi(lookbackStr)
	if err != nil || cfg.LookbackMonths < 0 {
		return nil, fmt.Errorf("invalid GENERATION_LOOKBACK_MONTHS %q: must be a non-negative integer", lookbackStr)
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	cfg.CronSpecGeneration = os.Getenv("CRON_SPEC_GENERATION")
	if cfg.CronSpecGeneration == "" {
		cfg.CronSpecGeneration = "0 6 1 * *" // 06:00 on the 1st; the tick self-heals missed runs
	}
	cfg.CronSpecNotification = os.Getenv("CRON_SPEC_NOTIFICATION")
	if cfg.CronSpecNotification == "" {
		cfg.CronSpecNotification = "0 8 * * *" // 08:00 daily
	}

	cfg.MessageTemplate = os.Getenv("MESSAGE_TEMPLATE")
	if cfg.MessageTemplate == "" {
		cfg.MessageTemplate = "Rent for {{.Resource}} ({{.Period}}): {{.AmountShort}} ISK, due {{.DueDate}} ({{.DueIn}})."
	}

	cfg.RoleMentionTemplate = os.Getenv("ROLE_MENTION_TEMPLATE")
	if cfg.RoleMentionTemplate == "" {
		cfg.RoleMentionTemplate = "@{channel}"
	}

	timeoutStr := os.Getenv("DELIVER_TIMEOUT")
	if timeoutStr == "" {
		cfg.DeliverTimeout = 10 * time.Second
	} else {
		cfg.DeliverTimeout, err = time.ParseDuration(timeoutStr)
		if err != nil || cfg.DeliverTimeout <= 0 {
			return nil, fmt.Errorf("invalid DELIVER_TIMEOUT %q", timeoutStr)
		}
	}

	cfg.Notifier = strings.ToLower(os.Getenv("NOTIFIER"))
	if cfg.Notifier == "" {
		cfg.Notifier = NotifierDiscord
	}
	switch cfg.Notifier {
	case NotifierDiscord:
		cfg.DiscordWebhookURL = os.Getenv("DISCORD_WEBHOOK_URL")
		if cfg.DiscordWebhookURL == "" {
			return nil, fmt.Errorf("DISCORD_WEBHOOK_URL is not set")
		}
		cfg.DiscordWebhookTemplate = os.Getenv("DISCORD_WEBHOOK_TEMPLATE")
		if cfg.DiscordWebhookTemplate == "" {
			cfg.DiscordWebhookTemplate = "{base_url}"
		}
	case NotifierTelegram:
		cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
		if cfg.TelegramToken == "" {
			return nil, fmt.Errorf("TELEGRAM_TOKEN is not set")
		}
		chatIDStr := os.Getenv("TELEGRAM_CHAT_ID")
		if chatIDStr == "" {
			return nil, fmt.Errorf("TELEGRAM_CHAT_ID is not set")
		}
		cfg.TelegramChatID, err = strconv.ParseInt(chatIDStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown NOTIFIER %q: must be %q or %q", cfg.Notifier, NotifierDiscord, NotifierTelegram)
	}

	return cfg, nil
}
