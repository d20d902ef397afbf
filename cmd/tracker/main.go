package main

import (
	"time"

	"gopkg.in/telebot.v3"

	"system_rent_tracker/internal/app"
	"system_rent_tracker/internal/domain/notify"
	"system_rent_tracker/internal/infra/config"
	idb "system_rent_tracker/internal/infra/database"
	"system_rent_tracker/internal/infra/discord"
	"system_rent_tracker/internal/infra/logger"
	"system_rent_tracker/internal/infra/scheduler"
	"system_rent_tracker/internal/infra/telegram"

	"os"
	"os/signal"
	"syscall"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("FATAL: Could not load application configuration: %v", err)
	}

	logger.Init(cfg)
	log := logger.Get()
	log.Infof("Configuration loaded. Environment: %s, Notifier: %s, Offsets: %d, Lookback: %d months",
		cfg.Environment, cfg.Notifier, len(cfg.Offsets), cfg.LookbackMonths)

	// The renderer validates the configured template; a broken template must
	// not make it to the first tick.
	renderer, err := app.NewRenderer(cfg.MessageTemplate, cfg.RoleMentionTemplate)
	if err != nil {
		log.Fatalf("FATAL: Invalid message configuration: %v", err)
	}

	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to database: %v", err)
	}
	defer db.Close()
	log.Info("Database connection established successfully")

	registry := idb.NewPostgresResourceRegistry(db)
	cycleRepo := idb.NewPostgresCycleRepository(db)
	notifLog := idb.NewPostgresNotificationLog(db)

	var notifier notify.Notifier
	switch cfg.Notifier {
	case config.NotifierTelegram:
		bot, err := telebot.NewBot(telebot.Settings{
			Token:  cfg.TelegramToken,
			Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		})
		if err != nil {
			log.Fatalf("FATAL: Could not create Telegram bot: %v", err)
		}
		notifier = telegram.NewTelebotNotifier(bot)
	default:
		notifier = discord.NewWebhookNotifier(cfg.DiscordWebhookURL, cfg.DiscordWebhookTemplate, cfg.DeliverTimeout)
	}
	log.Infof("Notifier adapter initialized: %s", cfg.Notifier)

	resolver := app.NewCurrentOwnerResolver(registry)

	generationService := app.NewCycleGenerationService(registry, cycleRepo, log, cfg.LookbackMonths, time.UTC)
	notificationService := app.NewNotificationService(
		cycleRepo, notifLog, registry, resolver, notifier, renderer, log,
		cfg.Offsets, cfg.LookbackMonths, cfg.DeliverTimeout, cfg.TelegramChatID,
	)

	ticks := scheduler.NewTickScheduler(
		generationService,
		notificationService,
		log,
		cfg.CronSpecGeneration,
		cfg.CronSpecNotification,
	)
	if err := ticks.Start(); err != nil {
		log.Fatalf("FATAL: Could not start tick scheduler: %v", err)
	}

	log.Info("Application setup complete; scheduler is running")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down application")
	ticks.Stop()
	log.Info("Application shut down gracefully")
}
