package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"homework_status_bot/internal/app"
	"homework_status_bot/internal/domain/notification"
	"homework_status_bot/internal/infra/config"
	idb "homework_status_bot/internal/infra/database"
	"homework_status_bot/internal/infra/logger"
	"homework_status_bot/internal/infra/metrics"
	"homework_status_bot/internal/infra/praktikum"
	"homework_status_bot/internal/infra/scheduler"
	"homework_status_bot/internal/infra/telegram"
	"homework_status_bot/internal/infra/web"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("Could not load application configuration: %v", err)
	}
	logger.Init(cfg)
	mainLogger := logger.Component("main")
	mainLogger.WithFields(logrus.Fields{
		"environment":   cfg.Environment,
		"chat_id":       cfg.ChatID,
		"poll_schedule": cfg.PollSchedule,
	}).Info("Configuration loaded")

	metrics.MustRegister()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	botLogger := logger.Component("telebot")
	bot, err := telebot.NewBot(telebot.Settings{
		Token:  cfg.TelegramToken,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) {
			logCtx := botLogger.WithError(err)
			if c != nil && c.Chat() != nil {
				logCtx = logCtx.WithField("chat_id", c.Chat().ID)
			}
			logCtx.Error("Telegram handler error")
		},
	})
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not create Telegram bot, stopping")
	}

	var journal notification.Repository
	if cfg.DatabaseURL != "" {
		db, err := idb.NewPostgresConnection(ctx, cfg.DatabaseURL)
		if err != nil {
			mainLogger.WithError(err).Fatal("Could not connect to database")
		}
		defer db.Close()
		if err := idb.EnsureSchema(ctx, db); err != nil {
			mainLogger.WithError(err).Fatal("Could not prepare database schema")
		}
		journal = idb.NewPostgresDeliveryRepository(db)
		mainLogger.Info("Delivery journal enabled")
	}

	fetcher := praktikum.NewClient(cfg.APIURL, cfg.PraktikumToken, cfg.RequestTimeout)
	statusService := app.NewStatusService(
		fetcher,
		telegram.NewTelebotAdapter(bot),
		journal,
		cfg.ChatID,
		cfg.OperatorChatID,
		logger.Component("poller"),
	)

	handlers := telegram.NewCommandHandlers(ctx, statusService, logger.Component("commands"), cfg.ChatID, cfg.OperatorChatID)
	telegram.RegisterBotCommands(bot, handlers)
	go bot.Start()

	var opsServer *web.Server
	if cfg.MetricsAddr != "" {
		opsServer = web.NewServer(cfg.MetricsAddr, statusService, logger.Component("web"))
		go func() {
			if err := opsServer.Start(); err != nil {
				mainLogger.WithError(err).Error("Ops HTTP server failed")
			}
		}()
	}

	pollScheduler, err := scheduler.NewPollScheduler(statusService, cfg.PollSchedule, cfg.RetryInterval, logger.Component("scheduler"))
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not create poll scheduler")
	}

	mainLogger.Info("Application setup complete, polling for homework statuses")
	pollScheduler.Run(ctx) // Blocks until SIGINT/SIGTERM

	mainLogger.Info("Shutting down application...")
	bot.Stop()
	if opsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := opsServer.Shutdown(shutdownCtx); err != nil {
			mainLogger.WithError(err).Warn("Ops HTTP server shutdown failed")
		}
	}
	mainLogger.Info("Application shut down gracefully.")
}
