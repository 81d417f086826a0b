package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"pennywise/internal/amqp"
	"pennywise/internal/config"
	"pennywise/internal/log"
	"pennywise/internal/mail"
	"pennywise/internal/worker"
)

func main() {
	_ = godotenv.Load()

	logger := log.New(log.Config{
		Level:     logLevel(),
		Component: log.ComponentWorker,
	})
	log.SetDefault(logger)

	logger.Info("Starting pennywise-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	// Without SMTP settings the worker drains the queue without sending,
	// which keeps local development quiet.
	var sender worker.Sender
	if cfg.MailEnabled() {
		sender = mail.NewMailer(cfg, logger)
		logger.Info("Mail delivery enabled", "smtp_host", cfg.SMTPHost)
	} else {
		logger.Info("Mail delivery disabled - no SMTP_HOST configured")
	}

	notificationWorker := worker.NewNotificationWorker(amqpClient, sender, logger, cfg.WorkerPrefetch, cfg.WorkerRetryWait)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return notificationWorker.Run(ctx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}

func logLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(os.Getenv("LOG_LEVEL"))); err != nil {
		return slog.LevelInfo
	}
	return level
}
