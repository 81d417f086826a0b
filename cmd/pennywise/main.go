package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"pennywise/internal/amqp"
	"pennywise/internal/cache"
	"pennywise/internal/config"
	apphttp "pennywise/internal/http"
	"pennywise/internal/log"
	"pennywise/internal/services"
	"pennywise/internal/storage"
)

func main() {
	// Load .env for local development, ignore when absent.
	_ = godotenv.Load()

	logger := log.New(log.Config{
		Level:     logLevel(),
		Component: log.ComponentApp,
	})
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// Report cache with periodic cleanup of expired entries.
	reportCache := cache.NewLRUCache[*services.AnalyticsReport](cfg.AnalyticsCacheSize, cfg.AnalyticsCacheTTL)
	cacheManager := cache.NewManager()
	cacheManager.Register(reportCache)
	cacheManager.StartCleanup(10 * time.Minute)
	defer cacheManager.Stop()

	// AMQP is optional: without it group notifications are logged and dropped.
	var publisher services.NotificationPublisher
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Warn("AMQP unavailable, notifications disabled", log.FieldError, err)
	} else {
		defer amqpClient.Close()
		publisher = amqpClient
	}

	profileService := services.NewProfileService(repo, reportCache, logger)
	expenseService := services.NewExpenseService(repo, reportCache, logger)
	goalService := services.NewGoalService(repo, logger)
	analyticsService := services.NewAnalyticsService(repo, profileService, reportCache, logger)
	groupService := services.NewGroupService(repo, publisher, logger)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Expenses:  expenseService,
		Goals:     goalService,
		Profiles:  profileService,
		Analytics: analyticsService,
		Groups:    groupService,
		Logger:    logger,
		JWTSecret: cfg.JWTSecret,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cancel()
	}()

	logger.Info("Starting pennywise server", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}

func logLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(os.Getenv("LOG_LEVEL"))); err != nil {
		return slog.LevelInfo
	}
	return level
}
