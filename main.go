package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/example/lexibatch/internal/api"
	"github.com/example/lexibatch/internal/bot"
	"github.com/example/lexibatch/internal/cache"
	"github.com/example/lexibatch/internal/config"
	"github.com/example/lexibatch/internal/database"
	"github.com/example/lexibatch/internal/logging"
	"github.com/example/lexibatch/internal/scheduler"
	"github.com/example/lexibatch/internal/scheduling"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	slog.SetDefault(logger)
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := database.Connect(ctx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", logging.Error(err))
		os.Exit(1)
	}
	defer store.Close()

	opts := scheduling.Options{
		ReadyThreshold:     cfg.BatchReadyThreshold,
		LearnedRepetitions: cfg.LearnedRepetitions,
		FivePointAllowTwo:  cfg.FivePointAllowTwo,
		NewCardsPerDay:     cfg.AnkiNewCardsPerDay,
		MatureIntervalDays: cfg.MatureIntervalDays,
		SessionIdleTimeout: cfg.SessionIdleTimeout,
		Logger:             logger,
	}

	// Stats are served without Redis when it is not configured or unreachable
	if cfg.RedisURL != "" {
		redisCache, err := cache.NewRedisCache(ctx, cfg.RedisURL, cfg.StatsCacheTTL, logger)
		if err != nil {
			logger.Warn("redis unavailable, stats cache disabled", logging.Error(err))
		} else {
			defer redisCache.Close()
			opts.Cache = redisCache
		}
	}

	svc := scheduling.NewService(store, opts)

	if cfg.SchedulerEnabled {
		var notifier scheduler.Notifier
		if cfg.TelegramBotToken != "" {
			n, err := bot.New(cfg.TelegramBotToken, cfg.AppURL, logger)
			if err != nil {
				logger.Warn("telegram notifier disabled", logging.Error(err))
			} else {
				notifier = n
			}
		}
		sched := scheduler.New(svc, notifier, svc, scheduler.Config{
			StartHour: cfg.NotificationStartHour,
			EndHour:   cfg.NotificationEndHour,
			Logger:    logger,
		})
		if err := sched.Start(); err != nil {
			logger.Error("failed to start scheduler", logging.Error(err))
			os.Exit(1)
		}
		defer sched.Stop()
		logger.Info("background scheduler started")
	}

	router := api.NewRouter(svc, api.RouterConfig{
		JWTSecret:        cfg.JWTSecret,
		CORSOrigins:      cfg.CORSOrigins,
		DefaultBatchSize: cfg.DefaultBatchSize,
		Logger:           logger,
		Health:           store.Ping,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("API server starting", logging.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", logging.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("error during shutdown", logging.Error(err))
	}
}
