// Package main is the entry point for the wellness API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zapponejosh/wellness-api/internal/api"
	"github.com/zapponejosh/wellness-api/internal/chat"
	"github.com/zapponejosh/wellness-api/internal/config"
	"github.com/zapponejosh/wellness-api/internal/database"
	"github.com/zapponejosh/wellness-api/internal/logger"
	"github.com/zapponejosh/wellness-api/internal/queue"
	"github.com/zapponejosh/wellness-api/internal/reminder"
	"github.com/zapponejosh/wellness-api/internal/webhook"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Setup structured logging
	log := logger.Setup(cfg)

	log.Info("starting wellness API",
		slog.String("env", cfg.Env),
		slog.Int("port", cfg.Port),
		slog.String("log_level", cfg.LogLevel),
		slog.Bool("chat", cfg.ChatEnabled()),
		slog.Bool("reminders", cfg.RemindersEnabled()),
	)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database
	db, err := database.Open(database.DefaultConfig(cfg.DatabasePath), log)
	if err != nil {
		return err
	}
	defer db.Close()

	applied, err := db.Migrate(ctx)
	if err != nil {
		return err
	}
	log.Info("migrations complete", slog.Int("applied", applied))

	catalog, err := reminder.LoadCatalog()
	if err != nil {
		return err
	}

	deps := api.Deps{
		DB:        db,
		Config:    cfg,
		Logger:    log,
		Catalog:   catalog,
		Generator: reminder.NewGenerator(catalog, nil),
	}

	if cfg.ChatEnabled() {
		c, err := chat.New(chat.Config{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
		})
		if err != nil {
			return err
		}
		deps.Chat = c
	} else {
		log.Warn("OPENAI_API_KEY not set; chat proxy disabled")
	}

	// Notification delivery
	var deliverer queue.Deliverer = queue.NewLogDeliverer(log)
	if cfg.NotifyWebhookURL != "" {
		deliverer = webhook.NewHTTPEmitter(cfg.NotifyWebhookURL)
	}

	var (
		enqueuer queue.Enqueuer
		worker   *queue.Worker
	)
	if cfg.RedisURL != "" {
		ropts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("parse REDIS_URL: %w", err)
		}
		redisOpt := queue.RedisOptFromOptions(ropts)
		rdb := redis.NewClient(ropts)
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		deps.Redis = rdb

		asynqEnq := queue.NewAsynqEnqueuer(redisOpt, log)
		defer asynqEnq.Close()
		enqueuer = asynqEnq

		worker = queue.NewWorker(redisOpt, deliverer, db, log)
		go func() {
			if err := worker.Run(); err != nil {
				log.Error("notification worker stopped", slog.Any("error", err))
			}
		}()
	} else {
		enqueuer = queue.NewInlineEnqueuer(deliverer, db, log)
	}

	// Reminder scheduler
	var scheduler *reminder.Scheduler
	if cfg.RemindersEnabled() {
		scheduler = reminder.NewScheduler(db, catalog, enqueuer, cfg.Location(), log)
		if err := scheduler.Start(cfg.ReminderSchedule); err != nil {
			return err
		}
	}

	router, err := api.NewRouter(api.NewHandlers(deps), cfg, log)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      90 * time.Second, // chat replies can be slow
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("wellness API ready", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", slog.Any("error", err))
	}
	if scheduler != nil {
		scheduler.Stop(shutdownCtx)
	}
	if worker != nil {
		worker.Shutdown()
	}
	return nil
}
