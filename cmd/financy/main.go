package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"financy/internal/amqp"
	"financy/internal/auth"
	"financy/internal/budget"
	"financy/internal/config"
	apphttp "financy/internal/http"
	applog "financy/internal/log"
	"financy/internal/services"
	"financy/internal/storage"
	"financy/internal/store"
)

func main() {
	// Load .env for local development; absent in containers.
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	st := store.New(repo, repo)

	// The AMQP feed is optional: without it writes fall back to
	// refreshing the store synchronously.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPAPIQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err, "exchange", cfg.AMQPExchange)
			os.Exit(1)
		}
		defer amqpClient.Close()
		logger.Info("AMQP change feed enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPAPIQueue)
	} else {
		logger.Warn("AMQP_URL not set, running without change feed")
	}

	var publisher services.ChangePublisher
	if amqpClient != nil {
		publisher = amqpClient
	}
	entries := services.NewEntryService(repo, st, publisher, cfg.ImportWorkers)

	identity, err := auth.NewStaticProvider(cfg.OwnerID, cfg.OwnerName, cfg.OwnerEmail)
	if err != nil {
		logger.Error("Failed to configure identity provider", "error", err)
		os.Exit(1)
	}

	srv := apphttp.NewServer(":"+cfg.Port, st, entries, budget.NewRegistry(), identity, cfg.RateLimitPerMinute)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Consume our own change feed so the in-memory store converges even
	// when another instance (or the import path) produced the change.
	if amqpClient != nil {
		go func() {
			err := amqpClient.ConsumeEntryChanges(ctx, func(msg *amqp.EntryChangeMessage) error {
				_, err := st.Refresh(ctx, msg.OwnerID)
				return err
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Change feed consumption failed", "error", err)
			}
		}()
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting financy server", "port", cfg.Port, "db_path", cfg.SQLiteDBPath)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
