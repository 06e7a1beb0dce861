package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/bcgov/sfms-advisory/internal/adapter/http"
	kafkaadapter "github.com/bcgov/sfms-advisory/internal/adapter/kafka"
	"github.com/bcgov/sfms-advisory/internal/adapter/objectstore"
	"github.com/bcgov/sfms-advisory/internal/adapter/postgis"
	"github.com/bcgov/sfms-advisory/internal/config"
	"github.com/bcgov/sfms-advisory/internal/observability"
	"github.com/bcgov/sfms-advisory/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	db, err := postgis.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Error("database connect failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := postgis.Migrate(db); err != nil {
		logger.Error("database migration failed", "error", err)
		os.Exit(1)
	}

	repo := postgis.New(db, logger)
	store := objectstore.NewClient(cfg.ObjectStoreBaseURL, cfg.ObjectStoreTimeout, logger, metrics)

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)

	p := pipeline.New(repo, store, logger, metrics, cfg.SFMSKeyPrefix)
	consumer := pipeline.NewConsumer(reader, writer, p, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, consumer, consumer, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start trigger consumer.
	go func() {
		if err := consumer.Run(ctx); err != nil {
			logger.Error("consumer error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}
