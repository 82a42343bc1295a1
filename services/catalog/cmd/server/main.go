package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	pkgconfig "github.com/utafrali/storefront-catalog/pkg/config"
	"github.com/utafrali/storefront-catalog/pkg/logger"
	"github.com/utafrali/storefront-catalog/services/catalog/internal/app"
	"github.com/utafrali/storefront-catalog/services/catalog/internal/config"
)

func main() {
	if err := run(); err != nil {
		slog.Error("catalog service exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	// Local overrides; real environment variables take precedence.
	if err := pkgconfig.LoadDotEnv(".env"); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New("catalog-service", cfg.LogLevel)
	slog.SetDefault(log)
	log.Info("starting catalog service",
		slog.String("environment", cfg.Environment),
		slog.Int("http_port", cfg.HTTPPort),
		slog.String("medusa_base_url", cfg.MedusaBaseURL),
		slog.Duration("refresh_interval", cfg.RefreshInterval),
		slog.Bool("snapshot_enabled", cfg.SnapshotEnabled),
		slog.Bool("kafka_enabled", cfg.KafkaEnabled),
	)

	application, err := app.NewApp(cfg, log)
	if err != nil {
		return fmt.Errorf("initialize application: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Blocks until a signal arrives and shutdown completes.
	if err := application.Run(ctx); err != nil {
		return fmt.Errorf("run application: %w", err)
	}

	log.Info("catalog service stopped")
	return nil
}
