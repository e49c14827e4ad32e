package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/vglazkov/euro-oracle/internal/app"
	"github.com/vglazkov/euro-oracle/internal/config"
	"github.com/vglazkov/euro-oracle/internal/platform/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.NewJSON(cfg.LogLevel)
	defer logger.Sync()

	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("build app", "error", err)
		logger.Sync()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("bot starting",
		"env", cfg.AppEnv,
		"season_id", cfg.SeasonID,
		"sync_interval", cfg.SyncInterval.String(),
	)
	if err := a.Run(ctx); err != nil {
		logger.Error("bot stopped with error", "error", err)
		logger.Sync()
		os.Exit(1)
	}
	logger.Info("bot stopped")
}
