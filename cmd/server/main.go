package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"clipcast/config"
	"clipcast/internal/deps"
	"clipcast/internal/server"
	"clipcast/internal/storage"
	"clipcast/log"
)

func main() {
	log.InitLogger()
	defer log.GetLogger().Sync()

	var err error
	if !config.LoadConfig() {
		return
	}

	if err = config.CheckConfig(); err != nil {
		log.GetLogger().Error("Invalid configuration", zap.Error(err))
		return
	}

	// Initialize Database
	storage.InitDB()

	// Mark any stale "running" jobs as "failed" (zombie cleanup)
	if count, err := storage.MarkStaleJobs(); err != nil {
		log.GetLogger().Warn("Failed to mark stale jobs", zap.Error(err))
	} else if count > 0 {
		log.GetLogger().Info("Marked stale jobs as failed", zap.Int64("count", count))
	}

	if err = deps.CheckDependency(); err != nil {
		log.GetLogger().Error("Dependency check failed", zap.Error(err))
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err = server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.GetLogger().Error("Server exited with error", zap.Error(err))
		os.Exit(1)
	}
}
