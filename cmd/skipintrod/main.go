package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"skipintro/internal/config"
	"skipintro/internal/logging"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("ensure directories: %v", err)
	}

	logger, logPath, err := logging.NewFromConfig(cfg, uuid.NewString())
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	w, cleanup := buildWatcher(cfg, logger, logPath)
	defer cleanup()

	if err := w.Run(ctx); err != nil {
		logging.ErrorWithContext(logger, "watcher exited", "watcher_run",
			logging.String(logging.FieldErrorHint, "stop the other watcher or check the data directory"),
			logging.Error(err),
		)
		cleanup()
		log.Fatal(err)
	}
	logger.Info("skipintrod shutting down")
}
