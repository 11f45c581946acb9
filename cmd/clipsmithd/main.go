package main

import (
	"context"
	"log"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gofrs/flock"

	"clipsmith/internal/config"
	"clipsmith/internal/jobs"
	"clipsmith/internal/logging"
	"clipsmith/internal/notifications"
	"clipsmith/internal/pipeline"
	"clipsmith/internal/worker"
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

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	lock := flock.New(filepath.Join(cfg.Paths.LogDir, "clipsmithd.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		log.Fatalf("acquire daemon lock: %v", err)
	}
	if !locked {
		log.Fatalf("another clipsmith daemon instance is already running")
	}
	defer lock.Unlock() //nolint:errcheck

	store, err := jobs.Open(cfg)
	if err != nil {
		log.Fatalf("open job store: %v", err)
	}
	defer store.Close()

	if failed, err := store.FailInterrupted(ctx); err != nil {
		logger.Warn("fail interrupted jobs", logging.Error(err))
	} else if failed > 0 {
		logger.Info("marked interrupted jobs as failed", logging.Int64("count", failed))
	}

	notifier := notifications.NewService(cfg)
	runner := pipeline.NewRunner(cfg, store, notifier, logger)
	w := worker.New(cfg, store, runner, logger)

	if err := w.Start(ctx); err != nil {
		log.Fatalf("start worker: %v", err)
	}
	logger.Info("clipsmithd started")

	<-ctx.Done()
	logger.Info("clipsmithd shutting down")
	w.Stop()
}
