// Command worker runs the asynq task handlers.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/dharsanguruparan/docflow/internal/config"
	"github.com/dharsanguruparan/docflow/internal/database"
	"github.com/dharsanguruparan/docflow/internal/logger"
	"github.com/dharsanguruparan/docflow/internal/queue"
	"github.com/dharsanguruparan/docflow/internal/repository"
	"github.com/dharsanguruparan/docflow/internal/s3storage"
	"github.com/dharsanguruparan/docflow/internal/service"
	"github.com/dharsanguruparan/docflow/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("worker stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	switch {
	case cfg.Database.DSN == "":
		return errors.New("worker needs DATABASE_URL")
	case cfg.Redis.Addr == "":
		return errors.New("worker needs REDIS_ADDR")
	case !cfg.StorageEnabled():
		return errors.New("worker needs S3_ENDPOINT")
	}

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	objects, err := s3storage.New(cfg.Storage)
	if err != nil {
		return fmt.Errorf("init object storage: %w", err)
	}

	stores := repository.NewStores(pool)
	settings, err := stores.Settings.Get(ctx)
	if err != nil {
		return fmt.Errorf("load intake settings: %w", err)
	}
	svc := service.New(service.Deps{
		Stores: stores,
		Log:    log,
	})
	processor := worker.NewProcessor(objects, svc.Documents, settings.MaxFileBytes, log)

	srv := asynq.NewServer(queue.RedisOpt(cfg.Redis), asynq.Config{
		Concurrency: cfg.Redis.Concurrency,
		Logger:      log.Sugar(),
	})
	go func() {
		<-ctx.Done()
		srv.Shutdown()
	}()

	log.Info("worker started", zap.Int("concurrency", cfg.Redis.Concurrency))
	if err := srv.Run(processor.Handler()); err != nil {
		return fmt.Errorf("asynq server: %w", err)
	}
	return nil
}
