// Command server runs the DocFlow HTTP API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/dharsanguruparan/docflow/internal/api"
	"github.com/dharsanguruparan/docflow/internal/auth"
	"github.com/dharsanguruparan/docflow/internal/config"
	"github.com/dharsanguruparan/docflow/internal/database"
	"github.com/dharsanguruparan/docflow/internal/logger"
	"github.com/dharsanguruparan/docflow/internal/model"
	"github.com/dharsanguruparan/docflow/internal/queue"
	"github.com/dharsanguruparan/docflow/internal/repository"
	"github.com/dharsanguruparan/docflow/internal/s3storage"
	"github.com/dharsanguruparan/docflow/internal/service"
	"github.com/dharsanguruparan/docflow/internal/storage"
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
		log.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	deps := service.Deps{
		UploadURLTTL:   cfg.Storage.UploadURLTTL,
		DownloadURLTTL: cfg.Storage.DownloadURLTTL,
		Log:            log,
	}

	if cfg.Database.DSN == "" {
		log.Warn("DATABASE_URL not set, using the in-memory store")
		mem := storage.NewMemoryStore()
		deps.Stores = service.Stores{
			Documents: mem.Documents(),
			Employees: mem.Employees(),
			Policies:  mem.Policies(),
			Holds:     mem.Holds(),
			Audit:     mem.Audit(),
			Settings:  mem.Settings(),
		}
	} else {
		if cfg.Database.AutoMigrate {
			version, err := database.Migrate(ctx, cfg.Database.DSN)
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			log.Info("schema migrated", zap.Int64("version", version))
		}
		pool, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()
		deps.Stores = repository.NewStores(pool)
	}

	if cfg.StorageEnabled() {
		objects, err := s3storage.New(cfg.Storage)
		if err != nil {
			return fmt.Errorf("init object storage: %w", err)
		}
		if err := objects.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("ensure bucket: %w", err)
		}
		deps.Objects = objects
	} else {
		log.Warn("object storage not configured, upload and download URLs are disabled")
	}

	if cfg.Redis.Addr != "" {
		client := asynq.NewClient(queue.RedisOpt(cfg.Redis))
		defer client.Close()
		tasks := queue.NewClient(client)
		deps.Notifier = tasks
		deps.Confirmer = tasks
	} else {
		log.Warn("REDIS_ADDR not set, notifications and upload confirmation are disabled")
	}

	svc := service.New(deps)
	if cfg.Database.DSN == "" {
		seedCtx := model.WithActor(ctx, model.SystemActor)
		n, err := svc.Policies.Seed(seedCtx, service.DefaultPolicies())
		if err != nil {
			return fmt.Errorf("seed policies: %w", err)
		}
		log.Info("seeded default retention policies", zap.Int("created", n))
	}

	srv := api.New(cfg, svc, auth.NewManager(cfg.Auth), log)
	return srv.Run(ctx)
}
