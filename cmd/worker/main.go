package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/workroom-erp/workroom-erp/internal/app"
	"github.com/workroom-erp/workroom-erp/internal/catalog"
	"github.com/workroom-erp/workroom-erp/internal/platform/db"
	"github.com/workroom-erp/workroom-erp/internal/quotes"
	"github.com/workroom-erp/workroom-erp/internal/sequence"
	"github.com/workroom-erp/workroom-erp/internal/settings"
	"github.com/workroom-erp/workroom-erp/internal/shared"
	"github.com/workroom-erp/workroom-erp/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	settingsRepo := settings.NewRepository(pool)
	settingsService := settings.NewService(settingsRepo, logger)
	quoteRepo := quotes.NewRepository(pool)
	quoteService := quotes.NewService(
		quoteRepo,
		settingsService,
		sequence.NewPGAllocator(pool),
		catalog.NewRepository(pool),
		shared.NewPGAuditSink(pool),
		logger,
	)

	expiryJob := jobs.NewQuoteExpiryJob(quoteService, logger)

	// Registered with a zero timestamp so every run sweeps as of its
	// own execution time.
	expiryTask, err := jobs.NewQuoteExpiryTask(time.Time{})
	if err != nil {
		logger.Error("build expiry task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeQuoteExpiry, Handler: expiryJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.QuoteExpiryCron, Task: expiryTask},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("worker started", slog.String("cron", cfg.QuoteExpiryCron))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker exited", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker shutdown complete")
}
