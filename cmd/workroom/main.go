package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/workroom-erp/workroom-erp/internal/app"
	"github.com/workroom-erp/workroom-erp/internal/catalog"
	"github.com/workroom-erp/workroom-erp/internal/platform/cache"
	"github.com/workroom-erp/workroom-erp/internal/platform/db"
	"github.com/workroom-erp/workroom-erp/internal/quotes"
	"github.com/workroom-erp/workroom-erp/internal/sequence"
	"github.com/workroom-erp/workroom-erp/internal/settings"
	"github.com/workroom-erp/workroom-erp/internal/shared"
	"github.com/workroom-erp/workroom-erp/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, job enqueue disabled", slog.Any("error", err))
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}

	settingsRepo := settings.NewRepository(pool)
	settingsService := settings.NewService(settingsRepo, logger)

	catalogRepo := catalog.NewRepository(pool)
	sequencer := sequence.NewPGAllocator(pool)
	auditSink := shared.NewPGAuditSink(pool)
	idempotency := shared.NewIdempotencyStore(pool)

	quoteRepo := quotes.NewRepository(pool)
	quoteService := quotes.NewService(quoteRepo, settingsService, sequencer, catalogRepo, auditSink, logger)

	jobsClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	quoteHandler := quotes.NewHandler(logger, quoteService, idempotency, jobsClient)
	settingsHandler := settings.NewHandler(logger, settingsService)
	catalogHandler := catalog.NewHandler(logger, catalogRepo)
	jobsHandler := jobs.NewHandler(asynq.NewInspector(redisOpts), logger)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		QuotesHandler:   quoteHandler,
		SettingsHandler: settingsHandler,
		CatalogHandler:  catalogHandler,
		JobsHandler:     jobsHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}
