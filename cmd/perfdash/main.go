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
	"github.com/redis/go-redis/v9"

	"github.com/perfdash/perfdash/internal/app"
	"github.com/perfdash/perfdash/internal/observability"
	"github.com/perfdash/perfdash/internal/platform/cache"
	reporthttp "github.com/perfdash/perfdash/internal/reports/http"
	"github.com/perfdash/perfdash/jobs"
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

	redisOpts, err := cache.Options(cfg.RedisAddr)
	if err != nil {
		logger.Error("redis options", slog.Any("error", err))
		os.Exit(1)
	}

	if len(os.Args) > 1 && os.Args[1] == "warm-filters" {
		if err := enqueueWarmup(ctx, redisOpts, logger); err != nil {
			os.Exit(1)
		}
		return
	}

	metrics := observability.NewMetrics()

	querier, closeWarehouse, err := app.OpenWarehouse(ctx, cfg, metrics.Registerer())
	if err != nil {
		logger.Error("connect warehouse", slog.Any("error", err))
		os.Exit(1)
	}
	defer closeWarehouse()

	// The filter cache is optional: reports still work against the warehouse without Redis.
	redisClient, err := cache.New(ctx, redisOpts)
	if err != nil {
		logger.Warn("redis unavailable, filter options will not be cached", slog.Any("error", err))
		redisClient = nil
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	reportService, _, err := app.NewReportService(cfg, querier, redisClient, logger)
	if err != nil {
		logger.Error("init report service", slog.Any("error", err))
		os.Exit(1)
	}

	var jobHandler *jobs.Handler
	if redisClient != nil {
		inspector := asynq.NewInspector(cache.AsynqOpt(redisOpts))
		defer func() { _ = inspector.Close() }()
		jobHandler = jobs.NewHandler(inspector, logger)
	} else {
		jobHandler = jobs.NewHandler(nil, logger)
	}

	router := app.NewRouter(app.RouterParams{
		Logger:        logger,
		Config:        cfg,
		ReportHandler: reporthttp.NewHandler(logger, reportService),
		JobHandler:    jobHandler,
		Metrics:       metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("warehouse", string(cfg.Dialect())))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

func enqueueWarmup(ctx context.Context, redisOpts *redis.Options, logger *slog.Logger) error {
	client := jobs.NewClient(cache.AsynqOpt(redisOpts))
	defer func() { _ = client.Close() }()

	info, err := client.EnqueueFilterWarmup(ctx, "manual")
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		logger.Info("filter warmup already queued today")
		return nil
	}
	if err != nil {
		logger.Error("enqueue filter warmup", slog.Any("error", err))
		return err
	}
	logger.Info("filter warmup enqueued", slog.String("task_id", info.ID), slog.String("queue", info.Queue))
	return nil
}
