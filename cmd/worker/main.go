package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/printhouse-ops/printhouse/internal/app"
	"github.com/printhouse-ops/printhouse/internal/catalog"
	jobmetrics "github.com/printhouse-ops/printhouse/internal/jobs"
	"github.com/printhouse-ops/printhouse/internal/observability"
	"github.com/printhouse-ops/printhouse/internal/orders"
	"github.com/printhouse-ops/printhouse/internal/platform/cache"
	"github.com/printhouse-ops/printhouse/internal/platform/db"
	"github.com/printhouse-ops/printhouse/jobs"
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
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, cache refresh disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	jobMetrics := jobmetrics.NewMetrics(metrics.Registerer())

	orderRepo := orders.NewRepository(pool)
	orderService := orders.NewService(orderRepo, logger, cfg.NumberingRetries)
	auditJob := jobs.NewLedgerAuditJob(pool, orderService, logger, jobMetrics)

	catalogRepo := catalog.NewRepository(pool)
	rulesCache := catalog.NewRulesCache(catalogRepo, redisClient, cfg.RulesCacheTTL)
	refreshJob := jobs.NewRulesCacheRefreshJob(rulesCache, logger, jobMetrics)

	auditTask, err := jobs.NewLedgerAuditTask(jobs.LedgerAuditPayload{})
	if err != nil {
		logger.Error("build audit task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeLedgerAudit, Handler: auditJob.Handle},
			{Type: jobs.TaskTypeRulesCacheRefresh, Handler: refreshJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.LedgerAuditSchedule, Task: auditTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "@every 30m", Task: jobs.NewRulesCacheRefreshTask()},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
