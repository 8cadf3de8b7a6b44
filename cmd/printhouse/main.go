package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/printhouse-ops/printhouse/internal/app"
	"github.com/printhouse-ops/printhouse/internal/catalog"
	"github.com/printhouse-ops/printhouse/internal/invoices"
	"github.com/printhouse-ops/printhouse/internal/observability"
	"github.com/printhouse-ops/printhouse/internal/orders"
	"github.com/printhouse-ops/printhouse/internal/platform/cache"
	"github.com/printhouse-ops/printhouse/internal/platform/db"
	"github.com/printhouse-ops/printhouse/internal/procurement"
	"github.com/printhouse-ops/printhouse/internal/quotes"
	"github.com/printhouse-ops/printhouse/jobs"
	"github.com/printhouse-ops/printhouse/report"
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
		logger.Warn("redis unavailable, rules cache disabled", slog.Any("error", err))
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

	catalogRepo := catalog.NewRepository(pool)
	rulesCache := catalog.NewRulesCache(catalogRepo, redisClient, cfg.RulesCacheTTL)
	contractLoader := catalog.NewContractLoader(catalogRepo, logger)

	quoteRepo := quotes.NewRepository(pool)
	quoteService := quotes.NewService(quoteRepo, rulesCache, contractLoader, logger)
	quoteHandler := quotes.NewHandler(logger, quoteService)

	orderRepo := orders.NewRepository(pool)
	orderService := orders.NewService(orderRepo, logger, cfg.NumberingRetries)
	orderHandler := orders.NewHandler(logger, orderService)

	invoiceRepo := invoices.NewRepository(pool)
	invoiceService := invoices.NewService(invoiceRepo, orderService, logger, cfg.NumberingRetries)
	invoiceHandler := invoices.NewHandler(invoiceService)

	poRepo := procurement.NewRepository(pool)
	poService := procurement.NewService(poRepo, logger, cfg.NumberingRetries)
	poHandler := procurement.NewHandler(poService)

	reportClient := report.NewClient(cfg.GotenbergURL)
	reportHandler := report.NewHandler(reportClient, invoiceService, orderService, logger)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		QuotesHandler:      quoteHandler,
		OrdersHandler:      orderHandler,
		InvoicesHandler:    invoiceHandler,
		ProcurementHandler: poHandler,
		JobsHandler:        jobsHandler,
		ReportHandler:      reportHandler,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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
