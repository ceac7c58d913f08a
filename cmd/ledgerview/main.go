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

	"github.com/ledgerview-erp/ledgerview/internal/app"
	"github.com/ledgerview-erp/ledgerview/internal/coa"
	"github.com/ledgerview-erp/ledgerview/internal/ledger"
	"github.com/ledgerview-erp/ledgerview/internal/observability"
	"github.com/ledgerview-erp/ledgerview/internal/platform/cache"
	"github.com/ledgerview-erp/ledgerview/internal/platform/db"
	"github.com/ledgerview-erp/ledgerview/internal/trialbalance"
	tbhttp "github.com/ledgerview-erp/ledgerview/internal/trialbalance/http"
	"github.com/ledgerview-erp/ledgerview/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("init postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("init redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = redisClient.Close() }()

	metrics := observability.NewMetrics()
	if err := tbhttp.SetupCacheMetrics(metrics.Registerer()); err != nil {
		logger.Error("register report metrics", slog.Any("error", err))
		os.Exit(1)
	}

	ledgerRepo := ledger.NewRepository(pool)
	coaRepo := coa.NewRepository(pool)
	reportSvc := trialbalance.NewService(ledgerRepo, coaRepo, logger).WithTimeout(cfg.ReportTimeout)
	tbHandler := tbhttp.NewHandler(logger, reportSvc)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() { _ = inspector.Close() }()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:              logger,
		Config:              cfg,
		TrialBalanceHandler: tbHandler,
		JobHandler:          jobHandler,
		Metrics:             metrics,
	})

	srv := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr), slog.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", slog.Any("error", err))
	}
}
