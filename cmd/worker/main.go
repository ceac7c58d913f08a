package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/ledgerview-erp/ledgerview/internal/app"
	"github.com/ledgerview-erp/ledgerview/internal/coa"
	jobmetrics "github.com/ledgerview-erp/ledgerview/internal/jobs"
	"github.com/ledgerview-erp/ledgerview/internal/ledger"
	"github.com/ledgerview-erp/ledgerview/internal/platform/cache"
	"github.com/ledgerview-erp/ledgerview/internal/platform/db"
	"github.com/ledgerview-erp/ledgerview/internal/trialbalance"
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

	ledgerRepo := ledger.NewRepository(pool)
	coaRepo := coa.NewRepository(pool)
	reportSvc := trialbalance.NewService(ledgerRepo, coaRepo, logger).WithTimeout(cfg.ReportTimeout)

	metrics := jobmetrics.NewMetrics(nil)
	warmup := jobs.NewTrialBalanceWarmupJob(reportSvc, logger, metrics)

	cron := make([]jobs.CronRegistration, 0, len(cfg.WarmupCompanyIDs))
	for _, companyID := range cfg.WarmupCompanyIDs {
		task, err := jobs.NewTrialBalanceWarmupTask(jobs.TrialBalanceWarmupPayload{CompanyID: companyID})
		if err != nil {
			logger.Error("build warmup task", slog.Int64("company_id", companyID), slog.Any("error", err))
			os.Exit(1)
		}
		cron = append(cron, jobs.CronRegistration{
			Spec:    cfg.WarmupCron,
			Task:    task,
			Options: []asynq.Option{asynq.Queue(jobs.QueueDefault), asynq.MaxRetry(3)},
		})
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTrialBalanceWarmup, Handler: warmup.Handle},
		},
		Cron: cron,
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("worker starting", slog.Int("concurrency", cfg.WorkerConcurrency), slog.Int("cron_entries", len(cron)))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
