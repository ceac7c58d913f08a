package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/ledgerview-erp/ledgerview/internal/jobs"
	"github.com/ledgerview-erp/ledgerview/internal/trialbalance"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// ReportRunner is the slice of the report service the warmup job needs.
type ReportRunner interface {
	Run(ctx context.Context, p trialbalance.Params) (trialbalance.Report, error)
}

// TrialBalanceWarmupJob pre-computes trial balance reports off the request
// path so interactive requests for the same period land on a warm cache.
type TrialBalanceWarmupJob struct {
	Runner  ReportRunner
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewTrialBalanceWarmupJob wires dependencies for the warmup handler.
func NewTrialBalanceWarmupJob(runner ReportRunner, logger *slog.Logger, metrics *jobmetrics.Metrics) *TrialBalanceWarmupJob {
	return &TrialBalanceWarmupJob{
		Runner:  runner,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes trial balance warmup tasks.
func (j *TrialBalanceWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Runner == nil {
		return errors.New("trial balance warmup: handler not configured")
	}
	var payload TrialBalanceWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.CompanyID <= 0 {
		return asynq.SkipRetry
	}

	params, err := j.warmupParams(payload)
	if err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskTrialBalanceWarmup)
	logger := j.logger().With(
		slog.Int64("company_id", params.CompanyID),
		slog.Time("date_from", params.DateFrom),
		slog.Time("date_to", params.DateTo))
	logger.Info("starting trial balance warmup")

	rep, err := j.Runner.Run(ctx, params)
	if err != nil {
		logger.Error("trial balance warmup", slog.Any("error", err))
		return tracker.End(err)
	}
	logger.Info("trial balance warmup finished", slog.Int("scopes", len(rep.Scopes)))
	return tracker.End(nil)
}

// warmupParams fills the date range from the payload, defaulting to the
// current month with a calendar fiscal year.
func (j *TrialBalanceWarmupJob) warmupParams(payload TrialBalanceWarmupPayload) (trialbalance.Params, error) {
	now := j.now()
	params := trialbalance.Params{
		CompanyID:                   payload.CompanyID,
		OnlyPostedMoves:             true,
		HideAccountAt0:              true,
		UnaffectedEarningsAccountID: payload.UnaffectedEarningsAccountID,
	}
	params.DateFrom = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	params.DateTo = params.DateFrom.AddDate(0, 1, -1)
	params.FYStartDate = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)

	var err error
	if payload.DateFrom != "" {
		if params.DateFrom, err = time.Parse("2006-01-02", payload.DateFrom); err != nil {
			return trialbalance.Params{}, err
		}
	}
	if payload.DateTo != "" {
		if params.DateTo, err = time.Parse("2006-01-02", payload.DateTo); err != nil {
			return trialbalance.Params{}, err
		}
	}
	if payload.FYStartDate != "" {
		if params.FYStartDate, err = time.Parse("2006-01-02", payload.FYStartDate); err != nil {
			return trialbalance.Params{}, err
		}
	}
	return params, nil
}

func (j *TrialBalanceWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *TrialBalanceWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func (j *TrialBalanceWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
