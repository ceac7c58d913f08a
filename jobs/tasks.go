// Package jobs contains the background task definitions and the Asynq
// worker wiring.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTrialBalanceWarmup pre-computes the current-period trial balance
	// for a company so the first interactive request hits a warm cache.
	TaskTrialBalanceWarmup = "reports.trial_balance_warmup"
)

// TrialBalanceWarmupPayload identifies the company to warm. An empty date
// range means the current month.
type TrialBalanceWarmupPayload struct {
	CompanyID                   int64  `json:"company_id"`
	DateFrom                    string `json:"date_from,omitempty"`
	DateTo                      string `json:"date_to,omitempty"`
	FYStartDate                 string `json:"fy_start_date,omitempty"`
	UnaffectedEarningsAccountID int64  `json:"unaffected_earnings_account_id,omitempty"`
}

// NewTrialBalanceWarmupTask constructs an Asynq task.
func NewTrialBalanceWarmupTask(payload TrialBalanceWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTrialBalanceWarmup, data), nil
}
