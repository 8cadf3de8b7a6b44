package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeLedgerAudit is the task type for the nightly balance audit.
	TaskTypeLedgerAudit = "ledger:audit"
	// TaskTypeRulesCacheRefresh is the task type for dropping stale pricing rules.
	TaskTypeRulesCacheRefresh = "catalog:rules:refresh"
)

// LedgerAuditPayload tunes a single audit run.
type LedgerAuditPayload struct {
	BatchSize int     `json:"batch_size"`
	Tolerance float64 `json:"tolerance"`
}

// NewLedgerAuditTask constructs an Asynq task.
func NewLedgerAuditTask(payload LedgerAuditPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeLedgerAudit, data), nil
}

// NewRulesCacheRefreshTask constructs an Asynq task with no payload.
func NewRulesCacheRefreshTask() *asynq.Task {
	return asynq.NewTask(TaskTypeRulesCacheRefresh, nil)
}
