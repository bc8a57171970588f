package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/ledger/internal/jobs"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskPeriodsGenerate extends the fiscal calendar of one or all companies.
	TaskPeriodsGenerate = "ledger:periods:generate"
	// TaskLedgerIntegrity verifies that every period of a company nets to zero.
	TaskLedgerIntegrity = "ledger:integrity"
	// TaskIdempotencyCleanup prunes expired Idempotency-Key records.
	TaskIdempotencyCleanup = "ledger:idempotency:cleanup"

	allCompanies = "all"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// PeriodsGeneratePayload scopes a calendar generation run. Zero years mean
// "the current fiscal year through the next one".
type PeriodsGeneratePayload struct {
	CompanyID string `json:"company_id"`
	StartYear int    `json:"start_year,omitempty"`
	EndYear   int    `json:"end_year,omitempty"`
}

// IntegrityPayload scopes an integrity run.
type IntegrityPayload struct {
	CompanyID string `json:"company_id"`
}

// NewPeriodsGenerateTask builds the task for TaskPeriodsGenerate.
func NewPeriodsGenerateTask(payload PeriodsGeneratePayload) (*asynq.Task, error) {
	if payload.CompanyID == "" {
		payload.CompanyID = allCompanies
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPeriodsGenerate, body, asynq.Queue(QueueDefault), asynq.Timeout(5*time.Minute)), nil
}

// NewIntegrityTask builds the task for TaskLedgerIntegrity.
func NewIntegrityTask(companyID string) (*asynq.Task, error) {
	if companyID == "" {
		companyID = allCompanies
	}
	body, err := json.Marshal(IntegrityPayload{CompanyID: companyID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLedgerIntegrity, body, asynq.Queue(QueueDefault), asynq.Timeout(15*time.Minute)), nil
}

// IdempotencyCleanupPayload carries the retention window in seconds. Zero
// falls back to the job's configured retention.
type IdempotencyCleanupPayload struct {
	RetentionSeconds int64 `json:"retention_seconds,omitempty"`
}

// NewIdempotencyCleanupTask builds the task for TaskIdempotencyCleanup.
func NewIdempotencyCleanupTask(retention time.Duration) (*asynq.Task, error) {
	body, err := json.Marshal(IdempotencyCleanupPayload{RetentionSeconds: int64(retention / time.Second)})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, body, asynq.Queue(QueueDefault), asynq.Timeout(time.Minute)), nil
}
