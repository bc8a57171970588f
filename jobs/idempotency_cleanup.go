package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/ledger/internal/jobs"
)

// KeyPruner deletes idempotency keys older than a retention window.
type KeyPruner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) (int64, error)
}

// IdempotencyCleanupJob keeps the idempotency_keys table bounded.
type IdempotencyCleanupJob struct {
	Store     KeyPruner
	Retention time.Duration
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewIdempotencyCleanupJob constructs the job handler.
func NewIdempotencyCleanupJob(store KeyPruner, retention time.Duration, logger *slog.Logger, metrics *jobmetrics.Metrics) *IdempotencyCleanupJob {
	return &IdempotencyCleanupJob{Store: store, Retention: retention, Logger: logger, Metrics: metrics}
}

// Handle executes a TaskIdempotencyCleanup task.
func (j *IdempotencyCleanupJob) Handle(ctx context.Context, task *asynq.Task) error {
	if j == nil || j.Store == nil {
		return errors.New("idempotency cleanup: dependencies not configured")
	}
	var payload IdempotencyCleanupPayload
	if len(task.Payload()) > 0 {
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return fmt.Errorf("idempotency cleanup payload: %v: %w", err, asynq.SkipRetry)
		}
	}
	_, err := j.Run(ctx, time.Duration(payload.RetentionSeconds)*time.Second)
	return err
}

// Run deletes keys older than retention, or the job's default when zero.
func (j *IdempotencyCleanupJob) Run(ctx context.Context, retention time.Duration) (int64, error) {
	tracker := j.metrics().Track(TaskIdempotencyCleanup)
	if retention <= 0 {
		retention = j.Retention
	}
	if retention <= 0 {
		return 0, tracker.End(fmt.Errorf("idempotency cleanup: retention must be positive: %w", asynq.SkipRetry))
	}
	removed, err := j.Store.Cleanup(ctx, retention)
	if err != nil {
		j.log().Error("prune idempotency keys", slog.Any("error", err))
		return 0, tracker.End(err)
	}
	j.log().Info("idempotency keys pruned", slog.Int64("removed", removed), slog.Duration("retention", retention))
	return removed, tracker.End(nil)
}

func (j *IdempotencyCleanupJob) metrics() *jobmetrics.Metrics {
	if j != nil && j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *IdempotencyCleanupJob) log() *slog.Logger {
	if j != nil && j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskIdempotencyCleanup))
	}
	return slog.Default().With(slog.String("job", TaskIdempotencyCleanup))
}
