package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/ledger/internal/accounting/periods"
	jobmetrics "github.com/odyssey-erp/ledger/internal/jobs"
	"github.com/odyssey-erp/ledger/internal/masterdata/companies"
)

// PeriodGenerator inserts missing fiscal periods for a company.
type PeriodGenerator interface {
	Generate(ctx context.Context, companyID string, startYear, endYear int) ([]periods.Period, error)
}

// CompanyLister enumerates companies for "all" scoped runs.
type CompanyLister interface {
	List(ctx context.Context, organizationID string) ([]companies.Company, error)
}

// PeriodsGenerateJob keeps every company's calendar one fiscal year ahead.
type PeriodsGenerateJob struct {
	Periods   PeriodGenerator
	Companies CompanyLister
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
	clock     func() time.Time
}

// NewPeriodsGenerateJob constructs the job handler.
func NewPeriodsGenerateJob(gen PeriodGenerator, comps CompanyLister, logger *slog.Logger, metrics *jobmetrics.Metrics) *PeriodsGenerateJob {
	return &PeriodsGenerateJob{Periods: gen, Companies: comps, Logger: logger, Metrics: metrics}
}

// WithClock overrides the internal clock for deterministic tests.
func (j *PeriodsGenerateJob) WithClock(clock func() time.Time) {
	if j != nil && clock != nil {
		j.clock = clock
	}
}

// Handle executes a TaskPeriodsGenerate task.
func (j *PeriodsGenerateJob) Handle(ctx context.Context, task *asynq.Task) error {
	if j == nil || j.Periods == nil || j.Companies == nil {
		return errors.New("periods generate: dependencies not configured")
	}
	var payload PeriodsGeneratePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("periods generate payload: %v: %w", err, asynq.SkipRetry)
	}
	_, err := j.Run(ctx, payload)
	return err
}

// Run generates periods for the payload scope and returns the number of
// periods now covering the requested years.
func (j *PeriodsGenerateJob) Run(ctx context.Context, payload PeriodsGeneratePayload) (int, error) {
	tracker := j.metrics().Track(TaskPeriodsGenerate)
	total, err := j.run(ctx, payload)
	return total, tracker.End(err)
}

func (j *PeriodsGenerateJob) run(ctx context.Context, payload PeriodsGeneratePayload) (int, error) {
	if payload.StartYear == 0 {
		payload.StartYear = j.now().Year()
	}
	if payload.EndYear == 0 {
		payload.EndYear = payload.StartYear + 1
	}
	ids, err := resolveCompanies(ctx, j.Companies, payload.CompanyID)
	if err != nil {
		j.log().Error("resolve companies", slog.String("company", payload.CompanyID), slog.Any("error", err))
		return 0, err
	}
	total := 0
	for _, id := range ids {
		out, err := j.Periods.Generate(ctx, id, payload.StartYear, payload.EndYear)
		if err != nil {
			j.log().Error("generate periods", slog.String("company_id", id), slog.Any("error", err))
			return total, err
		}
		total += len(out)
	}
	j.log().Info("fiscal calendars extended",
		slog.Int("companies", len(ids)),
		slog.Int("start_year", payload.StartYear),
		slog.Int("end_year", payload.EndYear),
		slog.Int("periods", total))
	return total, nil
}

func (j *PeriodsGenerateJob) metrics() *jobmetrics.Metrics {
	if j != nil && j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *PeriodsGenerateJob) log() *slog.Logger {
	if j != nil && j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskPeriodsGenerate))
	}
	return slog.Default().With(slog.String("job", TaskPeriodsGenerate))
}

func (j *PeriodsGenerateJob) now() time.Time {
	if j != nil && j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}

func resolveCompanies(ctx context.Context, lister CompanyLister, scope string) ([]string, error) {
	if scope != "" && scope != allCompanies {
		return []string{scope}, nil
	}
	comps, err := lister.List(ctx, "")
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(comps))
	for _, c := range comps {
		ids = append(ids, c.ID)
	}
	return ids, nil
}
