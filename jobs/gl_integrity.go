package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/ledger/internal/accounting/periods"
	"github.com/odyssey-erp/ledger/internal/accounting/reports"
	ledgererrs "github.com/odyssey-erp/ledger/internal/accounting/shared"
	jobmetrics "github.com/odyssey-erp/ledger/internal/jobs"
)

const integrityParallelism = 4

// PeriodLister lists the periods of a company.
type PeriodLister interface {
	List(ctx context.Context, companyID string) ([]periods.Period, error)
}

// BalanceVerifier recomputes a period's trial balance without the cache.
type BalanceVerifier interface {
	VerifyPeriod(ctx context.Context, period periods.Period) (reports.TrialBalance, error)
}

// Imbalance describes one period whose posted lines do not net to zero.
type Imbalance struct {
	CompanyID string `json:"company_id"`
	PeriodID  string `json:"period_id"`
	Period    string `json:"period"`
	Total     int64  `json:"total"`
}

// IntegrityJob checks that posted entries balance in every period.
type IntegrityJob struct {
	Periods   PeriodLister
	Reports   BalanceVerifier
	Companies CompanyLister
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewIntegrityJob constructs the job handler.
func NewIntegrityJob(ps PeriodLister, verifier BalanceVerifier, comps CompanyLister, logger *slog.Logger, metrics *jobmetrics.Metrics) *IntegrityJob {
	return &IntegrityJob{Periods: ps, Reports: verifier, Companies: comps, Logger: logger, Metrics: metrics}
}

// Handle executes a TaskLedgerIntegrity task. Imbalances are reported, not retried.
func (j *IntegrityJob) Handle(ctx context.Context, task *asynq.Task) error {
	if j == nil || j.Periods == nil || j.Reports == nil || j.Companies == nil {
		return errors.New("ledger integrity: dependencies not configured")
	}
	var payload IntegrityPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("ledger integrity payload: %v: %w", err, asynq.SkipRetry)
	}
	_, err := j.Run(ctx, payload.CompanyID)
	return err
}

// Run verifies every period in scope and returns the imbalances found.
func (j *IntegrityJob) Run(ctx context.Context, scope string) ([]Imbalance, error) {
	tracker := j.metrics().Track(TaskLedgerIntegrity)
	found, err := j.run(ctx, scope)
	return found, tracker.End(err)
}

func (j *IntegrityJob) run(ctx context.Context, scope string) ([]Imbalance, error) {
	ids, err := resolveCompanies(ctx, j.Companies, scope)
	if err != nil {
		return nil, err
	}
	var all []Imbalance
	for _, companyID := range ids {
		found, err := j.checkCompany(ctx, companyID)
		if err != nil {
			j.log().Error("verify company", slog.String("company_id", companyID), slog.Any("error", err))
			return all, err
		}
		j.metrics().AddOutOfBalance(companyID, len(found))
		all = append(all, found...)
	}
	for _, imb := range all {
		j.log().Error("period out of balance",
			slog.String("company_id", imb.CompanyID),
			slog.String("period_id", imb.PeriodID),
			slog.String("period", imb.Period),
			slog.Int64("total", imb.Total))
	}
	j.log().Info("ledger integrity checked", slog.Int("companies", len(ids)), slog.Int("imbalances", len(all)))
	return all, nil
}

func (j *IntegrityJob) checkCompany(ctx context.Context, companyID string) ([]Imbalance, error) {
	ps, err := j.Periods.List(ctx, companyID)
	if err != nil {
		return nil, err
	}
	var (
		mu    sync.Mutex
		found []Imbalance
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(integrityParallelism)
	for _, p := range ps {
		g.Go(func() error {
			_, err := j.Reports.VerifyPeriod(gctx, p)
			var oob *ledgererrs.OutOfBalanceError
			switch {
			case err == nil:
				return nil
			case errors.As(err, &oob):
				mu.Lock()
				found = append(found, Imbalance{CompanyID: companyID, PeriodID: p.ID, Period: p.DisplayName, Total: oob.Total})
				mu.Unlock()
				return nil
			default:
				return fmt.Errorf("period %s: %w", p.ID, err)
			}
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sort.Slice(found, func(a, b int) bool { return found[a].PeriodID < found[b].PeriodID })
	return found, nil
}

func (j *IntegrityJob) metrics() *jobmetrics.Metrics {
	if j != nil && j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *IntegrityJob) log() *slog.Logger {
	if j != nil && j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskLedgerIntegrity))
	}
	return slog.Default().With(slog.String("job", TaskLedgerIntegrity))
}
