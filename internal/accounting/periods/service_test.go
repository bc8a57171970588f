package periods

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/ledger/internal/accounting/taxonomy"
	"github.com/odyssey-erp/ledger/internal/masterdata/companies"
	"github.com/odyssey-erp/ledger/internal/shared"
)

type memoryRepo struct {
	companies map[string]companies.Company
	periods   map[string]Period
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		companies: map[string]companies.Company{
			"monthly":   {ID: "monthly", BasePeriod: taxonomy.BasePeriodMonth},
			"quarterly": {ID: "quarterly", BasePeriod: taxonomy.BasePeriodQuarter},
		},
		periods: make(map[string]Period),
	}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) Get(ctx context.Context, id string) (Period, error) {
	p, ok := r.periods[id]
	if !ok {
		return Period{}, shared.NotFoundf("period %s", id)
	}
	return p, nil
}

func (r *memoryRepo) ListByCompany(ctx context.Context, companyID string) ([]Period, error) {
	return r.filter(func(p Period) bool { return p.CompanyID == companyID }), nil
}

func (r *memoryRepo) FindByDate(ctx context.Context, companyID string, day time.Time) (Period, error) {
	matches := r.filter(func(p Period) bool { return p.CompanyID == companyID && p.Contains(day) })
	if len(matches) == 0 {
		return Period{}, shared.NotFoundf("no period covers %s", day)
	}
	return matches[0], nil
}

func (r *memoryRepo) filter(keep func(Period) bool) []Period {
	var out []Period
	for _, p := range r.periods {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsOn.Before(out[j].StartsOn) })
	return out
}

func (tx *memoryTx) GetCompany(ctx context.Context, id string) (companies.Company, error) {
	c, ok := tx.repo.companies[id]
	if !ok {
		return companies.Company{}, shared.NotFoundf("company %s", id)
	}
	return c, nil
}

func (tx *memoryTx) InsertPeriods(ctx context.Context, periods []Period) (int, error) {
	inserted := 0
	for _, p := range periods {
		clash := false
		for _, existing := range tx.repo.periods {
			if existing.CompanyID != p.CompanyID {
				continue
			}
			if existing.DisplayName == p.DisplayName || (existing.StartsOn.Equal(p.StartsOn) && existing.EndsOn.Equal(p.EndsOn)) {
				clash = true
				break
			}
		}
		if clash {
			continue
		}
		tx.repo.periods[p.ID] = p
		inserted++
	}
	return inserted, nil
}

func (tx *memoryTx) ListRange(ctx context.Context, companyID string, from, to time.Time) ([]Period, error) {
	return tx.repo.filter(func(p Period) bool {
		return p.CompanyID == companyID && !p.StartsOn.Before(from) && !p.EndsOn.After(to)
	}), nil
}

func (tx *memoryTx) GetForUpdate(ctx context.Context, id string) (Period, error) {
	return tx.repo.Get(ctx, id)
}

func (tx *memoryTx) MarkClosed(ctx context.Context, id string, at time.Time) error {
	p, ok := tx.repo.periods[id]
	if !ok {
		return shared.NotFoundf("period %s", id)
	}
	p.Status = PeriodStatusClosed
	p.ClosedAt = &at
	tx.repo.periods[id] = p
	return nil
}

type recordingAudit struct {
	logs []shared.AuditLog
}

func (a *recordingAudit) Record(ctx context.Context, log shared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

type countingMetrics struct {
	inserted int
}

func (m *countingMetrics) PeriodsGenerated(n int) { m.inserted += n }

func newTestService(now time.Time) (*Service, *memoryRepo, *recordingAudit, *countingMetrics) {
	repo := newMemoryRepo()
	audit := &recordingAudit{}
	metrics := &countingMetrics{}
	svc := NewService(repo, audit, metrics)
	svc.WithNow(func() time.Time { return now })
	n := 0
	svc.WithIDs(func() string {
		n++
		return fmt.Sprintf("p-%d", n)
	})
	return svc, repo, audit, metrics
}

func TestGenerateIsIdempotent(t *testing.T) {
	svc, repo, _, metrics := newTestService(date(2024, 6, 15))
	ctx := context.Background()

	first, err := svc.Generate(ctx, "monthly", 2024, 2024)
	require.NoError(t, err)
	require.Len(t, first, 12)
	require.Equal(t, 12, metrics.inserted)

	second, err := svc.Generate(ctx, "monthly", 2024, 2024)
	require.NoError(t, err)
	require.Len(t, second, 12)
	require.Len(t, repo.periods, 12)
	require.Equal(t, 12, metrics.inserted)
	for i := range first {
		require.Equal(t, first[i].ID, second[i].ID)
	}
}

func TestGenerateExtendsExistingRange(t *testing.T) {
	svc, repo, _, _ := newTestService(date(2024, 6, 15))
	ctx := context.Background()

	_, err := svc.Generate(ctx, "quarterly", 2024, 2024)
	require.NoError(t, err)
	all, err := svc.Generate(ctx, "quarterly", 2024, 2026)
	require.NoError(t, err)
	require.Len(t, all, 12)
	require.Len(t, repo.periods, 12)
	for i := 1; i < len(all); i++ {
		require.Equal(t, all[i-1].EndsOn.AddDate(0, 0, 1), all[i].StartsOn)
	}
}

func TestGenerateUnknownCompany(t *testing.T) {
	svc, _, _, _ := newTestService(time.Now())
	_, err := svc.Generate(context.Background(), "ghost", 2024, 2024)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestClosePeriod(t *testing.T) {
	now := date(2024, 6, 15)
	svc, _, audit, _ := newTestService(now)
	ctx := context.Background()

	generated, err := svc.Generate(ctx, "monthly", 2024, 2024)
	require.NoError(t, err)
	june := generated[5]
	require.Equal(t, PeriodStatusOpen, june.Status)

	closed, err := svc.Close(ctx, june.ID, "user-1")
	require.NoError(t, err)
	require.Equal(t, PeriodStatusClosed, closed.Status)
	require.NotNil(t, closed.ClosedAt)
	require.Len(t, audit.logs, 1)
	require.Equal(t, "period.close", audit.logs[0].Action)

	_, err = svc.Close(ctx, june.ID, "user-1")
	require.ErrorIs(t, err, shared.ErrInvalidTransition)

	// Periods that ended before today are generated closed already.
	_, err = svc.Close(ctx, generated[0].ID, "user-1")
	require.ErrorIs(t, err, shared.ErrInvalidTransition)

	_, err = svc.Close(ctx, "missing", "user-1")
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestFindByDate(t *testing.T) {
	svc, _, _, _ := newTestService(date(2025, 3, 10))
	ctx := context.Background()
	_, err := svc.Generate(ctx, "quarterly", 2025, 2025)
	require.NoError(t, err)

	p, err := svc.FindByDate(ctx, "quarterly", date(2025, 2, 15))
	require.NoError(t, err)
	require.Equal(t, "Q1 2025", p.DisplayName)

	_, err = svc.FindByDate(ctx, "quarterly", date(2026, 1, 1))
	require.ErrorIs(t, err, shared.ErrNotFound)
}
