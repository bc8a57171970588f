package reports

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/ledger/internal/accounting/periods"
	"github.com/odyssey-erp/ledger/internal/platform/cache"
	"github.com/odyssey-erp/ledger/internal/shared"
)

const buildTimeout = 30 * time.Second

// Service answers trial balance and account balance queries.
type Service struct {
	repo  Repository
	cache *cache.Cache
	group singleflight.Group
}

// NewService builds the query surface. cache may be nil.
func NewService(repo Repository, cache *cache.Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// TrialBalance returns the net movement per account for one period, counting
// Posted, non-deleted entries only. Results are cached per company version and
// concurrent builds of the same report share one query.
func (s *Service) TrialBalance(ctx context.Context, periodID string) (TrialBalance, error) {
	period, err := s.repo.GetPeriod(ctx, periodID)
	if err != nil {
		return TrialBalance{}, err
	}
	key, err := s.cache.BuildKey(ctx, period.CompanyID, "tb", period.ID)
	if err != nil {
		return s.build(ctx, period)
	}
	ch := s.group.DoChan(key, func() (any, error) {
		// The build outlives any single caller so others waiting on key still
		// get a result when the first one goes away.
		buildCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), buildTimeout)
		defer cancel()
		var tb TrialBalance
		err := s.cache.FetchJSON(buildCtx, key, &tb, func(ctx context.Context) (any, error) {
			return s.build(ctx, period)
		})
		return tb, err
	})
	select {
	case <-ctx.Done():
		return TrialBalance{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return TrialBalance{}, res.Err
		}
		return res.Val.(TrialBalance), nil
	}
}

// VerifyPeriod rebuilds the trial balance from storage without the cache.
func (s *Service) VerifyPeriod(ctx context.Context, period periods.Period) (TrialBalance, error) {
	return s.build(ctx, period)
}

func (s *Service) build(ctx context.Context, period periods.Period) (TrialBalance, error) {
	sums, err := s.repo.PeriodSums(ctx, period.ID)
	if err != nil {
		return TrialBalance{}, err
	}
	return BuildTrialBalance(period.CompanyID, period.ID, sums)
}

// AccountBalance sums posted lines for the account across every period ending
// on or before the as-of period. With rollup the account's descendants are
// included.
func (s *Service) AccountBalance(ctx context.Context, accountID, asOfPeriodID string, rollup bool) (int64, error) {
	account, err := s.repo.GetAccount(ctx, accountID)
	if err != nil {
		return 0, err
	}
	period, err := s.repo.GetPeriod(ctx, asOfPeriodID)
	if err != nil {
		return 0, err
	}
	if period.CompanyID != account.CompanyID {
		return 0, shared.Validationf("period %s belongs to another company", period.ID)
	}
	ids := []string{account.ID}
	if rollup {
		if ids, err = s.repo.SubtreeIDs(ctx, account.ID); err != nil {
			return 0, err
		}
	}
	return s.repo.CumulativeBalance(ctx, account.CompanyID, ids, period)
}
