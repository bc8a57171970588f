package reports

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/ledger/internal/accounting/periods"
	ledgererrs "github.com/odyssey-erp/ledger/internal/accounting/shared"
	"github.com/odyssey-erp/ledger/internal/platform/cache"
	"github.com/odyssey-erp/ledger/internal/shared"
)

type memoryRepo struct {
	mu        sync.Mutex
	periods   map[string]periods.Period
	accounts  map[string]AccountRef
	parents   map[string]string
	sums      map[string][]AccountSum
	posted    map[string]map[string]int64
	sumCalls  atomic.Int32
	sumsDelay time.Duration
	started   chan struct{}
	release   chan struct{}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		periods: map[string]periods.Period{
			"jan":  {ID: "jan", CompanyID: "co", StartsOn: day(2025, 1, 1), EndsOn: day(2025, 1, 31)},
			"feb":  {ID: "feb", CompanyID: "co", StartsOn: day(2025, 2, 1), EndsOn: day(2025, 2, 28)},
			"xjan": {ID: "xjan", CompanyID: "other", StartsOn: day(2025, 1, 1), EndsOn: day(2025, 1, 31)},
		},
		accounts: map[string]AccountRef{
			"assets": {ID: "assets", CompanyID: "co", Currency: "USD"},
			"cash":   {ID: "cash", CompanyID: "co", Currency: "USD"},
			"bank":   {ID: "bank", CompanyID: "co", Currency: "USD"},
			"sales":  {ID: "sales", CompanyID: "co", Currency: "USD"},
		},
		parents: map[string]string{"cash": "assets", "bank": "assets"},
		sums: map[string][]AccountSum{
			"jan": {
				{AccountID: "sales", FullyQualifiedName: "Sales", Currency: "USD", Balance: -1500},
				{AccountID: "cash", FullyQualifiedName: "Assets:Cash", Currency: "USD", Balance: 1000},
				{AccountID: "bank", FullyQualifiedName: "Assets:Bank", Currency: "USD", Balance: 500},
			},
		},
		posted: map[string]map[string]int64{
			"jan": {"cash": 1000, "bank": 500, "sales": -1500},
			"feb": {"cash": 250, "sales": -250},
		},
	}
}

func (r *memoryRepo) GetPeriod(ctx context.Context, id string) (periods.Period, error) {
	p, ok := r.periods[id]
	if !ok {
		return periods.Period{}, shared.NotFoundf("period %s", id)
	}
	return p, nil
}

func (r *memoryRepo) GetAccount(ctx context.Context, id string) (AccountRef, error) {
	a, ok := r.accounts[id]
	if !ok {
		return AccountRef{}, shared.NotFoundf("account %s", id)
	}
	return a, nil
}

func (r *memoryRepo) PeriodSums(ctx context.Context, periodID string) ([]AccountSum, error) {
	r.sumCalls.Add(1)
	if r.sumsDelay > 0 {
		time.Sleep(r.sumsDelay)
	}
	if r.release != nil {
		r.started <- struct{}{}
		select {
		case <-r.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]AccountSum(nil), r.sums[periodID]...), nil
}

func (r *memoryRepo) SubtreeIDs(ctx context.Context, accountID string) ([]string, error) {
	ids := []string{accountID}
	for i := 0; i < len(ids); i++ {
		for child, parent := range r.parents {
			if parent == ids[i] {
				ids = append(ids, child)
			}
		}
	}
	return ids, nil
}

func (r *memoryRepo) CumulativeBalance(ctx context.Context, companyID string, accountIDs []string, asOf periods.Period) (int64, error) {
	var total int64
	for periodID, byAccount := range r.posted {
		if r.periods[periodID].EndsOn.After(asOf.EndsOn) {
			continue
		}
		for _, id := range accountIDs {
			total += byAccount[id]
		}
	}
	return total, nil
}

func newCachedService(t *testing.T, repo Repository) (*Service, *cache.Cache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	c := cache.New(client, time.Minute)
	return NewService(repo, c), c
}

func TestBuildTrialBalance(t *testing.T) {
	tb, err := BuildTrialBalance("co", "jan", []AccountSum{
		{AccountID: "sales", FullyQualifiedName: "Sales", Balance: -1000},
		{AccountID: "", Balance: 0},
		{AccountID: "cash", FullyQualifiedName: "Assets:Cash", Balance: 1000},
	})
	require.NoError(t, err)
	require.Len(t, tb.Rows, 3)
	require.Equal(t, "", tb.Rows[0].AccountID)
	require.Equal(t, "cash", tb.Rows[1].AccountID)
	require.Equal(t, map[string]int64{"": 0, "cash": 1000, "sales": -1000}, tb.Balances())

	_, err = BuildTrialBalance("co", "jan", []AccountSum{{AccountID: "cash", Balance: 10}})
	var oob *ledgererrs.OutOfBalanceError
	require.True(t, errors.As(err, &oob))
	require.Equal(t, int64(10), oob.Total)
	require.ErrorIs(t, err, ledgererrs.ErrLedgerOutOfBalance)
}

func TestTrialBalanceIsCachedUntilInvalidated(t *testing.T) {
	repo := newMemoryRepo()
	svc, c := newCachedService(t, repo)
	ctx := context.Background()

	tb, err := svc.TrialBalance(ctx, "jan")
	require.NoError(t, err)
	require.Equal(t, int64(0), tb.Total)
	require.Len(t, tb.Rows, 3)

	_, err = svc.TrialBalance(ctx, "jan")
	require.NoError(t, err)
	require.Equal(t, int32(1), repo.sumCalls.Load())

	require.NoError(t, c.Invalidate(ctx, "co"))
	_, err = svc.TrialBalance(ctx, "jan")
	require.NoError(t, err)
	require.Equal(t, int32(2), repo.sumCalls.Load())

	empty, err := svc.TrialBalance(ctx, "feb")
	require.NoError(t, err)
	require.Empty(t, empty.Rows)

	_, err = svc.TrialBalance(ctx, "missing")
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestTrialBalanceCollapsesConcurrentBuilds(t *testing.T) {
	repo := newMemoryRepo()
	repo.sumsDelay = 50 * time.Millisecond
	svc, _ := newCachedService(t, repo)

	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			_, err := svc.TrialBalance(context.Background(), "jan")
			return err
		})
	}
	require.NoError(t, g.Wait())
	require.Equal(t, int32(1), repo.sumCalls.Load())
}

func TestTrialBalanceSurvivesFirstCallerCancelling(t *testing.T) {
	repo := newMemoryRepo()
	repo.started = make(chan struct{}, 1)
	repo.release = make(chan struct{})
	svc, _ := newCachedService(t, repo)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.TrialBalance(firstCtx, "jan")
		firstErr <- err
	}()
	<-repo.started

	type result struct {
		tb  TrialBalance
		err error
	}
	second := make(chan result, 1)
	go func() {
		tb, err := svc.TrialBalance(context.Background(), "jan")
		second <- result{tb, err}
	}()

	cancelFirst()
	require.ErrorIs(t, <-firstErr, context.Canceled)

	close(repo.release)
	res := <-second
	require.NoError(t, res.err)
	require.Len(t, res.tb.Rows, 3)
	require.Equal(t, int32(1), repo.sumCalls.Load())
}

func TestTrialBalanceOutOfBalanceIsNotCached(t *testing.T) {
	repo := newMemoryRepo()
	repo.sums["jan"] = append(repo.sums["jan"], AccountSum{AccountID: "bank", Balance: 5})
	svc, _ := newCachedService(t, repo)
	ctx := context.Background()

	_, err := svc.TrialBalance(ctx, "jan")
	require.ErrorIs(t, err, ledgererrs.ErrLedgerOutOfBalance)
	_, err = svc.TrialBalance(ctx, "jan")
	require.ErrorIs(t, err, ledgererrs.ErrLedgerOutOfBalance)
	require.Equal(t, int32(2), repo.sumCalls.Load())
}

func TestAccountBalance(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	ctx := context.Background()

	bal, err := svc.AccountBalance(ctx, "cash", "jan", false)
	require.NoError(t, err)
	require.Equal(t, int64(1000), bal)

	bal, err = svc.AccountBalance(ctx, "cash", "feb", false)
	require.NoError(t, err)
	require.Equal(t, int64(1250), bal)

	bal, err = svc.AccountBalance(ctx, "assets", "feb", false)
	require.NoError(t, err)
	require.Equal(t, int64(0), bal)

	bal, err = svc.AccountBalance(ctx, "assets", "feb", true)
	require.NoError(t, err)
	require.Equal(t, int64(1750), bal)

	_, err = svc.AccountBalance(ctx, "cash", "xjan", false)
	require.ErrorIs(t, err, shared.ErrValidation)
	_, err = svc.AccountBalance(ctx, "ghost", "jan", false)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestWriteTrialBalanceCSV(t *testing.T) {
	tb, err := BuildTrialBalance("co", "jan", []AccountSum{
		{AccountID: "cash", FullyQualifiedName: "Assets:Cash", Currency: "USD", Balance: 123456},
		{AccountID: "sales", FullyQualifiedName: "Sales", Currency: "USD", Balance: -123456},
	})
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, WriteTrialBalanceCSV(&buf, tb))
	require.Equal(t, "Account ID,Account,Currency,Balance (minor),Balance\n"+
		"cash,Assets:Cash,USD,123456,1234.56\n"+
		"sales,Sales,USD,-123456,-1234.56\n"+
		",Total,,0,\n", buf.String())
}

func TestHandlerTrialBalance(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc)
	r := chi.NewRouter()
	h.MountRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports/trial-balance?period_id=jan", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"total":0`)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports/trial-balance?period_id=jan&format=csv", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/csv", rec.Header().Get("Content-Type"))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports/trial-balance", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports/account-balance?account_id=assets&as_of_period_id=feb&rollup=true", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"balance":1750`)
}
