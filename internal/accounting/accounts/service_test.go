package accounts

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	ledgererrs "github.com/odyssey-erp/ledger/internal/accounting/shared"
	"github.com/odyssey-erp/ledger/internal/accounting/taxonomy"
	"github.com/odyssey-erp/ledger/internal/masterdata/companies"
	"github.com/odyssey-erp/ledger/internal/shared"
)

type memoryRepo struct {
	companies map[string]companies.Company
	accounts  map[string]Account
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		companies: map[string]companies.Company{
			"co": {ID: "co", HomeCurrency: "USD"},
			"mc": {ID: "mc", HomeCurrency: "EUR", MultiCurrency: true},
		},
		accounts: make(map[string]Account),
	}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	snapshot := make(map[string]Account, len(r.accounts))
	for k, v := range r.accounts {
		snapshot[k] = v
	}
	if err := fn(ctx, &memoryTx{repo: r}); err != nil {
		r.accounts = snapshot
		return err
	}
	return nil
}

func (r *memoryRepo) Get(ctx context.Context, id string) (Account, error) {
	a, ok := r.accounts[id]
	if !ok {
		return Account{}, shared.NotFoundf("account %s", id)
	}
	return a, nil
}

func (r *memoryRepo) ListByCompany(ctx context.Context, companyID string, includeInactive bool) ([]Account, error) {
	var out []Account
	for _, a := range r.accounts {
		if a.CompanyID == companyID && (includeInactive || a.Active) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullyQualifiedName < out[j].FullyQualifiedName })
	return out, nil
}

func (r *memoryRepo) ListChildren(ctx context.Context, parentID string) ([]Account, error) {
	var out []Account
	for _, a := range r.accounts {
		if a.ParentID != nil && *a.ParentID == parentID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (tx *memoryTx) GetCompany(ctx context.Context, id string) (companies.Company, error) {
	c, ok := tx.repo.companies[id]
	if !ok {
		return companies.Company{}, shared.NotFoundf("company %s", id)
	}
	return c, nil
}

func (tx *memoryTx) GetAccount(ctx context.Context, id string) (Account, error) {
	return tx.repo.Get(ctx, id)
}

func (tx *memoryTx) GetAccountForUpdate(ctx context.Context, id string) (Account, error) {
	return tx.repo.Get(ctx, id)
}

func (tx *memoryTx) InsertAccount(ctx context.Context, a Account) (Account, error) {
	for _, existing := range tx.repo.accounts {
		if existing.CompanyID == a.CompanyID && existing.FullyQualifiedName == a.FullyQualifiedName && existing.Active == a.Active {
			return Account{}, shared.Conflictf("account %q already exists", a.FullyQualifiedName)
		}
	}
	tx.repo.accounts[a.ID] = a
	return a, nil
}

func (tx *memoryTx) ListChildren(ctx context.Context, parentID string) ([]Account, error) {
	return tx.repo.ListChildren(ctx, parentID)
}

func (tx *memoryTx) SetActive(ctx context.Context, id string, active bool) error {
	a, ok := tx.repo.accounts[id]
	if !ok {
		return shared.NotFoundf("account %s", id)
	}
	a.Active = active
	tx.repo.accounts[id] = a
	return nil
}

func newTestService() (*Service, *memoryRepo) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	n := 0
	svc.WithIDs(func() string {
		n++
		return fmt.Sprintf("acct-%d", n)
	})
	return svc, repo
}

func cashInput(name string, parent *string) CreateInput {
	return CreateInput{
		CompanyID:      "co",
		Classification: taxonomy.ClassificationAsset,
		Type:           taxonomy.TypeCurrentAsset,
		Subtype:        taxonomy.SubtypeCash,
		Name:           name,
		ParentID:       parent,
	}
}

func TestCreateAccountWithChild(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	cash, err := svc.Create(ctx, cashInput(" Cash ", nil))
	require.NoError(t, err)
	require.Equal(t, "Cash", cash.Name)
	require.Equal(t, "Cash", cash.FullyQualifiedName)
	require.Equal(t, "USD", cash.Currency)
	require.True(t, cash.Active)
	require.Equal(t, taxonomy.PlatformManual, cash.Platform)

	petty, err := svc.Create(ctx, cashInput("Petty", &cash.ID))
	require.NoError(t, err)
	require.Equal(t, "Cash:Petty", petty.FullyQualifiedName)
	require.Equal(t, cash.Classification, petty.Classification)
	require.Equal(t, cash.Type, petty.Type)
	require.Equal(t, cash.Subtype, petty.Subtype)
}

func TestCreateChildTypeMismatch(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	cash, err := svc.Create(ctx, cashInput("Cash", nil))
	require.NoError(t, err)

	in := cashInput("Truck", &cash.ID)
	in.Type = taxonomy.TypeFixedAsset
	in.Subtype = taxonomy.SubtypeVehicles
	_, err = svc.Create(ctx, in)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateAccountValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	bad := cashInput("Cash", nil)
	bad.Subtype = taxonomy.SubtypeChecking
	_, err := svc.Create(ctx, bad)
	require.ErrorIs(t, err, shared.ErrValidation)

	special := taxonomy.SpecialUseAccruedExpense
	withSpecial := cashInput("Cash", nil)
	withSpecial.SpecialUse = &special
	_, err = svc.Create(ctx, withSpecial)
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(ctx, cashInput("Cash:Drawer", nil))
	require.ErrorIs(t, err, shared.ErrValidation)

	missing := "nope"
	_, err = svc.Create(ctx, cashInput("Cash", &missing))
	require.ErrorIs(t, err, shared.ErrNotFound)

	foreign := cashInput("Cash", nil)
	foreign.Currency = "EUR"
	_, err = svc.Create(ctx, foreign)
	require.ErrorIs(t, err, shared.ErrValidation)

	multi := cashInput("Cash", nil)
	multi.CompanyID = "mc"
	multi.Currency = "usd"
	created, err := svc.Create(ctx, multi)
	require.NoError(t, err)
	require.Equal(t, "USD", created.Currency)
}

func TestCreateSpecialUseExpense(t *testing.T) {
	svc, _ := newTestService()
	special := taxonomy.SpecialUseAccruedExpense
	acct, err := svc.Create(context.Background(), CreateInput{
		CompanyID:      "co",
		Classification: taxonomy.ClassificationExpense,
		Type:           taxonomy.TypeExpense,
		Subtype:        taxonomy.SubtypeUtilities,
		Name:           "Accrued Utilities",
		SpecialUse:     &special,
	})
	require.NoError(t, err)
	require.Equal(t, special, *acct.SpecialUse)
}

func TestCreateDuplicateNameConflict(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	first, err := svc.Create(ctx, cashInput("Cash", nil))
	require.NoError(t, err)
	_, err = svc.Create(ctx, cashInput("Cash", nil))
	require.ErrorIs(t, err, shared.ErrConflict)

	// Name becomes reusable after deactivation.
	_, err = svc.Deactivate(ctx, first.ID)
	require.NoError(t, err)
	_, err = svc.Create(ctx, cashInput("Cash", nil))
	require.NoError(t, err)
}

func TestDeactivateCascades(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	root, err := svc.Create(ctx, cashInput("Cash", nil))
	require.NoError(t, err)
	mid, err := svc.Create(ctx, cashInput("Drawers", &root.ID))
	require.NoError(t, err)
	leaf, err := svc.Create(ctx, cashInput("Front", &mid.ID))
	require.NoError(t, err)

	changed, err := svc.Deactivate(ctx, root.ID)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{root.ID, mid.ID, leaf.ID}, changed)

	for _, a := range repo.accounts {
		if a.ParentID != nil {
			parent := repo.accounts[*a.ParentID]
			if !parent.Active {
				require.False(t, a.Active, "active child %s under inactive parent", a.ID)
			}
		}
	}

	_, err = svc.Create(ctx, cashInput("Back", &mid.ID))
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestActivateRequiresActiveParent(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	root, err := svc.Create(ctx, cashInput("Cash", nil))
	require.NoError(t, err)
	child, err := svc.Create(ctx, cashInput("Till", &root.ID))
	require.NoError(t, err)
	_, err = svc.Deactivate(ctx, root.ID)
	require.NoError(t, err)

	_, err = svc.Activate(ctx, child.ID)
	require.ErrorIs(t, err, shared.ErrValidation)

	reactivated, err := svc.Activate(ctx, root.ID)
	require.NoError(t, err)
	require.True(t, reactivated.Active)

	stillInactive, err := svc.Get(ctx, child.ID)
	require.NoError(t, err)
	require.False(t, stillInactive.Active)

	_, err = svc.Activate(ctx, child.ID)
	require.NoError(t, err)
}

func TestResolveChainAndDescendants(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	root, err := svc.Create(ctx, cashInput("Cash", nil))
	require.NoError(t, err)
	mid, err := svc.Create(ctx, cashInput("Drawers", &root.ID))
	require.NoError(t, err)
	leaf, err := svc.Create(ctx, cashInput("Front", &mid.ID))
	require.NoError(t, err)

	chain, err := svc.ResolveChain(ctx, leaf.ID)
	require.NoError(t, err)
	require.Len(t, chain, 2)
	require.Equal(t, mid.ID, chain[0].ID)
	require.Equal(t, root.ID, chain[1].ID)

	chain, err = svc.ResolveChain(ctx, root.ID)
	require.NoError(t, err)
	require.Empty(t, chain)

	desc, err := svc.Descendants(ctx, root.ID)
	require.NoError(t, err)
	require.Len(t, desc, 2)
	require.Equal(t, mid.ID, desc[0].ID)
	require.Equal(t, leaf.ID, desc[1].ID)
}

func TestResolveChainDetectsCycle(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	a := "a"
	b := "b"
	repo.accounts["a"] = Account{ID: "a", CompanyID: "co", ParentID: &b, Active: true}
	repo.accounts["b"] = Account{ID: "b", CompanyID: "co", ParentID: &a, Active: true}

	_, err := svc.ResolveChain(ctx, "a")
	var cycle *ledgererrs.CycleDetectedError
	require.True(t, errors.As(err, &cycle))
	require.Equal(t, "a", cycle.AccountID)
	require.ErrorIs(t, err, ledgererrs.ErrCycleDetected)

	_, err = svc.Descendants(ctx, "a")
	require.ErrorIs(t, err, ledgererrs.ErrCycleDetected)

	_, err = svc.Deactivate(ctx, "a")
	require.ErrorIs(t, err, ledgererrs.ErrCycleDetected)
	require.True(t, repo.accounts["a"].Active)
}

func TestListAccounts(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, cashInput("Cash", nil))
	require.NoError(t, err)
	closed, err := svc.Create(ctx, cashInput("Old", nil))
	require.NoError(t, err)
	_, err = svc.Deactivate(ctx, closed.ID)
	require.NoError(t, err)

	active, err := svc.List(ctx, "co", false)
	require.NoError(t, err)
	require.Len(t, active, 1)

	all, err := svc.List(ctx, "co", true)
	require.NoError(t, err)
	require.Len(t, all, 2)

	_, err = svc.List(ctx, "", false)
	require.ErrorIs(t, err, shared.ErrValidation)
}
