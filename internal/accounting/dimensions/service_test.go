package dimensions

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	ledgererrs "github.com/odyssey-erp/ledger/internal/accounting/shared"
	"github.com/odyssey-erp/ledger/internal/shared"
)

type memoryRepo struct {
	companies map[string]bool
	dims      map[string]Dimension
	values    map[string]Value
	lines     map[string]LineRef
	tags      []LineTag
	// uncommitted holds tags written by another transaction that this one
	// cannot see yet but still collides with on insert.
	uncommitted []LineTag
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		companies: map[string]bool{"co": true, "other": true},
		dims:      make(map[string]Dimension),
		values:    make(map[string]Value),
		lines: map[string]LineRef{
			"line-1": {ID: "line-1", CompanyID: "co"},
			"line-x": {ID: "line-x", CompanyID: "other"},
		},
	}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) GetDimension(ctx context.Context, id string) (Dimension, error) {
	d, ok := r.dims[id]
	if !ok {
		return Dimension{}, shared.NotFoundf("dimension %s", id)
	}
	return d, nil
}

func (r *memoryRepo) ListByCompany(ctx context.Context, companyID string) ([]Dimension, error) {
	var out []Dimension
	for _, d := range r.dims {
		if d.CompanyID == companyID {
			d.Values, _ = r.ListValues(ctx, d.ID)
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memoryRepo) ListValues(ctx context.Context, dimensionID string) ([]Value, error) {
	var out []Value
	for _, v := range r.values {
		if v.DimensionID == dimensionID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	return out, nil
}

func (r *memoryRepo) FindByName(ctx context.Context, companyID, name string) (Dimension, error) {
	for _, d := range r.dims {
		if d.CompanyID == companyID && d.Name == name {
			return d, nil
		}
	}
	return Dimension{}, shared.NotFoundf("dimension %q", name)
}

func (r *memoryRepo) ListLineTags(ctx context.Context, lineID string) ([]LineTag, error) {
	var out []LineTag
	for _, t := range r.tags {
		if t.LineID == lineID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (tx *memoryTx) CompanyExists(ctx context.Context, id string) (bool, error) {
	return tx.repo.companies[id], nil
}

func (tx *memoryTx) GetDimension(ctx context.Context, id string) (Dimension, error) {
	return tx.repo.GetDimension(ctx, id)
}

func (tx *memoryTx) GetValueForUpdate(ctx context.Context, id string) (Value, error) {
	v, ok := tx.repo.values[id]
	if !ok {
		return Value{}, shared.NotFoundf("dimension value %s", id)
	}
	return v, nil
}

func (tx *memoryTx) GetLineForUpdate(ctx context.Context, lineID string) (LineRef, error) {
	l, ok := tx.repo.lines[lineID]
	if !ok {
		return LineRef{}, shared.NotFoundf("journal line %s", lineID)
	}
	return l, nil
}

func (tx *memoryTx) ListLineTags(ctx context.Context, lineID string) ([]LineTag, error) {
	return tx.repo.ListLineTags(ctx, lineID)
}

func (tx *memoryTx) InsertDimension(ctx context.Context, dim Dimension) (Dimension, error) {
	for _, d := range tx.repo.dims {
		if d.CompanyID == dim.CompanyID && d.Name == dim.Name {
			return Dimension{}, shared.Conflictf("dimension %q already exists", dim.Name)
		}
	}
	tx.repo.dims[dim.ID] = dim
	return dim, nil
}

func (tx *memoryTx) InsertValue(ctx context.Context, value Value) (Value, error) {
	for _, v := range tx.repo.values {
		if v.DimensionID == value.DimensionID && v.Value == value.Value {
			return Value{}, shared.Conflictf("value %q already exists", value.Value)
		}
	}
	tx.repo.values[value.ID] = value
	return value, nil
}

func (tx *memoryTx) SetValueActive(ctx context.Context, id string, active bool) error {
	v := tx.repo.values[id]
	v.Active = active
	tx.repo.values[id] = v
	return nil
}

func (tx *memoryTx) InsertLineTag(ctx context.Context, tag LineTag) (LineTag, error) {
	for _, t := range append(tx.repo.tags, tx.repo.uncommitted...) {
		if t.LineID == tag.LineID && t.DimensionID == tag.DimensionID {
			return ResolveTagConflict(tag, t)
		}
	}
	tx.repo.tags = append(tx.repo.tags, tag)
	return tag, nil
}

func newTestService() (*Service, *memoryRepo) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	n := 0
	svc.WithIDs(func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	})
	return svc, repo
}

func seedDepartment(t *testing.T, svc *Service) (Dimension, Value, Value) {
	t.Helper()
	ctx := context.Background()
	dim, err := svc.CreateDimension(ctx, CreateDimensionInput{CompanyID: "co", Name: "Department"})
	require.NoError(t, err)
	sales, err := svc.AddValue(ctx, dim.ID, "Sales")
	require.NoError(t, err)
	ops, err := svc.AddValue(ctx, dim.ID, "Ops")
	require.NoError(t, err)
	return dim, sales, ops
}

func TestTagLineIdempotentAndExclusive(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	dim, sales, ops := seedDepartment(t, svc)

	first, err := svc.TagLine(ctx, "line-1", TagInput{DimensionID: dim.ID, DimensionValueID: sales.ID})
	require.NoError(t, err)
	require.Equal(t, "Department", first.DimensionName)
	require.Equal(t, "Sales", first.Value)

	again, err := svc.TagLine(ctx, "line-1", TagInput{DimensionID: dim.ID, DimensionValueID: sales.ID})
	require.NoError(t, err)
	require.Equal(t, first.ID, again.ID)
	require.Len(t, repo.tags, 1)

	_, err = svc.TagLine(ctx, "line-1", TagInput{DimensionID: dim.ID, DimensionValueID: ops.ID})
	var dup *ledgererrs.DuplicateDimensionError
	require.True(t, errors.As(err, &dup))
	require.Equal(t, sales.ID, dup.ExistingValueID)
	require.Len(t, repo.tags, 1)
}

func TestTagLineConcurrentSameValueIsIdempotent(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	dim, sales, ops := seedDepartment(t, svc)

	winner := LineTag{
		ID: "tag-winner", CompanyID: "co", LineID: "line-1", DimensionID: dim.ID,
		DimensionValueID: sales.ID, DimensionName: "Department", Value: "Sales",
	}
	repo.uncommitted = []LineTag{winner}

	got, err := svc.TagLine(ctx, "line-1", TagInput{DimensionID: dim.ID, DimensionValueID: sales.ID})
	require.NoError(t, err)
	require.Equal(t, winner, got)
	require.Empty(t, repo.tags)

	_, err = svc.TagLine(ctx, "line-1", TagInput{DimensionID: dim.ID, DimensionValueID: ops.ID})
	var dup *ledgererrs.DuplicateDimensionError
	require.True(t, errors.As(err, &dup))
	require.Equal(t, sales.ID, dup.ExistingValueID)
}

func TestTagLineRejectsInvalidValues(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	dim, sales, _ := seedDepartment(t, svc)

	region, err := svc.CreateDimension(ctx, CreateDimensionInput{CompanyID: "co", Name: "Region"})
	require.NoError(t, err)
	_, err = svc.TagLine(ctx, "line-1", TagInput{DimensionID: region.ID, DimensionValueID: sales.ID})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.TagLine(ctx, "line-x", TagInput{DimensionID: dim.ID, DimensionValueID: sales.ID})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.DeactivateValue(ctx, sales.ID)
	require.NoError(t, err)
	_, err = svc.TagLine(ctx, "line-1", TagInput{DimensionID: dim.ID, DimensionValueID: sales.ID})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.TagLine(ctx, "missing", TagInput{DimensionID: dim.ID, DimensionValueID: sales.ID})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDimensionManagement(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	dim, sales, _ := seedDepartment(t, svc)

	_, err := svc.CreateDimension(ctx, CreateDimensionInput{CompanyID: "co", Name: "Department"})
	require.ErrorIs(t, err, shared.ErrConflict)
	_, err = svc.CreateDimension(ctx, CreateDimensionInput{CompanyID: "ghost", Name: "Department"})
	require.ErrorIs(t, err, shared.ErrNotFound)
	_, err = svc.AddValue(ctx, dim.ID, "Sales")
	require.ErrorIs(t, err, shared.ErrConflict)
	_, err = svc.AddValue(ctx, dim.ID, " ")
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.DeactivateValue(ctx, sales.ID)
	require.NoError(t, err)
	active, err := svc.ActiveValues(ctx, "co", "Department")
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, "Ops", active[0].Value)

	none, err := svc.ActiveValues(ctx, "co", "Vendor")
	require.NoError(t, err)
	require.Empty(t, none)

	reactivated, err := svc.ActivateValue(ctx, sales.ID)
	require.NoError(t, err)
	require.True(t, reactivated.Active)

	dims, err := svc.List(ctx, "co")
	require.NoError(t, err)
	require.Len(t, dims, 1)
	require.Len(t, dims[0].Values, 2)

	got, err := svc.Get(ctx, dim.ID)
	require.NoError(t, err)
	require.Len(t, got.Values, 2)
}
