package organizations

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/ledger/internal/shared"
)

type memoryRepo struct {
	orgs map[string]Organization
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{orgs: make(map[string]Organization)}
}

func (r *memoryRepo) Create(ctx context.Context, org Organization) (Organization, error) {
	if _, ok := r.orgs[org.ID]; ok {
		return Organization{}, shared.Conflictf("organization %s already exists", org.ID)
	}
	r.orgs[org.ID] = org
	return org, nil
}

func (r *memoryRepo) Get(ctx context.Context, id string) (Organization, error) {
	org, ok := r.orgs[id]
	if !ok {
		return Organization{}, shared.NotFoundf("organization %s", id)
	}
	return org, nil
}

func (r *memoryRepo) List(ctx context.Context) ([]Organization, error) {
	out := make([]Organization, 0, len(r.orgs))
	for _, org := range r.orgs {
		out = append(out, org)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memoryRepo) Rename(ctx context.Context, id, name string) (Organization, error) {
	org, ok := r.orgs[id]
	if !ok {
		return Organization{}, shared.NotFoundf("organization %s", id)
	}
	org.Name = name
	r.orgs[id] = org
	return org, nil
}

func TestCreateDerivesSlug(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	org, err := svc.Create(ctx, CreateInput{Name: "  Acme Holdings, Inc.  "})
	require.NoError(t, err)
	require.Equal(t, "acme-holdings-inc", org.ID)
	require.Equal(t, "Acme Holdings, Inc.", org.Name)

	_, err = svc.Create(ctx, CreateInput{Name: "Acme Holdings Inc"})
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestCreateRejectsBadInput(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{Name: ""})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(ctx, CreateInput{ID: "Not A Slug", Name: "x"})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestRenameKeepsID(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()
	_, err := svc.Create(ctx, CreateInput{ID: "north", Name: "North"})
	require.NoError(t, err)

	org, err := svc.Rename(ctx, "north", "Northern Group")
	require.NoError(t, err)
	require.Equal(t, "north", org.ID)
	require.Equal(t, "Northern Group", org.Name)

	_, err = svc.Rename(ctx, "south", "x")
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestSlugify(t *testing.T) {
	require.Equal(t, "cafe-munchen", Slugify("Café München"))
	require.Equal(t, "a-b", Slugify("--A  b--"))
	require.Equal(t, "", Slugify("!!!"))
}
