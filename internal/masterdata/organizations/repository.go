package organizations

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/ledger/internal/platform/db"
	"github.com/odyssey-erp/ledger/internal/shared"
)

// Repository persists organizations.
type Repository interface {
	Create(ctx context.Context, org Organization) (Organization, error)
	Get(ctx context.Context, id string) (Organization, error)
	List(ctx context.Context) ([]Organization, error)
	Rename(ctx context.Context, id, name string) (Organization, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a pgx backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const orgColumns = `id, name, created_at, updated_at`

func (r *repository) Create(ctx context.Context, org Organization) (Organization, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO organizations (id, name) VALUES ($1, $2) RETURNING `+orgColumns, org.ID, org.Name)
	created, err := scanOrganization(row)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return Organization{}, shared.Conflictf("organization %s already exists", org.ID)
		}
		return Organization{}, err
	}
	return created, nil
}

func (r *repository) Get(ctx context.Context, id string) (Organization, error) {
	org, err := scanOrganization(r.pool.QueryRow(ctx, `SELECT `+orgColumns+` FROM organizations WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Organization{}, shared.NotFoundf("organization %s", id)
		}
		return Organization{}, err
	}
	return org, nil
}

func (r *repository) List(ctx context.Context) ([]Organization, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+orgColumns+` FROM organizations ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var orgs []Organization
	for rows.Next() {
		org, err := scanOrganization(rows)
		if err != nil {
			return nil, err
		}
		orgs = append(orgs, org)
	}
	return orgs, rows.Err()
}

func (r *repository) Rename(ctx context.Context, id, name string) (Organization, error) {
	row := r.pool.QueryRow(ctx, `UPDATE organizations SET name=$2, updated_at=NOW() WHERE id=$1 RETURNING `+orgColumns, id, name)
	org, err := scanOrganization(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Organization{}, shared.NotFoundf("organization %s", id)
		}
		return Organization{}, err
	}
	return org, nil
}

func scanOrganization(row pgx.Row) (Organization, error) {
	var org Organization
	err := row.Scan(&org.ID, &org.Name, &org.CreatedAt, &org.UpdatedAt)
	return org, err
}
