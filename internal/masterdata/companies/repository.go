package companies

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/ledger/internal/platform/db"
	"github.com/odyssey-erp/ledger/internal/shared"
)

// Repository persists companies.
type Repository interface {
	Create(ctx context.Context, company Company) (Company, error)
	Get(ctx context.Context, id string) (Company, error)
	ListByOrganization(ctx context.Context, organizationID string) ([]Company, error)
	ListAll(ctx context.Context) ([]Company, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a pgx backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

// Columns selected by every company query, in Scan order.
const Columns = `id, organization_id, name, timezone, platform, base_period, fiscal_year_start_month,
fiscal_year_start_day, multi_currency, home_currency, created_at, updated_at`

func (r *repository) Create(ctx context.Context, c Company) (Company, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO companies (id, organization_id, name, timezone, platform, base_period,
fiscal_year_start_month, fiscal_year_start_day, multi_currency, home_currency)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10) RETURNING `+Columns,
		c.ID, c.OrganizationID, c.Name, c.Timezone, c.Platform, c.BasePeriod,
		c.FiscalYearStartMonth, c.FiscalYearStartDay, c.MultiCurrency, c.HomeCurrency)
	created, err := Scan(row)
	if err != nil {
		switch {
		case db.IsUniqueViolation(err, "companies_org_name_key"):
			return Company{}, shared.Conflictf("company %q already exists in organization %s", c.Name, c.OrganizationID)
		case db.IsForeignKeyViolation(err):
			return Company{}, shared.NotFoundf("organization %s", c.OrganizationID)
		}
		return Company{}, err
	}
	return created, nil
}

func (r *repository) Get(ctx context.Context, id string) (Company, error) {
	c, err := Scan(r.pool.QueryRow(ctx, `SELECT `+Columns+` FROM companies WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Company{}, shared.NotFoundf("company %s", id)
		}
		return Company{}, err
	}
	return c, nil
}

func (r *repository) ListByOrganization(ctx context.Context, organizationID string) ([]Company, error) {
	return r.list(ctx, `SELECT `+Columns+` FROM companies WHERE organization_id=$1 ORDER BY name`, organizationID)
}

func (r *repository) ListAll(ctx context.Context) ([]Company, error) {
	return r.list(ctx, `SELECT `+Columns+` FROM companies ORDER BY organization_id, name`)
}

func (r *repository) list(ctx context.Context, query string, args ...any) ([]Company, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Company
	for rows.Next() {
		c, err := Scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Scan reads a company row selected with Columns. Other packages loading a
// company inside their own transaction reuse it.
func Scan(row pgx.Row) (Company, error) {
	var c Company
	err := row.Scan(&c.ID, &c.OrganizationID, &c.Name, &c.Timezone, &c.Platform, &c.BasePeriod,
		&c.FiscalYearStartMonth, &c.FiscalYearStartDay, &c.MultiCurrency, &c.HomeCurrency, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}
