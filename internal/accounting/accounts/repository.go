package accounts

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/ledger/internal/masterdata/companies"
	"github.com/odyssey-erp/ledger/internal/platform/db"
	"github.com/odyssey-erp/ledger/internal/shared"
)

// Repository exposes read paths and the transactional boundary for accounts.
type Repository interface {
	Get(ctx context.Context, id string) (Account, error)
	ListByCompany(ctx context.Context, companyID string, includeInactive bool) ([]Account, error)
	ListChildren(ctx context.Context, parentID string) ([]Account, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes methods available within a transaction.
type TxRepository interface {
	GetCompany(ctx context.Context, id string) (companies.Company, error)
	GetAccount(ctx context.Context, id string) (Account, error)
	GetAccountForUpdate(ctx context.Context, id string) (Account, error)
	InsertAccount(ctx context.Context, account Account) (Account, error)
	ListChildren(ctx context.Context, parentID string) ([]Account, error)
	SetActive(ctx context.Context, id string, active bool) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a pgx backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const accountColumns = `id, company_id, platform, source_id, currency, fully_qualified_name, name, classification,
account_type, account_subtype, special_use, active, parent_id, created_at, updated_at`

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *repository) Get(ctx context.Context, id string) (Account, error) {
	return getAccount(ctx, r.pool, `SELECT `+accountColumns+` FROM accounts WHERE id=$1`, id)
}

func (r *repository) ListByCompany(ctx context.Context, companyID string, includeInactive bool) ([]Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE company_id=$1`
	if !includeInactive {
		query += ` AND active`
	}
	return listAccounts(ctx, r.pool, query+` ORDER BY fully_qualified_name`, companyID)
}

func (r *repository) ListChildren(ctx context.Context, parentID string) ([]Account, error) {
	return listChildren(ctx, r.pool, parentID)
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, pgx.TxOptions{IsoLevel: pgx.RepeatableRead}, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) GetCompany(ctx context.Context, id string) (companies.Company, error) {
	c, err := companies.Scan(r.tx.QueryRow(ctx, `SELECT `+companies.Columns+` FROM companies WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return companies.Company{}, shared.NotFoundf("company %s", id)
		}
		return companies.Company{}, err
	}
	return c, nil
}

func (r *txRepository) GetAccount(ctx context.Context, id string) (Account, error) {
	return getAccount(ctx, r.tx, `SELECT `+accountColumns+` FROM accounts WHERE id=$1`, id)
}

func (r *txRepository) GetAccountForUpdate(ctx context.Context, id string) (Account, error) {
	return getAccount(ctx, r.tx, `SELECT `+accountColumns+` FROM accounts WHERE id=$1 FOR UPDATE`, id)
}

func (r *txRepository) InsertAccount(ctx context.Context, a Account) (Account, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO accounts (id, company_id, platform, source_id, currency, fully_qualified_name, name,
classification, account_type, account_subtype, special_use, active, parent_id)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13) RETURNING `+accountColumns,
		a.ID, a.CompanyID, a.Platform, a.SourceID, a.Currency, a.FullyQualifiedName, a.Name,
		a.Classification, a.Type, a.Subtype, a.SpecialUse, a.Active, a.ParentID)
	inserted, err := scanAccount(row)
	if err != nil {
		if db.IsUniqueViolation(err, "accounts_company_fqn_active_key") {
			return Account{}, shared.Conflictf("account %q already exists", a.FullyQualifiedName)
		}
		return Account{}, err
	}
	return inserted, nil
}

func (r *txRepository) ListChildren(ctx context.Context, parentID string) ([]Account, error) {
	return listChildren(ctx, r.tx, parentID)
}

func (r *txRepository) SetActive(ctx context.Context, id string, active bool) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE accounts SET active=$2, updated_at=NOW() WHERE id=$1`, id, active)
	if err != nil {
		if db.IsUniqueViolation(err, "accounts_company_fqn_active_key") {
			return shared.Conflictf("account %s collides with another record of the same name", id)
		}
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.NotFoundf("account %s", id)
	}
	return nil
}

func getAccount(ctx context.Context, q querier, query, id string) (Account, error) {
	a, err := scanAccount(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.NotFoundf("account %s", id)
		}
		return Account{}, err
	}
	return a, nil
}

func listChildren(ctx context.Context, q querier, parentID string) ([]Account, error) {
	return listAccounts(ctx, q, `SELECT `+accountColumns+` FROM accounts WHERE parent_id=$1 ORDER BY name`, parentID)
}

func listAccounts(ctx context.Context, q querier, query string, args ...any) ([]Account, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.CompanyID, &a.Platform, &a.SourceID, &a.Currency, &a.FullyQualifiedName, &a.Name,
		&a.Classification, &a.Type, &a.Subtype, &a.SpecialUse, &a.Active, &a.ParentID, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}
