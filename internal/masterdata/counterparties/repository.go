package counterparties

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/ledger/internal/platform/db"
	"github.com/odyssey-erp/ledger/internal/shared"
)

// Repository exposes counterparty reads and the transactional boundary.
type Repository interface {
	List(ctx context.Context, companyID string, kind Kind) ([]Counterparty, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes methods available within a transaction.
type TxRepository interface {
	ListForUpdate(ctx context.Context, companyID string, kind Kind) ([]Counterparty, error)
	Insert(ctx context.Context, c Counterparty) error
	SetActive(ctx context.Context, kind Kind, id string, active bool, at time.Time) error
	Delete(ctx context.Context, kind Kind, id string) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a pgx backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const columns = `id, company_id, display_name, active, created_at, updated_at`

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *repository) List(ctx context.Context, companyID string, kind Kind) ([]Counterparty, error) {
	return list(ctx, r.pool, kind, `SELECT `+columns+` FROM `+kind.table()+` WHERE company_id=$1 ORDER BY display_name, active DESC`, companyID)
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, pgx.TxOptions{IsoLevel: pgx.RepeatableRead}, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) ListForUpdate(ctx context.Context, companyID string, kind Kind) ([]Counterparty, error) {
	return list(ctx, r.tx, kind, `SELECT `+columns+` FROM `+kind.table()+` WHERE company_id=$1 ORDER BY display_name FOR UPDATE`, companyID)
}

func (r *txRepository) Insert(ctx context.Context, c Counterparty) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO `+c.Kind.table()+` (id, company_id, display_name, active, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$5)`, c.ID, c.CompanyID, c.DisplayName, c.Active, c.CreatedAt)
	if err != nil && db.IsUniqueViolation(err, "") {
		return shared.Conflictf("%s %q already exists", c.Kind, c.DisplayName)
	}
	return err
}

func (r *txRepository) SetActive(ctx context.Context, kind Kind, id string, active bool, at time.Time) error {
	_, err := r.tx.Exec(ctx, `UPDATE `+kind.table()+` SET active=$2, updated_at=$3 WHERE id=$1`, id, active, at)
	if err != nil && db.IsUniqueViolation(err, "") {
		return shared.Conflictf("%s %s collides with an existing row", kind, id)
	}
	return err
}

func (r *txRepository) Delete(ctx context.Context, kind Kind, id string) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM `+kind.table()+` WHERE id=$1`, id)
	return err
}

func list(ctx context.Context, q querier, kind Kind, query string, args ...any) ([]Counterparty, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Counterparty, error) {
		c := Counterparty{Kind: kind}
		err := row.Scan(&c.ID, &c.CompanyID, &c.DisplayName, &c.Active, &c.CreatedAt, &c.UpdatedAt)
		return c, err
	})
}
