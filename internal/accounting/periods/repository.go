package periods

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/ledger/internal/masterdata/companies"
	"github.com/odyssey-erp/ledger/internal/platform/db"
	"github.com/odyssey-erp/ledger/internal/shared"
)

// Repository exposes period reads and the transactional boundary.
type Repository interface {
	Get(ctx context.Context, id string) (Period, error)
	ListByCompany(ctx context.Context, companyID string) ([]Period, error)
	FindByDate(ctx context.Context, companyID string, day time.Time) (Period, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes methods available within a transaction.
type TxRepository interface {
	GetCompany(ctx context.Context, id string) (companies.Company, error)
	// InsertPeriods skips rows colliding with either uniqueness constraint and
	// reports how many were actually written.
	InsertPeriods(ctx context.Context, periods []Period) (int, error)
	ListRange(ctx context.Context, companyID string, from, to time.Time) ([]Period, error)
	GetForUpdate(ctx context.Context, id string) (Period, error)
	MarkClosed(ctx context.Context, id string, at time.Time) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a pgx backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

// Columns selected by every period query, in scan order.
const Columns = `id, company_id, display_name, starts_on, ends_on, target_close, status, closed_at, created_at, updated_at`

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *repository) Get(ctx context.Context, id string) (Period, error) {
	return getPeriod(ctx, r.pool, `SELECT `+Columns+` FROM periods WHERE id=$1`, id)
}

func (r *repository) ListByCompany(ctx context.Context, companyID string) ([]Period, error) {
	return listPeriods(ctx, r.pool, `SELECT `+Columns+` FROM periods WHERE company_id=$1 ORDER BY starts_on`, companyID)
}

// FindByDate returns the period covering the supplied date.
func (r *repository) FindByDate(ctx context.Context, companyID string, day time.Time) (Period, error) {
	p, err := Scan(r.pool.QueryRow(ctx, `SELECT `+Columns+` FROM periods
WHERE company_id=$1 AND $2::date BETWEEN starts_on AND ends_on ORDER BY starts_on LIMIT 1`, companyID, DateOf(day)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Period{}, shared.NotFoundf("no period covers %s", DateOf(day).Format(time.DateOnly))
		}
		return Period{}, err
	}
	return p, nil
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

func (r *txRepository) InsertPeriods(ctx context.Context, periods []Period) (int, error) {
	batch := &pgx.Batch{}
	for _, p := range periods {
		batch.Queue(`INSERT INTO periods (id, company_id, display_name, starts_on, ends_on, target_close, status)
VALUES ($1,$2,$3,$4,$5,$6,$7) ON CONFLICT DO NOTHING`,
			p.ID, p.CompanyID, p.DisplayName, p.StartsOn, p.EndsOn, p.TargetClose, p.Status)
	}
	results := r.tx.SendBatch(ctx, batch)
	inserted := 0
	for range periods {
		cmd, err := results.Exec()
		if err != nil {
			_ = results.Close()
			return 0, err
		}
		inserted += int(cmd.RowsAffected())
	}
	return inserted, results.Close()
}

func (r *txRepository) ListRange(ctx context.Context, companyID string, from, to time.Time) ([]Period, error) {
	return listPeriods(ctx, r.tx, `SELECT `+Columns+` FROM periods
WHERE company_id=$1 AND starts_on >= $2 AND ends_on <= $3 ORDER BY starts_on`, companyID, from, to)
}

func (r *txRepository) GetForUpdate(ctx context.Context, id string) (Period, error) {
	return getPeriod(ctx, r.tx, `SELECT `+Columns+` FROM periods WHERE id=$1 FOR UPDATE`, id)
}

func (r *txRepository) MarkClosed(ctx context.Context, id string, at time.Time) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE periods SET status=$2, closed_at=$3, updated_at=NOW() WHERE id=$1`, id, PeriodStatusClosed, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.NotFoundf("period %s", id)
	}
	return nil
}

func getPeriod(ctx context.Context, q querier, query, id string) (Period, error) {
	p, err := Scan(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Period{}, shared.NotFoundf("period %s", id)
		}
		return Period{}, err
	}
	return p, nil
}

func listPeriods(ctx context.Context, q querier, query string, args ...any) ([]Period, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Period
	for rows.Next() {
		p, err := Scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Scan reads a period row selected with Columns.
func Scan(row pgx.Row) (Period, error) {
	var p Period
	err := row.Scan(&p.ID, &p.CompanyID, &p.DisplayName, &p.StartsOn, &p.EndsOn, &p.TargetClose, &p.Status, &p.ClosedAt, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}
