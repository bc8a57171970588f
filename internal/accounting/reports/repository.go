package reports

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/ledger/internal/accounting/periods"
	"github.com/odyssey-erp/ledger/internal/shared"
)

// AccountRef is the slice of an account the query surface needs.
type AccountRef struct {
	ID        string
	CompanyID string
	Currency  string
}

// Repository exposes the aggregate reads behind the query surface.
type Repository interface {
	GetPeriod(ctx context.Context, id string) (periods.Period, error)
	GetAccount(ctx context.Context, id string) (AccountRef, error)
	PeriodSums(ctx context.Context, periodID string) ([]AccountSum, error)
	SubtreeIDs(ctx context.Context, accountID string) ([]string, error)
	CumulativeBalance(ctx context.Context, companyID string, accountIDs []string, asOf periods.Period) (int64, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a pgx backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) GetPeriod(ctx context.Context, id string) (periods.Period, error) {
	p, err := periods.Scan(r.pool.QueryRow(ctx, `SELECT `+periods.Columns+` FROM periods WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return periods.Period{}, shared.NotFoundf("period %s", id)
		}
		return periods.Period{}, err
	}
	return p, nil
}

func (r *repository) GetAccount(ctx context.Context, id string) (AccountRef, error) {
	var a AccountRef
	err := r.pool.QueryRow(ctx, `SELECT id, company_id, currency FROM accounts WHERE id=$1`, id).Scan(&a.ID, &a.CompanyID, &a.Currency)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AccountRef{}, shared.NotFoundf("account %s", id)
		}
		return AccountRef{}, err
	}
	return a, nil
}

func (r *repository) PeriodSums(ctx context.Context, periodID string) ([]AccountSum, error) {
	rows, err := r.pool.Query(ctx, `SELECT COALESCE(l.account_id, ''), COALESCE(a.fully_qualified_name, ''),
       COALESCE(a.currency, c.home_currency), SUM(l.amount)::BIGINT
FROM journal_lines l
JOIN journal_entries e ON e.id = l.entry_id
JOIN companies c ON c.id = e.company_id
LEFT JOIN accounts a ON a.id = l.account_id
WHERE e.period_id = $1 AND e.status = 'Posted' AND NOT e.deleted
GROUP BY 1, 2, 3`, periodID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (AccountSum, error) {
		var s AccountSum
		err := row.Scan(&s.AccountID, &s.FullyQualifiedName, &s.Currency, &s.Balance)
		return s, err
	})
}

// SubtreeIDs returns the account and all descendants. UNION drops revisited
// rows, so a corrupt cycle terminates.
func (r *repository) SubtreeIDs(ctx context.Context, accountID string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `WITH RECURSIVE tree AS (
    SELECT id FROM accounts WHERE id = $1
    UNION
    SELECT a.id FROM accounts a JOIN tree t ON a.parent_id = t.id
)
SELECT id FROM tree`, accountID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (r *repository) CumulativeBalance(ctx context.Context, companyID string, accountIDs []string, asOf periods.Period) (int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(l.amount), 0)::BIGINT
FROM journal_lines l
JOIN journal_entries e ON e.id = l.entry_id
JOIN periods p ON p.id = e.period_id
WHERE e.company_id = $1 AND l.account_id = ANY($2)
  AND e.status = 'Posted' AND NOT e.deleted
  AND p.ends_on <= $3`, companyID, accountIDs, asOf.EndsOn).Scan(&total)
	return total, err
}
