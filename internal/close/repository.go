package close

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/ledger/internal/platform/db"
	"github.com/odyssey-erp/ledger/internal/shared"
)

// Repository exposes task reads and the transactional boundary.
type Repository interface {
	Get(ctx context.Context, id string) (Task, error)
	List(ctx context.Context, filter ListFilter) ([]Task, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes methods available within a transaction.
type TxRepository interface {
	CompanyExists(ctx context.Context, id string) (bool, error)
	PeriodCompany(ctx context.Context, periodID string) (string, error)
	AccountCompany(ctx context.Context, accountID string) (string, error)
	Insert(ctx context.Context, task Task) (Task, error)
	GetForUpdate(ctx context.Context, id string) (Task, error)
	Update(ctx context.Context, task Task) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a pgx backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const taskColumns = `id, company_id, period_id, account_id, kind, title, assignee_id, reviewer_id, created_by,
due_on, frequency, status, resolution, completed_at, reviewed_at, created_at, updated_at`

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *repository) Get(ctx context.Context, id string) (Task, error) {
	return getTask(ctx, r.pool, `SELECT `+taskColumns+` FROM tasks WHERE id=$1`, id)
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Task, error) {
	where := []string{"company_id=$1"}
	args := []any{filter.CompanyID}
	if filter.PeriodID != "" {
		args = append(args, filter.PeriodID)
		where = append(where, fmt.Sprintf("period_id=$%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status=$%d", len(args)))
	}
	rows, err := r.pool.Query(ctx, `SELECT `+taskColumns+` FROM tasks WHERE `+strings.Join(where, " AND ")+
		` ORDER BY due_on NULLS LAST, created_at`, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Task, error) {
		return scanTask(row)
	})
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, pgx.TxOptions{IsoLevel: pgx.RepeatableRead}, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) CompanyExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM companies WHERE id=$1)`, id).Scan(&exists)
	return exists, err
}

func (r *txRepository) PeriodCompany(ctx context.Context, periodID string) (string, error) {
	return r.companyOf(ctx, `SELECT company_id FROM periods WHERE id=$1`, "period", periodID)
}

func (r *txRepository) AccountCompany(ctx context.Context, accountID string) (string, error) {
	return r.companyOf(ctx, `SELECT company_id FROM accounts WHERE id=$1`, "account", accountID)
}

func (r *txRepository) companyOf(ctx context.Context, query, entity, id string) (string, error) {
	var companyID string
	if err := r.tx.QueryRow(ctx, query, id).Scan(&companyID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", shared.NotFoundf("%s %s", entity, id)
		}
		return "", err
	}
	return companyID, nil
}

func (r *txRepository) Insert(ctx context.Context, t Task) (Task, error) {
	created, err := scanTask(r.tx.QueryRow(ctx, `INSERT INTO tasks (id, company_id, period_id, account_id, kind, title,
assignee_id, reviewer_id, created_by, due_on, frequency, status, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$13) RETURNING `+taskColumns,
		t.ID, t.CompanyID, t.PeriodID, t.AccountID, string(t.Kind), t.Title, t.AssigneeID, t.ReviewerID, t.CreatedBy,
		t.DueOn, string(t.Frequency), string(t.Status), t.CreatedAt))
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return Task{}, shared.NotFoundf("user referenced by task")
		}
		return Task{}, err
	}
	return created, nil
}

func (r *txRepository) GetForUpdate(ctx context.Context, id string) (Task, error) {
	return getTask(ctx, r.tx, `SELECT `+taskColumns+` FROM tasks WHERE id=$1 FOR UPDATE`, id)
}

func (r *txRepository) Update(ctx context.Context, t Task) error {
	_, err := r.tx.Exec(ctx, `UPDATE tasks SET status=$2, resolution=$3, reviewer_id=$4, completed_at=$5, reviewed_at=$6,
updated_at=$7 WHERE id=$1`, t.ID, string(t.Status), t.Resolution, t.ReviewerID, t.CompletedAt, t.ReviewedAt, t.UpdatedAt)
	if err != nil && db.IsForeignKeyViolation(err) {
		return shared.NotFoundf("reviewer for task %s", t.ID)
	}
	return err
}

func getTask(ctx context.Context, q querier, query, id string) (Task, error) {
	t, err := scanTask(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Task{}, shared.NotFoundf("task %s", id)
		}
		return Task{}, err
	}
	return t, nil
}

func scanTask(row pgx.Row) (Task, error) {
	var (
		t                       Task
		kind, frequency, status string
	)
	err := row.Scan(&t.ID, &t.CompanyID, &t.PeriodID, &t.AccountID, &kind, &t.Title, &t.AssigneeID, &t.ReviewerID,
		&t.CreatedBy, &t.DueOn, &frequency, &status, &t.Resolution, &t.CompletedAt, &t.ReviewedAt, &t.CreatedAt, &t.UpdatedAt)
	t.Kind = TaskKind(kind)
	t.Frequency = Frequency(frequency)
	t.Status = TaskStatus(status)
	return t, err
}
