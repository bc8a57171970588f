package journals

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/ledger/internal/accounting/dimensions"
	"github.com/odyssey-erp/ledger/internal/accounting/periods"
	ledgererrs "github.com/odyssey-erp/ledger/internal/accounting/shared"
	"github.com/odyssey-erp/ledger/internal/accounting/taxonomy"
	"github.com/odyssey-erp/ledger/internal/platform/db"
	"github.com/odyssey-erp/ledger/internal/shared"
)

// Repository exposes journal reads and the transactional boundary.
type Repository interface {
	Get(ctx context.Context, id string) (JournalEntry, error)
	List(ctx context.Context, filter ListFilter) ([]JournalEntry, int, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes methods available within a transaction.
type TxRepository interface {
	LockCompanySequence(ctx context.Context, companyID string) error
	NextDisplayID(ctx context.Context, companyID string) (int64, error)
	CompanyExists(ctx context.Context, id string) (bool, error)
	GetPeriod(ctx context.Context, id string) (periods.Period, error)
	GetAccounts(ctx context.Context, ids []string) ([]AccountRef, error)
	GetDimension(ctx context.Context, id string) (dimensions.Dimension, error)
	GetDimensionValue(ctx context.Context, id string) (dimensions.Value, error)
	InsertEntry(ctx context.Context, entry JournalEntry) (JournalEntry, error)
	InsertLines(ctx context.Context, lines []JournalLine) error
	InsertLineTag(ctx context.Context, tag dimensions.LineTag) (dimensions.LineTag, error)
	GetEntryForUpdate(ctx context.Context, id string) (JournalEntry, error)
	ListLines(ctx context.Context, entryID string) ([]JournalLine, error)
	UpdateEntry(ctx context.Context, entry JournalEntry) error
	DeleteLines(ctx context.Context, entryID string) error
	SoftDelete(ctx context.Context, id string, by *string, at time.Time) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a pgx backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const (
	entryColumns = `id, display_id, company_id, entry_type, transaction_date, period_id, status, description,
created_by, updated_by, deleted, created_at, updated_at`
	lineColumns = `id, company_id, entry_id, account_id, amount, description`
)

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *repository) Get(ctx context.Context, id string) (JournalEntry, error) {
	entry, err := getEntry(ctx, r.pool, `SELECT `+entryColumns+` FROM journal_entries WHERE id=$1 AND NOT deleted`, id)
	if err != nil {
		return JournalEntry{}, err
	}
	lines, err := listLines(ctx, r.pool, entry.ID)
	if err != nil {
		return JournalEntry{}, err
	}
	if err := attachTags(ctx, r.pool, lines); err != nil {
		return JournalEntry{}, err
	}
	entry.Lines = lines
	return entry, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]JournalEntry, int, error) {
	where := []string{"company_id=$1", "NOT deleted"}
	args := []any{filter.CompanyID}
	if filter.PeriodID != "" {
		args = append(args, filter.PeriodID)
		where = append(where, fmt.Sprintf("period_id=$%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status=$%d", len(args)))
	}
	clause := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM journal_entries WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	args = append(args, filter.PerPage, (filter.Page-1)*filter.PerPage)
	query := fmt.Sprintf(`SELECT %s FROM journal_entries WHERE %s ORDER BY display_id DESC LIMIT $%d OFFSET $%d`,
		entryColumns, clause, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (JournalEntry, error) {
		return scanEntry(row)
	})
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

// LockCompanySequence serialises display id allocation per company until the
// transaction ends.
func (r *txRepository) LockCompanySequence(ctx context.Context, companyID string) error {
	_, err := r.tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, shared.LedgerLockKey(companyID))
	return err
}

func (r *txRepository) NextDisplayID(ctx context.Context, companyID string) (int64, error) {
	var next int64
	err := r.tx.QueryRow(ctx, `SELECT COALESCE(MAX(display_id), 0) + 1 FROM journal_entries WHERE company_id=$1`, companyID).Scan(&next)
	return next, err
}

func (r *txRepository) CompanyExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM companies WHERE id=$1)`, id).Scan(&exists)
	return exists, err
}

func (r *txRepository) GetPeriod(ctx context.Context, id string) (periods.Period, error) {
	p, err := periods.Scan(r.tx.QueryRow(ctx, `SELECT `+periods.Columns+` FROM periods WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return periods.Period{}, shared.NotFoundf("period %s", id)
		}
		return periods.Period{}, err
	}
	return p, nil
}

func (r *txRepository) GetAccounts(ctx context.Context, ids []string) ([]AccountRef, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.tx.Query(ctx, `SELECT id, company_id, active FROM accounts WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (AccountRef, error) {
		var ref AccountRef
		err := row.Scan(&ref.ID, &ref.CompanyID, &ref.Active)
		return ref, err
	})
}

func (r *txRepository) GetDimension(ctx context.Context, id string) (dimensions.Dimension, error) {
	dim, err := dimensions.ScanDimension(r.tx.QueryRow(ctx, `SELECT `+dimensions.DimensionColumns+` FROM dimensions WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dimensions.Dimension{}, shared.NotFoundf("dimension %s", id)
		}
		return dimensions.Dimension{}, err
	}
	return dim, nil
}

func (r *txRepository) GetDimensionValue(ctx context.Context, id string) (dimensions.Value, error) {
	v, err := dimensions.ScanValue(r.tx.QueryRow(ctx, `SELECT `+dimensions.ValueColumns+` FROM dimension_values WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dimensions.Value{}, shared.NotFoundf("dimension value %s", id)
		}
		return dimensions.Value{}, err
	}
	return v, nil
}

func (r *txRepository) InsertEntry(ctx context.Context, e JournalEntry) (JournalEntry, error) {
	created, err := scanEntry(r.tx.QueryRow(ctx, `INSERT INTO journal_entries
(id, display_id, company_id, entry_type, transaction_date, period_id, status, description, created_by, updated_by, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$11) RETURNING `+entryColumns,
		e.ID, e.DisplayID, e.CompanyID, string(e.EntryType), e.TransactionDate, e.PeriodID, string(e.Status),
		e.Description, e.CreatedBy, e.UpdatedBy, e.CreatedAt))
	if err != nil {
		if db.IsUniqueViolation(err, "journal_entries_company_display_key") {
			return JournalEntry{}, ledgererrs.ErrDisplayIDConflict
		}
		if db.IsForeignKeyViolation(err) {
			return JournalEntry{}, shared.NotFoundf("company or period for entry %s", e.ID)
		}
		return JournalEntry{}, err
	}
	return created, nil
}

func (r *txRepository) InsertLines(ctx context.Context, lines []JournalLine) error {
	if len(lines) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, l := range lines {
		batch.Queue(`INSERT INTO journal_lines (`+lineColumns+`) VALUES ($1,$2,$3,$4,$5,$6)`,
			l.ID, l.CompanyID, l.EntryID, l.AccountID, l.Amount, l.Description)
	}
	br := r.tx.SendBatch(ctx, batch)
	defer br.Close()
	for range lines {
		if _, err := br.Exec(); err != nil {
			if db.IsForeignKeyViolation(err) {
				return shared.NotFoundf("line account")
			}
			return err
		}
	}
	return nil
}

func (r *txRepository) InsertLineTag(ctx context.Context, tag dimensions.LineTag) (dimensions.LineTag, error) {
	return dimensions.InsertTag(ctx, r.tx, tag)
}

func (r *txRepository) GetEntryForUpdate(ctx context.Context, id string) (JournalEntry, error) {
	return getEntry(ctx, r.tx, `SELECT `+entryColumns+` FROM journal_entries WHERE id=$1 FOR UPDATE`, id)
}

func (r *txRepository) ListLines(ctx context.Context, entryID string) ([]JournalLine, error) {
	lines, err := listLines(ctx, r.tx, entryID)
	if err != nil {
		return nil, err
	}
	if err := attachTags(ctx, r.tx, lines); err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *txRepository) UpdateEntry(ctx context.Context, e JournalEntry) error {
	_, err := r.tx.Exec(ctx, `UPDATE journal_entries SET entry_type=$2, transaction_date=$3, period_id=$4, status=$5,
description=$6, updated_by=$7, updated_at=$8 WHERE id=$1`,
		e.ID, string(e.EntryType), e.TransactionDate, e.PeriodID, string(e.Status), e.Description, e.UpdatedBy, e.UpdatedAt)
	if err != nil && db.IsForeignKeyViolation(err) {
		return shared.NotFoundf("period for entry %s", e.ID)
	}
	return err
}

func (r *txRepository) DeleteLines(ctx context.Context, entryID string) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM journal_lines WHERE entry_id=$1`, entryID)
	return err
}

func (r *txRepository) SoftDelete(ctx context.Context, id string, by *string, at time.Time) error {
	_, err := r.tx.Exec(ctx, `UPDATE journal_entries SET deleted=TRUE, updated_by=$2, updated_at=$3 WHERE id=$1`, id, by, at)
	return err
}

func getEntry(ctx context.Context, q querier, query, id string) (JournalEntry, error) {
	e, err := scanEntry(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return JournalEntry{}, shared.NotFoundf("journal entry %s", id)
		}
		return JournalEntry{}, err
	}
	return e, nil
}

func listLines(ctx context.Context, q querier, entryID string) ([]JournalLine, error) {
	rows, err := q.Query(ctx, `SELECT `+lineColumns+` FROM journal_lines WHERE entry_id=$1 ORDER BY id`, entryID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (JournalLine, error) {
		var l JournalLine
		err := row.Scan(&l.ID, &l.CompanyID, &l.EntryID, &l.AccountID, &l.Amount, &l.Description)
		return l, err
	})
}

func attachTags(ctx context.Context, q querier, lines []JournalLine) error {
	if len(lines) == 0 {
		return nil
	}
	ids := make([]string, len(lines))
	index := make(map[string]int, len(lines))
	for i, l := range lines {
		ids[i] = l.ID
		index[l.ID] = i
	}
	rows, err := q.Query(ctx, `SELECT `+dimensions.TagColumns+` FROM journal_line_dimensions WHERE line_id = ANY($1) ORDER BY dimension_name`, ids)
	if err != nil {
		return err
	}
	tags, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (dimensions.LineTag, error) {
		return dimensions.ScanTag(row)
	})
	if err != nil {
		return err
	}
	for _, t := range tags {
		i := index[t.LineID]
		lines[i].Dimensions = append(lines[i].Dimensions, t)
	}
	return nil
}

func scanEntry(row pgx.Row) (JournalEntry, error) {
	var (
		e         JournalEntry
		entryType string
		status    string
	)
	err := row.Scan(&e.ID, &e.DisplayID, &e.CompanyID, &entryType, &e.TransactionDate, &e.PeriodID, &status,
		&e.Description, &e.CreatedBy, &e.UpdatedBy, &e.Deleted, &e.CreatedAt, &e.UpdatedAt)
	e.EntryType = taxonomy.EntryType(entryType)
	e.Status = EntryStatus(status)
	return e, err
}
