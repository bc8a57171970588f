package dimensions

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/ledger/internal/platform/db"
	"github.com/odyssey-erp/ledger/internal/shared"
)

// Repository exposes dimension reads and the transactional boundary.
type Repository interface {
	GetDimension(ctx context.Context, id string) (Dimension, error)
	ListByCompany(ctx context.Context, companyID string) ([]Dimension, error)
	ListValues(ctx context.Context, dimensionID string) ([]Value, error)
	FindByName(ctx context.Context, companyID, name string) (Dimension, error)
	ListLineTags(ctx context.Context, lineID string) ([]LineTag, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes methods available within a transaction.
type TxRepository interface {
	CompanyExists(ctx context.Context, id string) (bool, error)
	GetDimension(ctx context.Context, id string) (Dimension, error)
	GetValueForUpdate(ctx context.Context, id string) (Value, error)
	GetLineForUpdate(ctx context.Context, lineID string) (LineRef, error)
	ListLineTags(ctx context.Context, lineID string) ([]LineTag, error)
	InsertDimension(ctx context.Context, dim Dimension) (Dimension, error)
	InsertValue(ctx context.Context, value Value) (Value, error)
	SetValueActive(ctx context.Context, id string, active bool) error
	InsertLineTag(ctx context.Context, tag LineTag) (LineTag, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a pgx backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

// Column lists in scan order, shared with packages that read dimensions in their own transactions.
const (
	DimensionColumns = `id, company_id, name, platform, created_at`
	ValueColumns     = `id, company_id, dimension_id, value, active, created_at`
	TagColumns       = `id, company_id, line_id, dimension_id, dimension_value_id, dimension_name, value`
)

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *repository) GetDimension(ctx context.Context, id string) (Dimension, error) {
	return getDimension(ctx, r.pool, id)
}

func (r *repository) ListByCompany(ctx context.Context, companyID string) ([]Dimension, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+DimensionColumns+` FROM dimensions WHERE company_id=$1 ORDER BY name`, companyID)
	if err != nil {
		return nil, err
	}
	dims, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Dimension, error) {
		return ScanDimension(row)
	})
	if err != nil {
		return nil, err
	}
	values, err := queryValues(ctx, r.pool, `SELECT `+ValueColumns+` FROM dimension_values WHERE company_id=$1 ORDER BY value`, companyID)
	if err != nil {
		return nil, err
	}
	byDim := make(map[string][]Value, len(dims))
	for _, v := range values {
		byDim[v.DimensionID] = append(byDim[v.DimensionID], v)
	}
	for i := range dims {
		dims[i].Values = byDim[dims[i].ID]
	}
	return dims, nil
}

func (r *repository) ListValues(ctx context.Context, dimensionID string) ([]Value, error) {
	return queryValues(ctx, r.pool, `SELECT `+ValueColumns+` FROM dimension_values WHERE dimension_id=$1 ORDER BY value`, dimensionID)
}

func (r *repository) FindByName(ctx context.Context, companyID, name string) (Dimension, error) {
	dim, err := ScanDimension(r.pool.QueryRow(ctx, `SELECT `+DimensionColumns+` FROM dimensions WHERE company_id=$1 AND name=$2`, companyID, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Dimension{}, shared.NotFoundf("dimension %q", name)
		}
		return Dimension{}, err
	}
	return dim, nil
}

func (r *repository) ListLineTags(ctx context.Context, lineID string) ([]LineTag, error) {
	return listLineTags(ctx, r.pool, lineID)
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
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

func (r *txRepository) GetDimension(ctx context.Context, id string) (Dimension, error) {
	return getDimension(ctx, r.tx, id)
}

func (r *txRepository) GetValueForUpdate(ctx context.Context, id string) (Value, error) {
	v, err := ScanValue(r.tx.QueryRow(ctx, `SELECT `+ValueColumns+` FROM dimension_values WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Value{}, shared.NotFoundf("dimension value %s", id)
		}
		return Value{}, err
	}
	return v, nil
}

func (r *txRepository) GetLineForUpdate(ctx context.Context, lineID string) (LineRef, error) {
	var ref LineRef
	err := r.tx.QueryRow(ctx, `SELECT id, company_id FROM journal_lines WHERE id=$1 FOR UPDATE`, lineID).Scan(&ref.ID, &ref.CompanyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return LineRef{}, shared.NotFoundf("journal line %s", lineID)
		}
		return LineRef{}, err
	}
	return ref, nil
}

func (r *txRepository) ListLineTags(ctx context.Context, lineID string) ([]LineTag, error) {
	return listLineTags(ctx, r.tx, lineID)
}

func (r *txRepository) InsertDimension(ctx context.Context, dim Dimension) (Dimension, error) {
	created, err := ScanDimension(r.tx.QueryRow(ctx, `INSERT INTO dimensions (id, company_id, name, platform)
VALUES ($1,$2,$3,$4) RETURNING `+DimensionColumns, dim.ID, dim.CompanyID, dim.Name, dim.Platform))
	if err != nil {
		if db.IsUniqueViolation(err, "dimensions_company_name_key") {
			return Dimension{}, shared.Conflictf("dimension %q already exists", dim.Name)
		}
		return Dimension{}, err
	}
	return created, nil
}

func (r *txRepository) InsertValue(ctx context.Context, v Value) (Value, error) {
	created, err := ScanValue(r.tx.QueryRow(ctx, `INSERT INTO dimension_values (id, company_id, dimension_id, value, active)
VALUES ($1,$2,$3,$4,$5) RETURNING `+ValueColumns, v.ID, v.CompanyID, v.DimensionID, v.Value, v.Active))
	if err != nil {
		if db.IsUniqueViolation(err, "dimension_values_dimension_value_key") {
			return Value{}, shared.Conflictf("value %q already exists", v.Value)
		}
		return Value{}, err
	}
	return created, nil
}

func (r *txRepository) SetValueActive(ctx context.Context, id string, active bool) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE dimension_values SET active=$2 WHERE id=$1`, id, active)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.NotFoundf("dimension value %s", id)
	}
	return nil
}

func (r *txRepository) InsertLineTag(ctx context.Context, tag LineTag) (LineTag, error) {
	return InsertTag(ctx, r.tx, tag)
}

// InsertTag writes one line tag inside the caller's transaction and returns the
// stored row. When a concurrent writer tagged the same dimension first, its row
// wins if it carries the same value.
func InsertTag(ctx context.Context, tx pgx.Tx, tag LineTag) (LineTag, error) {
	stored, err := ScanTag(tx.QueryRow(ctx, `INSERT INTO journal_line_dimensions (`+TagColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT ON CONSTRAINT journal_line_dimensions_line_dimension_key DO NOTHING
RETURNING `+TagColumns,
		tag.ID, tag.CompanyID, tag.LineID, tag.DimensionID, tag.DimensionValueID, tag.DimensionName, tag.Value))
	if err == nil {
		return stored, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return LineTag{}, err
	}
	stored, err = ScanTag(tx.QueryRow(ctx, `SELECT `+TagColumns+` FROM journal_line_dimensions WHERE line_id=$1 AND dimension_id=$2`,
		tag.LineID, tag.DimensionID))
	if err != nil {
		return LineTag{}, err
	}
	return ResolveTagConflict(tag, stored)
}

func getDimension(ctx context.Context, q querier, id string) (Dimension, error) {
	dim, err := ScanDimension(q.QueryRow(ctx, `SELECT `+DimensionColumns+` FROM dimensions WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Dimension{}, shared.NotFoundf("dimension %s", id)
		}
		return Dimension{}, err
	}
	return dim, nil
}

func queryValues(ctx context.Context, q querier, query string, args ...any) ([]Value, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Value, error) {
		return ScanValue(row)
	})
}

func listLineTags(ctx context.Context, q querier, lineID string) ([]LineTag, error) {
	rows, err := q.Query(ctx, `SELECT `+TagColumns+` FROM journal_line_dimensions WHERE line_id=$1 ORDER BY dimension_name`, lineID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (LineTag, error) {
		return ScanTag(row)
	})
}

// ScanDimension reads a row selected with DimensionColumns.
func ScanDimension(row pgx.Row) (Dimension, error) {
	var d Dimension
	err := row.Scan(&d.ID, &d.CompanyID, &d.Name, &d.Platform, &d.CreatedAt)
	return d, err
}

// ScanValue reads a row selected with ValueColumns.
func ScanValue(row pgx.Row) (Value, error) {
	var v Value
	err := row.Scan(&v.ID, &v.CompanyID, &v.DimensionID, &v.Value, &v.Active, &v.CreatedAt)
	return v, err
}

// ScanTag reads a row selected with TagColumns.
func ScanTag(row pgx.Row) (LineTag, error) {
	var t LineTag
	err := row.Scan(&t.ID, &t.CompanyID, &t.LineID, &t.DimensionID, &t.DimensionValueID, &t.DimensionName, &t.Value)
	return t, err
}
