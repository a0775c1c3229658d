package inventory

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-pos/meridian/internal/platform/db"
)

// Repository persists stock levels and the movement log in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the transactional operations used by the service.
type TxRepository interface {
	GetLevelForUpdate(ctx context.Context, orgID, locationID, productID int64) (StockLevel, error)
	UpsertLevel(ctx context.Context, level StockLevel) error
	InsertMovement(ctx context.Context, movement Movement) (int64, error)
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx runs fn inside a transaction. Concurrent movements against the
// same level serialize on the FOR UPDATE row lock.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

// ListLevels returns the stock levels for the org, optionally scoped to a
// location.
func (r *Repository) ListLevels(ctx context.Context, orgID, locationID int64) ([]StockLevel, error) {
	query := `SELECT org_id, location_id, product_id, qty, avg_cost_cents, updated_at
		FROM stock_levels WHERE org_id = $1`
	args := []any{orgID}
	if locationID != 0 {
		query += ` AND location_id = $2`
		args = append(args, locationID)
	}
	query += ` ORDER BY location_id, product_id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var levels []StockLevel
	for rows.Next() {
		var lvl StockLevel
		if err := rows.Scan(&lvl.OrgID, &lvl.LocationID, &lvl.ProductID, &lvl.Qty, &lvl.AvgCostCents, &lvl.UpdatedAt); err != nil {
			return nil, err
		}
		levels = append(levels, lvl)
	}
	return levels, rows.Err()
}

// ListMovements returns movement log entries for the org, newest first.
func (r *Repository) ListMovements(ctx context.Context, orgID int64, filter MovementFilter) ([]Movement, error) {
	query := `SELECT id, org_id, location_id, product_id, type, qty_change, unit_cost_cents,
			balance_qty, reference, note, actor_id, posted_at
		FROM stock_movements WHERE org_id = $1`
	args := []any{orgID}
	next := 2
	if filter.LocationID != 0 {
		query += ` AND location_id = ` + placeholder(next)
		args = append(args, filter.LocationID)
		next++
	}
	if filter.ProductID != 0 {
		query += ` AND product_id = ` + placeholder(next)
		args = append(args, filter.ProductID)
		next++
	}
	if !filter.From.IsZero() {
		query += ` AND posted_at >= ` + placeholder(next)
		args = append(args, filter.From)
		next++
	}
	if !filter.To.IsZero() {
		query += ` AND posted_at <= ` + placeholder(next)
		args = append(args, filter.To)
		next++
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	query += ` ORDER BY posted_at DESC, id DESC LIMIT ` + placeholder(next)
	args = append(args, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var movements []Movement
	for rows.Next() {
		var m Movement
		if err := rows.Scan(&m.ID, &m.OrgID, &m.LocationID, &m.ProductID, &m.Type, &m.QtyChange,
			&m.UnitCostCents, &m.BalanceQty, &m.Reference, &m.Note, &m.ActorID, &m.PostedAt); err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

// LowStock lists products at or below their reorder point. Archived
// products are skipped.
func (r *Repository) LowStock(ctx context.Context, orgID int64) ([]LowStockItem, error) {
	query := `SELECT sl.org_id, sl.location_id, sl.product_id, p.sku, p.name, sl.qty, p.reorder_point
		FROM stock_levels sl
		JOIN products p ON p.id = sl.product_id AND p.org_id = sl.org_id
		WHERE sl.org_id = $1 AND p.archived_at IS NULL AND p.reorder_point > 0 AND sl.qty <= p.reorder_point
		ORDER BY sl.location_id, p.sku`

	rows, err := r.pool.Query(ctx, query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []LowStockItem
	for rows.Next() {
		var item LowStockItem
		if err := rows.Scan(&item.OrgID, &item.LocationID, &item.ProductID, &item.SKU, &item.Name,
			&item.Qty, &item.ReorderPoint); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (t *txRepo) GetLevelForUpdate(ctx context.Context, orgID, locationID, productID int64) (StockLevel, error) {
	var lvl StockLevel
	err := t.tx.QueryRow(ctx, `SELECT org_id, location_id, product_id, qty, avg_cost_cents, updated_at
		FROM stock_levels WHERE org_id = $1 AND location_id = $2 AND product_id = $3 FOR UPDATE`,
		orgID, locationID, productID).
		Scan(&lvl.OrgID, &lvl.LocationID, &lvl.ProductID, &lvl.Qty, &lvl.AvgCostCents, &lvl.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StockLevel{OrgID: orgID, LocationID: locationID, ProductID: productID}, ErrLevelNotFound
		}
		return StockLevel{}, err
	}
	return lvl, nil
}

func (t *txRepo) UpsertLevel(ctx context.Context, level StockLevel) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO stock_levels (org_id, location_id, product_id, qty, avg_cost_cents, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (org_id, location_id, product_id)
		DO UPDATE SET qty = EXCLUDED.qty, avg_cost_cents = EXCLUDED.avg_cost_cents, updated_at = NOW()`,
		level.OrgID, level.LocationID, level.ProductID, level.Qty, level.AvgCostCents)
	return err
}

func (t *txRepo) InsertMovement(ctx context.Context, m Movement) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `INSERT INTO stock_movements
			(org_id, location_id, product_id, type, qty_change, unit_cost_cents, balance_qty, reference, note, actor_id, posted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`,
		m.OrgID, m.LocationID, m.ProductID, m.Type, m.QtyChange, m.UnitCostCents, m.BalanceQty,
		m.Reference, m.Note, m.ActorID, m.PostedAt).Scan(&id)
	return id, err
}

func placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}
