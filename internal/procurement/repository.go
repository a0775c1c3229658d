package procurement

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-pos/meridian/internal/platform/db"
	"github.com/meridian-pos/meridian/internal/shared"
)

// Repository persists suppliers and purchases in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const supplierColumns = `id, org_id, name, email, phone, address, created_at, updated_at`

func scanSupplier(row pgx.Row) (Supplier, error) {
	var s Supplier
	err := row.Scan(&s.ID, &s.OrgID, &s.Name, &s.Email, &s.Phone, &s.Address, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Supplier{}, shared.ErrNotFound
		}
		return Supplier{}, err
	}
	return s, nil
}

// ListSuppliers returns the org's suppliers ordered by name.
func (r *Repository) ListSuppliers(ctx context.Context, orgID int64) ([]Supplier, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+supplierColumns+` FROM suppliers WHERE org_id = $1 ORDER BY name`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var suppliers []Supplier
	for rows.Next() {
		s, err := scanSupplier(rows)
		if err != nil {
			return nil, err
		}
		suppliers = append(suppliers, s)
	}
	return suppliers, rows.Err()
}

// GetSupplier fetches one supplier scoped to the org.
func (r *Repository) GetSupplier(ctx context.Context, orgID, id int64) (Supplier, error) {
	return scanSupplier(r.pool.QueryRow(ctx,
		`SELECT `+supplierColumns+` FROM suppliers WHERE org_id = $1 AND id = $2`, orgID, id))
}

// CreateSupplier inserts a supplier.
func (r *Repository) CreateSupplier(ctx context.Context, orgID int64, input SupplierInput) (Supplier, error) {
	return scanSupplier(r.pool.QueryRow(ctx,
		`INSERT INTO suppliers (org_id, name, email, phone, address, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		 RETURNING `+supplierColumns,
		orgID, input.Name, input.Email, input.Phone, input.Address))
}

// UpdateSupplier updates a supplier.
func (r *Repository) UpdateSupplier(ctx context.Context, orgID, id int64, input SupplierInput) (Supplier, error) {
	return scanSupplier(r.pool.QueryRow(ctx,
		`UPDATE suppliers SET name = $3, email = $4, phone = $5, address = $6, updated_at = NOW()
		 WHERE org_id = $1 AND id = $2
		 RETURNING `+supplierColumns,
		orgID, id, input.Name, input.Email, input.Phone, input.Address))
}

// DeleteSupplier removes a supplier.
func (r *Repository) DeleteSupplier(ctx context.Context, orgID, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM suppliers WHERE org_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

const purchaseColumns = `id, org_id, supplier_id, location_id, number, status, total_cents, note, created_by, received_at, created_at, updated_at`

func scanPurchase(row pgx.Row) (Purchase, error) {
	var p Purchase
	err := row.Scan(&p.ID, &p.OrgID, &p.SupplierID, &p.LocationID, &p.Number, &p.Status, &p.TotalCents,
		&p.Note, &p.CreatedBy, &p.ReceivedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Purchase{}, shared.ErrNotFound
		}
		return Purchase{}, err
	}
	return p, nil
}

// CreatePurchase inserts the header and lines in one transaction.
func (r *Repository) CreatePurchase(ctx context.Context, orgID, createdBy int64, input PurchaseInput, totalCents int64) (Purchase, error) {
	var purchase Purchase
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		p, err := scanPurchase(tx.QueryRow(ctx,
			`INSERT INTO purchases (org_id, supplier_id, location_id, number, status, total_cents, note, created_by, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
			 RETURNING `+purchaseColumns,
			orgID, input.SupplierID, input.LocationID, input.Number, StatusOrdered, totalCents, input.Note, createdBy))
		if err != nil {
			return err
		}
		for _, line := range input.Lines {
			var pl PurchaseLine
			err := tx.QueryRow(ctx,
				`INSERT INTO purchase_lines (purchase_id, product_id, qty, unit_cost_cents)
				 VALUES ($1, $2, $3, $4)
				 RETURNING id, purchase_id, product_id, qty, unit_cost_cents`,
				p.ID, line.ProductID, line.Qty, line.UnitCostCents).
				Scan(&pl.ID, &pl.PurchaseID, &pl.ProductID, &pl.Qty, &pl.UnitCostCents)
			if err != nil {
				return err
			}
			p.Lines = append(p.Lines, pl)
		}
		purchase = p
		return nil
	})
	return purchase, err
}

// ListPurchases returns the org's purchases, newest first.
func (r *Repository) ListPurchases(ctx context.Context, orgID int64, status PurchaseStatus) ([]Purchase, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchases WHERE org_id = $1`
	args := []any{orgID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var purchases []Purchase
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		purchases = append(purchases, p)
	}
	return purchases, rows.Err()
}

// GetPurchase fetches one purchase including lines.
func (r *Repository) GetPurchase(ctx context.Context, orgID, id int64) (Purchase, error) {
	p, err := scanPurchase(r.pool.QueryRow(ctx,
		`SELECT `+purchaseColumns+` FROM purchases WHERE org_id = $1 AND id = $2`, orgID, id))
	if err != nil {
		return Purchase{}, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, purchase_id, product_id, qty, unit_cost_cents FROM purchase_lines WHERE purchase_id = $1 ORDER BY id`, p.ID)
	if err != nil {
		return Purchase{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var line PurchaseLine
		if err := rows.Scan(&line.ID, &line.PurchaseID, &line.ProductID, &line.Qty, &line.UnitCostCents); err != nil {
			return Purchase{}, err
		}
		p.Lines = append(p.Lines, line)
	}
	return p, rows.Err()
}

// UpdatePurchaseNote updates the mutable fields of an ordered purchase.
func (r *Repository) UpdatePurchaseNote(ctx context.Context, orgID, id int64, note string) (Purchase, error) {
	return scanPurchase(r.pool.QueryRow(ctx,
		`UPDATE purchases SET note = $3, updated_at = NOW()
		 WHERE org_id = $1 AND id = $2
		 RETURNING `+purchaseColumns,
		orgID, id, note))
}

// SetPurchaseStatus transitions a purchase out of ORDERED. The status guard
// in the WHERE clause makes concurrent receives lose cleanly.
func (r *Repository) SetPurchaseStatus(ctx context.Context, orgID, id int64, status PurchaseStatus, receivedAt *time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE purchases SET status = $3, received_at = $4, updated_at = NOW()
		 WHERE org_id = $1 AND id = $2 AND status = $5`,
		orgID, id, status, receivedAt, StatusOrdered)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotOrdered
	}
	return nil
}
