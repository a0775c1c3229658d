package sales

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-pos/meridian/internal/platform/db"
	"github.com/meridian-pos/meridian/internal/shared"
)

// Repository persists customers and sales in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const customerColumns = `id, org_id, name, email, phone, created_at, updated_at`

func scanCustomer(row pgx.Row) (Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.OrgID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, shared.ErrNotFound
		}
		return Customer{}, err
	}
	return c, nil
}

// ListCustomers returns the org's customers ordered by name.
func (r *Repository) ListCustomers(ctx context.Context, orgID int64) ([]Customer, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+customerColumns+` FROM customers WHERE org_id = $1 ORDER BY name`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

// GetCustomer fetches one customer scoped to the org.
func (r *Repository) GetCustomer(ctx context.Context, orgID, id int64) (Customer, error) {
	return scanCustomer(r.pool.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE org_id = $1 AND id = $2`, orgID, id))
}

// CreateCustomer inserts a customer.
func (r *Repository) CreateCustomer(ctx context.Context, orgID int64, input CustomerInput) (Customer, error) {
	return scanCustomer(r.pool.QueryRow(ctx,
		`INSERT INTO customers (org_id, name, email, phone, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, NOW(), NOW())
		 RETURNING `+customerColumns,
		orgID, input.Name, input.Email, input.Phone))
}

// UpdateCustomer updates a customer.
func (r *Repository) UpdateCustomer(ctx context.Context, orgID, id int64, input CustomerInput) (Customer, error) {
	return scanCustomer(r.pool.QueryRow(ctx,
		`UPDATE customers SET name = $3, email = $4, phone = $5, updated_at = NOW()
		 WHERE org_id = $1 AND id = $2
		 RETURNING `+customerColumns,
		orgID, id, input.Name, input.Email, input.Phone))
}

// DeleteCustomer removes a customer.
func (r *Repository) DeleteCustomer(ctx context.Context, orgID, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM customers WHERE org_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

const saleColumns = `id, org_id, location_id, customer_id, number, status, total_cents, payment_method, note, created_by, refunded_at, created_at, updated_at`

func scanSale(row pgx.Row) (Sale, error) {
	var s Sale
	err := row.Scan(&s.ID, &s.OrgID, &s.LocationID, &s.CustomerID, &s.Number, &s.Status, &s.TotalCents,
		&s.PaymentMethod, &s.Note, &s.CreatedBy, &s.RefundedAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Sale{}, shared.ErrNotFound
		}
		return Sale{}, err
	}
	return s, nil
}

// CreateSale inserts the header and lines in one transaction.
func (r *Repository) CreateSale(ctx context.Context, orgID, createdBy int64, input SaleInput, totalCents int64) (Sale, error) {
	var sale Sale
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		s, err := scanSale(tx.QueryRow(ctx,
			`INSERT INTO sales (org_id, location_id, customer_id, number, status, total_cents, payment_method, note, created_by, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
			 RETURNING `+saleColumns,
			orgID, input.LocationID, input.CustomerID, input.Number, StatusCompleted, totalCents,
			input.PaymentMethod, input.Note, createdBy))
		if err != nil {
			return err
		}
		for _, line := range input.Lines {
			var sl SaleLine
			err := tx.QueryRow(ctx,
				`INSERT INTO sale_lines (sale_id, product_id, qty, unit_price_cents)
				 VALUES ($1, $2, $3, $4)
				 RETURNING id, sale_id, product_id, qty, unit_price_cents`,
				s.ID, line.ProductID, line.Qty, line.UnitPriceCents).
				Scan(&sl.ID, &sl.SaleID, &sl.ProductID, &sl.Qty, &sl.UnitPriceCents)
			if err != nil {
				return err
			}
			s.Lines = append(s.Lines, sl)
		}
		sale = s
		return nil
	})
	return sale, err
}

// ListSales returns the org's sales, newest first.
func (r *Repository) ListSales(ctx context.Context, orgID int64, status SaleStatus) ([]Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE org_id = $1`
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

	var sales []Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		sales = append(sales, s)
	}
	return sales, rows.Err()
}

// GetSale fetches one sale including lines.
func (r *Repository) GetSale(ctx context.Context, orgID, id int64) (Sale, error) {
	s, err := scanSale(r.pool.QueryRow(ctx,
		`SELECT `+saleColumns+` FROM sales WHERE org_id = $1 AND id = $2`, orgID, id))
	if err != nil {
		return Sale{}, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, sale_id, product_id, qty, unit_price_cents FROM sale_lines WHERE sale_id = $1 ORDER BY id`, s.ID)
	if err != nil {
		return Sale{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var line SaleLine
		if err := rows.Scan(&line.ID, &line.SaleID, &line.ProductID, &line.Qty, &line.UnitPriceCents); err != nil {
			return Sale{}, err
		}
		s.Lines = append(s.Lines, line)
	}
	return s, rows.Err()
}

// MarkRefunded transitions a completed sale to refunded. The status guard
// in the WHERE clause makes a concurrent second refund lose cleanly.
func (r *Repository) MarkRefunded(ctx context.Context, orgID, id int64, refundedAt time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE sales SET status = $3, refunded_at = $4, updated_at = NOW()
		 WHERE org_id = $1 AND id = $2 AND status = $5`,
		orgID, id, StatusRefunded, refundedAt, StatusCompleted)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyRefunded
	}
	return nil
}
