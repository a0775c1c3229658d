package catalog

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-pos/meridian/internal/shared"
)

// ErrDuplicateSKU indicates the SKU is already taken within the org.
var ErrDuplicateSKU = errors.New("catalog: duplicate sku")

// Repository defines catalog data access.
type Repository interface {
	ListProducts(ctx context.Context, orgID int64, page shared.Pagination, search string) ([]Product, int, error)
	GetProduct(ctx context.Context, orgID, id int64) (Product, error)
	CreateProduct(ctx context.Context, orgID, createdBy int64, input ProductInput) (Product, error)
	UpdateProduct(ctx context.Context, orgID, id int64, input ProductInput) (Product, error)
	DeleteProduct(ctx context.Context, orgID, id int64) error
	ArchiveProduct(ctx context.Context, orgID, id int64) error

	ListCategories(ctx context.Context, orgID int64) ([]Category, error)
	CreateCategory(ctx context.Context, orgID int64, name string) (Category, error)
	UpdateCategory(ctx context.Context, orgID, id int64, name string) (Category, error)
	DeleteCategory(ctx context.Context, orgID, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the postgres-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const productColumns = `id, org_id, category_id, sku, name, price_cents, cost_cents, reorder_point, archived_at, created_by, created_at, updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.OrgID, &p.CategoryID, &p.SKU, &p.Name, &p.PriceCents, &p.CostCents,
		&p.ReorderPoint, &p.ArchivedAt, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, shared.ErrNotFound
		}
		return Product{}, err
	}
	return p, nil
}

func (r *repository) ListProducts(ctx context.Context, orgID int64, page shared.Pagination, search string) ([]Product, int, error) {
	countQuery := `SELECT COUNT(*) FROM products WHERE org_id = $1`
	listQuery := `SELECT ` + productColumns + ` FROM products WHERE org_id = $1`
	countArgs := []any{orgID}
	listArgs := []any{orgID}

	if search != "" {
		countQuery += ` AND (name ILIKE $2 OR sku ILIKE $2)`
		listQuery += ` AND (name ILIKE $2 OR sku ILIKE $2)`
		countArgs = append(countArgs, "%"+search+"%")
		listArgs = append(listArgs, "%"+search+"%")
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	listQuery += ` ORDER BY name LIMIT ` + placeholder(len(listArgs)+1) + ` OFFSET ` + placeholder(len(listArgs)+2)
	listArgs = append(listArgs, page.PerPage, page.Offset())

	rows, err := r.pool.Query(ctx, listQuery, listArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, p)
	}
	return products, total, rows.Err()
}

func (r *repository) GetProduct(ctx context.Context, orgID, id int64) (Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE org_id = $1 AND id = $2`, orgID, id)
	return scanProduct(row)
}

func (r *repository) CreateProduct(ctx context.Context, orgID, createdBy int64, input ProductInput) (Product, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO products (org_id, category_id, sku, name, price_cents, cost_cents, reorder_point, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		 RETURNING `+productColumns,
		orgID, input.CategoryID, input.SKU, input.Name, input.PriceCents, input.CostCents, input.ReorderPoint, createdBy)
	p, err := scanProduct(row)
	if err != nil {
		return Product{}, mapDuplicate(err, ErrDuplicateSKU)
	}
	return p, nil
}

func (r *repository) UpdateProduct(ctx context.Context, orgID, id int64, input ProductInput) (Product, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE products
		 SET category_id = $3, sku = $4, name = $5, price_cents = $6, cost_cents = $7, reorder_point = $8, updated_at = NOW()
		 WHERE org_id = $1 AND id = $2
		 RETURNING `+productColumns,
		orgID, id, input.CategoryID, input.SKU, input.Name, input.PriceCents, input.CostCents, input.ReorderPoint)
	p, err := scanProduct(row)
	if err != nil {
		return Product{}, mapDuplicate(err, ErrDuplicateSKU)
	}
	return p, nil
}

func (r *repository) DeleteProduct(ctx context.Context, orgID, id int64) error {
	return r.exec(ctx, `DELETE FROM products WHERE org_id = $1 AND id = $2`, orgID, id)
}

func (r *repository) ArchiveProduct(ctx context.Context, orgID, id int64) error {
	return r.exec(ctx, `UPDATE products SET archived_at = NOW(), updated_at = NOW() WHERE org_id = $1 AND id = $2 AND archived_at IS NULL`, orgID, id)
}

func (r *repository) ListCategories(ctx context.Context, orgID int64) ([]Category, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, org_id, name, created_at, updated_at FROM categories WHERE org_id = $1 ORDER BY name`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.OrgID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *repository) CreateCategory(ctx context.Context, orgID int64, name string) (Category, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO categories (org_id, name, created_at, updated_at) VALUES ($1, $2, NOW(), NOW())
		 RETURNING id, org_id, name, created_at, updated_at`, orgID, name)
	var c Category
	if err := row.Scan(&c.ID, &c.OrgID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return Category{}, mapDuplicate(err, errors.New("catalog: duplicate category"))
	}
	return c, nil
}

func (r *repository) UpdateCategory(ctx context.Context, orgID, id int64, name string) (Category, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE categories SET name = $3, updated_at = NOW() WHERE org_id = $1 AND id = $2
		 RETURNING id, org_id, name, created_at, updated_at`, orgID, id, name)
	var c Category
	if err := row.Scan(&c.ID, &c.OrgID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Category{}, shared.ErrNotFound
		}
		return Category{}, err
	}
	return c, nil
}

func (r *repository) DeleteCategory(ctx context.Context, orgID, id int64) error {
	return r.exec(ctx, `DELETE FROM categories WHERE org_id = $1 AND id = $2`, orgID, id)
}

func (r *repository) exec(ctx context.Context, sql string, args ...any) error {
	tag, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func mapDuplicate(err, sentinel error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return sentinel
	}
	return err
}

func placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}
