package catalog

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meridian-pos/meridian/internal/shared"
)

type memoryRepo struct {
	products   map[int64]Product
	categories map[int64]Category
	nextID     int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{products: make(map[int64]Product), categories: make(map[int64]Category)}
}

func (r *memoryRepo) ListProducts(ctx context.Context, orgID int64, page shared.Pagination, search string) ([]Product, int, error) {
	var out []Product
	for _, p := range r.products {
		if p.OrgID != orgID {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(search)) {
			continue
		}
		out = append(out, p)
	}
	return out, len(out), nil
}

func (r *memoryRepo) GetProduct(ctx context.Context, orgID, id int64) (Product, error) {
	p, ok := r.products[id]
	if !ok || p.OrgID != orgID {
		return Product{}, shared.ErrNotFound
	}
	return p, nil
}

func (r *memoryRepo) CreateProduct(ctx context.Context, orgID, createdBy int64, input ProductInput) (Product, error) {
	for _, p := range r.products {
		if p.OrgID == orgID && p.SKU == input.SKU {
			return Product{}, ErrDuplicateSKU
		}
	}
	r.nextID++
	p := Product{
		ID:           r.nextID,
		OrgID:        orgID,
		CategoryID:   input.CategoryID,
		SKU:          input.SKU,
		Name:         input.Name,
		PriceCents:   input.PriceCents,
		CostCents:    input.CostCents,
		ReorderPoint: input.ReorderPoint,
		CreatedBy:    createdBy,
	}
	r.products[p.ID] = p
	return p, nil
}

func (r *memoryRepo) UpdateProduct(ctx context.Context, orgID, id int64, input ProductInput) (Product, error) {
	p, err := r.GetProduct(ctx, orgID, id)
	if err != nil {
		return Product{}, err
	}
	p.SKU = input.SKU
	p.Name = input.Name
	p.PriceCents = input.PriceCents
	p.CostCents = input.CostCents
	p.ReorderPoint = input.ReorderPoint
	r.products[id] = p
	return p, nil
}

func (r *memoryRepo) DeleteProduct(ctx context.Context, orgID, id int64) error {
	if _, err := r.GetProduct(ctx, orgID, id); err != nil {
		return err
	}
	delete(r.products, id)
	return nil
}

func (r *memoryRepo) ArchiveProduct(ctx context.Context, orgID, id int64) error {
	p, err := r.GetProduct(ctx, orgID, id)
	if err != nil {
		return err
	}
	now := time.Now()
	p.ArchivedAt = &now
	r.products[id] = p
	return nil
}

func (r *memoryRepo) ListCategories(ctx context.Context, orgID int64) ([]Category, error) {
	var out []Category
	for _, c := range r.categories {
		if c.OrgID == orgID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memoryRepo) CreateCategory(ctx context.Context, orgID int64, name string) (Category, error) {
	r.nextID++
	c := Category{ID: r.nextID, OrgID: orgID, Name: name}
	r.categories[c.ID] = c
	return c, nil
}

func (r *memoryRepo) UpdateCategory(ctx context.Context, orgID, id int64, name string) (Category, error) {
	c, ok := r.categories[id]
	if !ok || c.OrgID != orgID {
		return Category{}, shared.ErrNotFound
	}
	c.Name = name
	r.categories[id] = c
	return c, nil
}

func (r *memoryRepo) DeleteCategory(ctx context.Context, orgID, id int64) error {
	c, ok := r.categories[id]
	if !ok || c.OrgID != orgID {
		return shared.ErrNotFound
	}
	delete(r.categories, id)
	return nil
}

func TestCreateProductNormalizesSKU(t *testing.T) {
	svc := NewService(newMemoryRepo())

	p, err := svc.CreateProduct(context.Background(), 1, 7, ProductInput{
		SKU:        "  bev-001 ",
		Name:       "  Sparkling Water ",
		PriceCents: 250,
		CostCents:  110,
	})
	require.NoError(t, err)
	require.Equal(t, "BEV-001", p.SKU)
	require.Equal(t, "Sparkling Water", p.Name)
	require.Equal(t, int64(7), p.CreatedBy)

	_, err = svc.CreateProduct(context.Background(), 1, 7, ProductInput{SKU: "BEV-001", Name: "Duplicate", PriceCents: 1})
	require.ErrorIs(t, err, ErrDuplicateSKU)

	// Same SKU in another org is fine.
	_, err = svc.CreateProduct(context.Background(), 2, 7, ProductInput{SKU: "BEV-001", Name: "Other org", PriceCents: 1})
	require.NoError(t, err)
}

func TestUpdateArchivedProductRejected(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	p, err := svc.CreateProduct(context.Background(), 1, 7, ProductInput{SKU: "SNK-001", Name: "Crisps", PriceCents: 320})
	require.NoError(t, err)

	require.NoError(t, svc.ArchiveProduct(context.Background(), 1, p.ID))

	_, err = svc.UpdateProduct(context.Background(), 1, p.ID, ProductInput{SKU: "SNK-001", Name: "Crisps XL", PriceCents: 400})
	require.ErrorIs(t, err, ErrArchived)

	got, err := svc.GetProduct(context.Background(), 1, p.ID)
	require.NoError(t, err)
	require.Equal(t, "Crisps", got.Name)
	require.NotNil(t, got.ArchivedAt)
}

func TestProductOrgIsolation(t *testing.T) {
	svc := NewService(newMemoryRepo())

	p, err := svc.CreateProduct(context.Background(), 1, 7, ProductInput{SKU: "HH-001", Name: "Dish Soap", PriceCents: 390})
	require.NoError(t, err)

	_, err = svc.GetProduct(context.Background(), 2, p.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)

	err = svc.DeleteProduct(context.Background(), 2, p.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)

	listed, _, err := svc.ListProducts(context.Background(), 2, 1, 20, "")
	require.NoError(t, err)
	require.Empty(t, listed)
}

func TestCategoryLifecycle(t *testing.T) {
	svc := NewService(newMemoryRepo())

	c, err := svc.CreateCategory(context.Background(), 1, "  Beverages ")
	require.NoError(t, err)
	require.Equal(t, "Beverages", c.Name)

	renamed, err := svc.UpdateCategory(context.Background(), 1, c.ID, "Drinks")
	require.NoError(t, err)
	require.Equal(t, "Drinks", renamed.Name)

	require.NoError(t, svc.DeleteCategory(context.Background(), 1, c.ID))

	cats, err := svc.ListCategories(context.Background(), 1)
	require.NoError(t, err)
	require.Empty(t, cats)
}
