package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/meridian-pos/meridian/internal/shared"
)

// ErrArchived indicates a mutation against an archived product.
var ErrArchived = errors.New("catalog: product archived")

// Service handles catalog business logic.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListProducts returns the org's products with pagination metadata.
func (s *Service) ListProducts(ctx context.Context, orgID int64, page, perPage int, search string) ([]Product, shared.Pagination, error) {
	p := shared.NewPagination(page, perPage, 0)
	products, total, err := s.repo.ListProducts(ctx, orgID, p, strings.TrimSpace(search))
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return products, shared.NewPagination(page, perPage, total), nil
}

// GetProduct fetches one product.
func (s *Service) GetProduct(ctx context.Context, orgID, id int64) (Product, error) {
	return s.repo.GetProduct(ctx, orgID, id)
}

// CreateProduct registers a new product.
func (s *Service) CreateProduct(ctx context.Context, orgID, createdBy int64, input ProductInput) (Product, error) {
	input.SKU = strings.TrimSpace(strings.ToUpper(input.SKU))
	input.Name = strings.TrimSpace(input.Name)
	return s.repo.CreateProduct(ctx, orgID, createdBy, input)
}

// UpdateProduct updates an existing product. Archived products are frozen.
func (s *Service) UpdateProduct(ctx context.Context, orgID, id int64, input ProductInput) (Product, error) {
	current, err := s.repo.GetProduct(ctx, orgID, id)
	if err != nil {
		return Product{}, err
	}
	if current.ArchivedAt != nil {
		return Product{}, ErrArchived
	}
	input.SKU = strings.TrimSpace(strings.ToUpper(input.SKU))
	input.Name = strings.TrimSpace(input.Name)
	return s.repo.UpdateProduct(ctx, orgID, id, input)
}

// DeleteProduct removes a product.
func (s *Service) DeleteProduct(ctx context.Context, orgID, id int64) error {
	return s.repo.DeleteProduct(ctx, orgID, id)
}

// ArchiveProduct hides a product from sale without losing its history.
func (s *Service) ArchiveProduct(ctx context.Context, orgID, id int64) error {
	return s.repo.ArchiveProduct(ctx, orgID, id)
}

// ListCategories returns the org's categories.
func (s *Service) ListCategories(ctx context.Context, orgID int64) ([]Category, error) {
	return s.repo.ListCategories(ctx, orgID)
}

// CreateCategory registers a new category.
func (s *Service) CreateCategory(ctx context.Context, orgID int64, name string) (Category, error) {
	return s.repo.CreateCategory(ctx, orgID, strings.TrimSpace(name))
}

// UpdateCategory renames a category.
func (s *Service) UpdateCategory(ctx context.Context, orgID, id int64, name string) (Category, error) {
	return s.repo.UpdateCategory(ctx, orgID, id, strings.TrimSpace(name))
}

// DeleteCategory removes a category.
func (s *Service) DeleteCategory(ctx context.Context, orgID, id int64) error {
	return s.repo.DeleteCategory(ctx, orgID, id)
}
