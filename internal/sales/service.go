package sales

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/meridian-pos/meridian/internal/inventory"
	"github.com/meridian-pos/meridian/internal/shared"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	ListCustomers(ctx context.Context, orgID int64) ([]Customer, error)
	GetCustomer(ctx context.Context, orgID, id int64) (Customer, error)
	CreateCustomer(ctx context.Context, orgID int64, input CustomerInput) (Customer, error)
	UpdateCustomer(ctx context.Context, orgID, id int64, input CustomerInput) (Customer, error)
	DeleteCustomer(ctx context.Context, orgID, id int64) error

	CreateSale(ctx context.Context, orgID, createdBy int64, input SaleInput, totalCents int64) (Sale, error)
	ListSales(ctx context.Context, orgID int64, status SaleStatus) ([]Sale, error)
	GetSale(ctx context.Context, orgID, id int64) (Sale, error)
	MarkRefunded(ctx context.Context, orgID, id int64, refundedAt time.Time) error
}

// InventoryPort posts sale and refund stock movements.
type InventoryPort interface {
	Deduct(ctx context.Context, orgID int64, locationID, productID, qty, actorID int64, reference string) (inventory.Movement, error)
	Restock(ctx context.Context, orgID int64, locationID, productID, qty, actorID int64, reference string) (inventory.Movement, error)
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service orchestrates customer and sale flows.
type Service struct {
	repo        RepositoryPort
	inventory   InventoryPort
	audit       AuditPort
	idempotency *shared.IdempotencyStore
}

// NewService constructs the sales service.
func NewService(repo RepositoryPort, inv InventoryPort, audit AuditPort, idem *shared.IdempotencyStore) *Service {
	return &Service{repo: repo, inventory: inv, audit: audit, idempotency: idem}
}

// ListCustomers lists the org's customers.
func (s *Service) ListCustomers(ctx context.Context, orgID int64) ([]Customer, error) {
	return s.repo.ListCustomers(ctx, orgID)
}

// GetCustomer fetches one customer.
func (s *Service) GetCustomer(ctx context.Context, orgID, id int64) (Customer, error) {
	return s.repo.GetCustomer(ctx, orgID, id)
}

// CreateCustomer creates a customer.
func (s *Service) CreateCustomer(ctx context.Context, orgID int64, input CustomerInput) (Customer, error) {
	input.Name = strings.TrimSpace(input.Name)
	return s.repo.CreateCustomer(ctx, orgID, input)
}

// UpdateCustomer updates a customer.
func (s *Service) UpdateCustomer(ctx context.Context, orgID, id int64, input CustomerInput) (Customer, error) {
	input.Name = strings.TrimSpace(input.Name)
	return s.repo.UpdateCustomer(ctx, orgID, id, input)
}

// DeleteCustomer removes a customer.
func (s *Service) DeleteCustomer(ctx context.Context, orgID, id int64) error {
	return s.repo.DeleteCustomer(ctx, orgID, id)
}

// CreateSale deducts stock for each line and records the sale. Stock is
// deducted before the sale is written; a failed line rolls back the lines
// already deducted.
func (s *Service) CreateSale(ctx context.Context, orgID, createdBy int64, input SaleInput, idempotencyKey string) (Sale, error) {
	if len(input.Lines) == 0 {
		return Sale{}, ErrEmptyLines
	}
	var total int64
	for _, line := range input.Lines {
		if line.Qty <= 0 || line.UnitPriceCents < 0 {
			return Sale{}, ErrInvalidLine
		}
		total += line.Qty * line.UnitPriceCents
	}
	if input.Number == "" {
		input.Number = fmt.Sprintf("SALE-%d", time.Now().UnixNano())
	}

	insertedKey := false
	if idempotencyKey != "" && s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, idempotencyKey, "sales"); err != nil {
			return Sale{}, err
		}
		insertedKey = true
	}
	rollbackKey := func() {
		if insertedKey {
			_ = s.idempotency.Delete(ctx, idempotencyKey)
		}
	}

	var deducted []SaleLineInput
	for _, line := range input.Lines {
		_, err := s.inventory.Deduct(ctx, orgID, input.LocationID, line.ProductID, line.Qty, createdBy, input.Number)
		if err != nil {
			s.restockLines(ctx, orgID, input.LocationID, deducted, createdBy, input.Number)
			rollbackKey()
			return Sale{}, err
		}
		deducted = append(deducted, line)
	}

	sale, err := s.repo.CreateSale(ctx, orgID, createdBy, input, total)
	if err != nil {
		s.restockLines(ctx, orgID, input.LocationID, deducted, createdBy, input.Number)
		rollbackKey()
		return Sale{}, err
	}

	s.record(ctx, orgID, createdBy, "sale:create", sale.ID, map[string]any{
		"number": sale.Number, "total_cents": sale.TotalCents,
	})
	return sale, nil
}

// ListSales lists the org's sales, optionally by status.
func (s *Service) ListSales(ctx context.Context, orgID int64, status SaleStatus) ([]Sale, error) {
	return s.repo.ListSales(ctx, orgID, status)
}

// GetSale fetches one sale including lines.
func (s *Service) GetSale(ctx context.Context, orgID, id int64) (Sale, error) {
	return s.repo.GetSale(ctx, orgID, id)
}

// RefundSale marks the sale refunded and restocks every line. The status
// transition runs first so a retry cannot double-restock.
func (s *Service) RefundSale(ctx context.Context, orgID, id, actorID int64) (Sale, error) {
	sale, err := s.repo.GetSale(ctx, orgID, id)
	if err != nil {
		return Sale{}, err
	}
	if sale.Status != StatusCompleted {
		return Sale{}, ErrAlreadyRefunded
	}

	if err := s.repo.MarkRefunded(ctx, orgID, id, time.Now().UTC()); err != nil {
		return Sale{}, err
	}
	for _, line := range sale.Lines {
		_, err := s.inventory.Restock(ctx, orgID, sale.LocationID, line.ProductID, line.Qty, actorID, sale.Number)
		if err != nil {
			return Sale{}, fmt.Errorf("sales: restock product %d: %w", line.ProductID, err)
		}
	}

	s.record(ctx, orgID, actorID, "sale:refund", id, map[string]any{"number": sale.Number})
	return s.repo.GetSale(ctx, orgID, id)
}

func (s *Service) restockLines(ctx context.Context, orgID, locationID int64, lines []SaleLineInput, actorID int64, reference string) {
	for _, line := range lines {
		_, _ = s.inventory.Restock(ctx, orgID, locationID, line.ProductID, line.Qty, actorID, reference)
	}
}

func (s *Service) record(ctx context.Context, orgID, actorID int64, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		OrgID:    orgID,
		ActorID:  actorID,
		Action:   action,
		Entity:   "sale",
		EntityID: fmt.Sprintf("%d", entityID),
		Meta:     meta,
	})
}
