package procurement

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
	ListSuppliers(ctx context.Context, orgID int64) ([]Supplier, error)
	GetSupplier(ctx context.Context, orgID, id int64) (Supplier, error)
	CreateSupplier(ctx context.Context, orgID int64, input SupplierInput) (Supplier, error)
	UpdateSupplier(ctx context.Context, orgID, id int64, input SupplierInput) (Supplier, error)
	DeleteSupplier(ctx context.Context, orgID, id int64) error

	CreatePurchase(ctx context.Context, orgID, createdBy int64, input PurchaseInput, totalCents int64) (Purchase, error)
	ListPurchases(ctx context.Context, orgID int64, status PurchaseStatus) ([]Purchase, error)
	GetPurchase(ctx context.Context, orgID, id int64) (Purchase, error)
	UpdatePurchaseNote(ctx context.Context, orgID, id int64, note string) (Purchase, error)
	SetPurchaseStatus(ctx context.Context, orgID, id int64, status PurchaseStatus, receivedAt *time.Time) error
}

// InventoryPort posts received stock.
type InventoryPort interface {
	Receive(ctx context.Context, orgID int64, input inventory.ReceiveInput) (inventory.Movement, error)
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service orchestrates supplier and purchase flows.
type Service struct {
	repo        RepositoryPort
	inventory   InventoryPort
	audit       AuditPort
	idempotency *shared.IdempotencyStore
}

// NewService constructs the procurement service.
func NewService(repo RepositoryPort, inv InventoryPort, audit AuditPort, idem *shared.IdempotencyStore) *Service {
	return &Service{repo: repo, inventory: inv, audit: audit, idempotency: idem}
}

// ListSuppliers lists the org's suppliers.
func (s *Service) ListSuppliers(ctx context.Context, orgID int64) ([]Supplier, error) {
	return s.repo.ListSuppliers(ctx, orgID)
}

// GetSupplier fetches one supplier.
func (s *Service) GetSupplier(ctx context.Context, orgID, id int64) (Supplier, error) {
	return s.repo.GetSupplier(ctx, orgID, id)
}

// CreateSupplier creates a supplier.
func (s *Service) CreateSupplier(ctx context.Context, orgID int64, input SupplierInput) (Supplier, error) {
	input.Name = strings.TrimSpace(input.Name)
	return s.repo.CreateSupplier(ctx, orgID, input)
}

// UpdateSupplier updates a supplier.
func (s *Service) UpdateSupplier(ctx context.Context, orgID, id int64, input SupplierInput) (Supplier, error) {
	input.Name = strings.TrimSpace(input.Name)
	return s.repo.UpdateSupplier(ctx, orgID, id, input)
}

// DeleteSupplier removes a supplier.
func (s *Service) DeleteSupplier(ctx context.Context, orgID, id int64) error {
	return s.repo.DeleteSupplier(ctx, orgID, id)
}

// CreatePurchase validates lines, totals them and stores the order.
func (s *Service) CreatePurchase(ctx context.Context, orgID, createdBy int64, input PurchaseInput, idempotencyKey string) (Purchase, error) {
	if len(input.Lines) == 0 {
		return Purchase{}, ErrEmptyLines
	}
	var total int64
	for _, line := range input.Lines {
		if line.Qty <= 0 || line.UnitCostCents < 0 {
			return Purchase{}, ErrInvalidLine
		}
		total += line.Qty * line.UnitCostCents
	}
	if input.Number == "" {
		input.Number = fmt.Sprintf("PO-%d", time.Now().UnixNano())
	}

	insertedKey := false
	if idempotencyKey != "" && s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, idempotencyKey, "procurement"); err != nil {
			return Purchase{}, err
		}
		insertedKey = true
	}

	purchase, err := s.repo.CreatePurchase(ctx, orgID, createdBy, input, total)
	if err != nil {
		if insertedKey {
			_ = s.idempotency.Delete(ctx, idempotencyKey)
		}
		return Purchase{}, err
	}

	s.record(ctx, orgID, createdBy, "purchase:create", purchase.ID, map[string]any{
		"number": purchase.Number, "total_cents": purchase.TotalCents,
	})
	return purchase, nil
}

// ListPurchases lists the org's purchases, optionally by status.
func (s *Service) ListPurchases(ctx context.Context, orgID int64, status PurchaseStatus) ([]Purchase, error) {
	return s.repo.ListPurchases(ctx, orgID, status)
}

// GetPurchase fetches one purchase including lines.
func (s *Service) GetPurchase(ctx context.Context, orgID, id int64) (Purchase, error) {
	return s.repo.GetPurchase(ctx, orgID, id)
}

// UpdatePurchase updates the note of an ordered purchase.
func (s *Service) UpdatePurchase(ctx context.Context, orgID, id int64, note string) (Purchase, error) {
	purchase, err := s.repo.GetPurchase(ctx, orgID, id)
	if err != nil {
		return Purchase{}, err
	}
	if purchase.Status != StatusOrdered {
		return Purchase{}, ErrNotOrdered
	}
	return s.repo.UpdatePurchaseNote(ctx, orgID, id, note)
}

// CancelPurchase cancels an ordered purchase.
func (s *Service) CancelPurchase(ctx context.Context, orgID, id, actorID int64) error {
	if err := s.repo.SetPurchaseStatus(ctx, orgID, id, StatusCancelled, nil); err != nil {
		return err
	}
	s.record(ctx, orgID, actorID, "purchase:cancel", id, nil)
	return nil
}

// ReceivePurchase marks the purchase received and posts one inbound stock
// movement per line. The status transition runs first so a retry after a
// partial failure cannot double-post.
func (s *Service) ReceivePurchase(ctx context.Context, orgID, id, actorID int64) (Purchase, error) {
	purchase, err := s.repo.GetPurchase(ctx, orgID, id)
	if err != nil {
		return Purchase{}, err
	}
	if purchase.Status != StatusOrdered {
		return Purchase{}, ErrNotOrdered
	}

	now := time.Now().UTC()
	if err := s.repo.SetPurchaseStatus(ctx, orgID, id, StatusReceived, &now); err != nil {
		return Purchase{}, err
	}

	reference := purchase.Number
	for _, line := range purchase.Lines {
		_, err := s.inventory.Receive(ctx, orgID, inventory.ReceiveInput{
			LocationID:    purchase.LocationID,
			ProductID:     line.ProductID,
			Qty:           line.Qty,
			UnitCostCents: line.UnitCostCents,
			Reference:     reference,
			ActorID:       actorID,
		})
		if err != nil {
			return Purchase{}, fmt.Errorf("procurement: post receipt for product %d: %w", line.ProductID, err)
		}
	}

	s.record(ctx, orgID, actorID, "purchase:receive", id, map[string]any{"number": purchase.Number})
	return s.repo.GetPurchase(ctx, orgID, id)
}

func (s *Service) record(ctx context.Context, orgID, actorID int64, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		OrgID:    orgID,
		ActorID:  actorID,
		Action:   action,
		Entity:   "purchase",
		EntityID: fmt.Sprintf("%d", entityID),
		Meta:     meta,
	})
}
