package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/meridian-pos/meridian/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListLevels(ctx context.Context, orgID, locationID int64) ([]StockLevel, error)
	ListMovements(ctx context.Context, orgID int64, filter MovementFilter) ([]Movement, error)
	LowStock(ctx context.Context, orgID int64) ([]LowStockItem, error)
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates stock movements.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// Levels lists stock levels for the org, optionally scoped to one location.
func (s *Service) Levels(ctx context.Context, orgID, locationID int64) ([]StockLevel, error) {
	return s.repo.ListLevels(ctx, orgID, locationID)
}

// Movements lists movement log entries.
func (s *Service) Movements(ctx context.Context, orgID int64, filter MovementFilter) ([]Movement, error) {
	return s.repo.ListMovements(ctx, orgID, filter)
}

// LowStock lists products at or below their reorder point.
func (s *Service) LowStock(ctx context.Context, orgID int64) ([]LowStockItem, error) {
	return s.repo.LowStock(ctx, orgID)
}

// Receive posts an inbound receipt and recalculates the moving average cost.
func (s *Service) Receive(ctx context.Context, orgID int64, input ReceiveInput) (Movement, error) {
	if input.Qty <= 0 {
		return Movement{}, ErrInvalidQuantity
	}
	if input.UnitCostCents < 0 {
		return Movement{}, ErrInvalidUnitCost
	}
	return s.post(ctx, movementParams{
		OrgID:         orgID,
		LocationID:    input.LocationID,
		ProductID:     input.ProductID,
		Type:          MovementReceive,
		QtyChange:     input.Qty,
		UnitCostCents: input.UnitCostCents,
		Reference:     input.Reference,
		Note:          input.Note,
		ActorID:       input.ActorID,
	})
}

// Adjust posts a manual correction. Negative adjustments are bounded by
// on-hand quantity.
func (s *Service) Adjust(ctx context.Context, orgID int64, input AdjustInput) (Movement, error) {
	if input.QtyChange == 0 {
		return Movement{}, ErrInvalidQuantity
	}
	return s.post(ctx, movementParams{
		OrgID:      orgID,
		LocationID: input.LocationID,
		ProductID:  input.ProductID,
		Type:       MovementAdjust,
		QtyChange:  input.QtyChange,
		Note:       input.Note,
		ActorID:    input.ActorID,
	})
}

// Move transfers stock between locations with an OUT + IN movement pair.
// The inbound half carries the source location's average cost.
func (s *Service) Move(ctx context.Context, orgID int64, input MoveInput) (Movement, Movement, error) {
	if input.SrcLocationID == input.DstLocationID {
		return Movement{}, Movement{}, ErrSameLocation
	}
	if input.Qty <= 0 {
		return Movement{}, Movement{}, ErrInvalidQuantity
	}
	out, err := s.post(ctx, movementParams{
		OrgID:      orgID,
		LocationID: input.SrcLocationID,
		ProductID:  input.ProductID,
		Type:       MovementMoveOut,
		QtyChange:  -input.Qty,
		Note:       fmt.Sprintf("Move to location %d: %s", input.DstLocationID, input.Note),
		ActorID:    input.ActorID,
	})
	if err != nil {
		return Movement{}, Movement{}, err
	}
	in, err := s.post(ctx, movementParams{
		OrgID:         orgID,
		LocationID:    input.DstLocationID,
		ProductID:     input.ProductID,
		Type:          MovementMoveIn,
		QtyChange:     input.Qty,
		UnitCostCents: out.UnitCostCents,
		Note:          fmt.Sprintf("Move from location %d: %s", input.SrcLocationID, input.Note),
		ActorID:       input.ActorID,
	})
	if err != nil {
		return Movement{}, Movement{}, err
	}
	return out, in, nil
}

// Deduct posts the outbound movement for a completed sale line.
func (s *Service) Deduct(ctx context.Context, orgID int64, locationID, productID, qty, actorID int64, reference string) (Movement, error) {
	if qty <= 0 {
		return Movement{}, ErrInvalidQuantity
	}
	return s.post(ctx, movementParams{
		OrgID:      orgID,
		LocationID: locationID,
		ProductID:  productID,
		Type:       MovementSale,
		QtyChange:  -qty,
		Reference:  reference,
		ActorID:    actorID,
	})
}

// Restock posts the inbound movement for a refunded sale line at the
// current average cost.
func (s *Service) Restock(ctx context.Context, orgID int64, locationID, productID, qty, actorID int64, reference string) (Movement, error) {
	if qty <= 0 {
		return Movement{}, ErrInvalidQuantity
	}
	return s.post(ctx, movementParams{
		OrgID:       orgID,
		LocationID:  locationID,
		ProductID:   productID,
		Type:        MovementRefund,
		QtyChange:   qty,
		Reference:   reference,
		ActorID:     actorID,
		keepAvgCost: true,
	})
}

type movementParams struct {
	OrgID         int64
	LocationID    int64
	ProductID     int64
	Type          MovementType
	QtyChange     int64
	UnitCostCents int64
	Reference     string
	Note          string
	ActorID       int64

	// keepAvgCost receives inbound stock at the current average instead
	// of the supplied unit cost.
	keepAvgCost bool
}

func (s *Service) post(ctx context.Context, params movementParams) (Movement, error) {
	if params.LocationID == 0 || params.ProductID == 0 {
		return Movement{}, fmt.Errorf("inventory: location and product required")
	}
	now := time.Now().UTC()

	var posted Movement
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		level, err := tx.GetLevelForUpdate(ctx, params.OrgID, params.LocationID, params.ProductID)
		if err != nil && !errors.Is(err, ErrLevelNotFound) {
			return err
		}

		newQty := level.Qty + params.QtyChange
		if newQty < 0 {
			return ErrNegativeStock
		}

		unitCost := params.UnitCostCents
		newAvg := level.AvgCostCents
		if params.QtyChange > 0 {
			if params.keepAvgCost {
				unitCost = level.AvgCostCents
			}
			totalCost := level.Qty*level.AvgCostCents + params.QtyChange*unitCost
			if newQty > 0 {
				newAvg = totalCost / newQty
			}
		} else {
			unitCost = level.AvgCostCents
			if newQty == 0 {
				newAvg = 0
			}
		}

		level.Qty = newQty
		level.AvgCostCents = newAvg
		if err := tx.UpsertLevel(ctx, level); err != nil {
			return err
		}

		posted = Movement{
			OrgID:         params.OrgID,
			LocationID:    params.LocationID,
			ProductID:     params.ProductID,
			Type:          params.Type,
			QtyChange:     params.QtyChange,
			UnitCostCents: unitCost,
			BalanceQty:    newQty,
			Reference:     params.Reference,
			Note:          params.Note,
			ActorID:       params.ActorID,
			PostedAt:      now,
		}
		id, err := tx.InsertMovement(ctx, posted)
		if err != nil {
			return err
		}
		posted.ID = id
		return nil
	})
	if err != nil {
		return Movement{}, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			OrgID:    params.OrgID,
			ActorID:  params.ActorID,
			Action:   fmt.Sprintf("stock:%s", params.Type),
			Entity:   "stock_movement",
			EntityID: fmt.Sprintf("%d", posted.ID),
			Meta: map[string]any{
				"location_id": params.LocationID,
				"product_id":  params.ProductID,
				"qty_change":  params.QtyChange,
				"note":        params.Note,
			},
		})
	}
	return posted, nil
}
