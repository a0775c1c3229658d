package inventory

import (
	"errors"
	"time"
)

// MovementType enumerates supported stock movements.
type MovementType string

const (
	// MovementReceive is an inbound receipt, usually from a purchase.
	MovementReceive MovementType = "RECEIVE"
	// MovementAdjust is a manual correction, positive or negative.
	MovementAdjust MovementType = "ADJUST"
	// MovementMoveOut is the outbound half of a location transfer.
	MovementMoveOut MovementType = "MOVE_OUT"
	// MovementMoveIn is the inbound half of a location transfer.
	MovementMoveIn MovementType = "MOVE_IN"
	// MovementSale is a decrement posted by a completed sale.
	MovementSale MovementType = "SALE"
	// MovementRefund restocks items from a refunded sale.
	MovementRefund MovementType = "REFUND"
)

// StockLevel summarises on-hand quantity per location and product.
type StockLevel struct {
	OrgID        int64     `json:"org_id"`
	LocationID   int64     `json:"location_id"`
	ProductID    int64     `json:"product_id"`
	Qty          int64     `json:"qty"`
	AvgCostCents int64     `json:"avg_cost_cents"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Movement is one entry in the append-only stock movement log.
type Movement struct {
	ID            int64        `json:"id"`
	OrgID         int64        `json:"org_id"`
	LocationID    int64        `json:"location_id"`
	ProductID     int64        `json:"product_id"`
	Type          MovementType `json:"type"`
	QtyChange     int64        `json:"qty_change"`
	UnitCostCents int64        `json:"unit_cost_cents"`
	BalanceQty    int64        `json:"balance_qty"`
	Reference     string       `json:"reference,omitempty"`
	Note          string       `json:"note,omitempty"`
	ActorID       int64        `json:"actor_id"`
	PostedAt      time.Time    `json:"posted_at"`
}

// ReceiveInput posts an inbound receipt.
type ReceiveInput struct {
	LocationID    int64
	ProductID     int64
	Qty           int64
	UnitCostCents int64
	Reference     string
	Note          string
	ActorID       int64
}

// AdjustInput posts a manual correction.
type AdjustInput struct {
	LocationID int64
	ProductID  int64
	QtyChange  int64
	Note       string
	ActorID    int64
}

// MoveInput transfers stock between two locations.
type MoveInput struct {
	SrcLocationID int64
	DstLocationID int64
	ProductID     int64
	Qty           int64
	Note          string
	ActorID       int64
}

// MovementFilter narrows the movement log listing.
type MovementFilter struct {
	LocationID int64
	ProductID  int64
	From       time.Time
	To         time.Time
	Limit      int
}

// LowStockItem is a product at or below its reorder point.
type LowStockItem struct {
	OrgID        int64  `json:"org_id"`
	LocationID   int64  `json:"location_id"`
	ProductID    int64  `json:"product_id"`
	SKU          string `json:"sku"`
	Name         string `json:"name"`
	Qty          int64  `json:"qty"`
	ReorderPoint int64  `json:"reorder_point"`
}

// ErrNegativeStock is returned when a movement would take on-hand below zero.
var ErrNegativeStock = errors.New("inventory: insufficient stock")

// ErrInvalidQuantity indicates a zero or wrongly signed quantity.
var ErrInvalidQuantity = errors.New("inventory: quantity must be non zero")

// ErrInvalidUnitCost indicates a negative unit cost.
var ErrInvalidUnitCost = errors.New("inventory: unit cost must be >= 0")

// ErrSameLocation rejects a transfer with identical endpoints.
var ErrSameLocation = errors.New("inventory: source and destination location must differ")

// ErrLevelNotFound indicates a missing stock level row.
var ErrLevelNotFound = errors.New("inventory: stock level not found")
