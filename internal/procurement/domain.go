package procurement

import (
	"errors"
	"time"
)

// Supplier is a vendor the org purchases from.
type Supplier struct {
	ID        int64     `json:"id"`
	OrgID     int64     `json:"org_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SupplierInput carries create/update fields for a supplier.
type SupplierInput struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

// PurchaseStatus tracks a purchase through its lifecycle.
type PurchaseStatus string

const (
	// StatusOrdered is the initial status of a created purchase.
	StatusOrdered PurchaseStatus = "ORDERED"
	// StatusReceived marks a purchase whose stock has been posted.
	StatusReceived PurchaseStatus = "RECEIVED"
	// StatusCancelled marks a purchase that will never be received.
	StatusCancelled PurchaseStatus = "CANCELLED"
)

// Purchase is an order placed with a supplier.
type Purchase struct {
	ID         int64          `json:"id"`
	OrgID      int64          `json:"org_id"`
	SupplierID int64          `json:"supplier_id"`
	LocationID int64          `json:"location_id"`
	Number     string         `json:"number"`
	Status     PurchaseStatus `json:"status"`
	TotalCents int64          `json:"total_cents"`
	Note       string         `json:"note,omitempty"`
	CreatedBy  int64          `json:"created_by"`
	ReceivedAt *time.Time     `json:"received_at,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	Lines      []PurchaseLine `json:"lines,omitempty"`
}

// PurchaseLine is one product line on a purchase.
type PurchaseLine struct {
	ID            int64 `json:"id"`
	PurchaseID    int64 `json:"purchase_id"`
	ProductID     int64 `json:"product_id"`
	Qty           int64 `json:"qty"`
	UnitCostCents int64 `json:"unit_cost_cents"`
}

// PurchaseInput carries the create payload.
type PurchaseInput struct {
	SupplierID int64
	LocationID int64
	Number     string
	Note       string
	Lines      []PurchaseLineInput
}

// PurchaseLineInput is one requested line.
type PurchaseLineInput struct {
	ProductID     int64
	Qty           int64
	UnitCostCents int64
}

// ErrEmptyLines rejects a purchase without lines.
var ErrEmptyLines = errors.New("procurement: purchase requires at least one line")

// ErrInvalidLine rejects non-positive quantities or negative costs.
var ErrInvalidLine = errors.New("procurement: line qty must be > 0 and unit cost >= 0")

// ErrNotOrdered is returned when receiving or cancelling a purchase that is
// no longer in ORDERED status.
var ErrNotOrdered = errors.New("procurement: purchase is not in ordered status")
