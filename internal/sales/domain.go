package sales

import (
	"errors"
	"time"
)

// Customer is a buyer tracked by the org.
type Customer struct {
	ID        int64     `json:"id"`
	OrgID     int64     `json:"org_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CustomerInput carries create/update fields for a customer.
type CustomerInput struct {
	Name  string
	Email string
	Phone string
}

// SaleStatus tracks a sale through its lifecycle.
type SaleStatus string

const (
	// StatusCompleted is the status of a posted sale.
	StatusCompleted SaleStatus = "COMPLETED"
	// StatusRefunded marks a sale whose stock has been returned.
	StatusRefunded SaleStatus = "REFUNDED"
)

// Sale is a completed point-of-sale transaction.
type Sale struct {
	ID            int64      `json:"id"`
	OrgID         int64      `json:"org_id"`
	LocationID    int64      `json:"location_id"`
	CustomerID    *int64     `json:"customer_id,omitempty"`
	Number        string     `json:"number"`
	Status        SaleStatus `json:"status"`
	TotalCents    int64      `json:"total_cents"`
	PaymentMethod string     `json:"payment_method"`
	Note          string     `json:"note,omitempty"`
	CreatedBy     int64      `json:"created_by"`
	RefundedAt    *time.Time `json:"refunded_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	Lines         []SaleLine `json:"lines,omitempty"`
}

// SaleLine is one product line on a sale.
type SaleLine struct {
	ID             int64 `json:"id"`
	SaleID         int64 `json:"sale_id"`
	ProductID      int64 `json:"product_id"`
	Qty            int64 `json:"qty"`
	UnitPriceCents int64 `json:"unit_price_cents"`
}

// SaleInput carries the create payload.
type SaleInput struct {
	LocationID    int64
	CustomerID    *int64
	Number        string
	PaymentMethod string
	Note          string
	Lines         []SaleLineInput
}

// SaleLineInput is one requested line.
type SaleLineInput struct {
	ProductID      int64
	Qty            int64
	UnitPriceCents int64
}

// ErrEmptyLines rejects a sale without lines.
var ErrEmptyLines = errors.New("sales: sale requires at least one line")

// ErrInvalidLine rejects non-positive quantities or negative prices.
var ErrInvalidLine = errors.New("sales: line qty must be > 0 and unit price >= 0")

// ErrAlreadyRefunded is returned for a second refund of the same sale.
var ErrAlreadyRefunded = errors.New("sales: sale already refunded")
