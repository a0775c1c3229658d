package catalog

import "time"

// Product is a sellable item in the org's catalog. Prices are stored in
// minor units.
type Product struct {
	ID           int64      `json:"id"`
	OrgID        int64      `json:"org_id"`
	CategoryID   *int64     `json:"category_id,omitempty"`
	SKU          string     `json:"sku"`
	Name         string     `json:"name"`
	PriceCents   int64      `json:"price_cents"`
	CostCents    int64      `json:"cost_cents"`
	ReorderPoint int64      `json:"reorder_point"`
	ArchivedAt   *time.Time `json:"archived_at,omitempty"`
	CreatedBy    int64      `json:"created_by"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Category groups products.
type Category struct {
	ID        int64     `json:"id"`
	OrgID     int64     `json:"org_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProductInput carries create/update fields for a product.
type ProductInput struct {
	CategoryID   *int64
	SKU          string
	Name         string
	PriceCents   int64
	CostCents    int64
	ReorderPoint int64
}
