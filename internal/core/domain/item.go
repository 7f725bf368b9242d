package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Item struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	SKU         string `json:"sku"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category"`
	Quantity    int    `json:"quantity"`
	// ReorderPoint is the quantity at or below which automated
	// replenishment triggers. Zero opts the item out.
	ReorderPoint    int             `json:"reorderPoint"`
	ReorderQuantity int             `json:"reorderQuantity"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
	Location        string          `json:"location,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// BelowReorderPoint reports whether the item is eligible for automated
// replenishment at its current quantity.
func (i Item) BelowReorderPoint() bool {
	return i.ReorderPoint > 0 && i.Quantity <= i.ReorderPoint
}
