package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

// Status transitions are linear: pending -> approved -> received.
const (
	OrderStatusPending  OrderStatus = "pending"
	OrderStatusApproved OrderStatus = "approved"
	OrderStatusReceived OrderStatus = "received"
)

type PurchaseOrder struct {
	ID          int64           `json:"id"`
	Reference   string          `json:"reference"`
	SupplierID  int64           `json:"supplierId"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Status      OrderStatus     `json:"status"`
	IsAutomated bool            `json:"isAutomated"`
	Notes       string          `json:"notes,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

type PurchaseOrderLine struct {
	ID        int64           `json:"id"`
	OrderID   int64           `json:"orderId"`
	ItemID    int64           `json:"itemId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// ReorderCalculation is the transient result of matching one deficient item
// to its supplier during an automation run.
type ReorderCalculation struct {
	ItemID        int64           `json:"itemId"`
	SupplierID    int64           `json:"supplierId"`
	Quantity      int             `json:"quantity"`
	EstimatedCost decimal.Decimal `json:"estimatedCost"`
}
