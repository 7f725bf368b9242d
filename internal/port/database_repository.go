package port

import (
	"context"

	"github.com/stocklive/stocklive/internal/core/domain"
)

type InventoryRepository interface {
	// GetItem retrieves an item by ID, nil if absent
	GetItem(ctx context.Context, id int64) (*domain.Item, error)

	// ListItems returns all items ordered by name
	ListItems(ctx context.Context) ([]domain.Item, error)

	// CreateItem persists a new item and its audit trail entry
	CreateItem(ctx context.Context, item *domain.Item) error

	// UpdateItem replaces the mutable fields of an item, false if absent
	UpdateItem(ctx context.Context, item *domain.Item) (bool, error)

	// UpdateQuantity sets a new quantity under a per-item row lock and
	// returns the quantity read before the write; nil item if absent
	UpdateQuantity(ctx context.Context, id int64, quantity int) (old int, item *domain.Item, err error)

	// ListBelowReorderPoint returns items with quantity <= reorder_point
	// and reorder_point > 0
	ListBelowReorderPoint(ctx context.Context) ([]domain.Item, error)

	// ListAuditLogs returns the most recent audit entries
	ListAuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error)
}

type SupplierRepository interface {
	// FindBestSupplier returns the matching supplier with the highest
	// reliability score for a category, nil if none exists
	FindBestSupplier(ctx context.Context, category string) (*domain.Supplier, error)

	// ListSuppliers returns all suppliers ordered by name
	ListSuppliers(ctx context.Context) ([]domain.Supplier, error)
}

type OrderRepository interface {
	// CreatePurchaseOrder persists an order and its lines in one
	// transaction; an order with zero lines is rejected
	CreatePurchaseOrder(ctx context.Context, order *domain.PurchaseOrder, lines []domain.PurchaseOrderLine) error

	// ListPurchaseOrders returns orders newest first
	ListPurchaseOrders(ctx context.Context, limit int) ([]domain.PurchaseOrder, error)
}
