package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/stocklive/stocklive/internal/core/domain"
	"github.com/stocklive/stocklive/internal/port"
)

// ReplenishmentService detects understocked items and materializes
// consolidated purchase orders for them.
type ReplenishmentService struct {
	inventory port.InventoryRepository
	suppliers port.SupplierRepository
	orders    port.OrderRepository
	log       *logrus.Logger
}

func NewReplenishmentService(
	inventory port.InventoryRepository,
	suppliers port.SupplierRepository,
	orders port.OrderRepository,
	log *logrus.Logger,
) *ReplenishmentService {
	return &ReplenishmentService{
		inventory: inventory,
		suppliers: suppliers,
		orders:    orders,
		log:       log,
	}
}

// CheckReorderNeeds selects items at or below their reorder point and
// resolves each to its best supplier. Items with no eligible supplier, or
// with a zero reorder quantity, are logged and excluded from the run.
func (s *ReplenishmentService) CheckReorderNeeds(ctx context.Context) ([]domain.ReorderCalculation, error) {
	items, err := s.inventory.ListBelowReorderPoint(ctx)
	if err != nil {
		return nil, fmt.Errorf("list understocked items: %w", err)
	}

	var calculations []domain.ReorderCalculation
	for _, item := range items {
		if item.ReorderQuantity <= 0 {
			s.log.WithFields(logrus.Fields{
				"item_id": item.ID,
				"sku":     item.SKU,
			}).Warn("understocked item has no reorder quantity, skipping")
			continue
		}

		supplier, err := s.suppliers.FindBestSupplier(ctx, item.Category)
		if err != nil {
			return nil, fmt.Errorf("resolve supplier for item %d: %w", item.ID, err)
		}
		if supplier == nil {
			s.log.WithFields(logrus.Fields{
				"item_id":  item.ID,
				"sku":      item.SKU,
				"category": item.Category,
			}).Warn("no eligible supplier, item excluded from run")
			continue
		}

		calculations = append(calculations, domain.ReorderCalculation{
			ItemID:        item.ID,
			SupplierID:    supplier.ID,
			Quantity:      item.ReorderQuantity,
			EstimatedCost: item.UnitPrice.Mul(decimal.NewFromInt(int64(item.ReorderQuantity))),
		})
	}

	return calculations, nil
}

// CreateAutomatedPurchaseOrders groups calculations by supplier and persists
// one order per supplier, each with its lines, atomically. Supplier groups
// are processed in first-seen order so runs are reproducible.
func (s *ReplenishmentService) CreateAutomatedPurchaseOrders(ctx context.Context, calculations []domain.ReorderCalculation) ([]domain.PurchaseOrder, error) {
	grouped := make(map[int64][]domain.ReorderCalculation)
	var supplierOrder []int64
	for _, calc := range calculations {
		if calc.Quantity <= 0 {
			// Guarded upstream; a zero quantity would divide by zero below.
			continue
		}
		if _, ok := grouped[calc.SupplierID]; !ok {
			supplierOrder = append(supplierOrder, calc.SupplierID)
		}
		grouped[calc.SupplierID] = append(grouped[calc.SupplierID], calc)
	}

	var created []domain.PurchaseOrder
	for _, supplierID := range supplierOrder {
		group := grouped[supplierID]

		total := decimal.Zero
		lines := make([]domain.PurchaseOrderLine, 0, len(group))
		for _, calc := range group {
			qty := decimal.NewFromInt(int64(calc.Quantity))
			lines = append(lines, domain.PurchaseOrderLine{
				ItemID:    calc.ItemID,
				Quantity:  calc.Quantity,
				UnitPrice: calc.EstimatedCost.Div(qty),
				Subtotal:  calc.EstimatedCost,
			})
			total = total.Add(calc.EstimatedCost)
		}

		order := domain.PurchaseOrder{
			Reference:   "PO-" + uuid.NewString(),
			SupplierID:  supplierID,
			TotalAmount: total,
			Status:      domain.OrderStatusPending,
			IsAutomated: true,
			Notes:       "created by automated reordering",
		}
		if err := s.orders.CreatePurchaseOrder(ctx, &order, lines); err != nil {
			return created, fmt.Errorf("create purchase order for supplier %d: %w", supplierID, err)
		}
		created = append(created, order)

		s.log.WithFields(logrus.Fields{
			"order_id":    order.ID,
			"supplier_id": supplierID,
			"lines":       len(lines),
			"total":       total.String(),
		}).Info("created automated purchase order")
	}

	return created, nil
}

// RunAutomationCheck is the full scan-then-order pass. Zero items needing
// reorder is a successful no-op; any store failure aborts the run and
// propagates to the caller.
func (s *ReplenishmentService) RunAutomationCheck(ctx context.Context) error {
	calculations, err := s.CheckReorderNeeds(ctx)
	if err != nil {
		return fmt.Errorf("reorder check: %w", err)
	}
	if len(calculations) == 0 {
		s.log.Debug("automation check: no items need reordering")
		return nil
	}

	orders, err := s.CreateAutomatedPurchaseOrders(ctx, calculations)
	if err != nil {
		return fmt.Errorf("automated order creation: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"calculations": len(calculations),
		"orders":       len(orders),
	}).Info("automation check complete")
	return nil
}
