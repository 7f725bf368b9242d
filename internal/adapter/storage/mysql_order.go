package storage

import (
	"context"
	"fmt"

	"github.com/stocklive/stocklive/internal/core/domain"
)

// CreatePurchaseOrder writes the order and every line in one transaction.
// An order without lines, or lines without an order, must never be
// observable.
func (m *MySQLAdapter) CreatePurchaseOrder(ctx context.Context, order *domain.PurchaseOrder, lines []domain.PurchaseOrderLine) error {
	if len(lines) == 0 {
		return ErrNoLineItems
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO purchase_orders (reference, supplier_id, total_amount,
			status, is_automated, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, NOW(), NOW())`,
		order.Reference, order.SupplierID, order.TotalAmount,
		order.Status, order.IsAutomated, order.Notes,
	)
	if err != nil {
		return fmt.Errorf("insert purchase order: %w", err)
	}

	orderID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("purchase order id: %w", err)
	}
	order.ID = orderID

	for i := range lines {
		lines[i].OrderID = orderID
		_, err = tx.ExecContext(ctx, `
			INSERT INTO purchase_order_lines (order_id, item_id, quantity, unit_price, subtotal)
			VALUES (?, ?, ?, ?, ?)`,
			orderID, lines[i].ItemID, lines[i].Quantity,
			lines[i].UnitPrice, lines[i].Subtotal,
		)
		if err != nil {
			return fmt.Errorf("insert purchase order line: %w", err)
		}
	}

	return tx.Commit()
}

func (m *MySQLAdapter) ListPurchaseOrders(ctx context.Context, limit int) ([]domain.PurchaseOrder, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, reference, supplier_id, total_amount, status, is_automated,
			COALESCE(notes, ''), created_at, updated_at
		FROM purchase_orders ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query purchase orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.PurchaseOrder
	for rows.Next() {
		var o domain.PurchaseOrder
		if err := rows.Scan(&o.ID, &o.Reference, &o.SupplierID, &o.TotalAmount,
			&o.Status, &o.IsAutomated, &o.Notes, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan purchase order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}
