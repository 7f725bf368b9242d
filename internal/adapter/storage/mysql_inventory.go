package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/stocklive/stocklive/internal/core/domain"
)

const itemColumns = `id, name, sku, description, category, quantity,
		reorder_point, reorder_quantity, unit_price, location, created_at, updated_at`

func scanItem(row interface {
	Scan(dest ...any) error
}, item *domain.Item) error {
	return row.Scan(
		&item.ID, &item.Name, &item.SKU, &item.Description, &item.Category,
		&item.Quantity, &item.ReorderPoint, &item.ReorderQuantity,
		&item.UnitPrice, &item.Location, &item.CreatedAt, &item.UpdatedAt,
	)
}

func (m *MySQLAdapter) GetItem(ctx context.Context, id int64) (*domain.Item, error) {
	var item domain.Item
	err := scanItem(m.db.QueryRowContext(ctx, `
		SELECT `+itemColumns+`
		FROM items WHERE id = ?`, id), &item)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query item: %w", err)
	}
	return &item, nil
}

func (m *MySQLAdapter) ListItems(ctx context.Context) ([]domain.Item, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT `+itemColumns+`
		FROM items ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		var item domain.Item
		if err := scanItem(rows, &item); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (m *MySQLAdapter) CreateItem(ctx context.Context, item *domain.Item) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO items (name, sku, description, category, quantity,
			reorder_point, reorder_quantity, unit_price, location, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, NOW(), NOW())`,
		item.Name, item.SKU, item.Description, item.Category, item.Quantity,
		item.ReorderPoint, item.ReorderQuantity, item.UnitPrice, item.Location,
	)
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("item id: %w", err)
	}
	item.ID = id

	_, err = tx.ExecContext(ctx, `
		INSERT INTO audit_logs (item_id, action, new_value, created_at)
		VALUES (?, ?, ?, NOW())`,
		item.ID, domain.AuditActionCreated, strconv.Itoa(item.Quantity),
	)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}

	return tx.Commit()
}

func (m *MySQLAdapter) UpdateItem(ctx context.Context, item *domain.Item) (bool, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var oldQuantity int
	err = tx.QueryRowContext(ctx,
		`SELECT quantity FROM items WHERE id = ? FOR UPDATE`, item.ID,
	).Scan(&oldQuantity)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lock item: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE items
		SET name = ?, description = ?, category = ?, quantity = ?,
			reorder_point = ?, reorder_quantity = ?, unit_price = ?,
			location = ?, updated_at = NOW()
		WHERE id = ?`,
		item.Name, item.Description, item.Category, item.Quantity,
		item.ReorderPoint, item.ReorderQuantity, item.UnitPrice,
		item.Location, item.ID,
	)
	if err != nil {
		return false, fmt.Errorf("update item: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO audit_logs (item_id, action, old_value, new_value, created_at)
		VALUES (?, ?, ?, ?, NOW())`,
		item.ID, domain.AuditActionUpdated,
		strconv.Itoa(oldQuantity), strconv.Itoa(item.Quantity),
	)
	if err != nil {
		return false, fmt.Errorf("insert audit log: %w", err)
	}

	return true, tx.Commit()
}

// UpdateQuantity performs the read-then-write under a row lock so two
// concurrent submissions for the same item cannot both compute their
// previous quantity from a stale read.
func (m *MySQLAdapter) UpdateQuantity(ctx context.Context, id int64, quantity int) (int, *domain.Item, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var item domain.Item
	err = scanItem(tx.QueryRowContext(ctx, `
		SELECT `+itemColumns+`
		FROM items WHERE id = ? FOR UPDATE`, id), &item)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil, nil
	}
	if err != nil {
		return 0, nil, fmt.Errorf("lock item: %w", err)
	}

	old := item.Quantity

	_, err = tx.ExecContext(ctx,
		`UPDATE items SET quantity = ?, updated_at = NOW() WHERE id = ?`,
		quantity, id,
	)
	if err != nil {
		return 0, nil, fmt.Errorf("update quantity: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO audit_logs (item_id, action, old_value, new_value, created_at)
		VALUES (?, ?, ?, ?, NOW())`,
		id, domain.AuditActionUpdated, strconv.Itoa(old), strconv.Itoa(quantity),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("insert audit log: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, nil, fmt.Errorf("commit: %w", err)
	}

	item.Quantity = quantity
	return old, &item, nil
}

func (m *MySQLAdapter) ListBelowReorderPoint(ctx context.Context) ([]domain.Item, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT `+itemColumns+`
		FROM items
		WHERE quantity <= reorder_point AND reorder_point > 0
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query low stock items: %w", err)
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		var item domain.Item
		if err := scanItem(rows, &item); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (m *MySQLAdapter) ListAuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, item_id, action, COALESCE(old_value, ''), COALESCE(new_value, ''), created_at
		FROM audit_logs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit logs: %w", err)
	}
	defer rows.Close()

	var logs []domain.AuditLog
	for rows.Next() {
		var l domain.AuditLog
		if err := rows.Scan(&l.ID, &l.ItemID, &l.Action, &l.OldValue, &l.NewValue, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
