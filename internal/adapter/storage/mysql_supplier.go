package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/stocklive/stocklive/internal/core/domain"
)

const supplierColumns = `id, name, email, category, reliability_score, lead_time_days, created_at, updated_at`

// FindBestSupplier picks the highest reliability score within a category,
// ties broken by lowest id so selection is reproducible.
func (m *MySQLAdapter) FindBestSupplier(ctx context.Context, category string) (*domain.Supplier, error) {
	var s domain.Supplier
	err := m.db.QueryRowContext(ctx, `
		SELECT `+supplierColumns+`
		FROM suppliers
		WHERE category = ?
		ORDER BY reliability_score DESC, id ASC
		LIMIT 1`, category,
	).Scan(&s.ID, &s.Name, &s.Email, &s.Category, &s.ReliabilityScore,
		&s.LeadTimeDays, &s.CreatedAt, &s.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query supplier: %w", err)
	}
	return &s, nil
}

func (m *MySQLAdapter) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT `+supplierColumns+`
		FROM suppliers ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query suppliers: %w", err)
	}
	defer rows.Close()

	var suppliers []domain.Supplier
	for rows.Next() {
		var s domain.Supplier
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.Category, &s.ReliabilityScore,
			&s.LeadTimeDays, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan supplier: %w", err)
		}
		suppliers = append(suppliers, s)
	}
	return suppliers, rows.Err()
}
