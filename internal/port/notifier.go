package port

import (
	"context"

	"github.com/stocklive/stocklive/internal/core/domain"
)

type Notifier interface {
	// NotifyLowStock sends a low-stock summary to the configured recipient
	NotifyLowStock(ctx context.Context, items []domain.Item) error
}
