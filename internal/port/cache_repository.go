package port

import "context"

type CacheRepository interface {
	// SetQuantity mirrors the current quantity of an item for cheap reads
	SetQuantity(ctx context.Context, itemID int64, quantity int) error

	// GetQuantity returns the cached quantity, false if not cached
	GetQuantity(ctx context.Context, itemID int64) (int, bool, error)

	// ThrottleAlert marks an item as recently alerted, returns false if an
	// alert already fired within the throttle window
	ThrottleAlert(ctx context.Context, itemID int64) (bool, error)
}
