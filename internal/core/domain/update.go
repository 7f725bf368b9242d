package domain

import "time"

// InventoryUpdate is produced once per accepted quantity mutation and fanned
// out to live subscribers. It is never persisted as its own entity.
type InventoryUpdate struct {
	ItemID           int64     `json:"id"`
	Name             string    `json:"name"`
	Quantity         int       `json:"quantity"`
	PreviousQuantity int       `json:"previousQuantity"`
	Timestamp        time.Time `json:"timestamp"`
}
