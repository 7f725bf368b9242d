package hub

import (
	"encoding/json"
	"fmt"
)

// Wire message types exchanged between the hub and subscribers.
const (
	MessageTypeConnectionAck   = "CONNECTION_ACK"
	MessageTypeInventoryUpdate = "INVENTORY_UPDATE"
	MessageTypeStockAlert      = "STOCK_ALERT"
	MessageTypeError           = "ERROR"
)

type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// updateRequest is the inbound client->hub mutation payload. json.Number
// keeps fractional or non-numeric values from silently truncating.
type updateRequest struct {
	ItemID   json.Number `json:"itemId"`
	Quantity json.Number `json:"quantity"`
}

type ackPayload struct {
	Message string `json:"message"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type alertPayload struct {
	ItemID       int64  `json:"id"`
	Name         string `json:"name"`
	SKU          string `json:"sku"`
	Quantity     int    `json:"quantity"`
	ReorderPoint int    `json:"reorderPoint"`
}

func encodeMessage(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	data, err := json.Marshal(Message{Type: msgType, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("marshal message: %w", err)
	}
	return data, nil
}

type Role string

const (
	RoleUser    Role = "user"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

// Elevated reports whether the role receives the stock alert channel.
func (r Role) Elevated() bool {
	return r == RoleManager || r == RoleAdmin
}

// ParseRole maps an untrusted role string onto a known role, defaulting to
// the unprivileged one.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleManager:
		return RoleManager
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleUser
	}
}
