package domain

import "time"

type AuditAction string

const (
	AuditActionCreated AuditAction = "created"
	AuditActionUpdated AuditAction = "updated"
)

type AuditLog struct {
	ID        int64       `json:"id"`
	ItemID    int64       `json:"itemId"`
	Action    AuditAction `json:"action"`
	OldValue  string      `json:"oldValue,omitempty"`
	NewValue  string      `json:"newValue,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
}
