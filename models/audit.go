package models

import (
	"encoding/json"
	"time"
)

// AuditLog is an append-only record of a privileged state change.
type AuditLog struct {
	ID           int             `json:"id"`
	UserID       int             `json:"user_id"`
	Action       string          `json:"action"` // e.g. "order.cancelled", "user.role_changed"
	ResourceType string          `json:"resource_type"`
	ResourceID   int             `json:"resource_id"`
	OldValue     json.RawMessage `json:"old_value,omitempty"`
	NewValue     json.RawMessage `json:"new_value,omitempty"`
	IPAddress    *string         `json:"ip_address,omitempty"`
	UserAgent    *string         `json:"user_agent,omitempty"`
	Description  *string         `json:"description,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

type Permission struct {
	ID          int       `json:"id"`
	Code        string    `json:"code"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
