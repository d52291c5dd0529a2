package audit

import (
	"context"
	"database/sql"
	"encoding/json"

	"go.uber.org/zap"
)

// Recorder appends entries to the audit_logs table. Entries are never
// updated or deleted. A failed write is logged and swallowed so an
// audit problem never fails the request that triggered it.
type Recorder struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewRecorder(db *sql.DB, logger *zap.Logger) *Recorder {
	return &Recorder{db: db, logger: logger}
}

type Entry struct {
	ActorID      int
	Action       string // e.g. "order.cancelled", "user.role_changed"
	ResourceType string
	ResourceID   int
	OldValue     any
	NewValue     any
	IPAddress    string
	UserAgent    string
	Description  string
}

func (r *Recorder) Record(ctx context.Context, e Entry) {
	oldValue := marshalValue(e.OldValue)
	newValue := marshalValue(e.NewValue)

	var ip, ua, desc *string
	if e.IPAddress != "" {
		ip = &e.IPAddress
	}
	if e.UserAgent != "" {
		ua = &e.UserAgent
	}
	if e.Description != "" {
		desc = &e.Description
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO audit_logs (user_id, action, resource_type, resource_id, old_value, new_value, ip_address, user_agent, description) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)",
		e.ActorID, e.Action, e.ResourceType, e.ResourceID, oldValue, newValue, ip, ua, desc)
	if err != nil {
		r.logger.Error("Failed to write audit log",
			zap.String("action", e.Action),
			zap.Int("resource_id", e.ResourceID),
			zap.Error(err))
	}
}

func marshalValue(v any) []byte {
	if v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}
