package shared

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FieldChange captures a single field diff inside an audit entry.
type FieldChange struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// AuditEntry represents one record written to audit_logs.
type AuditEntry struct {
	ID       uuid.UUID
	ActorID  int64
	Entity   string
	EntityID string
	Action   string
	Changes  map[string]FieldChange
	Meta     map[string]any
	At       time.Time
}

// AuditSink receives one entry per successful mutation.
type AuditSink interface {
	Record(ctx context.Context, entry AuditEntry) error
}

// PGAuditSink writes entries into audit_logs.
type PGAuditSink struct {
	pool *pgxpool.Pool
}

// NewPGAuditSink returns a PostgreSQL backed sink.
func NewPGAuditSink(pool *pgxpool.Pool) *PGAuditSink {
	return &PGAuditSink{pool: pool}
}

// Record persists the entry.
func (s *PGAuditSink) Record(ctx context.Context, entry AuditEntry) error {
	if s == nil {
		return errors.New("audit sink not initialised")
	}
	if entry.Action == "" || entry.Entity == "" || entry.EntityID == "" {
		return errors.New("audit entry requires action/entity/entity_id")
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.At.IsZero() {
		entry.At = time.Now()
	}
	payload := map[string]any{}
	for k, v := range entry.Meta {
		payload[k] = v
	}
	if len(entry.Changes) > 0 {
		payload["changes"] = entry.Changes
	}
	meta, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO audit_logs (id, actor_id, entity, entity_id, action, meta, occurred_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.ActorID, entry.Entity, entry.EntityID, entry.Action, meta, entry.At)
	return err
}

// NoopAuditSink discards entries. Used in tests.
type NoopAuditSink struct{}

// Record implements AuditSink.
func (NoopAuditSink) Record(context.Context, AuditEntry) error { return nil }
