// Package events records the append-only audit trail of lead submissions.
package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wolfman30/baja-build-leads/pkg/logging"
)

// EventType names a lead audit event.
type EventType string

const (
	// EventLeadCreated is written once after a lead row is inserted.
	EventLeadCreated EventType = "lead_created"
)

// LeadEvent is an immutable audit record linked to a lead.
type LeadEvent struct {
	ID        string          `json:"id"`
	LeadID    string          `json:"lead_id"`
	TenantID  string          `json:"tenant_id,omitempty"`
	EventType EventType       `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewLeadEvent builds an event with a marshaled payload.
func NewLeadEvent(leadID, tenantID string, eventType EventType, payload any) (LeadEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return LeadEvent{}, fmt.Errorf("events: marshal payload: %w", err)
	}
	return LeadEvent{
		LeadID:    leadID,
		TenantID:  tenantID,
		EventType: eventType,
		Payload:   data,
	}, nil
}

// SQLStore writes lead events to the lead_events table.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore creates a store over an open database handle.
func NewSQLStore(db *sql.DB) *SQLStore {
	if db == nil {
		panic("events: sql db required")
	}
	return &SQLStore{db: db}
}

// Record inserts the event, filling ID and CreatedAt when unset.
func (s *SQLStore) Record(ctx context.Context, event LeadEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO lead_events (id, lead_id, tenant_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		event.ID,
		event.LeadID,
		nullString(event.TenantID),
		string(event.EventType),
		[]byte(event.Payload),
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("events: insert lead event: %w", err)
	}
	return nil
}

// MemoryStore keeps events in process memory.
type MemoryStore struct {
	mu     sync.Mutex
	events []LeadEvent
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Record(ctx context.Context, event LeadEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	s.events = append(s.events, event)
	s.mu.Unlock()
	return nil
}

// Events returns a copy of everything recorded so far.
func (s *MemoryStore) Events() []LeadEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]LeadEvent(nil), s.events...)
}

// LogRecorder emits events to the structured log. Used when the lead store
// has no relational database behind it.
type LogRecorder struct {
	logger *logging.Logger
}

func NewLogRecorder(logger *logging.Logger) *LogRecorder {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogRecorder{logger: logger}
}

func (r *LogRecorder) Record(ctx context.Context, event LeadEvent) error {
	r.logger.Info("lead event",
		"event_type", string(event.EventType),
		"lead_id", event.LeadID,
		"tenant_id", event.TenantID,
		"payload", string(event.Payload),
	)
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
