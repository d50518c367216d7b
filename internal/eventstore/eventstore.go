package eventstore

import (
	"context"
	"time"

	"example.com/clinichub/services/appointment/internal/models"
)

// AppendOptions carries the optional columns of an audit entry.
type AppendOptions struct {
	CorrelationID string
	UserID        string
	Metadata      interface{}
}

// Store is the append-only audit trail for aggregate state transitions.
// Entries are immutable; per-aggregate versions are contiguous starting at 1.
type Store interface {
	// Append serializes data and inserts a new entry with the next version
	// for the aggregate, returning the persisted entry.
	Append(ctx context.Context, aggregateID, eventType string, data interface{}, opts AppendOptions) (*models.AuditEvent, error)

	// History returns all entries for an aggregate ordered by timestamp
	// ascending.
	History(ctx context.Context, aggregateID string) ([]models.AuditEvent, error)

	// CurrentState returns the entry with the highest version for the
	// aggregate, or nil when the aggregate has no entries.
	CurrentState(ctx context.Context, aggregateID string) (*models.AuditEvent, error)

	// ListByType returns entries of one event type, newest first.
	ListByType(ctx context.Context, eventType string, limit int) ([]models.AuditEvent, error)

	// ListByTimeRange returns entries whose timestamp falls in [from, to),
	// ordered by timestamp ascending.
	ListByTimeRange(ctx context.Context, from, to time.Time) ([]models.AuditEvent, error)
}
