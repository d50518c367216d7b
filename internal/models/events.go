package models

import (
	"time"
)

// AuditEvent is an append-only audit trail row. For a given aggregate the
// versions are contiguous starting at 1; rows are never updated or deleted.
type AuditEvent struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	AggregateID      string    `gorm:"index:idx_audit_aggregate_version,unique" json:"aggregate_id"`
	AggregateVersion int       `gorm:"index:idx_audit_aggregate_version,unique" json:"aggregate_version"`
	EventType        string    `gorm:"index" json:"event_type"`
	EventData        []byte    `json:"event_data"`
	Metadata         []byte    `json:"metadata,omitempty"`
	CorrelationID    string    `gorm:"index" json:"correlation_id"`
	UserID           string    `json:"user_id,omitempty"`
	Timestamp        time.Time `gorm:"index" json:"timestamp"`
}

// Saga step status values.
const (
	SagaPending     = "PENDING"
	SagaCompleted   = "COMPLETED"
	SagaCompensated = "COMPENSATED"
)

// SagaEvent records one step of a cross-service workflow. A row with
// Compensation=true undoes an earlier forward step for the same appointment;
// the pair is correlated by AppointmentID and CorrelationID, not a foreign key.
type SagaEvent struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	AppointmentID string    `gorm:"index" json:"appointment_id"`
	EventType     string    `json:"event_type"`
	Payload       []byte    `json:"payload"`
	CorrelationID string    `gorm:"index" json:"correlation_id"`
	Status        string    `gorm:"index" json:"status"`
	Compensation  bool      `json:"compensation"`
	OccurredAt    time.Time `gorm:"index" json:"occurred_at"`
}
