package saga

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"example.com/clinichub/services/appointment/internal/metrics"
	"example.com/clinichub/services/appointment/internal/models"
)

// Log records forward and compensating steps of cross-service workflows.
// It is advisory: no automatic compensation executor reads it, an operator
// or a future reconciler does.
type Log interface {
	Record(ctx context.Context, appointmentID, eventType string, payload interface{}, correlationID, status string, compensation bool) (*models.SagaEvent, error)
	FindByAppointmentID(ctx context.Context, appointmentID string) ([]models.SagaEvent, error)
	Reconcile(ctx context.Context, appointmentID string) (Outcome, error)
	FindStalePending(ctx context.Context, olderThan time.Duration) ([]models.SagaEvent, error)
}

// GormLog implements Log on a relational database.
type GormLog struct {
	db        *gorm.DB
	collector *metrics.Metrics
}

// NewGormLog creates a GORM-backed saga log.
func NewGormLog(db *gorm.DB, collector *metrics.Metrics) *GormLog {
	return &GormLog{db: db, collector: collector}
}

// Record appends a saga event.
func (l *GormLog) Record(ctx context.Context, appointmentID, eventType string, payload interface{}, correlationID, status string, compensation bool) (*models.SagaEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal saga payload: %w", err)
	}

	event := models.SagaEvent{
		AppointmentID: appointmentID,
		EventType:     eventType,
		Payload:       data,
		CorrelationID: correlationID,
		Status:        status,
		Compensation:  compensation,
		OccurredAt:    time.Now().UTC(),
	}

	if err := l.db.WithContext(ctx).Create(&event).Error; err != nil {
		return nil, fmt.Errorf("failed to record saga event: %w", err)
	}

	if l.collector != nil {
		l.collector.IncrementCounter(metrics.SagaStepsRecorded)
	}
	log.Info().
		Str("appointment_id", appointmentID).
		Str("event_type", eventType).
		Str("status", status).
		Bool("compensation", compensation).
		Msg("Saga step recorded")

	return &event, nil
}

// FindByAppointmentID returns the workflow steps for an appointment ordered
// by occurrence.
func (l *GormLog) FindByAppointmentID(ctx context.Context, appointmentID string) ([]models.SagaEvent, error) {
	var events []models.SagaEvent
	if err := l.db.WithContext(ctx).
		Where("appointment_id = ?", appointmentID).
		Order("occurred_at ASC").
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to load saga events: %w", err)
	}
	return events, nil
}

// Reconcile replays the recorded sequence for an appointment and classifies
// the workflow outcome.
func (l *GormLog) Reconcile(ctx context.Context, appointmentID string) (Outcome, error) {
	events, err := l.FindByAppointmentID(ctx, appointmentID)
	if err != nil {
		return OutcomeUnknown, err
	}
	return Classify(events), nil
}

// FindStalePending returns forward steps still PENDING after olderThan.
func (l *GormLog) FindStalePending(ctx context.Context, olderThan time.Duration) ([]models.SagaEvent, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	var events []models.SagaEvent
	if err := l.db.WithContext(ctx).
		Where("status = ? AND compensation = ? AND occurred_at < ?", models.SagaPending, false, cutoff).
		Order("occurred_at ASC").
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to load stale pending saga events: %w", err)
	}
	return events, nil
}
