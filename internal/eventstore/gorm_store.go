package eventstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"example.com/clinichub/services/appointment/internal/models"
)

// GormStore implements Store on a relational database.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed audit store.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Append inserts a new immutable entry with the next version for the
// aggregate. The current max version row is locked inside the transaction so
// concurrent appenders for the same aggregate serialize; the unique index on
// (aggregate_id, aggregate_version) backstops the first-entry race where
// there is no row to lock yet.
func (s *GormStore) Append(ctx context.Context, aggregateID, eventType string, data interface{}, opts AppendOptions) (*models.AuditEvent, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event data: %w", err)
	}

	var metadata []byte
	if opts.Metadata != nil {
		metadata, err = json.Marshal(opts.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal event metadata: %w", err)
		}
	}

	entry := models.AuditEvent{
		AggregateID:   aggregateID,
		EventType:     eventType,
		EventData:     payload,
		Metadata:      metadata,
		CorrelationID: opts.CorrelationID,
		UserID:        opts.UserID,
		Timestamp:     time.Now().UTC(),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current int
		row := tx.Raw(
			"SELECT aggregate_version FROM audit_events WHERE aggregate_id = ? ORDER BY aggregate_version DESC LIMIT 1 FOR UPDATE",
			aggregateID,
		).Row()
		scanErr := row.Scan(&current)
		next, verErr := nextVersion(current, scanErr)
		if verErr != nil {
			return verErr
		}

		entry.AggregateVersion = next
		if createErr := tx.Create(&entry).Error; createErr != nil {
			return fmt.Errorf("failed to append audit event: %w", createErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("aggregate_id", aggregateID).
		Str("event_type", eventType).
		Int("version", entry.AggregateVersion).
		Msg("Audit event appended")

	return &entry, nil
}

// nextVersion computes the version for a new entry from the locked read of
// the current max. Only sql.ErrNoRows means a fresh aggregate; any other
// scan error is a real database failure and must abort the append instead
// of racing the unique index at version 1.
func nextVersion(current int, scanErr error) (int, error) {
	if scanErr != nil {
		if !errors.Is(scanErr, sql.ErrNoRows) {
			return 0, fmt.Errorf("failed to read current aggregate version: %w", scanErr)
		}
		return 1, nil
	}
	return current + 1, nil
}

// History returns all entries for an aggregate ordered by timestamp
// ascending. Versions agree with timestamp order under the single-writer
// assumption.
func (s *GormStore) History(ctx context.Context, aggregateID string) ([]models.AuditEvent, error) {
	var entries []models.AuditEvent
	if err := s.db.WithContext(ctx).
		Where("aggregate_id = ?", aggregateID).
		Order("timestamp ASC").
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to load audit history: %w", err)
	}
	return entries, nil
}

// CurrentState returns the highest-version entry for the aggregate.
func (s *GormStore) CurrentState(ctx context.Context, aggregateID string) (*models.AuditEvent, error) {
	var entry models.AuditEvent
	err := s.db.WithContext(ctx).
		Where("aggregate_id = ?", aggregateID).
		Order("aggregate_version DESC").
		First(&entry).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load current state: %w", err)
	}
	return &entry, nil
}

// ListByType returns entries of one event type, newest first.
func (s *GormStore) ListByType(ctx context.Context, eventType string, limit int) ([]models.AuditEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	var entries []models.AuditEvent
	if err := s.db.WithContext(ctx).
		Where("event_type = ?", eventType).
		Order("timestamp DESC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list audit events by type: %w", err)
	}
	return entries, nil
}

// ListByTimeRange returns entries in [from, to) ordered by timestamp.
func (s *GormStore) ListByTimeRange(ctx context.Context, from, to time.Time) ([]models.AuditEvent, error) {
	var entries []models.AuditEvent
	if err := s.db.WithContext(ctx).
		Where("timestamp >= ? AND timestamp < ?", from, to).
		Order("timestamp ASC").
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list audit events by time range: %w", err)
	}
	return entries, nil
}
