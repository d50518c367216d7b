package projection

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"example.com/clinichub/services/appointment/internal/models"
)

// GormSummaryStore implements SummaryStore with insert-or-replace upserts
// keyed by aggregate id. The ON CONFLICT clause makes the upsert atomic, so
// concurrent projections of the same aggregate never interleave partially.
type GormSummaryStore struct {
	db *gorm.DB
}

// NewGormSummaryStore creates a summary store on the given database.
func NewGormSummaryStore(db *gorm.DB) *GormSummaryStore {
	return &GormSummaryStore{db: db}
}

// UpsertAppointment replaces the appointment summary row.
func (s *GormSummaryStore) UpsertAppointment(ctx context.Context, summary *models.AppointmentSummary) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "appointment_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"patient_id", "physician_id", "patient_name", "physician_name", "scheduled_at", "status", "last_updated"}),
	}).Create(summary).Error
	if err != nil {
		return fmt.Errorf("failed to upsert appointment summary: %w", err)
	}
	return nil
}

// UpsertPatient replaces the patient summary row.
func (s *GormSummaryStore) UpsertPatient(ctx context.Context, summary *models.PatientSummary) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "patient_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "name", "phone_number", "last_updated"}),
	}).Create(summary).Error
	if err != nil {
		return fmt.Errorf("failed to upsert patient summary: %w", err)
	}
	return nil
}

// UpsertPhysician replaces the physician summary row.
func (s *GormSummaryStore) UpsertPhysician(ctx context.Context, summary *models.PhysicianSummary) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "physician_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "name", "specialty", "last_updated"}),
	}).Create(summary).Error
	if err != nil {
		return fmt.Errorf("failed to upsert physician summary: %w", err)
	}
	return nil
}
