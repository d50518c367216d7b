package projection

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/clinichub/services/appointment/internal/domain"
	"example.com/clinichub/services/appointment/internal/models"
)

// projectAppointment upserts the appointment summary for any appointment
// transition. The payload carries the full snapshot, so the projection is an
// idempotent overwrite keyed by aggregate id; replaying the same event twice
// yields the same row.
func (p *EventProcessor) projectAppointment(ctx context.Context, event domain.Event, data json.RawMessage) error {
	var payload domain.AppointmentEvent
	if err := json.Unmarshal(data, &payload); err != nil {
		return errors.Wrap(err, "failed to decode appointment event payload")
	}

	summary := &models.AppointmentSummary{
		AppointmentID: event.AggregateID,
		PatientID:     payload.PatientID,
		PhysicianID:   payload.PhysicianID,
		PatientName:   payload.PatientName,
		PhysicianName: payload.PhysicianName,
		ScheduledAt:   payload.ScheduledAt,
		Status:        payload.Status,
		LastUpdated:   p.now().UTC(),
	}

	if err := p.store.UpsertAppointment(ctx, summary); err != nil {
		return errors.Wrap(err, "failed to upsert appointment summary")
	}

	if p.indexer != nil {
		if err := p.indexer.Index(ctx, AppointmentsIndex, summary.AppointmentID, summary); err != nil {
			return errors.Wrap(err, "failed to index appointment summary")
		}
	}

	log.Info().
		Str("appointment_id", summary.AppointmentID).
		Str("status", summary.Status).
		Str("event_type", event.Type).
		Msg("Appointment summary projected")
	return nil
}
