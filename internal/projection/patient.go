package projection

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/clinichub/services/appointment/internal/domain"
	"example.com/clinichub/services/appointment/internal/models"
)

func (p *EventProcessor) projectPatient(ctx context.Context, event domain.Event, data json.RawMessage) error {
	var payload domain.PatientEvent
	if err := json.Unmarshal(data, &payload); err != nil {
		return errors.Wrap(err, "failed to decode patient event payload")
	}

	summary := &models.PatientSummary{
		PatientID:   event.AggregateID,
		Username:    payload.Username,
		Name:        payload.Name,
		PhoneNumber: payload.PhoneNumber,
		LastUpdated: p.now().UTC(),
	}

	if err := p.store.UpsertPatient(ctx, summary); err != nil {
		return errors.Wrap(err, "failed to upsert patient summary")
	}

	if p.indexer != nil {
		if err := p.indexer.Index(ctx, PatientsIndex, summary.PatientID, summary); err != nil {
			return errors.Wrap(err, "failed to index patient summary")
		}
	}

	log.Info().Str("patient_id", summary.PatientID).Str("event_type", event.Type).Msg("Patient summary projected")
	return nil
}
