package projection

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/clinichub/services/appointment/internal/domain"
	"example.com/clinichub/services/appointment/internal/models"
)

func (p *EventProcessor) projectPhysician(ctx context.Context, event domain.Event, data json.RawMessage) error {
	var payload domain.PhysicianEvent
	if err := json.Unmarshal(data, &payload); err != nil {
		return errors.Wrap(err, "failed to decode physician event payload")
	}

	summary := &models.PhysicianSummary{
		PhysicianID: event.AggregateID,
		Username:    payload.Username,
		Name:        payload.Name,
		Specialty:   payload.Specialty,
		LastUpdated: p.now().UTC(),
	}

	if err := p.store.UpsertPhysician(ctx, summary); err != nil {
		return errors.Wrap(err, "failed to upsert physician summary")
	}

	if p.indexer != nil {
		if err := p.indexer.Index(ctx, PhysiciansIndex, summary.PhysicianID, summary); err != nil {
			return errors.Wrap(err, "failed to index physician summary")
		}
	}

	log.Info().Str("physician_id", summary.PhysicianID).Str("event_type", event.Type).Msg("Physician summary projected")
	return nil
}
