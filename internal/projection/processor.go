package projection

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/clinichub/services/appointment/internal/domain"
	"example.com/clinichub/services/appointment/internal/metrics"
	"example.com/clinichub/services/appointment/internal/models"
)

// Elasticsearch index names (prefixed per config).
const (
	AppointmentsIndex = "appointments"
	PatientsIndex     = "patients"
	PhysiciansIndex   = "physicians"
)

// SummaryStore upserts read-model summaries keyed by aggregate id. The
// upsert must be atomic at the storage layer so concurrent handlers for the
// same aggregate stay safe without handler-side locks.
type SummaryStore interface {
	UpsertAppointment(ctx context.Context, summary *models.AppointmentSummary) error
	UpsertPatient(ctx context.Context, summary *models.PatientSummary) error
	UpsertPhysician(ctx context.Context, summary *models.PhysicianSummary) error
}

// Indexer writes read-model documents into the document store.
type Indexer interface {
	Index(ctx context.Context, index, documentID string, doc interface{}) error
}

// EventProcessor consumes domain events and projects them into the read
// model. Projections are full overwrites: any event is the new truth for the
// fields it carries, regardless of arrival order.
type EventProcessor struct {
	store     SummaryStore
	indexer   Indexer
	collector *metrics.Metrics
	now       func() time.Time
}

// NewEventProcessor creates a projection processor.
func NewEventProcessor(store SummaryStore, indexer Indexer, collector *metrics.Metrics) *EventProcessor {
	return &EventProcessor{
		store:     store,
		indexer:   indexer,
		collector: collector,
		now:       time.Now,
	}
}

// ProcessMessage decodes a domain event envelope and applies the projection
// for its aggregate. Unknown routing keys are skipped, not failed, so new
// producers do not wedge old consumers.
func (p *EventProcessor) ProcessMessage(ctx context.Context, body []byte) error {
	var envelope struct {
		Type          string          `json:"type"`
		AggregateID   string          `json:"aggregate_id"`
		OccurredAt    time.Time       `json:"occurred_at"`
		CorrelationID string          `json:"correlation_id"`
		Data          json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return errors.Wrap(err, "failed to decode event envelope")
	}

	event := domain.Event{
		Type:          envelope.Type,
		AggregateID:   envelope.AggregateID,
		OccurredAt:    envelope.OccurredAt,
		CorrelationID: envelope.CorrelationID,
		Data:          envelope.Data,
	}

	var err error
	switch domain.AggregateOf(event.Type) {
	case domain.AggregateAppointment:
		err = p.projectAppointment(ctx, event, envelope.Data)
	case domain.AggregatePatient:
		err = p.projectPatient(ctx, event, envelope.Data)
	case domain.AggregatePhysician:
		err = p.projectPhysician(ctx, event, envelope.Data)
	default:
		log.Warn().Str("type", event.Type).Msg("Unknown event type, skipping")
		return nil
	}

	if err != nil {
		if p.collector != nil {
			p.collector.IncrementCounter(metrics.ProjectionFailures)
		}
		return err
	}

	if p.collector != nil {
		p.collector.IncrementCounter(metrics.ProjectionsApplied)
	}
	return nil
}
