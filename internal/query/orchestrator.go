package query

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/clinichub/services/appointment/internal/cache"
	"example.com/clinichub/services/appointment/internal/directory"
	"example.com/clinichub/services/appointment/internal/metrics"
	"example.com/clinichub/services/appointment/internal/models"
	"example.com/clinichub/services/appointment/internal/repository"
)

// ErrNotFound is returned when an appointment is absent from every tier.
var ErrNotFound = errors.New("appointment not found")

// ReadModel is the document-store read tier. A miss returns (nil, nil).
type ReadModel interface {
	GetAppointmentSummary(ctx context.Context, appointmentID string) (*models.AppointmentSummary, error)
	SearchAppointments(ctx context.Context, query map[string]interface{}) ([]models.AppointmentSummary, error)
}

// ErrSearchUnavailable is returned by Search when no document read model is
// configured; filtered search has no write-model fallback.
var ErrSearchUnavailable = errors.New("search is unavailable")

// PeerGetter fetches a resource from a sibling instance. It is satisfied by
// the resilient peer client; (false, nil) means "no result", including a
// short-circuited origin.
type PeerGetter interface {
	GetResource(ctx context.Context, baseURL, resource, id string, out interface{}) (bool, error)
}

// Orchestrator answers appointment reads by walking the tier chain:
// cache, read model, write model, then peers. Reads degrade gracefully:
// whenever at least one tier has the data, the caller gets a result.
type Orchestrator struct {
	cache     cache.SummaryCache
	readModel ReadModel
	repo      repository.AppointmentRepository
	peers     PeerGetter
	dir       directory.Directory
	peerURLs  []string
	selfURL   string
	collector *metrics.Metrics
}

// NewOrchestrator wires the fallback chain. cache and dir may be nil.
func NewOrchestrator(
	summaryCache cache.SummaryCache,
	readModel ReadModel,
	repo repository.AppointmentRepository,
	peers PeerGetter,
	dir directory.Directory,
	peerURLs []string,
	selfURL string,
	collector *metrics.Metrics,
) *Orchestrator {
	return &Orchestrator{
		cache:     summaryCache,
		readModel: readModel,
		repo:      repo,
		peers:     peers,
		dir:       dir,
		peerURLs:  peerURLs,
		selfURL:   selfURL,
		collector: collector,
	}
}

// Get resolves one appointment by id through the fallback chain.
func (o *Orchestrator) Get(ctx context.Context, appointmentID string) (*models.AppointmentSummary, error) {
	if summary := o.fromCache(ctx, appointmentID); summary != nil {
		return summary, nil
	}

	summary, err := o.fromReadModel(ctx, appointmentID)
	if err != nil {
		log.Warn().Err(err).Str("appointment_id", appointmentID).Msg("Read model lookup failed, falling back")
	}
	if summary != nil {
		o.count(metrics.QueryReadModelHits)
		o.enrich(ctx, summary)
		o.toCache(ctx, summary)
		return summary, nil
	}

	summary, err = o.fromWriteModel(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if summary != nil {
		o.count(metrics.QueryWriteModelHits)
		o.toCache(ctx, summary)
		return summary, nil
	}

	if summary := o.fromPeers(ctx, appointmentID); summary != nil {
		o.count(metrics.QueryPeerHits)
		o.toCache(ctx, summary)
		return summary, nil
	}

	o.count(metrics.QueryNotFound)
	return nil, ErrNotFound
}

// List pages appointments from the authoritative write model, newest
// scheduled first.
func (o *Orchestrator) List(ctx context.Context, limit, offset int) ([]models.Appointment, error) {
	return o.repo.List(ctx, limit, offset)
}

// Search runs a filtered search against the document read model. Filters are
// exact-match terms on summary fields.
func (o *Orchestrator) Search(ctx context.Context, filters map[string]string) ([]models.AppointmentSummary, error) {
	if o.readModel == nil {
		return nil, ErrSearchUnavailable
	}

	terms := make([]map[string]interface{}, 0, len(filters))
	for field, value := range filters {
		terms = append(terms, map[string]interface{}{
			"term": map[string]interface{}{field: value},
		})
	}
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{"filter": terms},
		},
	}

	return o.readModel.SearchAppointments(ctx, query)
}

// Invalidate evicts an appointment from the cache tier after a state change
// so reads do not serve the stale summary for the rest of its TTL.
func (o *Orchestrator) Invalidate(ctx context.Context, appointmentID string) {
	if o.cache == nil {
		return
	}
	if err := o.cache.DeleteAppointmentSummary(ctx, appointmentID); err != nil {
		log.Warn().Err(err).Str("appointment_id", appointmentID).Msg("Failed to evict cached summary")
	}
}

func (o *Orchestrator) fromCache(ctx context.Context, appointmentID string) *models.AppointmentSummary {
	if o.cache == nil {
		return nil
	}
	summary, err := o.cache.GetAppointmentSummary(ctx, appointmentID)
	if err != nil {
		if !cache.IsMiss(err) {
			log.Warn().Err(err).Str("appointment_id", appointmentID).Msg("Cache lookup failed")
		}
		return nil
	}
	return summary
}

func (o *Orchestrator) toCache(ctx context.Context, summary *models.AppointmentSummary) {
	if o.cache == nil {
		return
	}
	if err := o.cache.SetAppointmentSummary(ctx, summary); err != nil {
		log.Warn().Err(err).Str("appointment_id", summary.AppointmentID).Msg("Failed to cache summary")
	}
}

func (o *Orchestrator) fromReadModel(ctx context.Context, appointmentID string) (*models.AppointmentSummary, error) {
	if o.readModel == nil {
		return nil, nil
	}
	return o.readModel.GetAppointmentSummary(ctx, appointmentID)
}

// fromWriteModel falls back to the authoritative store. An enriched record
// is saved back so future reads do not repeat the collaborator calls.
func (o *Orchestrator) fromWriteModel(ctx context.Context, appointmentID string) (*models.AppointmentSummary, error) {
	appointment, err := o.repo.GetByID(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "write model lookup failed")
	}

	summary := &models.AppointmentSummary{
		AppointmentID: appointment.AppointmentID,
		PatientID:     appointment.PatientID,
		PhysicianID:   appointment.PhysicianID,
		PatientName:   appointment.PatientName,
		PhysicianName: appointment.PhysicianName,
		ScheduledAt:   appointment.ScheduledAt,
		Status:        appointment.Status,
		LastUpdated:   appointment.UpdatedAt,
	}
	enrichedPatient, enrichedPhysician := o.enrich(ctx, summary)

	if enrichedPatient || enrichedPhysician {
		// Only resolved names are written back; a sentinel must stay out of
		// the authoritative record so the empty field is re-enriched once the
		// directory recovers.
		if enrichedPatient {
			appointment.PatientName = summary.PatientName
		}
		if enrichedPhysician {
			appointment.PhysicianName = summary.PhysicianName
		}
		if saveErr := o.repo.Save(ctx, appointment); saveErr != nil {
			log.Warn().Err(saveErr).Str("appointment_id", appointmentID).Msg("Failed to persist enriched record")
		}
	}

	return summary, nil
}

// fromPeers tries sibling instances in configured order; first non-empty
// response wins.
func (o *Orchestrator) fromPeers(ctx context.Context, appointmentID string) *models.AppointmentSummary {
	if o.peers == nil {
		return nil
	}
	for _, baseURL := range o.peerURLs {
		if baseURL == "" || baseURL == o.selfURL {
			continue
		}
		var summary models.AppointmentSummary
		found, err := o.peers.GetResource(ctx, baseURL, "appointments", appointmentID, &summary)
		if err != nil {
			// Transient-remote: treat as "no data" and continue the chain.
			log.Warn().Err(err).Str("peer", baseURL).Str("appointment_id", appointmentID).Msg("Peer lookup failed")
			continue
		}
		if found {
			return &summary
		}
	}
	return nil
}

// enrich fills missing denormalized names from the directory collaborators,
// substituting sentinels when a collaborator is unavailable. Returns whether
// each name was successfully resolved (not a sentinel).
func (o *Orchestrator) enrich(ctx context.Context, summary *models.AppointmentSummary) (patientResolved, physicianResolved bool) {
	if o.dir == nil {
		return false, false
	}

	if summary.PatientName == "" && summary.PatientID != "" {
		name, err := o.dir.PatientName(ctx, summary.PatientID)
		if err != nil || name == "" {
			summary.PatientName = models.UnknownPatient
			o.count(metrics.EnrichmentFallbacks)
		} else {
			summary.PatientName = name
			patientResolved = true
		}
	}

	if summary.PhysicianName == "" && summary.PhysicianID != "" {
		name, err := o.dir.PhysicianName(ctx, summary.PhysicianID)
		if err != nil || name == "" {
			summary.PhysicianName = models.UnknownPhysician
			o.count(metrics.EnrichmentFallbacks)
		} else {
			summary.PhysicianName = name
			physicianResolved = true
		}
	}

	return patientResolved, physicianResolved
}

func (o *Orchestrator) count(name string) {
	if o.collector != nil {
		o.collector.IncrementCounter(name)
	}
}
