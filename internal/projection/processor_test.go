package projection

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/clinichub/services/appointment/internal/domain"
	"example.com/clinichub/services/appointment/internal/metrics"
	"example.com/clinichub/services/appointment/internal/models"
)

// fakeSummaryStore keeps summaries in memory, keyed by aggregate id, the
// same insert-or-replace semantics as the real upsert.
type fakeSummaryStore struct {
	mu           sync.Mutex
	appointments map[string]models.AppointmentSummary
	patients     map[string]models.PatientSummary
	physicians   map[string]models.PhysicianSummary
}

func newFakeSummaryStore() *fakeSummaryStore {
	return &fakeSummaryStore{
		appointments: make(map[string]models.AppointmentSummary),
		patients:     make(map[string]models.PatientSummary),
		physicians:   make(map[string]models.PhysicianSummary),
	}
}

func (s *fakeSummaryStore) UpsertAppointment(_ context.Context, summary *models.AppointmentSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appointments[summary.AppointmentID] = *summary
	return nil
}

func (s *fakeSummaryStore) UpsertPatient(_ context.Context, summary *models.PatientSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patients[summary.PatientID] = *summary
	return nil
}

func (s *fakeSummaryStore) UpsertPhysician(_ context.Context, summary *models.PhysicianSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.physicians[summary.PhysicianID] = *summary
	return nil
}

func encodeEvent(t *testing.T, eventType, aggregateID string, data interface{}) []byte {
	t.Helper()
	body, err := json.Marshal(domain.Event{
		Type:        eventType,
		AggregateID: aggregateID,
		OccurredAt:  time.Now().UTC(),
		Data:        data,
	})
	require.NoError(t, err)
	return body
}

func TestProjectionIsIdempotent(t *testing.T) {
	store := newFakeSummaryStore()
	processor := NewEventProcessor(store, nil, metrics.NewMetrics())
	fixed := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	processor.now = func() time.Time { return fixed }

	body := encodeEvent(t, domain.AppointmentCreated, "APT01", domain.AppointmentEvent{
		AppointmentID: "APT01",
		PatientID:     "PAT01",
		PhysicianID:   "PHY01",
		Status:        models.AppointmentScheduled,
	})

	require.NoError(t, processor.ProcessMessage(context.Background(), body))
	first := store.appointments["APT01"]

	require.NoError(t, processor.ProcessMessage(context.Background(), body))
	second := store.appointments["APT01"]

	require.Equal(t, first, second)
	require.Equal(t, models.AppointmentScheduled, second.Status)
}

func TestProjectionOverwritesStatus(t *testing.T) {
	store := newFakeSummaryStore()
	processor := NewEventProcessor(store, nil, metrics.NewMetrics())

	created := encodeEvent(t, domain.AppointmentCreated, "APT01", domain.AppointmentEvent{
		AppointmentID: "APT01",
		Status:        models.AppointmentScheduled,
	})
	canceled := encodeEvent(t, domain.AppointmentCanceled, "APT01", domain.AppointmentEvent{
		AppointmentID: "APT01",
		Status:        models.AppointmentCanceled,
	})

	require.NoError(t, processor.ProcessMessage(context.Background(), created))
	require.NoError(t, processor.ProcessMessage(context.Background(), canceled))
	require.Equal(t, models.AppointmentCanceled, store.appointments["APT01"].Status)

	// Last message processed wins: a redelivered created event overwrites
	// the canceled status again. This is the documented full-overwrite
	// semantics; out-of-order redelivery can resurrect a stale status.
	require.NoError(t, processor.ProcessMessage(context.Background(), created))
	require.Equal(t, models.AppointmentScheduled, store.appointments["APT01"].Status)
}

func TestProjectionSkipsUnknownEventType(t *testing.T) {
	store := newFakeSummaryStore()
	processor := NewEventProcessor(store, nil, metrics.NewMetrics())

	body := encodeEvent(t, "invoice.created", "INV01", map[string]string{"x": "y"})
	require.NoError(t, processor.ProcessMessage(context.Background(), body))
	require.Empty(t, store.appointments)
}

func TestProjectionRejectsCorruptEnvelope(t *testing.T) {
	processor := NewEventProcessor(newFakeSummaryStore(), nil, metrics.NewMetrics())
	require.Error(t, processor.ProcessMessage(context.Background(), []byte("{not json")))
}

func TestProjectionPatientAndPhysician(t *testing.T) {
	store := newFakeSummaryStore()
	processor := NewEventProcessor(store, nil, metrics.NewMetrics())

	patient := encodeEvent(t, domain.PatientRegistered, "PAT01", domain.PatientEvent{
		PatientID: "PAT01",
		Name:      "Ana Costa",
		Username:  "acosta",
	})
	physician := encodeEvent(t, domain.PhysicianRegistered, "PHY01", domain.PhysicianEvent{
		PhysicianID: "PHY01",
		Name:        "Rui Pinto",
		Username:    "rpinto",
		Specialty:   "cardiology",
	})

	require.NoError(t, processor.ProcessMessage(context.Background(), patient))
	require.NoError(t, processor.ProcessMessage(context.Background(), physician))

	require.Equal(t, "Ana Costa", store.patients["PAT01"].Name)
	require.Equal(t, "cardiology", store.physicians["PHY01"].Specialty)
}
