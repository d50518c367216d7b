package query

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"example.com/clinichub/services/appointment/internal/metrics"
	"example.com/clinichub/services/appointment/internal/models"
	"example.com/clinichub/services/appointment/internal/repository"
)

type MockReadModel struct {
	mock.Mock
}

func (m *MockReadModel) GetAppointmentSummary(ctx context.Context, id string) (*models.AppointmentSummary, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AppointmentSummary), args.Error(1)
}

func (m *MockReadModel) SearchAppointments(ctx context.Context, query map[string]interface{}) ([]models.AppointmentSummary, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AppointmentSummary), args.Error(1)
}

type MockAppointmentRepo struct {
	mock.Mock
}

func (m *MockAppointmentRepo) Create(ctx context.Context, a *models.Appointment) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockAppointmentRepo) GetByID(ctx context.Context, id string) (*models.Appointment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Appointment), args.Error(1)
}

func (m *MockAppointmentRepo) Save(ctx context.Context, a *models.Appointment) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockAppointmentRepo) List(ctx context.Context, limit, offset int) ([]models.Appointment, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]models.Appointment), args.Error(1)
}

type MockPeerGetter struct {
	mock.Mock
}

func (m *MockPeerGetter) GetResource(ctx context.Context, baseURL, resource, id string, out interface{}) (bool, error) {
	args := m.Called(ctx, baseURL, resource, id)
	if args.Bool(0) {
		*(out.(*models.AppointmentSummary)) = models.AppointmentSummary{
			AppointmentID: id,
			Status:        models.AppointmentScheduled,
		}
	}
	return args.Bool(0), args.Error(1)
}

type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) PatientName(ctx context.Context, id string) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func (m *MockDirectory) PhysicianName(ctx context.Context, id string) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func TestGetReadModelHit(t *testing.T) {
	readModel := new(MockReadModel)
	repo := new(MockAppointmentRepo)
	peers := new(MockPeerGetter)

	readModel.On("GetAppointmentSummary", mock.Anything, "APT01").Return(&models.AppointmentSummary{
		AppointmentID: "APT01",
		PatientName:   "Ana Costa",
		PhysicianName: "Rui Pinto",
		Status:        models.AppointmentScheduled,
	}, nil)

	o := NewOrchestrator(nil, readModel, repo, peers, nil, []string{"http://peer-b:8080"}, "", metrics.NewMetrics())

	summary, err := o.Get(context.Background(), "APT01")
	require.NoError(t, err)
	require.Equal(t, models.AppointmentScheduled, summary.Status)

	// The read model answered; neither the write model nor any peer was
	// touched.
	repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	peers.AssertNotCalled(t, "GetResource", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGetWriteModelFallbackSkipsPeers(t *testing.T) {
	readModel := new(MockReadModel)
	repo := new(MockAppointmentRepo)
	peers := new(MockPeerGetter)

	readModel.On("GetAppointmentSummary", mock.Anything, "APT01").Return(nil, nil)
	repo.On("GetByID", mock.Anything, "APT01").Return(&models.Appointment{
		AppointmentID: "APT01",
		PatientName:   "Ana Costa",
		PhysicianName: "Rui Pinto",
		Status:        models.AppointmentCompleted,
		ScheduledAt:   time.Now(),
	}, nil)

	o := NewOrchestrator(nil, readModel, repo, peers, nil, []string{"http://peer-b:8080"}, "", metrics.NewMetrics())

	summary, err := o.Get(context.Background(), "APT01")
	require.NoError(t, err)
	require.Equal(t, models.AppointmentCompleted, summary.Status)
	peers.AssertNotCalled(t, "GetResource", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGetEnrichmentFallbackUsesSentinel(t *testing.T) {
	readModel := new(MockReadModel)
	repo := new(MockAppointmentRepo)
	dir := new(MockDirectory)

	readModel.On("GetAppointmentSummary", mock.Anything, "APT01").Return(&models.AppointmentSummary{
		AppointmentID: "APT01",
		PatientID:     "PAT01",
		PhysicianID:   "PHY01",
		Status:        models.AppointmentScheduled,
	}, nil)
	dir.On("PatientName", mock.Anything, "PAT01").Return("", errors.New("collaborator down"))
	dir.On("PhysicianName", mock.Anything, "PHY01").Return("Rui Pinto", nil)

	collector := metrics.NewMetrics()
	o := NewOrchestrator(nil, readModel, repo, nil, dir, nil, "", collector)

	summary, err := o.Get(context.Background(), "APT01")
	require.NoError(t, err)
	require.Equal(t, models.UnknownPatient, summary.PatientName)
	require.Equal(t, "Rui Pinto", summary.PhysicianName)
	require.EqualValues(t, 1, collector.CounterValue(metrics.EnrichmentFallbacks))
}

func TestGetWriteModelEnrichmentIsPersisted(t *testing.T) {
	readModel := new(MockReadModel)
	repo := new(MockAppointmentRepo)
	dir := new(MockDirectory)

	readModel.On("GetAppointmentSummary", mock.Anything, "APT01").Return(nil, nil)
	repo.On("GetByID", mock.Anything, "APT01").Return(&models.Appointment{
		AppointmentID: "APT01",
		PatientID:     "PAT01",
		PhysicianID:   "PHY01",
		Status:        models.AppointmentScheduled,
	}, nil)
	dir.On("PatientName", mock.Anything, "PAT01").Return("Ana Costa", nil)
	dir.On("PhysicianName", mock.Anything, "PHY01").Return("Rui Pinto", nil)
	repo.On("Save", mock.Anything, mock.MatchedBy(func(a *models.Appointment) bool {
		return a.PatientName == "Ana Costa" && a.PhysicianName == "Rui Pinto"
	})).Return(nil)

	o := NewOrchestrator(nil, readModel, repo, nil, dir, nil, "", metrics.NewMetrics())

	summary, err := o.Get(context.Background(), "APT01")
	require.NoError(t, err)
	require.Equal(t, "Ana Costa", summary.PatientName)
	repo.AssertExpectations(t)
}

func TestGetWriteModelSentinelNotPersisted(t *testing.T) {
	readModel := new(MockReadModel)
	repo := new(MockAppointmentRepo)
	dir := new(MockDirectory)

	readModel.On("GetAppointmentSummary", mock.Anything, "APT01").Return(nil, nil)
	repo.On("GetByID", mock.Anything, "APT01").Return(&models.Appointment{
		AppointmentID: "APT01",
		PatientID:     "PAT01",
		PhysicianID:   "PHY01",
		Status:        models.AppointmentScheduled,
	}, nil)
	dir.On("PatientName", mock.Anything, "PAT01").Return("", errors.New("collaborator down"))
	dir.On("PhysicianName", mock.Anything, "PHY01").Return("Rui Pinto", nil)

	// The resolved physician name is written back, but the patient field
	// stays empty so the next read retries the directory.
	repo.On("Save", mock.Anything, mock.MatchedBy(func(a *models.Appointment) bool {
		return a.PatientName == "" && a.PhysicianName == "Rui Pinto"
	})).Return(nil)

	o := NewOrchestrator(nil, readModel, repo, nil, dir, nil, "", metrics.NewMetrics())

	summary, err := o.Get(context.Background(), "APT01")
	require.NoError(t, err)
	require.Equal(t, models.UnknownPatient, summary.PatientName)
	require.Equal(t, "Rui Pinto", summary.PhysicianName)
	repo.AssertExpectations(t)
}

func TestGetPeerFallbackFirstSuccessWins(t *testing.T) {
	readModel := new(MockReadModel)
	repo := new(MockAppointmentRepo)
	peers := new(MockPeerGetter)

	readModel.On("GetAppointmentSummary", mock.Anything, "APT01").Return(nil, nil)
	repo.On("GetByID", mock.Anything, "APT01").Return(nil, repository.ErrNotFound)
	peers.On("GetResource", mock.Anything, "http://peer-b:8080", "appointments", "APT01").Return(false, nil)
	peers.On("GetResource", mock.Anything, "http://peer-c:8080", "appointments", "APT01").Return(true, nil)

	peerURLs := []string{"http://peer-a:8080", "http://peer-b:8080", "http://peer-c:8080", "http://peer-d:8080"}
	o := NewOrchestrator(nil, readModel, repo, peers, nil, peerURLs, "http://peer-a:8080", metrics.NewMetrics())

	summary, err := o.Get(context.Background(), "APT01")
	require.NoError(t, err)
	require.Equal(t, "APT01", summary.AppointmentID)

	// Self was skipped, peers were tried in order, and the chain stopped at
	// the first success.
	peers.AssertNotCalled(t, "GetResource", mock.Anything, "http://peer-a:8080", mock.Anything, mock.Anything)
	peers.AssertNotCalled(t, "GetResource", mock.Anything, "http://peer-d:8080", mock.Anything, mock.Anything)
}

func TestSearchBuildsTermFilters(t *testing.T) {
	readModel := new(MockReadModel)
	repo := new(MockAppointmentRepo)

	readModel.On("SearchAppointments", mock.Anything, mock.MatchedBy(func(q map[string]interface{}) bool {
		filter := q["query"].(map[string]interface{})["bool"].(map[string]interface{})["filter"].([]map[string]interface{})
		return len(filter) == 1 && filter[0]["term"].(map[string]interface{})["status"] == models.AppointmentScheduled
	})).Return([]models.AppointmentSummary{{AppointmentID: "APT01"}}, nil)

	o := NewOrchestrator(nil, readModel, repo, nil, nil, nil, "", metrics.NewMetrics())

	summaries, err := o.Search(context.Background(), map[string]string{"status": models.AppointmentScheduled})
	require.NoError(t, err)
	require.Len(t, summaries, 1)
}

func TestSearchWithoutReadModel(t *testing.T) {
	repo := new(MockAppointmentRepo)
	o := NewOrchestrator(nil, nil, repo, nil, nil, nil, "", metrics.NewMetrics())

	_, err := o.Search(context.Background(), map[string]string{"status": models.AppointmentScheduled})
	require.ErrorIs(t, err, ErrSearchUnavailable)
}

func TestGetNotFoundAnywhere(t *testing.T) {
	readModel := new(MockReadModel)
	repo := new(MockAppointmentRepo)
	peers := new(MockPeerGetter)

	readModel.On("GetAppointmentSummary", mock.Anything, "APT99").Return(nil, nil)
	repo.On("GetByID", mock.Anything, "APT99").Return(nil, repository.ErrNotFound)
	peers.On("GetResource", mock.Anything, "http://peer-b:8080", "appointments", "APT99").Return(false, nil)

	o := NewOrchestrator(nil, readModel, repo, peers, nil, []string{"http://peer-b:8080"}, "", metrics.NewMetrics())

	_, err := o.Get(context.Background(), "APT99")
	require.ErrorIs(t, err, ErrNotFound)
}
