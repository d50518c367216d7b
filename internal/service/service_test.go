package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"example.com/clinichub/services/appointment/internal/domain"
	"example.com/clinichub/services/appointment/internal/eventstore"
	"example.com/clinichub/services/appointment/internal/models"
	"example.com/clinichub/services/appointment/internal/repository"
)

// Mock repositories for testing
type MockAppointmentRepository struct {
	mock.Mock
}

func (m *MockAppointmentRepository) Create(ctx context.Context, a *models.Appointment) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockAppointmentRepository) GetByID(ctx context.Context, id string) (*models.Appointment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) Save(ctx context.Context, a *models.Appointment) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockAppointmentRepository) List(ctx context.Context, limit, offset int) ([]models.Appointment, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]models.Appointment), args.Error(1)
}

type MockAuditStore struct {
	mock.Mock
}

func (m *MockAuditStore) Append(ctx context.Context, aggregateID, eventType string, data interface{}, opts eventstore.AppendOptions) (*models.AuditEvent, error) {
	args := m.Called(ctx, aggregateID, eventType, data, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AuditEvent), args.Error(1)
}

func (m *MockAuditStore) History(ctx context.Context, aggregateID string) ([]models.AuditEvent, error) {
	args := m.Called(ctx, aggregateID)
	return args.Get(0).([]models.AuditEvent), args.Error(1)
}

func (m *MockAuditStore) CurrentState(ctx context.Context, aggregateID string) (*models.AuditEvent, error) {
	args := m.Called(ctx, aggregateID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AuditEvent), args.Error(1)
}

func (m *MockAuditStore) ListByType(ctx context.Context, eventType string, limit int) ([]models.AuditEvent, error) {
	args := m.Called(ctx, eventType, limit)
	return args.Get(0).([]models.AuditEvent), args.Error(1)
}

func (m *MockAuditStore) ListByTimeRange(ctx context.Context, from, to time.Time) ([]models.AuditEvent, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).([]models.AuditEvent), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, routingKey, aggregateID string, data interface{}) error {
	args := m.Called(ctx, routingKey, aggregateID, data)
	return args.Error(0)
}

func (m *MockPublisher) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func newTestService(appointments *MockAppointmentRepository, audit *MockAuditStore, publisher *MockPublisher) *Service {
	patients := new(MockPatientRepository)
	physicians := new(MockPhysicianRepository)
	patients.On("GetByID", mock.Anything, mock.Anything).Return(nil, repository.ErrNotFound).Maybe()
	physicians.On("GetByID", mock.Anything, mock.Anything).Return(nil, repository.ErrNotFound).Maybe()
	return NewService(appointments, patients, physicians, audit, nil, publisher)
}

type MockPatientRepository struct {
	mock.Mock
}

func (m *MockPatientRepository) Create(ctx context.Context, p *models.Patient) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPatientRepository) GetByID(ctx context.Context, id string) (*models.Patient, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Patient), args.Error(1)
}

func (m *MockPatientRepository) GetByUsername(ctx context.Context, username string) (*models.Patient, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Patient), args.Error(1)
}

func (m *MockPatientRepository) Save(ctx context.Context, p *models.Patient) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

type MockPhysicianRepository struct {
	mock.Mock
}

func (m *MockPhysicianRepository) Create(ctx context.Context, p *models.Physician) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPhysicianRepository) GetByID(ctx context.Context, id string) (*models.Physician, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Physician), args.Error(1)
}

func (m *MockPhysicianRepository) GetByUsername(ctx context.Context, username string) (*models.Physician, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Physician), args.Error(1)
}

func (m *MockPhysicianRepository) Save(ctx context.Context, p *models.Physician) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func TestCreateAppointment(t *testing.T) {
	appointments := new(MockAppointmentRepository)
	audit := new(MockAuditStore)
	publisher := new(MockPublisher)

	appointments.On("Create", mock.Anything, mock.AnythingOfType("*models.Appointment")).Return(nil)
	audit.On("Append", mock.Anything, mock.Anything, domain.AppointmentCreated, mock.Anything, mock.Anything).
		Return(&models.AuditEvent{AggregateVersion: 1}, nil)
	publisher.On("Publish", mock.Anything, domain.AppointmentCreated, mock.Anything, mock.Anything).Return(nil)

	svc := newTestService(appointments, audit, publisher)

	appointment, err := svc.CreateAppointment(context.Background(), &CreateAppointmentRequest{
		PatientID:   "PAT01",
		PhysicianID: "PHY01",
		ScheduledAt: time.Now().Add(24 * time.Hour),
		Reason:      "checkup",
	})

	require.NoError(t, err)
	require.NotNil(t, appointment)
	require.NotEmpty(t, appointment.AppointmentID)
	require.Equal(t, models.AppointmentScheduled, appointment.Status)

	appointments.AssertExpectations(t)
	audit.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestCreateAppointmentValidation(t *testing.T) {
	svc := newTestService(new(MockAppointmentRepository), new(MockAuditStore), new(MockPublisher))

	_, err := svc.CreateAppointment(context.Background(), &CreateAppointmentRequest{
		PatientID: "PAT01",
		// missing physician and scheduled time
	})
	require.Error(t, err)
}

func TestCancelAppointment(t *testing.T) {
	appointments := new(MockAppointmentRepository)
	audit := new(MockAuditStore)
	publisher := new(MockPublisher)

	appointments.On("GetByID", mock.Anything, "APT01").Return(&models.Appointment{
		AppointmentID: "APT01",
		Status:        models.AppointmentScheduled,
	}, nil)
	appointments.On("Save", mock.Anything, mock.MatchedBy(func(a *models.Appointment) bool {
		return a.Status == models.AppointmentCanceled
	})).Return(nil)
	audit.On("Append", mock.Anything, "APT01", domain.AppointmentCanceled, mock.Anything, mock.Anything).
		Return(&models.AuditEvent{AggregateVersion: 2}, nil)
	publisher.On("Publish", mock.Anything, domain.AppointmentCanceled, "APT01", mock.Anything).Return(nil)

	svc := newTestService(appointments, audit, publisher)

	appointment, err := svc.CancelAppointment(context.Background(), "APT01", "patient request", "")
	require.NoError(t, err)
	require.Equal(t, models.AppointmentCanceled, appointment.Status)
	appointments.AssertExpectations(t)
}

func TestCancelAppointmentAlreadyCanceled(t *testing.T) {
	appointments := new(MockAppointmentRepository)
	audit := new(MockAuditStore)

	appointments.On("GetByID", mock.Anything, "APT01").Return(&models.Appointment{
		AppointmentID: "APT01",
		Status:        models.AppointmentCanceled,
	}, nil)

	svc := newTestService(appointments, audit, new(MockPublisher))

	appointment, err := svc.CancelAppointment(context.Background(), "APT01", "", "")
	require.NoError(t, err)
	require.Equal(t, models.AppointmentCanceled, appointment.Status)

	// Idempotent: no new audit entry for a second cancel.
	audit.AssertNotCalled(t, "Append", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCompleteAppointmentRejectsCanceled(t *testing.T) {
	appointments := new(MockAppointmentRepository)

	appointments.On("GetByID", mock.Anything, "APT01").Return(&models.Appointment{
		AppointmentID: "APT01",
		Status:        models.AppointmentCanceled,
	}, nil)

	svc := newTestService(appointments, new(MockAuditStore), new(MockPublisher))

	_, err := svc.CompleteAppointment(context.Background(), "APT01", "")
	require.Error(t, err)
}
