package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/clinichub/services/appointment/internal/correlation"
	"example.com/clinichub/services/appointment/internal/domain"
	"example.com/clinichub/services/appointment/internal/eventstore"
	"example.com/clinichub/services/appointment/internal/models"
	"example.com/clinichub/services/appointment/internal/repository"
	"example.com/clinichub/services/appointment/internal/saga"
)

// CreateAppointmentRequest is the payload for scheduling an appointment.
type CreateAppointmentRequest struct {
	PatientID   string    `json:"patient_id" validate:"required"`
	PhysicianID string    `json:"physician_id" validate:"required"`
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
	Reason      string    `json:"reason"`
	UserID      string    `json:"-"`
}

// UpdateAppointmentRequest reschedules an existing appointment.
type UpdateAppointmentRequest struct {
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
	Reason      string    `json:"reason"`
	UserID      string    `json:"-"`
}

// CreateAppointment schedules a new appointment: write-model insert, audit
// append, saga forward step, then publish. The publish happens after the
// commit; its failure degrades the read model, never the caller.
func (s *Service) CreateAppointment(ctx context.Context, req *CreateAppointmentRequest) (*models.Appointment, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, errors.Wrap(err, "invalid create appointment request")
	}

	ctx, correlationID := correlation.Ensure(ctx)

	appointment := &models.Appointment{
		AppointmentID: uuid.New().String(),
		PatientID:     req.PatientID,
		PhysicianID:   req.PhysicianID,
		ScheduledAt:   req.ScheduledAt,
		Status:        models.AppointmentScheduled,
		Reason:        req.Reason,
	}

	// Denormalize names when the local write model already knows them.
	if patient, err := s.patients.GetByID(ctx, req.PatientID); err == nil {
		appointment.PatientName = patient.Name
	}
	if physician, err := s.physicians.GetByID(ctx, req.PhysicianID); err == nil {
		appointment.PhysicianName = physician.Name
	}

	if err := s.appointments.Create(ctx, appointment); err != nil {
		return nil, errors.Wrap(err, "failed to create appointment")
	}

	payload := appointmentPayload(appointment)
	if _, err := s.audit.Append(ctx, appointment.AppointmentID, domain.AppointmentCreated, payload, eventstore.AppendOptions{
		CorrelationID: correlationID,
		UserID:        req.UserID,
	}); err != nil {
		return nil, errors.Wrap(err, "failed to append audit event")
	}

	if s.sagaLog != nil {
		if _, err := s.sagaLog.Record(ctx, appointment.AppointmentID, domain.AppointmentCreated, payload, correlationID, models.SagaPending, false); err != nil {
			log.Error().Err(err).Str("appointment_id", appointment.AppointmentID).Msg("Failed to record saga step")
		}
	}

	s.publish(ctx, domain.AppointmentCreated, appointment.AppointmentID, payload)
	return appointment, nil
}

// UpdateAppointment reschedules an appointment.
func (s *Service) UpdateAppointment(ctx context.Context, appointmentID string, req *UpdateAppointmentRequest) (*models.Appointment, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, errors.Wrap(err, "invalid update appointment request")
	}

	ctx, correlationID := correlation.Ensure(ctx)

	appointment, err := s.appointments.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appointment.Status != models.AppointmentScheduled {
		return nil, errors.Errorf("appointment %s is %s and cannot be updated", appointmentID, appointment.Status)
	}

	appointment.ScheduledAt = req.ScheduledAt
	if req.Reason != "" {
		appointment.Reason = req.Reason
	}
	if err := s.appointments.Save(ctx, appointment); err != nil {
		return nil, errors.Wrap(err, "failed to update appointment")
	}

	payload := appointmentPayload(appointment)
	if _, err := s.audit.Append(ctx, appointmentID, domain.AppointmentUpdated, payload, eventstore.AppendOptions{
		CorrelationID: correlationID,
		UserID:        req.UserID,
	}); err != nil {
		return nil, errors.Wrap(err, "failed to append audit event")
	}

	s.publish(ctx, domain.AppointmentUpdated, appointmentID, payload)
	return appointment, nil
}

// CancelAppointment cancels an appointment. When the recorded workflow for
// the appointment is still awaiting compensation, the cancel doubles as the
// compensating step and is recorded as such.
func (s *Service) CancelAppointment(ctx context.Context, appointmentID, reason, userID string) (*models.Appointment, error) {
	ctx, correlationID := correlation.Ensure(ctx)

	appointment, err := s.appointments.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appointment.Status == models.AppointmentCanceled {
		return appointment, nil
	}

	appointment.Status = models.AppointmentCanceled
	if reason != "" {
		appointment.Reason = reason
	}
	if err := s.appointments.Save(ctx, appointment); err != nil {
		return nil, errors.Wrap(err, "failed to cancel appointment")
	}

	payload := appointmentPayload(appointment)
	if _, err := s.audit.Append(ctx, appointmentID, domain.AppointmentCanceled, payload, eventstore.AppendOptions{
		CorrelationID: correlationID,
		UserID:        userID,
	}); err != nil {
		return nil, errors.Wrap(err, "failed to append audit event")
	}

	if s.sagaLog != nil {
		outcome, recErr := s.sagaLog.Reconcile(ctx, appointmentID)
		if recErr != nil {
			log.Error().Err(recErr).Str("appointment_id", appointmentID).Msg("Failed to reconcile saga before cancel")
		}
		compensation := outcome == saga.OutcomeAwaitingCompensation
		if _, recErr := s.sagaLog.Record(ctx, appointmentID, domain.AppointmentCanceled, payload, correlationID, models.SagaCompensated, compensation); recErr != nil {
			log.Error().Err(recErr).Str("appointment_id", appointmentID).Msg("Failed to record saga step")
		}
	}

	s.publish(ctx, domain.AppointmentCanceled, appointmentID, payload)
	return appointment, nil
}

// CompleteAppointment marks an appointment as completed and closes the
// workflow's forward step.
func (s *Service) CompleteAppointment(ctx context.Context, appointmentID, userID string) (*models.Appointment, error) {
	ctx, correlationID := correlation.Ensure(ctx)

	appointment, err := s.appointments.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appointment.Status != models.AppointmentScheduled {
		return nil, errors.Errorf("appointment %s is %s and cannot be completed", appointmentID, appointment.Status)
	}

	appointment.Status = models.AppointmentCompleted
	if err := s.appointments.Save(ctx, appointment); err != nil {
		return nil, errors.Wrap(err, "failed to complete appointment")
	}

	payload := appointmentPayload(appointment)
	if _, err := s.audit.Append(ctx, appointmentID, domain.AppointmentCompleted, payload, eventstore.AppendOptions{
		CorrelationID: correlationID,
		UserID:        userID,
	}); err != nil {
		return nil, errors.Wrap(err, "failed to append audit event")
	}

	if s.sagaLog != nil {
		if _, recErr := s.sagaLog.Record(ctx, appointmentID, domain.AppointmentCompleted, payload, correlationID, models.SagaCompleted, false); recErr != nil {
			log.Error().Err(recErr).Str("appointment_id", appointmentID).Msg("Failed to record saga step")
		}
	}

	s.publish(ctx, domain.AppointmentCompleted, appointmentID, payload)
	return appointment, nil
}

// GetAppointment reads the write model directly (used by the internal peer
// endpoint, which must answer from the authoritative local store).
func (s *Service) GetAppointment(ctx context.Context, appointmentID string) (*models.Appointment, error) {
	return s.appointments.GetByID(ctx, appointmentID)
}

// IsNotFound reports whether an error is the write-model not-found.
func IsNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}

func (s *Service) publish(ctx context.Context, routingKey, aggregateID string, payload interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, routingKey, aggregateID, payload); err != nil {
		// Only serialization errors surface here; they must not be silent.
		log.Error().Err(err).Str("routing_key", routingKey).Str("aggregate_id", aggregateID).Msg("Failed to serialize domain event")
	}
}

func appointmentPayload(appointment *models.Appointment) domain.AppointmentEvent {
	return domain.AppointmentEvent{
		AppointmentID: appointment.AppointmentID,
		PatientID:     appointment.PatientID,
		PhysicianID:   appointment.PhysicianID,
		PatientName:   appointment.PatientName,
		PhysicianName: appointment.PhysicianName,
		ScheduledAt:   appointment.ScheduledAt,
		Status:        appointment.Status,
		Reason:        appointment.Reason,
	}
}
