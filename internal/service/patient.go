package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"example.com/clinichub/services/appointment/internal/correlation"
	"example.com/clinichub/services/appointment/internal/domain"
	"example.com/clinichub/services/appointment/internal/eventstore"
	"example.com/clinichub/services/appointment/internal/models"
)

// RegisterPatientRequest is the payload for registering a patient.
type RegisterPatientRequest struct {
	Name        string `json:"name" validate:"required"`
	Username    string `json:"username" validate:"required"`
	PhoneNumber string `json:"phone_number"`
	Email       string `json:"email" validate:"omitempty,email"`
	UserID      string `json:"-"`
}

// RegisterPatient creates a patient, appends the audit entry and publishes
// the registration event.
func (s *Service) RegisterPatient(ctx context.Context, req *RegisterPatientRequest) (*models.Patient, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, errors.Wrap(err, "invalid register patient request")
	}

	ctx, correlationID := correlation.Ensure(ctx)

	patient := &models.Patient{
		PatientID:   uuid.New().String(),
		Name:        req.Name,
		Username:    req.Username,
		PhoneNumber: req.PhoneNumber,
		Email:       req.Email,
	}
	if err := s.patients.Create(ctx, patient); err != nil {
		return nil, errors.Wrap(err, "failed to create patient")
	}

	payload := domain.PatientEvent{
		PatientID:   patient.PatientID,
		Name:        patient.Name,
		Username:    patient.Username,
		PhoneNumber: patient.PhoneNumber,
		Email:       patient.Email,
	}
	if _, err := s.audit.Append(ctx, patient.PatientID, domain.PatientRegistered, payload, eventstore.AppendOptions{
		CorrelationID: correlationID,
		UserID:        req.UserID,
	}); err != nil {
		return nil, errors.Wrap(err, "failed to append audit event")
	}

	s.publish(ctx, domain.PatientRegistered, patient.PatientID, payload)
	return patient, nil
}

// GetPatient reads the local write model.
func (s *Service) GetPatient(ctx context.Context, patientID string) (*models.Patient, error) {
	return s.patients.GetByID(ctx, patientID)
}

// GetPatientByUsername reads the local write model by username.
func (s *Service) GetPatientByUsername(ctx context.Context, username string) (*models.Patient, error) {
	return s.patients.GetByUsername(ctx, username)
}
