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

// RegisterPhysicianRequest is the payload for registering a physician.
type RegisterPhysicianRequest struct {
	Name      string `json:"name" validate:"required"`
	Username  string `json:"username" validate:"required"`
	Specialty string `json:"specialty"`
	UserID    string `json:"-"`
}

// RegisterPhysician creates a physician, appends the audit entry and
// publishes the registration event.
func (s *Service) RegisterPhysician(ctx context.Context, req *RegisterPhysicianRequest) (*models.Physician, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, errors.Wrap(err, "invalid register physician request")
	}

	ctx, correlationID := correlation.Ensure(ctx)

	physician := &models.Physician{
		PhysicianID: uuid.New().String(),
		Name:        req.Name,
		Username:    req.Username,
		Specialty:   req.Specialty,
	}
	if err := s.physicians.Create(ctx, physician); err != nil {
		return nil, errors.Wrap(err, "failed to create physician")
	}

	payload := domain.PhysicianEvent{
		PhysicianID: physician.PhysicianID,
		Name:        physician.Name,
		Username:    physician.Username,
		Specialty:   physician.Specialty,
	}
	if _, err := s.audit.Append(ctx, physician.PhysicianID, domain.PhysicianRegistered, payload, eventstore.AppendOptions{
		CorrelationID: correlationID,
		UserID:        req.UserID,
	}); err != nil {
		return nil, errors.Wrap(err, "failed to append audit event")
	}

	s.publish(ctx, domain.PhysicianRegistered, physician.PhysicianID, payload)
	return physician, nil
}

// GetPhysician reads the local write model.
func (s *Service) GetPhysician(ctx context.Context, physicianID string) (*models.Physician, error) {
	return s.physicians.GetByID(ctx, physicianID)
}

// GetPhysicianByUsername reads the local write model by username.
func (s *Service) GetPhysicianByUsername(ctx context.Context, username string) (*models.Physician, error) {
	return s.physicians.GetByUsername(ctx, username)
}
