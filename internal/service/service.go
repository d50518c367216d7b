package service

import (
	"github.com/go-playground/validator/v10"

	"example.com/clinichub/services/appointment/internal/eventstore"
	"example.com/clinichub/services/appointment/internal/messaging"
	"example.com/clinichub/services/appointment/internal/repository"
	"example.com/clinichub/services/appointment/internal/saga"
)

// Service is the command side: it owns every write path for the aggregates
// this instance manages. Persistence and serialization failures fail loudly;
// publish failures do not (the publisher swallows them after the commit).
type Service struct {
	appointments repository.AppointmentRepository
	patients     repository.PatientRepository
	physicians   repository.PhysicianRepository
	audit        eventstore.Store
	sagaLog      saga.Log
	publisher    messaging.Publisher
	validate     *validator.Validate
}

// NewService wires the command side.
func NewService(
	appointments repository.AppointmentRepository,
	patients repository.PatientRepository,
	physicians repository.PhysicianRepository,
	audit eventstore.Store,
	sagaLog saga.Log,
	publisher messaging.Publisher,
) *Service {
	return &Service{
		appointments: appointments,
		patients:     patients,
		physicians:   physicians,
		audit:        audit,
		sagaLog:      sagaLog,
		publisher:    publisher,
		validate:     validator.New(),
	}
}
