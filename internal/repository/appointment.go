package repository

import (
	"context"

	"gorm.io/gorm"

	"example.com/clinichub/services/appointment/internal/models"
)

// AppointmentRepository defines write-model access for appointments.
type AppointmentRepository interface {
	Create(ctx context.Context, appointment *models.Appointment) error
	GetByID(ctx context.Context, appointmentID string) (*models.Appointment, error)
	Save(ctx context.Context, appointment *models.Appointment) error
	List(ctx context.Context, limit, offset int) ([]models.Appointment, error)
}

type appointmentRepository struct {
	db *gorm.DB
}

// NewAppointmentRepository creates a new appointment repository.
func NewAppointmentRepository(db *gorm.DB) AppointmentRepository {
	return &appointmentRepository{db: db}
}

func (r *appointmentRepository) Create(ctx context.Context, appointment *models.Appointment) error {
	return r.db.WithContext(ctx).Create(appointment).Error
}

func (r *appointmentRepository) GetByID(ctx context.Context, appointmentID string) (*models.Appointment, error) {
	var appointment models.Appointment
	err := r.db.WithContext(ctx).Where("appointment_id = ?", appointmentID).First(&appointment).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &appointment, nil
}

func (r *appointmentRepository) Save(ctx context.Context, appointment *models.Appointment) error {
	return r.db.WithContext(ctx).Save(appointment).Error
}

func (r *appointmentRepository) List(ctx context.Context, limit, offset int) ([]models.Appointment, error) {
	if limit <= 0 {
		limit = 50
	}
	var appointments []models.Appointment
	err := r.db.WithContext(ctx).
		Order("scheduled_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&appointments).Error
	return appointments, err
}
