package repository

import (
	"context"

	"gorm.io/gorm"

	"example.com/clinichub/services/appointment/internal/models"
)

// PatientRepository defines write-model access for patients.
type PatientRepository interface {
	Create(ctx context.Context, patient *models.Patient) error
	GetByID(ctx context.Context, patientID string) (*models.Patient, error)
	GetByUsername(ctx context.Context, username string) (*models.Patient, error)
	Save(ctx context.Context, patient *models.Patient) error
}

type patientRepository struct {
	db *gorm.DB
}

// NewPatientRepository creates a new patient repository.
func NewPatientRepository(db *gorm.DB) PatientRepository {
	return &patientRepository{db: db}
}

func (r *patientRepository) Create(ctx context.Context, patient *models.Patient) error {
	return r.db.WithContext(ctx).Create(patient).Error
}

func (r *patientRepository) GetByID(ctx context.Context, patientID string) (*models.Patient, error) {
	var patient models.Patient
	err := r.db.WithContext(ctx).Where("patient_id = ?", patientID).First(&patient).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &patient, nil
}

func (r *patientRepository) GetByUsername(ctx context.Context, username string) (*models.Patient, error) {
	var patient models.Patient
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&patient).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &patient, nil
}

func (r *patientRepository) Save(ctx context.Context, patient *models.Patient) error {
	return r.db.WithContext(ctx).Save(patient).Error
}
