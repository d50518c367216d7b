package repository

import (
	"context"

	"gorm.io/gorm"

	"example.com/clinichub/services/appointment/internal/models"
)

// PhysicianRepository defines write-model access for physicians.
type PhysicianRepository interface {
	Create(ctx context.Context, physician *models.Physician) error
	GetByID(ctx context.Context, physicianID string) (*models.Physician, error)
	GetByUsername(ctx context.Context, username string) (*models.Physician, error)
	Save(ctx context.Context, physician *models.Physician) error
}

type physicianRepository struct {
	db *gorm.DB
}

// NewPhysicianRepository creates a new physician repository.
func NewPhysicianRepository(db *gorm.DB) PhysicianRepository {
	return &physicianRepository{db: db}
}

func (r *physicianRepository) Create(ctx context.Context, physician *models.Physician) error {
	return r.db.WithContext(ctx).Create(physician).Error
}

func (r *physicianRepository) GetByID(ctx context.Context, physicianID string) (*models.Physician, error) {
	var physician models.Physician
	err := r.db.WithContext(ctx).Where("physician_id = ?", physicianID).First(&physician).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &physician, nil
}

func (r *physicianRepository) GetByUsername(ctx context.Context, username string) (*models.Physician, error) {
	var physician models.Physician
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&physician).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &physician, nil
}

func (r *physicianRepository) Save(ctx context.Context, physician *models.Physician) error {
	return r.db.WithContext(ctx).Save(physician).Error
}
