package models

import (
	"time"

	"gorm.io/gorm"
)

// Appointment status values.
const (
	AppointmentScheduled = "SCHEDULED"
	AppointmentCanceled  = "CANCELED"
	AppointmentCompleted = "COMPLETED"
)

// Sentinel names used when enrichment of a denormalized field fails.
const (
	UnknownPatient   = "Unknown Patient"
	UnknownPhysician = "Unknown Physician"
)

// Appointment is the authoritative write-model row for an appointment.
type Appointment struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	AppointmentID string         `gorm:"uniqueIndex" json:"appointment_id"`
	PatientID     string         `gorm:"index" json:"patient_id"`
	PhysicianID   string         `gorm:"index" json:"physician_id"`
	PatientName   string         `json:"patient_name"`
	PhysicianName string         `json:"physician_name"`
	ScheduledAt   time.Time      `json:"scheduled_at"`
	Status        string         `json:"status"`
	Reason        string         `json:"reason"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}

// Patient is the write-model row for a patient.
type Patient struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	PatientID   string         `gorm:"uniqueIndex" json:"patient_id"`
	Username    string         `gorm:"uniqueIndex" json:"username"`
	Name        string         `json:"name"`
	PhoneNumber string         `json:"phone_number"`
	Email       string         `json:"email"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}

// Physician is the write-model row for a physician.
type Physician struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	PhysicianID string         `gorm:"uniqueIndex" json:"physician_id"`
	Username    string         `gorm:"uniqueIndex" json:"username"`
	Name        string         `json:"name"`
	Specialty   string         `json:"specialty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}

// AppointmentSummary is the denormalized read-model projection for an
// appointment, upserted by the projection handler and mirrored into
// Elasticsearch. LastUpdated is the last-writer-wins marker.
type AppointmentSummary struct {
	ID            uint      `gorm:"primaryKey" json:"-"`
	AppointmentID string    `gorm:"uniqueIndex" json:"appointment_id"`
	PatientID     string    `gorm:"index" json:"patient_id"`
	PhysicianID   string    `gorm:"index" json:"physician_id"`
	PatientName   string    `json:"patient_name"`
	PhysicianName string    `json:"physician_name"`
	ScheduledAt   time.Time `json:"scheduled_at"`
	Status        string    `json:"status"`
	LastUpdated   time.Time `json:"last_updated"`
}

// PatientSummary is the denormalized read-model projection for a patient.
type PatientSummary struct {
	ID          uint      `gorm:"primaryKey" json:"-"`
	PatientID   string    `gorm:"uniqueIndex" json:"patient_id"`
	Username    string    `gorm:"index" json:"username"`
	Name        string    `json:"name"`
	PhoneNumber string    `json:"phone_number"`
	LastUpdated time.Time `json:"last_updated"`
}

// PhysicianSummary is the denormalized read-model projection for a physician.
type PhysicianSummary struct {
	ID          uint      `gorm:"primaryKey" json:"-"`
	PhysicianID string    `gorm:"uniqueIndex" json:"physician_id"`
	Username    string    `gorm:"index" json:"username"`
	Name        string    `json:"name"`
	Specialty   string    `json:"specialty"`
	LastUpdated time.Time `json:"last_updated"`
}

// SetupModels runs the schema migrations for all write and read models.
func SetupModels(db *gorm.DB) error {
	return db.AutoMigrate(
		&Appointment{},
		&Patient{},
		&Physician{},
		&AppointmentSummary{},
		&PatientSummary{},
		&PhysicianSummary{},
		&AuditEvent{},
		&SagaEvent{},
	)
}
