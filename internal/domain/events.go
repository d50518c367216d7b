package domain

import (
	"time"
)

// Routing keys, one per state transition. Queues bind to these on the topic
// using the `<aggregate>.<verb>` convention.
const (
	AppointmentCreated   = "appointment.created"
	AppointmentUpdated   = "appointment.updated"
	AppointmentCanceled  = "appointment.canceled"
	AppointmentCompleted = "appointment.completed"

	PatientRegistered = "patient.registered"
	PatientUpdated    = "patient.updated"

	PhysicianRegistered = "physician.registered"
	PhysicianUpdated    = "physician.updated"
)

// Aggregate type discriminators, derived from the routing key prefix.
const (
	AggregateAppointment = "appointment"
	AggregatePatient     = "patient"
	AggregatePhysician   = "physician"
)

// Event is the envelope published to the message bus for every state
// transition. It is immutable once published.
type Event struct {
	Type          string      `json:"type"`
	AggregateID   string      `json:"aggregate_id"`
	OccurredAt    time.Time   `json:"occurred_at"`
	CorrelationID string      `json:"correlation_id,omitempty"`
	Data          interface{} `json:"data"`
}

// AppointmentEvent is the payload for all appointment transitions. Every
// event carries the full denormalized snapshot so that projections can
// overwrite rather than merge.
type AppointmentEvent struct {
	AppointmentID string    `json:"appointment_id"`
	PatientID     string    `json:"patient_id"`
	PhysicianID   string    `json:"physician_id"`
	PatientName   string    `json:"patient_name,omitempty"`
	PhysicianName string    `json:"physician_name,omitempty"`
	ScheduledAt   time.Time `json:"scheduled_at"`
	Status        string    `json:"status"`
	Reason        string    `json:"reason,omitempty"`
}

// PatientEvent is the payload for patient transitions.
type PatientEvent struct {
	PatientID   string `json:"patient_id"`
	Name        string `json:"name"`
	Username    string `json:"username"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Email       string `json:"email,omitempty"`
}

// PhysicianEvent is the payload for physician transitions.
type PhysicianEvent struct {
	PhysicianID string `json:"physician_id"`
	Name        string `json:"name"`
	Username    string `json:"username"`
	Specialty   string `json:"specialty,omitempty"`
}

// AggregateOf returns the aggregate type a routing key addresses, or an
// empty string for keys outside the convention.
func AggregateOf(routingKey string) string {
	for i := 0; i < len(routingKey); i++ {
		if routingKey[i] == '.' {
			return routingKey[:i]
		}
	}
	return ""
}
