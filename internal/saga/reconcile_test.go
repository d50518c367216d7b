package saga

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/clinichub/services/appointment/internal/models"
)

func step(eventType, status string, compensation bool, at time.Time) models.SagaEvent {
	return models.SagaEvent{
		AppointmentID: "APT01",
		EventType:     eventType,
		Status:        status,
		Compensation:  compensation,
		OccurredAt:    at,
	}
}

func TestClassifyEmpty(t *testing.T) {
	require.Equal(t, OutcomeUnknown, Classify(nil))
}

func TestClassifyCompletedWorkflow(t *testing.T) {
	t0 := time.Now()
	events := []models.SagaEvent{
		step("appointment.created", models.SagaPending, false, t0),
		step("record.created", models.SagaCompleted, false, t0.Add(time.Second)),
	}
	require.Equal(t, OutcomeCompleted, Classify(events))
}

func TestClassifyAwaitingCompensation(t *testing.T) {
	t0 := time.Now()
	events := []models.SagaEvent{
		step("appointment.created", models.SagaCompleted, false, t0),
		step("record.created", models.SagaPending, false, t0.Add(time.Second)),
	}
	require.Equal(t, OutcomeAwaitingCompensation, Classify(events))
}

func TestClassifyCompensated(t *testing.T) {
	t0 := time.Now()
	events := []models.SagaEvent{
		step("appointment.created", models.SagaCompleted, false, t0),
		step("record.created", models.SagaPending, false, t0.Add(time.Second)),
		step("appointment.canceled", models.SagaCompensated, true, t0.Add(2*time.Second)),
	}
	require.Equal(t, OutcomeCompensated, Classify(events))
}
