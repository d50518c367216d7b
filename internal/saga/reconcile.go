package saga

import (
	"example.com/clinichub/services/appointment/internal/models"
)

// Outcome classifies the state of a recorded workflow.
type Outcome string

const (
	// OutcomeUnknown means no steps are recorded for the appointment.
	OutcomeUnknown Outcome = "UNKNOWN"
	// OutcomeCompleted means the last forward step completed and no
	// compensation was required.
	OutcomeCompleted Outcome = "COMPLETED"
	// OutcomeAwaitingCompensation means the last recorded step is a forward
	// step that has not completed and has no later compensation.
	OutcomeAwaitingCompensation Outcome = "AWAITING_COMPENSATION"
	// OutcomeCompensated means the workflow was rolled back by a
	// compensating step.
	OutcomeCompensated Outcome = "COMPENSATED"
)

// Classify replays a sequence of saga events (ordered by occurrence) and
// determines whether the workflow finished, was rolled back, or is stuck
// awaiting compensation.
func Classify(events []models.SagaEvent) Outcome {
	if len(events) == 0 {
		return OutcomeUnknown
	}

	last := events[len(events)-1]
	if last.Compensation {
		return OutcomeCompensated
	}

	switch last.Status {
	case models.SagaCompleted:
		return OutcomeCompleted
	case models.SagaCompensated:
		return OutcomeCompensated
	default:
		return OutcomeAwaitingCompensation
	}
}
