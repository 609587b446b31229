package assistant

import (
	"github.com/xaenox/legal-assistant/internal/models"
)

// Step is what the poll loop does after observing a run status.
type Step int

const (
	StepWait Step = iota
	StepCollect
	StepFail
	StepCancel
)

// Transition is the outcome of one observation of a run.
type Transition struct {
	Step Step
	Err  error
}

// Next decides how to proceed after the attempt-th poll (zero based) of a
// loop allowed maxAttempts polls. A run still incomplete after more than
// half of the attempts is cancelled as stuck.
func Next(run models.Run, attempt, maxAttempts int) Transition {
	switch run.Status {
	case models.RunCompleted:
		return Transition{Step: StepCollect}
	case models.RunFailed:
		reason := run.LastError
		if reason == "" {
			reason = "Unknown error"
		}
		return Transition{Step: StepFail, Err: &RunTerminatedError{Status: run.Status, Reason: reason}}
	case models.RunExpired, models.RunCancelled:
		return Transition{Step: StepFail, Err: &RunTerminatedError{Status: run.Status}}
	case models.RunRequiresAction:
		return Transition{Step: StepFail, Err: ErrUnsupportedAction}
	case models.RunIncomplete:
		if attempt*2 > maxAttempts {
			return Transition{Step: StepCancel, Err: ErrStuckRun}
		}
	}
	return Transition{Step: StepWait}
}
