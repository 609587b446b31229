package assistant

import (
	"errors"
	"fmt"

	"github.com/xaenox/legal-assistant/internal/models"
)

var (
	ErrBackendUnavailable = errors.New("assistant backend unavailable")
	ErrInvalidThread      = errors.New("thread not found")
	ErrEmptyResult        = errors.New("run completed without assistant content")
	ErrUnsupportedAction  = errors.New("run requires action - not implemented")
	ErrStuckRun           = errors.New("run stuck in incomplete state")
	ErrPollTimeout        = errors.New("run polling timed out")
)

// RunTerminatedError reports a run the backend ended without a result.
type RunTerminatedError struct {
	Status models.RunStatus
	Reason string
}

func (e *RunTerminatedError) Error() string {
	switch e.Status {
	case models.RunFailed:
		return fmt.Sprintf("run failed: %s", e.Reason)
	case models.RunExpired:
		return "run expired"
	case models.RunCancelled:
		return "run was cancelled"
	}
	return fmt.Sprintf("run %s: %s", e.Status, e.Reason)
}
