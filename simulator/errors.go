package simulator

import (
	"errors"
	"fmt"
)

// SimError is a custom error type for simulation errors
type SimError struct {
	Message string
}

func (e SimError) Error() string {
	return fmt.Sprintf("simulation error: %s", e.Message)
}

// ErrInvalidConfig creates an error for invalid configuration
func ErrInvalidConfig(msg string) error {
	return SimError{Message: fmt.Sprintf("invalid config: %s", msg)}
}

// ErrSuspendFailed is returned (wrapped) when the process controller cannot pause
// the running job. The simulation cannot continue after it.
var ErrSuspendFailed = errors.New("failed to suspend process")

// ErrNoJobs is returned by Run when nothing was submitted.
var ErrNoJobs = errors.New("no jobs to schedule")
