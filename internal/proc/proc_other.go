//go:build !unix

package proc

import (
	"errors"
	"io"
	"log/slog"

	"github.com/Yuwon03/MLQ-Scheduler/simulator"
)

// OSController is unavailable without Unix job control signals.
type OSController struct{}

// NewOSController returns a controller whose every call fails.
func NewOSController(command string, args []string, output io.Writer, logger *slog.Logger) *OSController {
	return &OSController{}
}

func (c *OSController) Create(simulator.JobID) (simulator.ProcessHandle, error) {
	return 0, errors.ErrUnsupported
}
func (c *OSController) Start(simulator.ProcessHandle) error     { return errors.ErrUnsupported }
func (c *OSController) Suspend(simulator.ProcessHandle) error   { return errors.ErrUnsupported }
func (c *OSController) Terminate(simulator.ProcessHandle) error { return errors.ErrUnsupported }
func (c *OSController) Close() error                            { return nil }
