// Package history persists the reports of finished scheduler runs.
package history

import (
	"errors"
	"time"

	"github.com/Yuwon03/MLQ-Scheduler/simulator"
	"github.com/google/uuid"
)

// ErrNotFound is returned when a run id is not in the store.
var ErrNotFound = errors.New("run not found")

// Run is the stored summary of one completed simulation.
type Run struct {
	ID        string
	CreatedAt time.Time
	Source    string // job file the run was loaded from
	Config    simulator.Config
	Ticks     int

	TotalJobs     int
	CompletedJobs int
	AvgTurnaround float64
	AvgWaiting    float64
	AvgResponse   float64

	// Jobs is only populated by GetRun.
	Jobs []simulator.JobResult
}

// NewRun builds a run record under a fresh id from a finished simulator.
func NewRun(source string, sim *simulator.Simulator) *Run {
	m := sim.Metrics()
	return &Run{
		ID:            uuid.New().String(),
		CreatedAt:     time.Now().UTC(),
		Source:        source,
		Config:        sim.Config(),
		Ticks:         sim.Tick(),
		TotalJobs:     m.TotalJobs,
		CompletedJobs: m.CompletedJobs,
		AvgTurnaround: m.AvgTurnaround,
		AvgWaiting:    m.AvgWaiting,
		AvgResponse:   m.AvgResponse,
		Jobs:          sim.Results(),
	}
}
