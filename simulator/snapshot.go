package simulator

import "fmt"

// Snapshot is a point-in-time view of the scheduler, safe to hand to other goroutines.
type Snapshot struct {
	Tick     int                `json:"tick"`
	Running  *Job               `json:"running,omitempty"`
	Arrivals int                `json:"arrivals"` // jobs not arrived yet
	Levels   [NumLevels][]JobID `json:"levels"`
	Metrics  *Metrics           `json:"metrics"`
	Done     bool               `json:"done"`
}

// Snapshot captures the current state.
func (s *Simulator) Snapshot() Snapshot {
	snap := Snapshot{
		Tick:     s.tick,
		Arrivals: s.arrivals.Len(),
		Metrics:  s.Metrics(),
		Done:     s.done,
	}
	if s.running != NoJob {
		j := *s.job(s.running)
		snap.Running = &j
	}
	for i := range s.levels {
		snap.Levels[i] = s.levels[i].IDs()
	}
	return snap
}

// CheckInvariants verifies that every unfinished job sits in exactly one place
// (arrival queue, one ready level, or the CPU), that finished jobs sit nowhere,
// and that every priority is a valid level.
func (s *Simulator) CheckInvariants() error {
	seen := make(map[JobID]int, len(s.jobs))
	for _, j := range s.jobs {
		if s.arrivals.Contains(j.ID) {
			seen[j.ID]++
		}
	}
	for level := range s.levels {
		for _, id := range s.levels[level].ids {
			seen[id]++
			if p := s.job(id).Priority; p != level {
				return fmt.Errorf("job %d queued at level %d has priority %d", id, level, p)
			}
		}
	}
	if s.running != NoJob {
		seen[s.running]++
		if st := s.job(s.running).Status; st != StatusRunning {
			return fmt.Errorf("running job %d has status %s", s.running, st)
		}
	}

	completed := 0
	for _, j := range s.jobs {
		if j.Priority < 0 || j.Priority >= NumLevels {
			return fmt.Errorf("job %d has priority %d", j.ID, j.Priority)
		}
		if j.Status == StatusTerminated {
			completed++
			if seen[j.ID] != 0 {
				return fmt.Errorf("terminated job %d is still queued", j.ID)
			}
			continue
		}
		if seen[j.ID] != 1 {
			return fmt.Errorf("job %d is in %d places", j.ID, seen[j.ID])
		}
		if j.Status == StatusRunning && j.ID != s.running {
			return fmt.Errorf("job %d is marked running but does not hold the CPU", j.ID)
		}
	}
	if completed != s.metrics.CompletedJobs || completed > len(s.jobs) {
		return fmt.Errorf("completed count %d does not match metrics %d", completed, s.metrics.CompletedJobs)
	}
	return nil
}
