package simulator

import (
	"encoding/json"
	"fmt"
)

// JobID identifies a job within one simulator. IDs are assigned from 1 in
// submission order and double as the index into the job arena.
type JobID int

// JobStatus is the lifecycle state of a job.
type JobStatus int

const (
	StatusUninitialized JobStatus = iota
	StatusInitialized             // submitted, waiting in the arrival queue
	StatusReady                   // admitted into a ready queue, never run since
	StatusRunning                 // holds the CPU
	StatusSuspended               // paused by preemption or quantum expiry, back in a ready queue
	StatusTerminated              // completed and released
)

func (s JobStatus) String() string {
	switch s {
	case StatusUninitialized:
		return "uninitialized"
	case StatusInitialized:
		return "initialized"
	case StatusReady:
		return "ready"
	case StatusRunning:
		return "running"
	case StatusSuspended:
		return "suspended"
	case StatusTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// MarshalJSON implements json.Marshaler for JobStatus
func (s JobStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// ParseJobStatus converts a status name back to a JobStatus.
func ParseJobStatus(name string) (JobStatus, error) {
	for s := StatusUninitialized; s <= StatusTerminated; s++ {
		if s.String() == name {
			return s, nil
		}
	}
	return StatusUninitialized, fmt.Errorf("unknown job status: %q", name)
}

// UnmarshalJSON implements json.Unmarshaler for JobStatus
func (s *JobStatus) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseJobStatus(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// JobSpec is a job as read from a dispatch file, before submission.
type JobSpec struct {
	Arrival  int `json:"arrival" yaml:"arrival"`
	Service  int `json:"service" yaml:"service"`
	Priority int `json:"priority" yaml:"priority"`
}

// ClampPriority maps any integer onto a valid level.
func ClampPriority(p int) int {
	if p < 0 {
		return 0
	}
	if p >= NumLevels {
		return NumLevels - 1
	}
	return p
}

// Job is the scheduler's record of one process.
type Job struct {
	ID      JobID         `json:"id"`
	Process ProcessHandle `json:"process"`

	// Fixed at submission
	ArrivalTime     int `json:"arrivalTime"`
	ServiceTime     int `json:"serviceTime"`
	InitialPriority int `json:"initialPriority"`

	// Scheduling state
	Priority       int       `json:"priority"`       // current level, 0 = highest
	RemainingTime  int       `json:"remainingTime"`  // CPU ticks still owed
	QuantumUsed    int       `json:"quantumUsed"`    // ticks run in the current quantum window
	LevelTime      int       `json:"levelTime"`      // ticks run at level 1 since the last level change
	Status         JobStatus `json:"status"`         // lifecycle state
	LastReadyAt    int       `json:"lastReadyAt"`    // last entry into the ready state; wait time accrues from here
	LastEnqueuedAt int       `json:"lastEnqueuedAt"` // last placement into the current level; aging measures from here

	// Results
	StartTime      int `json:"startTime"`      // -1 until first dispatch
	CompletionTime int `json:"completionTime"` // -1 until completion
	ResponseTime   int `json:"responseTime"`
	WaitTime       int `json:"waitTime"`
}

func newJob(id JobID, spec JobSpec, handle ProcessHandle) *Job {
	j := &Job{
		ID:              id,
		Process:         handle,
		ArrivalTime:     spec.Arrival,
		ServiceTime:     spec.Service,
		InitialPriority: ClampPriority(spec.Priority),
	}
	j.reset()
	return j
}

// reset puts the job back in its just-submitted state.
func (j *Job) reset() {
	j.Priority = j.InitialPriority
	j.RemainingTime = j.ServiceTime
	j.QuantumUsed = 0
	j.LevelTime = 0
	j.Status = StatusInitialized
	j.LastReadyAt = 0
	j.LastEnqueuedAt = 0
	j.StartTime = -1
	j.CompletionTime = -1
	j.ResponseTime = 0
	j.WaitTime = 0
}

// enterLevel places the job at a level with fresh counters and both timestamps at now.
func (j *Job) enterLevel(level, now int) {
	j.Priority = level
	j.QuantumUsed = 0
	j.LevelTime = 0
	j.LastReadyAt = now
	j.LastEnqueuedAt = now
}

func (j *Job) String() string {
	return fmt.Sprintf("Job(id=%d, arrival=%d, service=%d, prio=%d, remaining=%d, %s)",
		j.ID, j.ArrivalTime, j.ServiceTime, j.Priority, j.RemainingTime, j.Status)
}

// JobResult is the final report for a completed job.
type JobResult struct {
	ID              JobID `json:"id"`
	ArrivalTime     int   `json:"arrivalTime"`
	ServiceTime     int   `json:"serviceTime"`
	InitialPriority int   `json:"initialPriority"`
	StartTime       int   `json:"startTime"`
	CompletionTime  int   `json:"completionTime"`
	Turnaround      int   `json:"turnaround"`
	Waiting         int   `json:"waiting"`
	Response        int   `json:"response"`
}

func resultOf(j *Job) JobResult {
	return JobResult{
		ID:              j.ID,
		ArrivalTime:     j.ArrivalTime,
		ServiceTime:     j.ServiceTime,
		InitialPriority: j.InitialPriority,
		StartTime:       j.StartTime,
		CompletionTime:  j.CompletionTime,
		Turnaround:      j.CompletionTime - j.ArrivalTime,
		Waiting:         j.WaitTime,
		Response:        j.ResponseTime,
	}
}
