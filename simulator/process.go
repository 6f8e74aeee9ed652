package simulator

import (
	"fmt"
	"sync"
)

// ProcessHandle is an opaque reference to a unit of work owned by a ProcessController.
type ProcessHandle int64

// ProcessController creates and drives the real unit of work behind each job.
// Every call is synchronous: it either succeeds or fails with no partial effect.
type ProcessController interface {
	// Create allocates a process shell for a job. Nothing runs yet.
	Create(id JobID) (ProcessHandle, error)
	// Start launches the process on first call and resumes it afterwards.
	Start(h ProcessHandle) error
	// Suspend pauses a running process.
	Suspend(h ProcessHandle) error
	// Terminate finalizes a process at job completion.
	Terminate(h ProcessHandle) error
}

// ControllerOp names a ProcessController call.
type ControllerOp string

const (
	OpCreate    ControllerOp = "create"
	OpStart     ControllerOp = "start"
	OpSuspend   ControllerOp = "suspend"
	OpTerminate ControllerOp = "terminate"
)

// ControllerCall records one call made to a SimulatedController.
type ControllerCall struct {
	Op     ControllerOp
	Handle ProcessHandle
}

// SimulatedController is a ProcessController with no side effects. It records every
// call, and SuspendErr/StartErr can be set to inject failures.
type SimulatedController struct {
	mu         sync.Mutex
	next       ProcessHandle
	running    map[ProcessHandle]bool
	calls      []ControllerCall
	SuspendErr error
	StartErr   error
}

// NewSimulatedController creates a controller that only records calls.
func NewSimulatedController() *SimulatedController {
	return &SimulatedController{running: make(map[ProcessHandle]bool)}
}

func (c *SimulatedController) record(op ControllerOp, h ProcessHandle) {
	c.calls = append(c.calls, ControllerCall{Op: op, Handle: h})
}

func (c *SimulatedController) Create(id JobID) (ProcessHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next++
	c.record(OpCreate, c.next)
	return c.next, nil
}

func (c *SimulatedController) Start(h ProcessHandle) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record(OpStart, h)
	if c.StartErr != nil {
		return c.StartErr
	}
	if c.running[h] {
		return fmt.Errorf("process %d already running", h)
	}
	c.running[h] = true
	return nil
}

func (c *SimulatedController) Suspend(h ProcessHandle) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record(OpSuspend, h)
	if c.SuspendErr != nil {
		return c.SuspendErr
	}
	if !c.running[h] {
		return fmt.Errorf("process %d is not running", h)
	}
	c.running[h] = false
	return nil
}

func (c *SimulatedController) Terminate(h ProcessHandle) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record(OpTerminate, h)
	delete(c.running, h)
	return nil
}

// Calls returns a copy of the recorded calls in order.
func (c *SimulatedController) Calls() []ControllerCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	calls := make([]ControllerCall, len(c.calls))
	copy(calls, c.calls)
	return calls
}

// Running returns the number of processes currently started and not suspended.
func (c *SimulatedController) Running() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, r := range c.running {
		if r {
			n++
		}
	}
	return n
}
