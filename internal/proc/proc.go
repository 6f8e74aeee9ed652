//go:build unix

// Package proc runs each job as a real child process and drives it with job
// control signals: SIGTSTP to suspend, SIGCONT to resume, SIGINT to terminate.
package proc

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"

	"github.com/Yuwon03/MLQ-Scheduler/simulator"
	"github.com/shirou/gopsutil/v3/process"
	"golang.org/x/sys/unix"
)

// OSController implements simulator.ProcessController with child processes.
// A child is launched on the first Start of its handle.
type OSController struct {
	command string
	args    []string
	output  io.Writer
	logger  *slog.Logger

	mu    sync.Mutex
	next  simulator.ProcessHandle
	procs map[simulator.ProcessHandle]*child
}

type child struct {
	job     simulator.JobID
	cmd     *exec.Cmd
	stopped bool
}

func (c *child) pid() int {
	return c.cmd.Process.Pid
}

// NewOSController creates a controller that runs command with args for every job.
// Child output goes to output (stderr when nil) so it never mixes with the report.
func NewOSController(command string, args []string, output io.Writer, logger *slog.Logger) *OSController {
	if output == nil {
		output = os.Stderr
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &OSController{
		command: command,
		args:    args,
		output:  output,
		logger:  logger.With("component", "proc"),
		procs:   make(map[simulator.ProcessHandle]*child),
	}
}

func (c *OSController) lookup(h simulator.ProcessHandle) (*child, error) {
	ch, ok := c.procs[h]
	if !ok {
		return nil, fmt.Errorf("unknown process handle %d", h)
	}
	return ch, nil
}

// Create reserves a handle for a job. The child is not forked until Start.
func (c *OSController) Create(id simulator.JobID) (simulator.ProcessHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next++
	c.procs[c.next] = &child{job: id}
	return c.next, nil
}

// Start forks the child on first use and sends SIGCONT afterwards.
func (c *OSController) Start(h simulator.ProcessHandle) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch, err := c.lookup(h)
	if err != nil {
		return err
	}

	if ch.cmd == nil {
		cmd := exec.Command(c.command, c.args...)
		cmd.Env = append(os.Environ(), fmt.Sprintf("MLQ_JOB_ID=%d", ch.job))
		cmd.Stdout = c.output
		cmd.Stderr = c.output
		if err := cmd.Start(); err != nil {
			return fmt.Errorf("job %d: launch %s: %w", ch.job, c.command, err)
		}
		ch.cmd = cmd
		c.logger.Debug("process launched", "job_id", ch.job, "pid", ch.pid())
		return nil
	}

	if err := unix.Kill(ch.pid(), unix.SIGCONT); err != nil {
		return fmt.Errorf("job %d: resume pid %d: %w", ch.job, ch.pid(), err)
	}
	ch.stopped = false
	c.logger.Debug("process resumed", "job_id", ch.job, "pid", ch.pid())
	return nil
}

// Suspend sends SIGTSTP and waits until the child reports it has stopped.
func (c *OSController) Suspend(h simulator.ProcessHandle) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch, err := c.lookup(h)
	if err != nil {
		return err
	}
	if ch.cmd == nil {
		return fmt.Errorf("job %d: process was never started", ch.job)
	}

	pid := ch.pid()
	if p, err := process.NewProcess(int32(pid)); err != nil {
		return fmt.Errorf("job %d: pid %d: %w", ch.job, pid, err)
	} else if st, _ := p.Status(); len(st) > 0 && st[0] == "zombie" {
		return fmt.Errorf("job %d: pid %d has exited", ch.job, pid)
	}

	if err := unix.Kill(pid, unix.SIGTSTP); err != nil {
		return fmt.Errorf("job %d: suspend pid %d: %w", ch.job, pid, err)
	}
	var ws unix.WaitStatus
	if _, err := unix.Wait4(pid, &ws, unix.WUNTRACED, nil); err != nil {
		return fmt.Errorf("job %d: wait for pid %d: %w", ch.job, pid, err)
	}
	if !ws.Stopped() {
		return fmt.Errorf("job %d: pid %d exited instead of stopping", ch.job, pid)
	}
	ch.stopped = true
	c.logger.Debug("process suspended", "job_id", ch.job, "pid", pid)
	return nil
}

// Terminate sends SIGINT, resumes a stopped child so the signal is delivered,
// and reaps it. Handles that never launched are simply released.
func (c *OSController) Terminate(h simulator.ProcessHandle) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch, err := c.lookup(h)
	if err != nil {
		return err
	}
	delete(c.procs, h)
	if ch.cmd == nil {
		return nil
	}
	return c.terminate(ch)
}

func (c *OSController) terminate(ch *child) error {
	pid := ch.pid()
	if err := unix.Kill(pid, unix.SIGINT); err != nil && err != unix.ESRCH {
		return fmt.Errorf("job %d: interrupt pid %d: %w", ch.job, pid, err)
	}
	if ch.stopped {
		_ = unix.Kill(pid, unix.SIGCONT)
	}
	// The exit status reflects the signal; only the reaping matters.
	_ = ch.cmd.Wait()
	c.logger.Debug("process terminated", "job_id", ch.job, "pid", pid)
	return nil
}

// Status reports the scheduler-visible state of a child as seen by the OS
// (for example "running", "sleep", "stop").
func (c *OSController) Status(h simulator.ProcessHandle) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch, err := c.lookup(h)
	if err != nil {
		return "", err
	}
	if ch.cmd == nil {
		return "created", nil
	}
	p, err := process.NewProcess(int32(ch.pid()))
	if err != nil {
		return "", fmt.Errorf("job %d: %w", ch.job, err)
	}
	st, err := p.Status()
	if err != nil {
		return "", fmt.Errorf("job %d: status: %w", ch.job, err)
	}
	if len(st) == 0 {
		return "", fmt.Errorf("job %d: empty status", ch.job)
	}
	return st[0], nil
}

// Close terminates every child still alive, for runs that end early.
func (c *OSController) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var firstErr error
	for h, ch := range c.procs {
		delete(c.procs, h)
		if ch.cmd == nil {
			continue
		}
		if err := c.terminate(ch); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
