//go:build unix

package proc

import (
	"context"
	"io"
	"os/exec"
	"testing"
	"time"

	"github.com/Yuwon03/MLQ-Scheduler/simulator"
	"github.com/stretchr/testify/require"
)

func sleepController(t *testing.T) *OSController {
	t.Helper()
	path, err := exec.LookPath("sleep")
	if err != nil {
		t.Skip("sleep binary not available")
	}
	c := NewOSController(path, []string{"1000"}, io.Discard, nil)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestOSController_Lifecycle(t *testing.T) {
	c := sleepController(t)

	h, err := c.Create(1)
	require.NoError(t, err)

	status, err := c.Status(h)
	require.NoError(t, err)
	require.Equal(t, "created", status)

	require.NoError(t, c.Start(h))
	require.NoError(t, c.Suspend(h))

	status, err = c.Status(h)
	require.NoError(t, err)
	require.Equal(t, "stop", status)

	require.NoError(t, c.Start(h))
	require.Eventually(t, func() bool {
		s, err := c.Status(h)
		return err == nil && s != "stop"
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, c.Terminate(h))
	_, err = c.Status(h)
	require.Error(t, err, "handle is released after terminate")
}

func TestOSController_TerminateStopped(t *testing.T) {
	c := sleepController(t)

	h, err := c.Create(1)
	require.NoError(t, err)
	require.NoError(t, c.Start(h))
	require.NoError(t, c.Suspend(h))

	done := make(chan error, 1)
	go func() { done <- c.Terminate(h) }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("terminate of a stopped process did not return")
	}
}

func TestOSController_Errors(t *testing.T) {
	c := sleepController(t)

	require.Error(t, c.Start(42), "unknown handle")
	require.Error(t, c.Suspend(42), "unknown handle")
	require.Error(t, c.Terminate(42), "unknown handle")

	h, err := c.Create(7)
	require.NoError(t, err)
	require.ErrorContains(t, c.Suspend(h), "never started")

	// Never-launched handles are released without error.
	require.NoError(t, c.Terminate(h))
}

func TestOSController_LaunchFailure(t *testing.T) {
	c := NewOSController("/nonexistent/mlq-child", nil, io.Discard, nil)
	h, err := c.Create(1)
	require.NoError(t, err)
	require.ErrorContains(t, c.Start(h), "launch")
}

func TestOSController_DrivesSimulation(t *testing.T) {
	c := sleepController(t)

	cfg := simulator.Config{Level0Quantum: 1, Level1Quantum: 2, Level2Quantum: 1, StarvationThreshold: 4}
	sim, err := simulator.NewSimulator(cfg, c, nil)
	require.NoError(t, err)
	require.NoError(t, sim.SubmitAll([]simulator.JobSpec{
		{Arrival: 0, Service: 3, Priority: 0},
		{Arrival: 1, Service: 2, Priority: 1},
	}))

	m, err := sim.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, m.CompletedJobs)
	require.Equal(t, 5, sim.Tick())
	require.Empty(t, c.procs, "every child is reaped on completion")
}
