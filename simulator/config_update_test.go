package simulator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"defaults", DefaultConfig(), false},
		{"zero quanta for levels 0 and 1", testConfig(0, 0, 1, 0), false},
		{"negative t0", testConfig(-1, 1, 1, 1), true},
		{"negative t1", testConfig(1, -1, 1, 1), true},
		{"zero t2", testConfig(1, 1, 0, 1), true},
		{"negative w", testConfig(1, 1, 1, -1), true},
		{"negative tick interval", Config{Level2Quantum: 1, TickInterval: -time.Second}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestConfigQuantum(t *testing.T) {
	c := testConfig(3, 6, 9, 0)
	require.Equal(t, 3, c.Quantum(0))
	require.Equal(t, 6, c.Quantum(1))
	require.Equal(t, 9, c.Quantum(2))
}

// TestUpdateConfig_BeforeStart verifies that new quanta apply when set before the first tick
func TestUpdateConfig_BeforeStart(t *testing.T) {
	sim, _, events := newTestSimulator(t, testConfig(0, 5, 5, 100), JobSpec{Arrival: 0, Service: 4, Priority: 0})

	err := sim.UpdateConfig(testConfig(2, 5, 5, 100))
	require.NoError(t, err)
	require.Equal(t, 2, sim.Config().Level0Quantum)

	runChecked(t, sim)
	require.Len(t, eventsOfType(*events, EventTypeDemotion), 1)
}

// TestUpdateConfig_RejectedAfterStart verifies that a running simulation keeps its parameters
func TestUpdateConfig_RejectedAfterStart(t *testing.T) {
	sim, _, _ := newTestSimulator(t, DefaultConfig(), JobSpec{Arrival: 0, Service: 4, Priority: 0})
	_, err := sim.Step(context.Background())
	require.NoError(t, err)

	require.Error(t, sim.UpdateConfig(testConfig(1, 1, 1, 1)))
	require.Error(t, sim.UpdateConfig(testConfig(1, 1, 0, 1)))
	require.Equal(t, DefaultConfig(), sim.Config())

	// After a reset the simulation has not started, so updates apply again
	require.NoError(t, sim.Reset())
	require.NoError(t, sim.UpdateConfig(testConfig(1, 1, 1, 1)))
}

// TestTickPacing verifies that a tick interval slows the run down without changing results
func TestTickPacing(t *testing.T) {
	config := testConfig(2, 2, 2, 10)
	config.TickInterval = 5 * time.Millisecond
	sim, _, _ := newTestSimulator(t, config, JobSpec{Arrival: 0, Service: 4, Priority: 0})

	start := time.Now()
	m, err := sim.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 4.0, m.AvgTurnaround)
	// Four paced ticks: the first is free, the rest wait one interval each
	require.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}
