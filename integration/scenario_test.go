package integration

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Yuwon03/MLQ-Scheduler/internal/jobfile"
	"github.com/Yuwon03/MLQ-Scheduler/simulator"
	"github.com/stretchr/testify/require"
)

func TestScenarios(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			sc, err := LoadScenario(path)
			require.NoError(t, err)
			require.NotNil(t, sc.Expect, "scenario must declare its expected outcome")

			out, err := RunScenario(context.Background(), sc)
			require.NoError(t, err)
			require.NoError(t, sc.Expect.Check(out))
			require.Len(t, out.Results, len(sc.Jobs))
		})
	}
}

func TestScenario_EventTrace(t *testing.T) {
	sc, err := LoadScenario(filepath.Join("testdata", "level0_interleave.yaml"))
	require.NoError(t, err)

	out, err := RunScenario(context.Background(), sc)
	require.NoError(t, err)

	var dispatched []simulator.JobID
	for _, e := range out.Events {
		if e.Type == simulator.EventTypeDispatch {
			dispatched = append(dispatched, e.JobID)
		}
	}
	require.Equal(t, []simulator.JobID{1, 2, 1, 2}, dispatched)
}

func TestParseScenario(t *testing.T) {
	sc, err := ParseScenario([]byte(`
name: partial
config:
  level2_quantum: 3
jobs:
  - {arrival: 1, service: 2, priority: 7}
`))
	require.NoError(t, err)
	require.Equal(t, "partial", sc.Name)
	require.Equal(t, 3, sc.Config.Level2Quantum)
	require.Equal(t, simulator.DefaultConfig().Level0Quantum, sc.Config.Level0Quantum)
	require.Nil(t, sc.Expect)

	// Out-of-range priorities are clamped at submission, not at parse time.
	out, err := RunScenario(context.Background(), sc)
	require.NoError(t, err)
	require.Equal(t, 1, out.Metrics.CompletedJobs)
	require.Equal(t, 2, out.Results[0].InitialPriority)
}

func TestParseScenario_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"bad yaml", "jobs: [", "parse scenario"},
		{"no jobs", "name: empty\n", "no jobs"},
		{"invalid config", "config: {level2_quantum: 0}\njobs: [{arrival: 0, service: 1, priority: 0}]\n", "level2Quantum"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.data))
			require.ErrorContains(t, err, tt.want)
		})
	}
}

func TestExpectation_CheckReportsMismatch(t *testing.T) {
	sc, err := LoadScenario(filepath.Join("testdata", "single_job.yaml"))
	require.NoError(t, err)
	out, err := RunScenario(context.Background(), sc)
	require.NoError(t, err)

	want := *sc.Expect
	want.AvgTurnaround = 4.99
	require.ErrorContains(t, want.Check(out), "avg_turnaround")

	want = *sc.Expect
	demotions := 1
	want.Demotions = &demotions
	require.ErrorContains(t, want.Check(out), "demotions")
}

func TestJobFileWithMalformedRecord(t *testing.T) {
	parsed, err := jobfile.ParseFile(filepath.Join("testdata", "mixed_records.txt"))
	require.NoError(t, err)
	require.Len(t, parsed.Jobs, 2)
	require.Len(t, parsed.Skipped, 1)

	out, err := RunScenario(context.Background(), &Scenario{
		Name:   "mixed records",
		Config: simulator.DefaultConfig(),
		Jobs:   parsed.Jobs,
	})
	require.NoError(t, err)
	require.Equal(t, 2, out.Metrics.CompletedJobs)
	require.Equal(t, 5, out.Ticks)
	require.InDelta(t, 3.0, out.Metrics.AvgTurnaround, 1e-9)
	require.InDelta(t, 0.5, out.Metrics.AvgWaiting, 1e-9)
	require.InDelta(t, 0.5, out.Metrics.AvgResponse, 1e-9)
}
