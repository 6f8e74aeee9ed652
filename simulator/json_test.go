package simulator

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSnapshotJSONRoundTrip(t *testing.T) {
	sim, _, _ := newTestSimulator(t, testConfig(1, 2, 1, 4),
		JobSpec{Arrival: 0, Service: 3, Priority: 0},
		JobSpec{Arrival: 0, Service: 2, Priority: 1},
	)
	_, err := sim.Step(context.Background())
	require.NoError(t, err)

	snap := sim.Snapshot()
	require.NotNil(t, snap.Running)
	require.Equal(t, StatusRunning, snap.Running.Status)

	data, err := json.Marshal(snap)
	require.NoError(t, err)
	require.Contains(t, string(data), `"status":"running"`)

	var decoded Snapshot
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, snap, decoded)
}

func TestEventsJSONRoundTrip(t *testing.T) {
	sim, _, events := newTestSimulator(t, testConfig(1, 2, 1, 4),
		JobSpec{Arrival: 0, Service: 3, Priority: 0},
		JobSpec{Arrival: 1, Service: 2, Priority: 1},
	)
	runChecked(t, sim)
	require.NotEmpty(t, *events)

	data, err := json.Marshal(*events)
	require.NoError(t, err)
	require.Contains(t, string(data), `"type":"dispatch"`)

	var decoded []Event
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, *events, decoded)
}

func TestJobStatusJSON(t *testing.T) {
	for s := StatusUninitialized; s <= StatusTerminated; s++ {
		data, err := json.Marshal(s)
		require.NoError(t, err)

		var got JobStatus
		require.NoError(t, json.Unmarshal(data, &got))
		require.Equal(t, s, got)
	}

	var got JobStatus
	require.Error(t, json.Unmarshal([]byte(`"sleeping"`), &got))
	require.Error(t, json.Unmarshal([]byte(`3`), &got))
}

func TestEventTypeUnmarshalText(t *testing.T) {
	for et := EventTypeArrival; et <= EventTypeCompletion; et++ {
		text, err := et.MarshalText()
		require.NoError(t, err)

		var got EventType
		require.NoError(t, got.UnmarshalText(text))
		require.Equal(t, et, got)
	}

	var got EventType
	require.Error(t, got.UnmarshalText([]byte("unknown")))
}
