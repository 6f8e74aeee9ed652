package simulator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJobQueueBasicOperations(t *testing.T) {
	t.Run("new queue is empty", func(t *testing.T) {
		var q JobQueue
		require.True(t, q.IsEmpty())
		require.Equal(t, NoJob, q.Dequeue())
		require.Equal(t, NoJob, q.Peek())
	})

	t.Run("tail enqueue is FIFO", func(t *testing.T) {
		var q JobQueue
		q.EnqueueTail(1)
		q.EnqueueTail(2)
		q.EnqueueTail(3)
		require.Equal(t, 3, q.Len())
		require.Equal(t, JobID(1), q.Peek())
		require.Equal(t, JobID(1), q.Dequeue())
		require.Equal(t, JobID(2), q.Dequeue())
		require.Equal(t, JobID(3), q.Dequeue())
		require.True(t, q.IsEmpty())
	})

	t.Run("front enqueue goes ahead of waiting jobs", func(t *testing.T) {
		var q JobQueue
		q.EnqueueTail(1)
		q.EnqueueTail(2)
		q.EnqueueFront(3)
		require.Equal(t, []JobID{3, 1, 2}, q.IDs())

		var empty JobQueue
		empty.EnqueueFront(9)
		require.Equal(t, []JobID{9}, empty.IDs())
	})

	t.Run("null job is ignored", func(t *testing.T) {
		var q JobQueue
		q.EnqueueTail(NoJob)
		q.EnqueueFront(NoJob)
		require.True(t, q.IsEmpty())
	})

	t.Run("IDs returns a copy", func(t *testing.T) {
		var q JobQueue
		q.EnqueueTail(1)
		ids := q.IDs()
		ids[0] = 42
		require.Equal(t, JobID(1), q.Peek())
	})
}

func TestJobQueueAppend(t *testing.T) {
	var dst, src JobQueue
	dst.EnqueueTail(1)
	src.EnqueueTail(2)
	src.EnqueueTail(3)

	dst.Append(&src)
	require.Equal(t, []JobID{1, 2, 3}, dst.IDs())
	require.True(t, src.IsEmpty(), "source must be emptied")

	// Appending an empty queue or nil is a no-op
	dst.Append(&src)
	dst.Append(nil)
	require.Equal(t, []JobID{1, 2, 3}, dst.IDs())

	// Appending into an empty queue
	var empty JobQueue
	empty.Append(&dst)
	require.Equal(t, []JobID{1, 2, 3}, empty.IDs())
	require.True(t, dst.IsEmpty())
}

func TestArrivalQueueOrdering(t *testing.T) {
	q := NewArrivalQueue()

	// Push jobs in non-chronological order
	arrivals := []struct {
		id      JobID
		arrival int
	}{
		{1, 15},
		{2, 5},
		{3, 20},
		{4, 1},
		{5, 5},
		{6, 10},
		{7, 5},
	}
	for _, a := range arrivals {
		q.EnqueueSorted(a.id, a.arrival)
	}
	require.Equal(t, 7, q.Len())

	first, ok := q.PeekArrival()
	require.True(t, ok)
	require.Equal(t, 1, first)

	// Equal arrival times keep insertion order
	expected := []JobID{4, 2, 5, 7, 6, 1, 3}
	for i, want := range expected {
		require.Equal(t, want, q.Dequeue(), "position %d", i)
	}
	require.True(t, q.IsEmpty())
	_, ok = q.PeekArrival()
	require.False(t, ok)
	require.Equal(t, NoJob, q.Dequeue())
}

func TestArrivalQueueClearAndContains(t *testing.T) {
	q := NewArrivalQueue()
	q.EnqueueSorted(1, 3)
	q.EnqueueSorted(NoJob, 0)
	require.Equal(t, 1, q.Len())
	require.True(t, q.Contains(1))
	require.False(t, q.Contains(2))

	q.Clear()
	require.True(t, q.IsEmpty())
	require.False(t, q.Contains(1))
}
