package simulator

import "container/heap"

// NoJob is the null handle. Queue operations ignore it.
const NoJob JobID = 0

// JobQueue is an ordered FIFO of job handles. The zero value is an empty queue.
type JobQueue struct {
	ids []JobID
}

// EnqueueTail appends a job at the end of the queue.
func (q *JobQueue) EnqueueTail(id JobID) {
	if id == NoJob {
		return
	}
	q.ids = append(q.ids, id)
}

// EnqueueFront inserts a job at the head of the queue.
// Only preempted jobs go here, so they run before jobs that have not had a turn yet.
func (q *JobQueue) EnqueueFront(id JobID) {
	if id == NoJob {
		return
	}
	q.ids = append(q.ids, NoJob)
	copy(q.ids[1:], q.ids)
	q.ids[0] = id
}

// Append moves every job of src onto the end of q, keeping their order, and empties src.
func (q *JobQueue) Append(src *JobQueue) {
	if src == nil || len(src.ids) == 0 {
		return
	}
	q.ids = append(q.ids, src.ids...)
	src.ids = nil
}

// Dequeue removes and returns the head, or NoJob if the queue is empty.
func (q *JobQueue) Dequeue() JobID {
	if len(q.ids) == 0 {
		return NoJob
	}
	id := q.ids[0]
	q.ids = q.ids[1:]
	return id
}

// Peek returns the head without removing it, or NoJob if the queue is empty.
func (q *JobQueue) Peek() JobID {
	if len(q.ids) == 0 {
		return NoJob
	}
	return q.ids[0]
}

// IsEmpty returns true if the queue is empty
func (q *JobQueue) IsEmpty() bool {
	return len(q.ids) == 0
}

// Len returns the number of jobs in the queue
func (q *JobQueue) Len() int {
	return len(q.ids)
}

// Clear removes all jobs from the queue
func (q *JobQueue) Clear() {
	q.ids = nil
}

// IDs returns a copy of the queue contents, head first.
func (q *JobQueue) IDs() []JobID {
	ids := make([]JobID, len(q.ids))
	copy(ids, q.ids)
	return ids
}

// ArrivalQueue holds submitted jobs that have not arrived yet, ordered by
// arrival time. Jobs with equal arrival times keep their submission order.
type ArrivalQueue struct {
	entries arrivalHeap
	seq     int
}

// NewArrivalQueue creates a new arrival queue
func NewArrivalQueue() *ArrivalQueue {
	aq := &ArrivalQueue{
		entries: make(arrivalHeap, 0),
	}
	heap.Init(&aq.entries)
	return aq
}

// EnqueueSorted inserts a job keeping ascending arrival-time order.
func (aq *ArrivalQueue) EnqueueSorted(id JobID, arrival int) {
	if id == NoJob {
		return
	}
	aq.seq++
	heap.Push(&aq.entries, arrivalEntry{id: id, arrival: arrival, seq: aq.seq})
}

// Dequeue removes and returns the earliest job, or NoJob if the queue is empty.
func (aq *ArrivalQueue) Dequeue() JobID {
	if aq.IsEmpty() {
		return NoJob
	}
	return heap.Pop(&aq.entries).(arrivalEntry).id
}

// PeekArrival returns the earliest arrival time. ok is false when the queue is empty.
func (aq *ArrivalQueue) PeekArrival() (arrival int, ok bool) {
	if aq.IsEmpty() {
		return 0, false
	}
	return aq.entries[0].arrival, true
}

// IsEmpty returns true if the queue is empty
func (aq *ArrivalQueue) IsEmpty() bool {
	return aq.entries.Len() == 0
}

// Len returns the number of jobs in the queue
func (aq *ArrivalQueue) Len() int {
	return aq.entries.Len()
}

// Clear removes all jobs from the queue
func (aq *ArrivalQueue) Clear() {
	aq.entries = make(arrivalHeap, 0)
	aq.seq = 0
	heap.Init(&aq.entries)
}

// Contains reports whether id is waiting in the queue.
func (aq *ArrivalQueue) Contains(id JobID) bool {
	for _, e := range aq.entries {
		if e.id == id {
			return true
		}
	}
	return false
}

type arrivalEntry struct {
	id      JobID
	arrival int
	seq     int
}

// arrivalHeap implements heap.Interface ordered by (arrival, seq)
type arrivalHeap []arrivalEntry

func (h arrivalHeap) Len() int { return len(h) }
func (h arrivalHeap) Less(i, j int) bool {
	if h[i].arrival != h[j].arrival {
		return h[i].arrival < h[j].arrival
	}
	return h[i].seq < h[j].seq
}
func (h arrivalHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *arrivalHeap) Push(x interface{}) {
	*h = append(*h, x.(arrivalEntry))
}

func (h *arrivalHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}
