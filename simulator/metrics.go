package simulator

// Metrics accumulates per-job timing results as jobs complete.
// Averages are taken over completed jobs only.
type Metrics struct {
	Timestamp int `json:"timestamp"` // tick of the last update

	TotalJobs     int `json:"totalJobs"`     // submitted jobs
	CompletedJobs int `json:"completedJobs"` // jobs that ran to completion

	// Cumulative sums
	TotalTurnaround float64 `json:"totalTurnaround"`
	TotalWaiting    float64 `json:"totalWaiting"`
	TotalResponse   float64 `json:"totalResponse"`

	// Averages over completed jobs (0 while none completed)
	AvgTurnaround float64 `json:"avgTurnaround"`
	AvgWaiting    float64 `json:"avgWaiting"`
	AvgResponse   float64 `json:"avgResponse"`

	// Decision counters
	Dispatches  int `json:"dispatches"`
	Preemptions int `json:"preemptions"`
	Demotions   int `json:"demotions"`
	Requeues    int `json:"requeues"`
	Promotions  int `json:"promotions"` // jobs moved to level 0 by aging
	IdleTicks   int `json:"idleTicks"`  // ticks with nothing to run
}

// NewMetrics creates a new metrics tracker
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordCompletion folds a completed job into the totals.
func (m *Metrics) RecordCompletion(j *Job) {
	m.TotalTurnaround += float64(j.CompletionTime - j.ArrivalTime)
	m.TotalWaiting += float64(j.WaitTime)
	m.TotalResponse += float64(j.ResponseTime)
	m.CompletedJobs++
	m.Timestamp = j.CompletionTime
	m.updateAverages()
}

func (m *Metrics) updateAverages() {
	if m.CompletedJobs == 0 {
		m.AvgTurnaround, m.AvgWaiting, m.AvgResponse = 0, 0, 0
		return
	}
	n := float64(m.CompletedJobs)
	m.AvgTurnaround = m.TotalTurnaround / n
	m.AvgWaiting = m.TotalWaiting / n
	m.AvgResponse = m.TotalResponse / n
}

// HasResults reports whether any job completed. Averages are meaningless otherwise.
func (m *Metrics) HasResults() bool {
	return m.CompletedJobs > 0
}

// Clone creates a copy of the metrics
func (m *Metrics) Clone() *Metrics {
	clone := *m
	return &clone
}
