package simulator

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"
)

// Simulator is a multilevel feedback queue scheduler driven one tick at a time.
// It has NO concurrency primitives: all state is mutated by Step() on the caller's
// goroutine. Callers that share a Simulator across goroutines (cmd/server) must
// serialize access themselves.
type Simulator struct {
	config     Config
	controller ProcessController
	logger     *slog.Logger
	limiter    *rate.Limiter // nil when ticks are not paced

	jobs     []*Job // arena, jobs[id-1]
	arrivals *ArrivalQueue
	levels   [NumLevels]JobQueue
	running  JobID
	tick     int
	metrics  *Metrics
	results  []JobResult
	done     bool
	fault    error // set once an engine fault aborts the run

	// Event callback (optional, for UI/tracing). Called synchronously from Step.
	OnEvent func(Event)

	agingHook func() // test hook, runs right after the aging check
}

// NewSimulator creates a simulator with no jobs. A nil logger discards output.
func NewSimulator(config Config, controller ProcessController, logger *slog.Logger) (*Simulator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if controller == nil {
		return nil, SimError{Message: "process controller is required"}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Simulator{
		config:     config,
		controller: controller,
		logger:     logger.With("component", "simulator"),
		arrivals:   NewArrivalQueue(),
		running:    NoJob,
		metrics:    NewMetrics(),
	}
	s.limiter = newLimiter(config)
	return s, nil
}

func newLimiter(config Config) *rate.Limiter {
	if config.TickInterval <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(config.TickInterval), 1)
}

// Submit creates a process for the job and places it in the arrival queue.
func (s *Simulator) Submit(spec JobSpec) (JobID, error) {
	id := JobID(len(s.jobs) + 1)
	handle, err := s.controller.Create(id)
	if err != nil {
		return NoJob, fmt.Errorf("create process for job %d: %w", id, err)
	}
	j := newJob(id, spec, handle)
	s.jobs = append(s.jobs, j)
	s.arrivals.EnqueueSorted(id, j.ArrivalTime)
	s.metrics.TotalJobs = len(s.jobs)
	s.done = false
	s.logger.Debug("job submitted", "job_id", id, "arrival", j.ArrivalTime,
		"service", j.ServiceTime, "priority", j.InitialPriority)
	return id, nil
}

// SubmitAll submits every spec in order.
func (s *Simulator) SubmitAll(specs []JobSpec) error {
	for _, spec := range specs {
		if _, err := s.Submit(spec); err != nil {
			return err
		}
	}
	return nil
}

// Run steps the simulation until every submitted job has completed.
// Cancelling ctx stops the run after the current tick.
func (s *Simulator) Run(ctx context.Context) (*Metrics, error) {
	if len(s.jobs) == 0 {
		return nil, ErrNoJobs
	}
	s.logger.Info("simulation started", "jobs", len(s.jobs),
		"t0", s.config.Level0Quantum, "t1", s.config.Level1Quantum,
		"t2", s.config.Level2Quantum, "w", s.config.StarvationThreshold)

	for {
		done, err := s.Step(ctx)
		if err != nil {
			return s.Metrics(), err
		}
		if done {
			break
		}
	}

	s.logger.Info("simulation finished", "tick", s.tick,
		"completed", s.metrics.CompletedJobs, "total", s.metrics.TotalJobs)
	return s.Metrics(), nil
}

// Step executes one tick: admit arrivals, age starved queues, check preemption,
// dispatch if idle, then advance time and charge the running job.
// It returns true once no work remains. After an engine fault every call returns
// the same error.
//
// Cancellation of ctx only cuts the pacing wait short; the tick itself always
// completes, and the context error is returned with it.
func (s *Simulator) Step(ctx context.Context) (bool, error) {
	if s.fault != nil {
		return true, s.fault
	}
	if s.done || !s.hasWork() {
		s.done = true
		return true, nil
	}

	s.admitArrivals()
	s.ageQueues()

	if err := s.checkPreemption(); err != nil {
		return s.abort(err)
	}
	if s.running == NoJob {
		if err := s.dispatch(); err != nil {
			return s.abort(err)
		}
	}

	if s.running == NoJob {
		if s.arrivals.IsEmpty() && s.levelsEmpty() {
			s.done = true
			return true, nil
		}
		paceErr := s.pace(ctx)
		s.tick++
		s.metrics.IdleTicks++
		return false, paceErr
	}

	paceErr := s.pace(ctx)
	s.tick++
	if err := s.consume(); err != nil {
		return s.abort(err)
	}

	s.done = !s.hasWork()
	return s.done, paceErr
}

func (s *Simulator) pace(ctx context.Context) error {
	if s.limiter == nil {
		return ctx.Err()
	}
	return s.limiter.Wait(ctx)
}

func (s *Simulator) abort(err error) (bool, error) {
	s.fault = err
	s.done = true
	s.logger.Error("simulation aborted", "tick", s.tick, "error", err)
	return true, err
}

func (s *Simulator) hasWork() bool {
	return s.running != NoJob || !s.arrivals.IsEmpty() || !s.levelsEmpty()
}

func (s *Simulator) levelsEmpty() bool {
	for i := range s.levels {
		if !s.levels[i].IsEmpty() {
			return false
		}
	}
	return true
}

func (s *Simulator) job(id JobID) *Job {
	return s.jobs[id-1]
}

func (s *Simulator) emit(t EventType, id JobID, from, to int) {
	if s.OnEvent != nil {
		s.OnEvent(Event{Tick: s.tick, Type: t, JobID: id, From: from, To: to})
	}
}

// admitArrivals moves every job whose arrival time has been reached into the
// ready queue of its initial priority, earliest arrival first.
func (s *Simulator) admitArrivals() {
	for {
		arrival, ok := s.arrivals.PeekArrival()
		if !ok || arrival > s.tick {
			return
		}
		j := s.job(s.arrivals.Dequeue())
		j.enterLevel(j.InitialPriority, s.tick)
		j.Status = StatusReady
		s.levels[j.Priority].EnqueueTail(j.ID)
		s.logger.Debug("job arrived", "tick", s.tick, "job_id", j.ID, "priority", j.Priority)
		s.emit(EventTypeArrival, j.ID, j.Priority, j.Priority)
	}
}

// ageQueues promotes whole queues to level 0 when their head has waited at
// least StarvationThreshold ticks since entering its level. A starved level 1
// takes level 2 along with it.
func (s *Simulator) ageQueues() {
	if s.starved(1) {
		s.promoteAll(1)
		s.promoteAll(2)
	}
	if s.starved(2) {
		s.promoteAll(2)
	}
	if s.agingHook != nil {
		s.agingHook()
	}
}

func (s *Simulator) starved(level int) bool {
	head := s.levels[level].Peek()
	if head == NoJob {
		return false
	}
	return s.tick-s.job(head).LastEnqueuedAt >= s.config.StarvationThreshold
}

func (s *Simulator) promoteAll(level int) {
	q := &s.levels[level]
	if q.IsEmpty() {
		return
	}
	for _, id := range q.ids {
		s.job(id).enterLevel(0, s.tick)
		s.metrics.Promotions++
		s.emit(EventTypePromotion, id, level, 0)
	}
	s.logger.Debug("queue promoted", "tick", s.tick, "from", level, "jobs", q.Len())
	s.levels[0].Append(q)
}

// checkPreemption returns the running job to the front of its queue when a
// higher level has work. A level-1 job gets a fresh quantum on return; a level-2
// job keeps what it has used. Neither restarts its aging clock.
func (s *Simulator) checkPreemption() error {
	if s.running == NoJob {
		return nil
	}
	j := s.job(s.running)

	switch {
	case j.Priority == 1 && !s.levels[0].IsEmpty():
		if err := s.suspend(j); err != nil {
			return err
		}
		j.QuantumUsed = 0
	case j.Priority == 2 && (!s.levels[0].IsEmpty() || !s.levels[1].IsEmpty()):
		if err := s.suspend(j); err != nil {
			return err
		}
	default:
		return nil
	}

	j.Status = StatusSuspended
	j.LastReadyAt = s.tick
	s.levels[j.Priority].EnqueueFront(j.ID)
	s.running = NoJob
	s.metrics.Preemptions++
	s.logger.Debug("job preempted", "tick", s.tick, "job_id", j.ID, "priority", j.Priority)
	s.emit(EventTypePreemption, j.ID, j.Priority, j.Priority)
	return nil
}

func (s *Simulator) suspend(j *Job) error {
	if err := s.controller.Suspend(j.Process); err != nil {
		return fmt.Errorf("%w: job %d (process %d): %v", ErrSuspendFailed, j.ID, j.Process, err)
	}
	return nil
}

// dispatch starts the head of the highest non-empty level.
func (s *Simulator) dispatch() error {
	id := NoJob
	for i := range s.levels {
		if !s.levels[i].IsEmpty() {
			id = s.levels[i].Dequeue()
			break
		}
	}
	if id == NoJob {
		return nil
	}

	j := s.job(id)
	// Level-1 time survives a preemption; other levels start fresh.
	if j.Priority != 1 {
		j.LevelTime = 0
	}
	j.Status = StatusRunning
	j.WaitTime += s.tick - j.LastReadyAt
	if j.StartTime < 0 {
		j.StartTime = s.tick
		j.ResponseTime = s.tick - j.ArrivalTime
	}
	if err := s.controller.Start(j.Process); err != nil {
		return fmt.Errorf("start job %d (process %d): %w", j.ID, j.Process, err)
	}

	s.running = id
	s.metrics.Dispatches++
	s.logger.Debug("job dispatched", "tick", s.tick, "job_id", id, "priority", j.Priority)
	s.emit(EventTypeDispatch, id, j.Priority, j.Priority)
	return nil
}

// consume charges one tick to the running job, then completes it or takes it
// off the CPU if its quantum at the current level is used up.
func (s *Simulator) consume() error {
	j := s.job(s.running)
	j.RemainingTime--
	j.QuantumUsed++
	if j.Priority == 1 {
		j.LevelTime++
	}

	if j.RemainingTime <= 0 {
		s.complete(j)
		return nil
	}

	switch {
	case j.Priority == 0 && s.config.Level0Quantum > 0 && j.QuantumUsed >= s.config.Level0Quantum:
		return s.demote(j, 1)
	case j.Priority == 1 && s.config.Level1Quantum > 0 && j.LevelTime >= s.config.Level1Quantum:
		return s.demote(j, 2)
	case j.Priority == 2 && j.QuantumUsed >= s.config.Level2Quantum:
		return s.demote(j, 2)
	}
	return nil
}

// demote suspends the running job and puts it at the tail of level. Demoting
// a level-2 job to level 2 is the round-robin requeue.
func (s *Simulator) demote(j *Job, level int) error {
	if err := s.suspend(j); err != nil {
		return err
	}
	from := j.Priority
	j.enterLevel(level, s.tick)
	j.Status = StatusSuspended
	s.levels[level].EnqueueTail(j.ID)
	s.running = NoJob

	if from == level {
		s.metrics.Requeues++
		s.logger.Debug("job requeued", "tick", s.tick, "job_id", j.ID, "priority", level)
		s.emit(EventTypeRequeue, j.ID, from, level)
		return nil
	}
	s.metrics.Demotions++
	s.logger.Debug("job demoted", "tick", s.tick, "job_id", j.ID, "from", from, "to", level)
	s.emit(EventTypeDemotion, j.ID, from, level)
	return nil
}

func (s *Simulator) complete(j *Job) {
	if err := s.controller.Terminate(j.Process); err != nil {
		s.logger.Warn("terminate failed", "tick", s.tick, "job_id", j.ID, "process", j.Process, "error", err)
	}
	j.CompletionTime = s.tick
	j.Status = StatusTerminated
	j.Process = 0
	s.metrics.RecordCompletion(j)
	s.results = append(s.results, resultOf(j))
	s.running = NoJob
	s.logger.Debug("job completed", "tick", s.tick, "job_id", j.ID,
		"turnaround", j.CompletionTime-j.ArrivalTime, "waiting", j.WaitTime, "response", j.ResponseTime)
	s.emit(EventTypeCompletion, j.ID, j.Priority, j.Priority)
}

// Reset returns every job to its submitted state so the same workload can run
// again. Processes of unfinished jobs are terminated and fresh ones created.
func (s *Simulator) Reset() error {
	for _, j := range s.jobs {
		if j.Status != StatusTerminated && j.Process != 0 {
			if err := s.controller.Terminate(j.Process); err != nil {
				s.logger.Warn("terminate on reset failed", "job_id", j.ID, "error", err)
			}
		}
	}

	s.arrivals.Clear()
	for i := range s.levels {
		s.levels[i].Clear()
	}
	s.running = NoJob
	s.tick = 0
	s.metrics = NewMetrics()
	s.metrics.TotalJobs = len(s.jobs)
	s.results = nil
	s.done = false
	s.fault = nil
	s.limiter = newLimiter(s.config)

	for _, j := range s.jobs {
		handle, err := s.controller.Create(j.ID)
		if err != nil {
			return fmt.Errorf("create process for job %d: %w", j.ID, err)
		}
		j.Process = handle
		j.reset()
		s.arrivals.EnqueueSorted(j.ID, j.ArrivalTime)
	}
	return nil
}

// UpdateConfig replaces the scheduler parameters. Only allowed before the first tick.
func (s *Simulator) UpdateConfig(config Config) error {
	if s.tick > 0 {
		return SimError{Message: "cannot change config of a started simulation"}
	}
	if err := config.Validate(); err != nil {
		return err
	}
	s.config = config
	s.limiter = newLimiter(config)
	return nil
}

// Config returns a copy of the current configuration
func (s *Simulator) Config() Config {
	return s.config
}

// Tick returns the current tick
func (s *Simulator) Tick() int {
	return s.tick
}

// Running returns the job holding the CPU, or NoJob.
func (s *Simulator) Running() JobID {
	return s.running
}

// IsDone returns true once every submitted job has completed or the run aborted.
func (s *Simulator) IsDone() bool {
	return s.done
}

// Metrics returns a copy of current metrics
func (s *Simulator) Metrics() *Metrics {
	return s.metrics.Clone()
}

// Results returns the reports of completed jobs in completion order.
func (s *Simulator) Results() []JobResult {
	results := make([]JobResult, len(s.results))
	copy(results, s.results)
	return results
}

// Job returns a copy of a job record.
func (s *Simulator) Job(id JobID) (Job, bool) {
	if id <= NoJob || int(id) > len(s.jobs) {
		return Job{}, false
	}
	return *s.job(id), true
}

// Jobs returns copies of all job records in id order.
func (s *Simulator) Jobs() []Job {
	jobs := make([]Job, len(s.jobs))
	for i, j := range s.jobs {
		jobs[i] = *j
	}
	return jobs
}

// Queue returns the job ids waiting at a level, head first.
func (s *Simulator) Queue(level int) []JobID {
	return s.levels[level].IDs()
}
