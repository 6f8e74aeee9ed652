package integration

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Yuwon03/MLQ-Scheduler/simulator"
)

// ParameterDescriptor describes a mutable scheduler setting
type ParameterDescriptor struct {
	Name         string      `json:"name"`
	Type         string      `json:"type"`
	CurrentValue interface{} `json:"current_value"`
	Min          *float64    `json:"min,omitempty"`
	Max          *float64    `json:"max,omitempty"`
	Description  string      `json:"description,omitempty"`
}

// SchedulerModel wraps a simulator over the simulated process controller so it
// can be shared between goroutines (a UI loop and a command reader).
type SchedulerModel struct {
	name string
	jobs []simulator.JobSpec
	mu   sync.Mutex
	sim  *simulator.Simulator
	ctrl *simulator.SimulatedController
}

// NewSchedulerModel creates a model with every job already submitted.
func NewSchedulerModel(name string, cfg simulator.Config, jobs []simulator.JobSpec, logger *slog.Logger) (*SchedulerModel, error) {
	if len(jobs) == 0 {
		return nil, simulator.ErrNoJobs
	}
	ctrl := simulator.NewSimulatedController()
	sim, err := simulator.NewSimulator(cfg, ctrl, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create simulator: %w", err)
	}
	if err := sim.SubmitAll(jobs); err != nil {
		return nil, fmt.Errorf("failed to submit jobs: %w", err)
	}
	return &SchedulerModel{
		name: name,
		jobs: append([]simulator.JobSpec(nil), jobs...),
		sim:  sim,
		ctrl: ctrl,
	}, nil
}

// Name returns the workload name
func (m *SchedulerModel) Name() string {
	return m.name
}

// OnEvent installs a trace callback. It runs with the model lock held.
func (m *SchedulerModel) OnEvent(fn func(simulator.Event)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sim.OnEvent = fn
}

// Step advances one tick and reports whether the workload has drained.
func (m *SchedulerModel) Step(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sim.Step(ctx)
}

// Run steps until the workload drains.
func (m *SchedulerModel) Run(ctx context.Context) (*simulator.Metrics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sim.Run(ctx)
}

// Snapshot returns the current queue layout and metrics.
func (m *SchedulerModel) Snapshot() simulator.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sim.Snapshot()
}

// Metrics returns a copy of the current metrics
func (m *SchedulerModel) Metrics() *simulator.Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sim.Metrics()
}

// Results returns per-job results in completion order
func (m *SchedulerModel) Results() []simulator.JobResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sim.Results()
}

// Tick returns the current tick
func (m *SchedulerModel) Tick() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sim.Tick()
}

// Reset rewinds the workload to tick 0 with the same jobs.
func (m *SchedulerModel) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sim.Reset()
}

// SimConfig returns the scheduler configuration
func (m *SchedulerModel) SimConfig() simulator.Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sim.Config()
}

// ControllerCalls returns every call made to the simulated process controller.
func (m *SchedulerModel) ControllerCalls() []simulator.ControllerCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ctrl.Calls()
}

// Config returns the current configuration keyed by its YAML names
func (m *SchedulerModel) Config() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	cfg := m.sim.Config()
	return map[string]interface{}{
		"level0_quantum":       cfg.Level0Quantum,
		"level1_quantum":       cfg.Level1Quantum,
		"level2_quantum":       cfg.Level2Quantum,
		"starvation_threshold": cfg.StarvationThreshold,
		"jobs":                 len(m.jobs),
	}
}

// MutableParameters returns descriptors for the settings UpdateParameters accepts
func (m *SchedulerModel) MutableParameters() []ParameterDescriptor {
	m.mu.Lock()
	defer m.mu.Unlock()

	cfg := m.sim.Config()
	zero, one, maxTicks := 0.0, 1.0, 1000.0
	return []ParameterDescriptor{
		{
			Name:         "level0_quantum",
			Type:         "int",
			CurrentValue: cfg.Level0Quantum,
			Min:          &zero,
			Max:          &maxTicks,
			Description:  "Ticks a level-0 job may run before it is demoted to level 1. 0 disables demotion.",
		},
		{
			Name:         "level1_quantum",
			Type:         "int",
			CurrentValue: cfg.Level1Quantum,
			Min:          &zero,
			Max:          &maxTicks,
			Description:  "Total ticks a job may spend running at level 1 before it is demoted to level 2. 0 disables demotion.",
		},
		{
			Name:         "level2_quantum",
			Type:         "int",
			CurrentValue: cfg.Level2Quantum,
			Min:          &one,
			Max:          &maxTicks,
			Description:  "Round-robin slice for level 2.",
		},
		{
			Name:         "starvation_threshold",
			Type:         "int",
			CurrentValue: cfg.StarvationThreshold,
			Min:          &zero,
			Max:          &maxTicks,
			Description:  "Ticks the head of level 1 or level 2 may wait before its queue is promoted to level 0.",
		},
	}
}

// UpdateParameters applies configuration changes. It only succeeds before the
// first tick, since quanta cannot change under a running schedule.
func (m *SchedulerModel) UpdateParameters(params map[string]interface{}) error {
	if len(params) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cfg := m.sim.Config()
	fields := map[string]*int{
		"level0_quantum":       &cfg.Level0Quantum,
		"level1_quantum":       &cfg.Level1Quantum,
		"level2_quantum":       &cfg.Level2Quantum,
		"starvation_threshold": &cfg.StarvationThreshold,
	}
	for name, raw := range params {
		field, ok := fields[name]
		if !ok {
			return fmt.Errorf("unknown parameter %q", name)
		}
		val, err := parseIntParam(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*field = val
	}
	return m.sim.UpdateConfig(cfg)
}

func parseIntParam(value interface{}) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("not an integer: %v", v)
		}
		return int(v), nil
	default:
		return 0, fmt.Errorf("unsupported type %T", value)
	}
}
