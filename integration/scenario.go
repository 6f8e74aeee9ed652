package integration

import (
	"context"
	"fmt"
	"math"
	"os"

	"github.com/Yuwon03/MLQ-Scheduler/simulator"
	"gopkg.in/yaml.v3"
)

// Scenario is a self-contained workload: a scheduler config, inline jobs and
// optionally the outcome the run must produce.
type Scenario struct {
	Name        string              `yaml:"name" json:"name"`
	Description string              `yaml:"description,omitempty" json:"description,omitempty"`
	Config      simulator.Config    `yaml:"config" json:"config"`
	Jobs        []simulator.JobSpec `yaml:"jobs" json:"jobs"`
	Expect      *Expectation        `yaml:"expect,omitempty" json:"expect,omitempty"`
}

// Expectation lists the checked outcome of a scenario. Averages are compared
// at the two-decimal precision of the report; nil counters are not checked.
type Expectation struct {
	Ticks         int     `yaml:"ticks" json:"ticks"`
	Completed     int     `yaml:"completed" json:"completed"`
	AvgTurnaround float64 `yaml:"avg_turnaround" json:"avg_turnaround"`
	AvgWaiting    float64 `yaml:"avg_waiting" json:"avg_waiting"`
	AvgResponse   float64 `yaml:"avg_response" json:"avg_response"`
	Promotions    *int    `yaml:"promotions,omitempty" json:"promotions,omitempty"`
	Demotions     *int    `yaml:"demotions,omitempty" json:"demotions,omitempty"`
	Requeues      *int    `yaml:"requeues,omitempty" json:"requeues,omitempty"`
}

// Outcome is what a scenario run produced.
type Outcome struct {
	Ticks   int
	Metrics *simulator.Metrics
	Results []simulator.JobResult
	Events  []simulator.Event
}

// LoadScenario reads a scenario from a YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	sc, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// ParseScenario decodes and validates a YAML scenario.
func ParseScenario(data []byte) (*Scenario, error) {
	sc := &Scenario{Config: simulator.DefaultConfig()}
	if err := yaml.Unmarshal(data, sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := sc.Config.Validate(); err != nil {
		return nil, err
	}
	if len(sc.Jobs) == 0 {
		return nil, simulator.ErrNoJobs
	}
	return sc, nil
}

// RunScenario runs the scenario to completion without wall-clock pacing.
func RunScenario(ctx context.Context, sc *Scenario) (*Outcome, error) {
	cfg := sc.Config
	cfg.TickInterval = 0
	model, err := NewSchedulerModel(sc.Name, cfg, sc.Jobs, nil)
	if err != nil {
		return nil, err
	}

	out := &Outcome{}
	model.OnEvent(func(e simulator.Event) {
		out.Events = append(out.Events, e)
	})
	m, err := model.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("scenario %q: %w", sc.Name, err)
	}
	out.Metrics = m
	out.Ticks = model.Tick()
	out.Results = model.Results()
	return out, nil
}

// Check compares an outcome against the expectation and describes the first mismatch.
func (e *Expectation) Check(out *Outcome) error {
	if out.Ticks != e.Ticks {
		return fmt.Errorf("ticks: got %d, want %d", out.Ticks, e.Ticks)
	}
	m := out.Metrics
	if m.CompletedJobs != e.Completed {
		return fmt.Errorf("completed: got %d, want %d", m.CompletedJobs, e.Completed)
	}
	averages := []struct {
		name      string
		got, want float64
	}{
		{"avg_turnaround", m.AvgTurnaround, e.AvgTurnaround},
		{"avg_waiting", m.AvgWaiting, e.AvgWaiting},
		{"avg_response", m.AvgResponse, e.AvgResponse},
	}
	for _, a := range averages {
		if math.Abs(a.got-a.want) >= 0.005 {
			return fmt.Errorf("%s: got %.2f, want %.2f", a.name, a.got, a.want)
		}
	}
	counters := []struct {
		name string
		got  int
		want *int
	}{
		{"promotions", m.Promotions, e.Promotions},
		{"demotions", m.Demotions, e.Demotions},
		{"requeues", m.Requeues, e.Requeues},
	}
	for _, c := range counters {
		if c.want != nil && c.got != *c.want {
			return fmt.Errorf("%s: got %d, want %d", c.name, c.got, *c.want)
		}
	}
	return nil
}
