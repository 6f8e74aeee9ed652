package config

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/Yuwon03/MLQ-Scheduler/simulator"
	"gopkg.in/yaml.v3"
)

// File is the optional YAML run configuration.
//
//	scheduler:
//	  prompt: false
//	  level0_quantum: 2
//	  level1_quantum: 4
//	  level2_quantum: 3
//	  starvation_threshold: 10
//	  tick_interval: 1s
//	process:
//	  command: ./process
//	log:
//	  level: debug
//	history:
//	  db_path: runs.db
type File struct {
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Process   ProcessConfig   `yaml:"process"`
	Log       LogConfig       `yaml:"log"`
	History   HistoryConfig   `yaml:"history"`
}

// SchedulerConfig holds the scheduler parameters. With Prompt set the four
// quanta/threshold values are asked for interactively and the file values are ignored.
type SchedulerConfig struct {
	simulator.Config `yaml:",inline"`
	Prompt           bool `yaml:"prompt"`
}

// ProcessConfig selects the process controller. An empty Command runs jobs
// without real processes.
type ProcessConfig struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// HistoryConfig holds the run history database location. Empty disables recording.
type HistoryConfig struct {
	DBPath string `yaml:"db_path"`
}

// Default returns the configuration used without a file: prompt for the
// parameters, pace one tick per second, no real processes.
func Default() File {
	cfg := simulator.DefaultConfig()
	cfg.TickInterval = simulator.DefaultTickInterval
	return File{
		Scheduler: SchedulerConfig{Config: cfg, Prompt: true},
		Log:       LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads a YAML file over the defaults.
func Load(path string) (File, error) {
	f := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return f, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("parse config %s: %w", path, err)
	}
	if !f.Scheduler.Prompt {
		if err := f.Scheduler.Validate(); err != nil {
			return f, fmt.Errorf("config %s: %w", path, err)
		}
	}
	return f, nil
}

// PromptQuanta asks for t0, t1, t2 and W in that order, writing prompts to w
// and reading whitespace-separated integers from r.
func PromptQuanta(r io.Reader, w io.Writer, cfg *simulator.Config) error {
	br := bufio.NewReader(r)
	prompts := []struct {
		label string
		name  string
		dst   *int
		min   int
	}{
		{"time quantum for Level-0 (t0)", "t0", &cfg.Level0Quantum, 0},
		{"time quantum for Level-1 (t1)", "t1", &cfg.Level1Quantum, 0},
		{"time quantum for Level-2 (t2)", "t2", &cfg.Level2Quantum, 1},
		{"starvation threshold (W)", "W", &cfg.StarvationThreshold, 0},
	}
	for _, p := range prompts {
		fmt.Fprintf(w, "Enter %s: \n", p.label)
		var v int
		if _, err := fmt.Fscan(br, &v); err != nil || v < p.min {
			return fmt.Errorf("invalid value for %s", p.name)
		}
		*p.dst = v
	}
	return nil
}
