package simulator

import (
	"fmt"
	"time"
)

// NumLevels is the number of ready-queue priority levels (0 = highest).
const NumLevels = 3

// Config holds the scheduler parameters.
type Config struct {
	Level0Quantum       int           `json:"level0Quantum" yaml:"level0_quantum"`             // t0; 0 disables demotion from level 0
	Level1Quantum       int           `json:"level1Quantum" yaml:"level1_quantum"`             // t1; 0 disables demotion from level 1
	Level2Quantum       int           `json:"level2Quantum" yaml:"level2_quantum"`             // t2; round-robin slice, must be > 0
	StarvationThreshold int           `json:"starvationThreshold" yaml:"starvation_threshold"` // W, in ticks
	TickInterval        time.Duration `json:"tickInterval" yaml:"tick_interval"`               // wall-clock pacing between ticks (0 = none)
}

// DefaultConfig returns the parameters used when nothing else is supplied.
func DefaultConfig() Config {
	return Config{
		Level0Quantum:       5,
		Level1Quantum:       10,
		Level2Quantum:       5,
		StarvationThreshold: 20,
		TickInterval:        0,
	}
}

// Quantum returns the configured quantum for a priority level.
func (c Config) Quantum(level int) int {
	switch level {
	case 0:
		return c.Level0Quantum
	case 1:
		return c.Level1Quantum
	default:
		return c.Level2Quantum
	}
}

// Validate checks that every parameter is in range.
func (c *Config) Validate() error {
	if c.Level0Quantum < 0 {
		return ErrInvalidConfig(fmt.Sprintf("level0Quantum must be >= 0, got %d", c.Level0Quantum))
	}
	if c.Level1Quantum < 0 {
		return ErrInvalidConfig(fmt.Sprintf("level1Quantum must be >= 0, got %d", c.Level1Quantum))
	}
	if c.Level2Quantum <= 0 {
		return ErrInvalidConfig(fmt.Sprintf("level2Quantum must be > 0, got %d", c.Level2Quantum))
	}
	if c.StarvationThreshold < 0 {
		return ErrInvalidConfig(fmt.Sprintf("starvationThreshold must be >= 0, got %d", c.StarvationThreshold))
	}
	if c.TickInterval < 0 {
		return ErrInvalidConfig("tickInterval must be >= 0")
	}
	return nil
}

// DefaultTickInterval is the wall-clock pacing used by the command-line runner.
const DefaultTickInterval = time.Second
