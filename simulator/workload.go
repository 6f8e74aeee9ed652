package simulator

import (
	"fmt"
	"math"
	"math/rand"
)

// ServiceShape selects how service times spread over the configured range.
type ServiceShape int

const (
	ServiceUniform     ServiceShape = iota
	ServiceExponential              // many short CPU bursts with a long tail
	ServiceGeometric                // discrete counterpart of exponential
	ServiceFixed                    // every job needs the mean
)

var serviceShapeNames = [...]string{
	ServiceUniform:     "uniform",
	ServiceExponential: "exponential",
	ServiceGeometric:   "geometric",
	ServiceFixed:       "fixed",
}

func (s ServiceShape) String() string {
	if s < 0 || int(s) >= len(serviceShapeNames) {
		return fmt.Sprintf("unknown(%d)", int(s))
	}
	return serviceShapeNames[s]
}

// ParseServiceShape maps a shape name to its ServiceShape.
func ParseServiceShape(name string) (ServiceShape, error) {
	for i, n := range serviceShapeNames {
		if n == name {
			return ServiceShape(i), nil
		}
	}
	return ServiceUniform, fmt.Errorf("unknown service shape %q (want uniform, exponential, geometric or fixed)", name)
}

// MarshalText names the shape in JSON and YAML.
func (s ServiceShape) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *ServiceShape) UnmarshalText(text []byte) error {
	parsed, err := ParseServiceShape(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// serviceSampler draws service times in [min, min+span]. scale is the mean
// number of ticks above min before the draw is truncated to the range.
type serviceSampler struct {
	shape ServiceShape
	min   int
	span  int
	scale float64
}

func newServiceSampler(c WorkloadConfig) serviceSampler {
	s := serviceSampler{
		shape: c.ServiceShape,
		min:   c.ServiceMin,
		span:  c.ServiceMax - c.ServiceMin,
	}
	if c.ServiceMean > 0 {
		s.scale = c.ServiceMean - float64(c.ServiceMin)
	} else {
		s.scale = float64(s.span) / 4
	}
	return s
}

func (s serviceSampler) sample(rng *rand.Rand) int {
	if s.span == 0 {
		return s.min
	}
	var extra int
	switch s.shape {
	case ServiceExponential:
		extra = s.truncatedExponential(rng.Float64())
	case ServiceGeometric:
		extra = s.truncatedGeometric(rng.Float64())
	case ServiceFixed:
		extra = int(math.Round(s.scale))
	default:
		extra = rng.Intn(s.span + 1)
	}
	if extra > s.span {
		extra = s.span
	}
	return s.min + extra
}

// truncatedExponential inverts the CDF of an exponential with mean scale
// restricted to [0, span+1), so no draw is lost to clamping.
func (s serviceSampler) truncatedExponential(u float64) int {
	if s.scale <= 0 {
		return 0
	}
	mass := 1 - math.Exp(-float64(s.span+1)/s.scale)
	return int(-s.scale * math.Log(1-u*mass))
}

// truncatedGeometric counts extra ticks, each needed with probability
// scale/(scale+1), restricted to 0..span.
func (s serviceSampler) truncatedGeometric(u float64) int {
	if s.scale <= 0 {
		return 0
	}
	q := s.scale / (s.scale + 1)
	mass := 1 - math.Pow(q, float64(s.span+1))
	return int(math.Log(1-u*mass) / math.Log(q))
}

// WorkloadConfig describes a synthetic job mix. Arrivals form a Poisson
// process; service times follow ServiceShape over [ServiceMin, ServiceMax].
type WorkloadConfig struct {
	Jobs             int            `json:"jobs" yaml:"jobs"`
	Seed             int64          `json:"seed" yaml:"seed"`
	MeanInterarrival float64        `json:"meanInterarrival" yaml:"mean_interarrival"` // ticks; 0 puts every arrival at tick 0
	ServiceMin       int            `json:"serviceMin" yaml:"service_min"`
	ServiceMax       int            `json:"serviceMax" yaml:"service_max"`
	ServiceMean      float64        `json:"serviceMean" yaml:"service_mean"` // 0 means a quarter of the way into the range
	ServiceShape     ServiceShape   `json:"serviceShape" yaml:"service_shape"`
	PriorityWeights  [NumLevels]int `json:"priorityWeights" yaml:"priority_weights"` // relative share per level; all zero means equal
}

// DefaultWorkloadConfig returns a mixed workload of 20 short-to-medium jobs.
func DefaultWorkloadConfig() WorkloadConfig {
	return WorkloadConfig{
		Jobs:             20,
		Seed:             1,
		MeanInterarrival: 2,
		ServiceMin:       1,
		ServiceMax:       15,
		ServiceShape:     ServiceExponential,
	}
}

// Validate checks the workload parameters
func (c WorkloadConfig) Validate() error {
	if c.Jobs <= 0 {
		return ErrInvalidConfig(fmt.Sprintf("jobs must be > 0, got %d", c.Jobs))
	}
	if c.MeanInterarrival < 0 {
		return ErrInvalidConfig(fmt.Sprintf("meanInterarrival must be >= 0, got %g", c.MeanInterarrival))
	}
	if c.ServiceMin < 0 || c.ServiceMax < c.ServiceMin {
		return ErrInvalidConfig(fmt.Sprintf("service range [%d, %d] is invalid", c.ServiceMin, c.ServiceMax))
	}
	if c.ServiceMean < 0 || (c.ServiceMean > 0 &&
		(c.ServiceMean < float64(c.ServiceMin) || c.ServiceMean > float64(c.ServiceMax))) {
		return ErrInvalidConfig(fmt.Sprintf("serviceMean %g is outside [%d, %d]", c.ServiceMean, c.ServiceMin, c.ServiceMax))
	}
	if c.ServiceShape < 0 || int(c.ServiceShape) >= len(serviceShapeNames) {
		return ErrInvalidConfig(fmt.Sprintf("unknown service shape %d", int(c.ServiceShape)))
	}
	for level, w := range c.PriorityWeights {
		if w < 0 {
			return ErrInvalidConfig(fmt.Sprintf("priority weight for level %d must be >= 0, got %d", level, w))
		}
	}
	return nil
}

// GenerateWorkload draws a job list. The same config always yields the same jobs.
func GenerateWorkload(c WorkloadConfig) ([]JobSpec, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(c.Seed))
	service := newServiceSampler(c)

	weights := c.PriorityWeights
	total := 0
	for _, w := range weights {
		total += w
	}
	if total == 0 {
		weights = [NumLevels]int{1, 1, 1}
		total = NumLevels
	}

	specs := make([]JobSpec, c.Jobs)
	clock := 0.0
	for i := range specs {
		if i > 0 && c.MeanInterarrival > 0 {
			clock += rng.ExpFloat64() * c.MeanInterarrival
		}
		pick := rng.Intn(total)
		priority := 0
		for pick >= weights[priority] {
			pick -= weights[priority]
			priority++
		}
		specs[i] = JobSpec{
			Arrival:  int(clock),
			Service:  service.sample(rng),
			Priority: priority,
		}
	}
	return specs, nil
}
