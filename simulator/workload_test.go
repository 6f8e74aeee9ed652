package simulator

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleMean(t *testing.T, c WorkloadConfig, n int) float64 {
	t.Helper()
	rng := rand.New(rand.NewSource(12345))
	s := newServiceSampler(c)
	sum := 0
	for i := 0; i < n; i++ {
		v := s.sample(rng)
		require.GreaterOrEqual(t, v, c.ServiceMin)
		require.LessOrEqual(t, v, c.ServiceMax)
		sum += v
	}
	return float64(sum) / float64(n)
}

func TestServiceSamplerStaysInRange(t *testing.T) {
	for _, shape := range []ServiceShape{ServiceUniform, ServiceExponential, ServiceGeometric, ServiceFixed} {
		t.Run(shape.String(), func(t *testing.T) {
			rng := rand.New(rand.NewSource(12345))
			single := newServiceSampler(WorkloadConfig{ServiceMin: 5, ServiceMax: 5, ServiceShape: shape})
			require.Equal(t, 5, single.sample(rng), "single value range")

			// A mean at the top of the range stresses truncation.
			for _, mean := range []float64{0, 2, 100} {
				c := WorkloadConfig{ServiceMin: 1, ServiceMax: 100, ServiceMean: mean, ServiceShape: shape}
				sampleMean(t, c, 2000)
			}
		})
	}
}

func TestServiceSamplerMeans(t *testing.T) {
	c := WorkloadConfig{ServiceMin: 1, ServiceMax: 400, ServiceMean: 11}

	c.ServiceShape = ServiceGeometric
	require.InDelta(t, 11.0, sampleMean(t, c, 50000), 0.5)

	// Flooring a continuous draw loses about half a tick.
	c.ServiceShape = ServiceExponential
	require.InDelta(t, 10.5, sampleMean(t, c, 50000), 0.5)

	c.ServiceShape = ServiceUniform
	require.InDelta(t, 200.5, sampleMean(t, c, 50000), 3)

	c.ServiceShape = ServiceFixed
	require.Equal(t, 11.0, sampleMean(t, c, 10))
}

func TestServiceSamplerDefaultMean(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	s := newServiceSampler(WorkloadConfig{ServiceMin: 10, ServiceMax: 30, ServiceShape: ServiceFixed})
	require.Equal(t, 15, s.sample(rng), "a quarter of the way into the range")
}

func TestExponentialServiceIsShortHeavy(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	s := newServiceSampler(WorkloadConfig{ServiceMin: 1, ServiceMax: 100, ServiceMean: 21, ServiceShape: ServiceExponential})
	short := 0
	for i := 0; i < 10000; i++ {
		if s.sample(rng) <= 21 {
			short++
		}
	}
	require.Greater(t, short, 6000, "most jobs need less than the mean")
}

func TestServiceShapeText(t *testing.T) {
	data, err := json.Marshal(WorkloadConfig{ServiceShape: ServiceGeometric})
	require.NoError(t, err)
	require.Contains(t, string(data), `"serviceShape":"geometric"`)

	var c WorkloadConfig
	require.NoError(t, json.Unmarshal([]byte(`{"serviceShape":"fixed"}`), &c))
	require.Equal(t, ServiceFixed, c.ServiceShape)
	require.Error(t, json.Unmarshal([]byte(`{"serviceShape":"zipf"}`), &c))

	require.NoError(t, yaml.Unmarshal([]byte("service_shape: uniform\nservice_mean: 4\n"), &c))
	require.Equal(t, ServiceUniform, c.ServiceShape)
	require.Equal(t, 4.0, c.ServiceMean)

	_, err = ParseServiceShape("pareto")
	require.Error(t, err)
	require.Equal(t, "unknown(9)", ServiceShape(9).String())
}

func TestGenerateWorkload(t *testing.T) {
	cfg := DefaultWorkloadConfig()
	cfg.Jobs = 200

	specs, err := GenerateWorkload(cfg)
	require.NoError(t, err)
	require.Len(t, specs, 200)

	again, err := GenerateWorkload(cfg)
	require.NoError(t, err)
	require.Equal(t, specs, again, "same seed, same workload")

	require.Equal(t, 0, specs[0].Arrival)
	seen := map[int]bool{}
	for i, s := range specs {
		if i > 0 {
			require.GreaterOrEqual(t, s.Arrival, specs[i-1].Arrival, "arrivals are non-decreasing")
		}
		require.GreaterOrEqual(t, s.Service, cfg.ServiceMin)
		require.LessOrEqual(t, s.Service, cfg.ServiceMax)
		seen[s.Priority] = true
	}
	require.Len(t, seen, NumLevels, "equal weights reach every level")
}

func TestGenerateWorkload_PriorityWeights(t *testing.T) {
	cfg := DefaultWorkloadConfig()
	cfg.PriorityWeights = [NumLevels]int{0, 0, 1}
	cfg.MeanInterarrival = 0

	specs, err := GenerateWorkload(cfg)
	require.NoError(t, err)
	for _, s := range specs {
		require.Equal(t, 2, s.Priority)
		require.Equal(t, 0, s.Arrival)
	}
}

func TestWorkloadConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*WorkloadConfig)
	}{
		{"no jobs", func(c *WorkloadConfig) { c.Jobs = 0 }},
		{"negative interarrival", func(c *WorkloadConfig) { c.MeanInterarrival = -1 }},
		{"inverted service range", func(c *WorkloadConfig) { c.ServiceMin, c.ServiceMax = 5, 2 }},
		{"negative weight", func(c *WorkloadConfig) { c.PriorityWeights[1] = -1 }},
		{"mean below range", func(c *WorkloadConfig) { c.ServiceMean = 0.5 }},
		{"mean above range", func(c *WorkloadConfig) { c.ServiceMean = 16 }},
		{"unknown shape", func(c *WorkloadConfig) { c.ServiceShape = ServiceShape(7) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultWorkloadConfig()
			tt.modify(&cfg)
			_, err := GenerateWorkload(cfg)
			require.Error(t, err)
		})
	}
}
