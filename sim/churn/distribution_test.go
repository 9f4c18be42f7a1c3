package churn

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/churn-sim/sim"
)

func sampleMean(d sim.Distribution, n int, seed int64) float64 {
	rng := rand.New(rand.NewSource(seed))
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += d.Sample(rng)
	}
	return sum / float64(n)
}

func TestDistributions_Expectation(t *testing.T) {
	tests := []struct {
		name string
		dist sim.Distribution
		want float64
	}{
		{"exponential", NewExponential(0.5), 2},
		{"shifted pareto", NewShiftedPareto(3, 2), 1},
		{"lt exponential", NewLTExponential(1, 0.5), 1.5},
		{"uniform", NewUniform(1, 3), 2},
		{"constant", NewConstant(4), 4},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, tc.dist.Expectation(), 1e-12)
		})
	}
}

func TestShiftedPareto_InfiniteMean(t *testing.T) {
	assert.True(t, math.IsInf(NewShiftedPareto(1, 1).Expectation(), 1))
}

func TestDistributions_SampleMeanConverges(t *testing.T) {
	// GIVEN distributions with finite variance and a fixed seed
	tests := []struct {
		name string
		dist sim.Distribution
	}{
		{"exponential", NewExponential(0.5)},
		{"shifted pareto", NewShiftedPareto(3, 2)},
		{"lt exponential", NewLTExponential(2, 5.0/3600)},
		{"uniform", NewUniform(0, 1)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// WHEN averaging many samples
			got := sampleMean(tc.dist, 200000, 42)

			// THEN the sample mean is within 2% of the expectation
			want := tc.dist.Expectation()
			assert.InDelta(t, want, got, 0.02*want)
		})
	}
}

func TestDistributions_SamplesArePositive(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	dists := []sim.Distribution{
		NewExponential(10),
		NewShiftedPareto(1.5, 0.1),
		NewLTExponential(10, 0.25),
		NewUniform(0, 1e-3),
	}
	for _, d := range dists {
		for i := 0; i < 10000; i++ {
			require.Greater(t, d.Sample(rng), 0.0, "%T", d)
		}
	}
}

func TestLTExponential_NeverBelowCutoff(t *testing.T) {
	d := NewLTExponential(1, 0.75)
	rng := rand.New(rand.NewSource(5))
	for i := 0; i < 10000; i++ {
		require.GreaterOrEqual(t, d.Sample(rng), 0.75)
	}
}

func TestPredefined_CyclesInOrder(t *testing.T) {
	d := NewPredefined(1, 2, 3)
	var got []float64
	for i := 0; i < 5; i++ {
		got = append(got, d.Sample(nil))
	}
	assert.Equal(t, []float64{1, 2, 3, 1, 2}, got)
	assert.True(t, math.IsNaN(d.Expectation()))
}

func TestNewDistribution_AllTypes(t *testing.T) {
	tests := []struct {
		spec DistSpec
		want float64
	}{
		{DistSpec{Type: "exponential", Params: map[string]float64{"mean": 3}}, 3},
		{DistSpec{Type: "pareto", Params: map[string]float64{"shape": 3, "scale": 4}}, 2},
		{DistSpec{Type: "lt_exponential", Params: map[string]float64{"mean": 1, "cutoff": 0.5}}, 1.5},
		{DistSpec{Type: "uniform", Params: map[string]float64{"min": 2, "max": 4}}, 3},
		{DistSpec{Type: "constant", Params: map[string]float64{"value": 7}}, 7},
	}
	for _, tc := range tests {
		t.Run(tc.spec.Type, func(t *testing.T) {
			d, err := NewDistribution(tc.spec)
			require.NoError(t, err)
			assert.InDelta(t, tc.want, d.Expectation(), 1e-12)
		})
	}
}

func TestNewDistribution_Errors(t *testing.T) {
	tests := []struct {
		name string
		spec DistSpec
	}{
		{"unknown type", DistSpec{Type: "weibull"}},
		{"missing mean", DistSpec{Type: "exponential", Params: map[string]float64{}}},
		{"zero mean", DistSpec{Type: "exponential", Params: map[string]float64{"mean": 0}}},
		{"missing scale", DistSpec{Type: "pareto", Params: map[string]float64{"shape": 3}}},
		{"negative shape", DistSpec{Type: "pareto", Params: map[string]float64{"shape": -1, "scale": 1}}},
		{"negative cutoff", DistSpec{Type: "lt_exponential", Params: map[string]float64{"mean": 1, "cutoff": -1}}},
		{"empty uniform", DistSpec{Type: "uniform", Params: map[string]float64{"min": 2, "max": 2}}},
		{"negative uniform", DistSpec{Type: "uniform", Params: map[string]float64{"min": -1, "max": 2}}},
		{"zero constant", DistSpec{Type: "constant", Params: map[string]float64{"value": 0}}},
		{"infinite constant", DistSpec{Type: "constant", Params: map[string]float64{"value": math.Inf(1)}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewDistribution(tc.spec)
			assert.Error(t, err)
		})
	}
}
