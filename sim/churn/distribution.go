package churn

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/inference-sim/churn-sim/sim"
)

// Samplers draw a uniform variate from the process's own RNG and map it
// through the distribution's quantile function, so that every process
// stream stays reproducible from its SimulationKey.

// openUniform returns a uniform variate in (0, 1).
func openUniform(rng *rand.Rand) float64 {
	for {
		if u := rng.Float64(); u > 0 {
			return u
		}
	}
}

// Exponential produces exponentially distributed session lengths.
type Exponential struct {
	dist distuv.Exponential
}

// NewExponential creates an exponential distribution with the given rate.
func NewExponential(rate float64) *Exponential {
	return &Exponential{dist: distuv.Exponential{Rate: rate}}
}

func (d *Exponential) Sample(rng *rand.Rand) float64 {
	return d.dist.Quantile(openUniform(rng))
}

func (d *Exponential) Expectation() float64 { return d.dist.Mean() }

// ShiftedPareto is the Pareto distribution shifted to start at zero
// (Lomax): X = scale * (U^(-1/shape) - 1). Its mean is
// scale/(shape-1) for shape > 1 and infinite otherwise.
type ShiftedPareto struct {
	pareto distuv.Pareto
}

// NewShiftedPareto creates a shifted Pareto with the given shape and scale.
func NewShiftedPareto(shape, scale float64) *ShiftedPareto {
	return &ShiftedPareto{pareto: distuv.Pareto{Xm: scale, Alpha: shape}}
}

func (d *ShiftedPareto) Sample(rng *rand.Rand) float64 {
	u := openUniform(rng)
	return d.pareto.Xm * (math.Pow(u, -1/d.pareto.Alpha) - 1)
}

func (d *ShiftedPareto) Expectation() float64 {
	return d.pareto.Mean() - d.pareto.Xm
}

// LTExponential is an exponential distribution truncated from below at
// cutoff. By memorylessness this is cutoff plus an exponential.
type LTExponential struct {
	exp    distuv.Exponential
	cutoff float64
}

// NewLTExponential creates a lower-truncated exponential.
func NewLTExponential(rate, cutoff float64) *LTExponential {
	return &LTExponential{exp: distuv.Exponential{Rate: rate}, cutoff: cutoff}
}

func (d *LTExponential) Sample(rng *rand.Rand) float64 {
	return d.cutoff + d.exp.Quantile(openUniform(rng))
}

func (d *LTExponential) Expectation() float64 { return d.cutoff + d.exp.Mean() }

// Uniform produces session lengths uniformly distributed in [min, max).
type Uniform struct {
	dist distuv.Uniform
}

// NewUniform creates a uniform distribution over [min, max).
func NewUniform(min, max float64) *Uniform {
	return &Uniform{dist: distuv.Uniform{Min: min, Max: max}}
}

func (d *Uniform) Sample(rng *rand.Rand) float64 {
	return d.dist.Quantile(openUniform(rng))
}

func (d *Uniform) Expectation() float64 { return d.dist.Mean() }

// Constant always returns the same duration.
type Constant struct {
	value float64
}

func NewConstant(value float64) *Constant {
	return &Constant{value: value}
}

func (d *Constant) Sample(_ *rand.Rand) float64 { return d.value }
func (d *Constant) Expectation() float64        { return d.value }

// Predefined replays a fixed sequence of durations, cycling when it runs
// out. It is mostly useful in tests. A single Predefined shared as both
// the up and the down distribution of a process yields the sequence in
// order across state changes.
type Predefined struct {
	values []float64
	next   int
}

func NewPredefined(values ...float64) *Predefined {
	return &Predefined{values: values}
}

func (d *Predefined) Sample(_ *rand.Rand) float64 {
	v := d.values[d.next%len(d.values)]
	d.next++
	return v
}

// Expectation is undefined for a replayed sequence.
func (d *Predefined) Expectation() float64 { return math.NaN() }

var (
	_ sim.Distribution = (*Exponential)(nil)
	_ sim.Distribution = (*ShiftedPareto)(nil)
	_ sim.Distribution = (*LTExponential)(nil)
	_ sim.Distribution = (*Uniform)(nil)
	_ sim.Distribution = (*Constant)(nil)
	_ sim.Distribution = (*Predefined)(nil)
)

// DistSpec parameterizes a session length distribution.
type DistSpec struct {
	Type   string             `yaml:"type"`
	Params map[string]float64 `yaml:"params,omitempty"`
}

// requireParam checks that all required keys exist in a params map.
func requireParam(params map[string]float64, keys ...string) error {
	for _, k := range keys {
		if _, ok := params[k]; !ok {
			return fmt.Errorf("distribution requires parameter %q", k)
		}
	}
	return nil
}

// requirePositive checks that the named parameters are finite and > 0.
func requirePositive(params map[string]float64, keys ...string) error {
	for _, k := range keys {
		v := params[k]
		if !(v > 0) || math.IsInf(v, 0) {
			return fmt.Errorf("distribution parameter %q must be positive and finite, got %g", k, v)
		}
	}
	return nil
}

// NewDistribution creates a sim.Distribution from a DistSpec. Parameters
// that would let the distribution draw non-positive durations are rejected.
func NewDistribution(spec DistSpec) (sim.Distribution, error) {
	switch spec.Type {
	case "exponential":
		if err := requireParam(spec.Params, "mean"); err != nil {
			return nil, err
		}
		if err := requirePositive(spec.Params, "mean"); err != nil {
			return nil, err
		}
		return NewExponential(1 / spec.Params["mean"]), nil

	case "pareto":
		if err := requireParam(spec.Params, "shape", "scale"); err != nil {
			return nil, err
		}
		if err := requirePositive(spec.Params, "shape", "scale"); err != nil {
			return nil, err
		}
		return NewShiftedPareto(spec.Params["shape"], spec.Params["scale"]), nil

	case "lt_exponential":
		if err := requireParam(spec.Params, "mean", "cutoff"); err != nil {
			return nil, err
		}
		if err := requirePositive(spec.Params, "mean"); err != nil {
			return nil, err
		}
		if spec.Params["cutoff"] < 0 {
			return nil, fmt.Errorf("lt_exponential cutoff must be non-negative, got %g", spec.Params["cutoff"])
		}
		return NewLTExponential(1/spec.Params["mean"], spec.Params["cutoff"]), nil

	case "uniform":
		if err := requireParam(spec.Params, "min", "max"); err != nil {
			return nil, err
		}
		lo, hi := spec.Params["min"], spec.Params["max"]
		if lo < 0 || hi <= lo {
			return nil, fmt.Errorf("uniform requires 0 <= min < max, got [%g, %g)", lo, hi)
		}
		return NewUniform(lo, hi), nil

	case "constant":
		if err := requireParam(spec.Params, "value"); err != nil {
			return nil, err
		}
		if err := requirePositive(spec.Params, "value"); err != nil {
			return nil, err
		}
		return NewConstant(spec.Params["value"]), nil

	default:
		return nil, fmt.Errorf("unknown distribution type %q", spec.Type)
	}
}
