package measure

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// DefaultMinSamples is the number of samples needed before an
	// AvgEvaluator makes any claim.
	DefaultMinSamples = 100
	// DefaultPrecision is the default relative half-width target.
	DefaultPrecision = 0.05

	confidence = 0.95
)

// AvgEvaluator judges whether a sample average is precise enough: the
// upper limit of its 95% confidence interval must be within Precision
// of the average (relative), or within ResolutionLimit (absolute).
type AvgEvaluator struct {
	MinSamples int64
	// Precision is the allowed relative distance between the upper
	// confidence limit and the average.
	Precision float64
	// ResolutionLimit is an absolute half-width under which the
	// estimate is precise regardless of Precision. Useful for averages
	// close to zero.
	ResolutionLimit float64
}

func NewAvgEvaluator(minSamples int64, precision, resolutionLimit float64) (*AvgEvaluator, error) {
	if minSamples < 2 {
		return nil, fmt.Errorf("evaluator needs at least 2 samples, got %d", minSamples)
	}
	if precision < 0 || resolutionLimit < 0 {
		return nil, fmt.Errorf("precision and resolution limit must be non-negative, got %g and %g", precision, resolutionLimit)
	}
	return &AvgEvaluator{MinSamples: minSamples, Precision: precision, ResolutionLimit: resolutionLimit}, nil
}

// DefaultAvgEvaluator uses DefaultMinSamples and DefaultPrecision with
// no absolute limit.
func DefaultAvgEvaluator() *AvgEvaluator {
	return &AvgEvaluator{MinSamples: DefaultMinSamples, Precision: DefaultPrecision}
}

func (a *AvgEvaluator) hasEnoughSamples(s *IncrementalStats) bool {
	return s.N() >= a.MinSamples
}

// HalfWidth returns the half-width of the 95% confidence interval of the
// mean of s, using Student's t with N-1 degrees of freedom. It ignores
// MinSamples and is NaN with fewer than two samples.
func HalfWidth(s *IncrementalStats) float64 {
	if s.N() < 2 {
		return math.NaN()
	}
	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(s.N() - 1)}
	return t.Quantile(1-(1-confidence)/2) * s.StdDev() / math.Sqrt(float64(s.N()))
}

// LowerConfidenceLimit is NaN until MinSamples were collected.
func (a *AvgEvaluator) LowerConfidenceLimit(s *IncrementalStats) float64 {
	if !a.hasEnoughSamples(s) {
		return math.NaN()
	}
	return s.Mean() - HalfWidth(s)
}

// UpperConfidenceLimit is NaN until MinSamples were collected.
func (a *AvgEvaluator) UpperConfidenceLimit(s *IncrementalStats) float64 {
	if !a.hasEnoughSamples(s) {
		return math.NaN()
	}
	return s.Mean() + HalfWidth(s)
}

func (a *AvgEvaluator) IsPrecise(s *IncrementalStats) bool {
	if !a.hasEnoughSamples(s) {
		return false
	}
	half := HalfWidth(s)
	return half < a.ResolutionLimit || half/math.Abs(s.Mean()) < a.Precision
}
