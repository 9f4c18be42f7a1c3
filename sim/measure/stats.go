package measure

import (
	"fmt"
	"math"
)

// IncrementalStats tracks count, mean, variance, min and max of a stream
// of samples. The zero value is ready to use.
type IncrementalStats struct {
	n    int64
	mean float64
	m2   float64
	sum  float64
	min  float64
	max  float64
}

// Add folds x into the statistics.
func (s *IncrementalStats) Add(x float64) {
	if s.n == 0 {
		s.min, s.max = x, x
	} else {
		s.min = math.Min(s.min, x)
		s.max = math.Max(s.max, x)
	}
	s.n++
	s.sum += x
	delta := x - s.mean
	s.mean += delta / float64(s.n)
	s.m2 += delta * (x - s.mean)
}

// Merge folds all samples summarized by other into s.
func (s *IncrementalStats) Merge(other *IncrementalStats) {
	if other.n == 0 {
		return
	}
	if s.n == 0 {
		*s = *other
		return
	}
	n := s.n + other.n
	delta := other.mean - s.mean
	s.m2 += other.m2 + delta*delta*float64(s.n)*float64(other.n)/float64(n)
	s.mean += delta * float64(other.n) / float64(n)
	s.sum += other.sum
	s.min = math.Min(s.min, other.min)
	s.max = math.Max(s.max, other.max)
	s.n = n
}

func (s *IncrementalStats) Reset() { *s = IncrementalStats{} }

func (s *IncrementalStats) N() int64     { return s.n }
func (s *IncrementalStats) Sum() float64 { return s.sum }

// Mean returns the sample average, NaN when empty.
func (s *IncrementalStats) Mean() float64 {
	if s.n == 0 {
		return math.NaN()
	}
	return s.mean
}

// Variance returns the unbiased sample variance, NaN with fewer than two samples.
func (s *IncrementalStats) Variance() float64 {
	if s.n < 2 {
		return math.NaN()
	}
	return s.m2 / float64(s.n-1)
}

func (s *IncrementalStats) StdDev() float64 { return math.Sqrt(s.Variance()) }

// Min returns the smallest sample, NaN when empty.
func (s *IncrementalStats) Min() float64 {
	if s.n == 0 {
		return math.NaN()
	}
	return s.min
}

// Max returns the largest sample, NaN when empty.
func (s *IncrementalStats) Max() float64 {
	if s.n == 0 {
		return math.NaN()
	}
	return s.max
}

func (s *IncrementalStats) String() string {
	return fmt.Sprintf("n=%d mean=%.6g sd=%.6g min=%.6g max=%.6g", s.n, s.Mean(), s.StdDev(), s.Min(), s.Max())
}
