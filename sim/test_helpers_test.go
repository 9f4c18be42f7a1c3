package sim

import (
	"math"
	"math/rand"
)

// seqDist returns its values in order, cycling when exhausted. It keeps
// kernel tests independent of sim/churn.
type seqDist struct {
	values []float64
	next   int
}

func newSeqDist(values ...float64) *seqDist {
	return &seqDist{values: values}
}

func (d *seqDist) Sample(_ *rand.Rand) float64 {
	v := d.values[d.next%len(d.values)]
	d.next++
	return v
}

func (d *seqDist) Expectation() float64 {
	sum := 0.0
	for _, v := range d.values {
		sum += v
	}
	return sum / float64(len(d.values))
}

// expDist draws exponential durations with the given mean.
type expDist struct{ mean float64 }

func (d expDist) Sample(rng *rand.Rand) float64 {
	return math.Max(rng.ExpFloat64()*d.mean, math.SmallestNonzeroFloat64)
}

func (d expDist) Expectation() float64 { return d.mean }

// recorder is an Observer that keeps the raw times and nextShift values
// it saw, and reports done after limit events when limit > 0.
type recorder struct {
	times  []float64
	shifts []float64
	ids    []int
	limit  int
}

func (r *recorder) EventPerformed(e *Engine, s Schedulable, nextShift float64) error {
	r.times = append(r.times, e.RawTime())
	r.shifts = append(r.shifts, nextShift)
	if p, ok := s.(Process); ok {
		r.ids = append(r.ids, p.ID())
	}
	return nil
}

func (r *recorder) IsDone() bool {
	return r.limit > 0 && len(r.times) >= r.limit
}

// stubSchedulable fires at fixed times and is never expired unless
// marked so.
type stubSchedulable struct {
	name    string
	at      float64
	typ     EventType
	expired bool
	period  float64
	fired   int
}

func (s *stubSchedulable) Time() float64   { return s.at }
func (s *stubSchedulable) Type() EventType { return s.typ }
func (s *stubSchedulable) IsExpired() bool { return s.expired }

func (s *stubSchedulable) Scheduled(_ *Engine) error {
	s.fired++
	if s.period > 0 {
		s.at += s.period
	} else {
		s.expired = true
	}
	return nil
}

// mustBuild builds the engine or panics; for test fixtures only.
func mustBuild(b *EngineBuilder) *Engine {
	e, err := b.Build()
	if err != nil {
		panic(err)
	}
	return e
}
