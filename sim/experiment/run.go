package experiment

import (
	"context"
	"fmt"
	"math"

	"github.com/inference-sim/churn-sim/sim/measure"
	"github.com/inference-sim/churn-sim/sim/trace"
)

// RunResult is the outcome of one repetition.
type RunResult struct {
	Repetition int     `yaml:"repetition"`
	Seed       int64   `yaml:"seed"`
	Events     int64   `yaml:"events"`
	EndTime    float64 `yaml:"end_time"` // post-burn-in
	Live       int     `yaml:"live"`

	// Availability is the mean fraction of post-burn-in time processes
	// spent up; Asymptotic the mean of the churn model's expectation.
	Availability float64 `yaml:"availability"`
	Asymptotic   float64 `yaml:"asymptotic_availability"`

	// Flood only. Reachable counts the processes connected to the source;
	// Eccentricity is their largest hop distance from it.
	Reachable    int     `yaml:"reachable,omitempty"`
	Eccentricity int     `yaml:"eccentricity,omitempty"`
	Reached      int     `yaml:"reached,omitempty"`
	Coverage     float64 `yaml:"coverage,omitempty"`
	MeanLatency  float64 `yaml:"mean_latency,omitempty"`
	Completed    bool    `yaml:"completed,omitempty"`
	Ticks        int64   `yaml:"ticks,omitempty"`

	// Antientropy only.
	Exchanges int `yaml:"exchanges,omitempty"`

	Trace *trace.TraceSummary `yaml:"trace,omitempty"`
}

// Execute runs the repetition to completion and collects its result.
func (r *Run) Execute(ctx context.Context) (*RunResult, error) {
	if err := r.Engine.Run(ctx); err != nil {
		return nil, fmt.Errorf("repetition %d (seed %d): %w", r.Repetition, r.Seed, err)
	}
	return r.Result(), nil
}

// Result collects the measurements of the engine in its current state.
func (r *Run) Result() *RunResult {
	e := r.Engine
	res := &RunResult{
		Repetition:   r.Repetition,
		Seed:         r.Seed,
		Events:       e.Events(),
		EndTime:      e.Time(),
		Live:         e.Live(),
		Availability: math.NaN(),
	}

	if r.snapshot.Taken() {
		res.Availability = r.snapshot.AvailabilityStats(e).Mean()
	}
	var asymptotic measure.IncrementalStats
	for i := 0; i < e.Size(); i++ {
		if a := e.Process(i).AsymptoticAvailability(); !math.IsNaN(a) {
			asymptotic.Add(a)
		}
	}
	res.Asymptotic = asymptotic.Mean()

	if r.floods != nil {
		var latency measure.IncrementalStats
		for _, f := range r.floods {
			if f.Reached() {
				res.Reached++
				latency.Add(f.ReachedAt())
			}
		}
		res.Reachable = r.reachable
		res.Eccentricity = r.eccentricity
		res.Coverage = float64(res.Reached) / float64(len(r.floods))
		res.MeanLatency = latency.Mean()
		res.Completed = r.runner.IsDone()
		res.Ticks = r.runner.Ticks()
	}
	for _, a := range r.exchange {
		res.Exchanges += a.Initiated()
	}
	if r.trace != nil {
		res.Trace = trace.Summarize(r.trace)
	}
	return res
}
