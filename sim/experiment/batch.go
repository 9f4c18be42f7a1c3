package experiment

import (
	"context"
	"math"
	"runtime"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/inference-sim/churn-sim/sim/measure"
)

// RunBatch executes every repetition of plan with at most workers runs
// in flight (runtime.NumCPU() when workers <= 0). Results are ordered by
// repetition. The first failing run cancels the ones not yet started.
func RunBatch(ctx context.Context, plan *Plan, workers int) ([]*RunResult, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	results := make([]*RunResult, plan.Spec.RepetitionCount())

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i := range results {
		if gCtx.Err() != nil {
			break
		}
		i := i
		eg.Go(func() error {
			run, err := plan.Build(i)
			if err != nil {
				return err
			}
			res, err := run.Execute(gCtx)
			if err != nil {
				return err
			}
			logrus.Debugf("repetition %d done: %d events, availability %.4f", i, res.Events, res.Availability)
			results[i] = res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// Estimate is a sample mean with the half-width of its 95% confidence
// interval. HalfWidth is NaN with fewer than two samples.
type Estimate struct {
	Mean      float64 `yaml:"mean"`
	HalfWidth float64 `yaml:"half_width"`
	N         int64   `yaml:"n"`
}

func estimate(s *measure.IncrementalStats) Estimate {
	return Estimate{Mean: s.Mean(), HalfWidth: measure.HalfWidth(s), N: s.N()}
}

// BatchSummary aggregates results across repetitions. NaN measurements
// are left out.
type BatchSummary struct {
	Runs         int      `yaml:"runs"`
	Events       Estimate `yaml:"events"`
	Availability Estimate `yaml:"availability"`
	Coverage     Estimate `yaml:"coverage,omitempty"`
	Latency      Estimate `yaml:"latency,omitempty"`
	Exchanges    Estimate `yaml:"exchanges,omitempty"`
}

// Summarize computes the BatchSummary of results.
func Summarize(results []*RunResult) *BatchSummary {
	var events, availability, coverage, latency, exchanges measure.IncrementalStats
	add := func(s *measure.IncrementalStats, v float64) {
		if !math.IsNaN(v) {
			s.Add(v)
		}
	}
	for _, r := range results {
		add(&events, float64(r.Events))
		add(&availability, r.Availability)
		if r.Ticks > 0 || r.Reached > 0 {
			add(&coverage, r.Coverage)
			add(&latency, r.MeanLatency)
		}
		add(&exchanges, float64(r.Exchanges))
	}

	summary := &BatchSummary{
		Runs:         len(results),
		Events:       estimate(&events),
		Availability: estimate(&availability),
	}
	if coverage.N() > 0 {
		summary.Coverage = estimate(&coverage)
		summary.Latency = estimate(&latency)
	}
	if exchanges.Sum() > 0 {
		summary.Exchanges = estimate(&exchanges)
	}
	return summary
}
