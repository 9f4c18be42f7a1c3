package experiment

import (
	"github.com/inference-sim/churn-sim/sim"
	"github.com/inference-sim/churn-sim/sim/protocol"
	"github.com/inference-sim/churn-sim/sim/trace"
)

// transitionRecorder feeds post-burn-in process transitions to a trace.
type transitionRecorder struct {
	trace *trace.SimulationTrace
}

func (r *transitionRecorder) EventPerformed(e *sim.Engine, s sim.Schedulable, nextShift float64) error {
	p, ok := s.(sim.Process)
	if !ok {
		return nil
	}
	r.trace.RecordTransition(trace.TransitionRecord{
		Clock:     e.Time(),
		ProcessID: p.ID(),
		Up:        p.IsUp(),
		NextShift: nextShift,
	})
	return nil
}

func (r *transitionRecorder) IsDone() bool { return false }

// tickRecorder records the runner's state counts after each tick. It
// must be registered after the runner.
type tickRecorder struct {
	trace  *trace.SimulationTrace
	runner *protocol.CyclicProtocolRunner
}

func (r *tickRecorder) EventPerformed(e *sim.Engine, _ sim.Schedulable, _ float64) error {
	r.trace.RecordTick(trace.TickRecord{
		Clock:   e.Time(),
		Idle:    r.runner.Count(protocol.Idle),
		Active:  r.runner.Count(protocol.Active),
		Waiting: r.runner.Count(protocol.Waiting),
		Done:    r.runner.Count(protocol.Done),
	})
	return nil
}

func (r *tickRecorder) IsDone() bool { return r.runner.IsDone() }
