package protocol

import (
	"github.com/inference-sim/churn-sim/sim"
)

// actionLog collects the performances of loggingActions.
type actionLog struct {
	times      []float64
	priorities []int
}

// loggingAction records when it runs and asks to run again half a time
// unit later.
type loggingAction struct {
	log      *actionLog
	priority int
}

func (a *loggingAction) Perform(e *sim.Engine) (float64, error) {
	a.log.times = append(a.log.times, e.RawTime())
	a.log.priorities = append(a.log.priorities, a.priority)
	return e.RawTime() + 0.5, nil
}

func (a *loggingAction) Grace() float64 { return 0 }

func newLoggedAction(ref *sim.EngineRef, log *actionLog, priority, id int) *PeriodicAction {
	return NewPeriodicAction(ref, &loggingAction{log: log, priority: priority}, priority, id, 0.5)
}

// burstProtocol stays Active for a fixed number of cycles after every
// login, then waits. It is Done after total cycles when total > 0.
type burstProtocol struct {
	burst  int
	left   int
	total  int
	cycles int
	state  CyclicState
}

func (b *burstProtocol) NextCycle(_ *sim.Engine, _ sim.Process) error {
	b.cycles++
	b.left--
	switch {
	case b.total > 0 && b.cycles >= b.total:
		b.state = Done
	case b.left > 0:
		b.state = Active
	default:
		b.state = Waiting
	}
	return nil
}

func (b *burstProtocol) State() CyclicState { return b.state }

// EventPerformed refills the burst on login.
func (b *burstProtocol) EventPerformed(_ *sim.Engine, s sim.Schedulable, _ float64) error {
	if p, ok := s.(sim.Process); ok && p.IsUp() && b.state != Done {
		b.left = b.burst
		b.state = Active
	}
	return nil
}

func (b *burstProtocol) IsDone() bool { return false }

// mustBuild builds b or panics; tests only use valid builders.
func mustBuild(b *sim.EngineBuilder) *sim.Engine {
	e, err := b.Build()
	if err != nil {
		panic(err)
	}
	return e
}
