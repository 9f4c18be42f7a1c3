package protocol

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/churn-sim/sim"
)

// CyclicState is the lifecycle state of a cyclic protocol instance:
// Idle -> Active -> Waiting -> Done, with Done terminal.
type CyclicState int

const (
	Idle CyclicState = iota
	Active
	Waiting
	Done

	numCyclicStates
)

func (s CyclicState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Active:
		return "active"
	case Waiting:
		return "waiting"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("CyclicState(%d)", int(s))
	}
}

// CyclicProtocol is stepped once per runner tick while its process is up.
type CyclicProtocol interface {
	NextCycle(e *sim.Engine, p sim.Process) error
	State() CyclicState
}

// cycleTick is the recurring Schedulable that drives a runner.
type cycleTick struct {
	at        float64
	period    float64
	eventType sim.EventType

	executed int64
	paused   bool
	stopped  bool
}

func (t *cycleTick) Time() float64       { return t.at }
func (t *cycleTick) Type() sim.EventType { return t.eventType }
func (t *cycleTick) IsExpired() bool     { return t.paused || t.stopped }

func (t *cycleTick) Scheduled(_ *sim.Engine) error {
	t.executed++
	t.at += t.period
	return nil
}

// CyclicProtocolRunner steps the CyclicProtocol at a fixed slot of every
// process on each tick. It keeps only aggregate state counts and becomes
// done once every protocol is Done.
type CyclicProtocolRunner struct {
	slot   int
	tick   *cycleTick
	counts [numCyclicStates]int
	done   bool
}

// NewCyclicProtocolRunner creates a runner ticking every period, starting
// at time zero, with ticks of the given event type.
func NewCyclicProtocolRunner(period float64, eventType sim.EventType, slot int) *CyclicProtocolRunner {
	return &CyclicProtocolRunner{
		slot: slot,
		tick: &cycleTick{period: period, eventType: eventType},
	}
}

// Register adds the runner to b as a listener of its tick type and
// queues its first tick.
func (r *CyclicProtocolRunner) Register(b *sim.EngineBuilder, binding bool) {
	b.AddObserver(r, r.tick.eventType, binding, true)
	b.Preschedule(r.tick)
}

func (r *CyclicProtocolRunner) EventPerformed(e *sim.Engine, s sim.Schedulable, _ float64) error {
	if s != sim.Schedulable(r.tick) || r.done {
		return nil
	}

	r.counts = [numCyclicStates]int{}
	for i := 0; i < e.Size(); i++ {
		p := e.Process(i)
		proto := r.protocolOf(p)
		if p.IsUp() && proto.State() != Done {
			if err := proto.NextCycle(e, p); err != nil {
				return fmt.Errorf("cycle of process %d: %w", i, err)
			}
		}
		r.counts[proto.State()]++
	}

	if r.counts[Done] == e.Size() {
		logrus.Debugf("[t=%.6f] all %d protocols at slot %d done", e.RawTime(), e.Size(), r.slot)
		r.done = true
		r.tick.stopped = true
	}
	return nil
}

func (r *CyclicProtocolRunner) protocolOf(p sim.Process) CyclicProtocol {
	proto, ok := p.Protocol(r.slot).(CyclicProtocol)
	if !ok {
		panic(&sim.UsageError{
			Op:  "cyclic",
			Msg: fmt.Sprintf("protocol at slot %d of process %d is %T, not a CyclicProtocol", r.slot, p.ID(), p.Protocol(r.slot)),
		})
	}
	return proto
}

func (r *CyclicProtocolRunner) IsDone() bool { return r.done }

// Count returns how many protocols were in state s after the last tick.
func (r *CyclicProtocolRunner) Count(s CyclicState) int { return r.counts[s] }

// Ticks returns the number of ticks popped so far.
func (r *CyclicProtocolRunner) Ticks() int64 { return r.tick.executed }

// PausingCyclicProtocolRunner stops ticking when no protocol is Active
// and resumes when a process logs in. It starts paused.
type PausingCyclicProtocolRunner struct {
	*CyclicProtocolRunner
}

func NewPausingCyclicProtocolRunner(period float64, eventType sim.EventType, slot int) *PausingCyclicProtocolRunner {
	r := &PausingCyclicProtocolRunner{NewCyclicProtocolRunner(period, eventType, slot)}
	r.tick.paused = true
	return r
}

// Register adds the runner to b together with its network observer.
// Nothing is prescheduled: the first login, or an explicit WakeUp,
// starts the ticks.
func (r *PausingCyclicProtocolRunner) Register(b *sim.EngineBuilder, binding bool) {
	b.AddObserver(r, r.tick.eventType, binding, true)
	b.AddObserver(r.NetworkObserver(), sim.ProcessEventType, false, true)
}

func (r *PausingCyclicProtocolRunner) EventPerformed(e *sim.Engine, s sim.Schedulable, nextShift float64) error {
	if err := r.CyclicProtocolRunner.EventPerformed(e, s, nextShift); err != nil {
		return err
	}
	if s == sim.Schedulable(r.tick) && !r.done && r.counts[Active] == 0 && !r.tick.paused {
		logrus.Debugf("[t=%.6f] runner for slot %d quiescent, pausing", e.RawTime(), r.slot)
		r.tick.paused = true
	}
	return nil
}

// Paused reports whether the runner's tick is currently suspended.
func (r *PausingCyclicProtocolRunner) Paused() bool { return r.tick.paused }

// WakeUp resumes a paused runner. The next tick is aligned to the next
// multiple of the period, or now if the clock sits on one.
func (r *PausingCyclicProtocolRunner) WakeUp(e *sim.Engine) {
	if !r.tick.paused || r.done {
		return
	}
	r.tick.paused = false

	now := e.RawTime()
	r.tick.at = math.Max(now, math.Ceil(now/r.tick.period)*r.tick.period)
	logrus.Debugf("[t=%.6f] runner for slot %d resumed, next tick at %.6f", now, r.slot, r.tick.at)
	e.Schedule(r.tick)
}

// NetworkObserver returns the observer that wakes the runner whenever a
// process logs in. It must be registered for sim.ProcessEventType.
func (r *PausingCyclicProtocolRunner) NetworkObserver() sim.Observer {
	return &networkObserver{runner: r}
}

type networkObserver struct {
	runner *PausingCyclicProtocolRunner
}

func (o *networkObserver) EventPerformed(e *sim.Engine, s sim.Schedulable, _ float64) error {
	if p, ok := s.(sim.Process); ok && p.IsUp() {
		o.runner.WakeUp(e)
	}
	return nil
}

func (o *networkObserver) IsDone() bool { return o.runner.done }
