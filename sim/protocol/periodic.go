package protocol

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/churn-sim/sim"
)

// TieBreakDelta is the time offset per unit of priority that orders
// periodic actions sharing a nominal fire time.
const TieBreakDelta = 1.0 / 3600000000.0

// Action is the work performed by a PeriodicAction.
type Action interface {
	// Perform runs the action and returns the nominal time at which it
	// should run next.
	Perform(e *sim.Engine) (float64, error)
	// Grace is the delay applied after a login that finds the timer
	// already expired.
	Grace() float64
}

// PeriodicAction runs an Action on a timer, but only while its process
// is up. A timer that expires while the process is down fires shortly
// after the next login. Register it as an observer of its own process
// with sim.Process.AddObserver.
type PeriodicAction struct {
	ref        *sim.EngineRef
	action     Action
	id         int
	tieBreaker int
	nextAccess float64
	pending    *actionTimer
}

// NewPeriodicAction creates an action for process id. The first nominal
// fire time is initial; priority orders actions firing at the same
// nominal time, lower first.
func NewPeriodicAction(ref *sim.EngineRef, action Action, priority, id int, initial float64) *PeriodicAction {
	a := &PeriodicAction{
		ref:        ref,
		action:     action,
		id:         id,
		tieBreaker: priority,
	}
	a.nextAccess = initial + a.penalty()
	return a
}

func (a *PeriodicAction) ID() int             { return a.id }
func (a *PeriodicAction) Priority() int       { return a.tieBreaker }
func (a *PeriodicAction) NextAccess() float64 { return a.nextAccess }
func (a *PeriodicAction) IsDone() bool        { return false }
func (a *PeriodicAction) penalty() float64    { return float64(a.tieBreaker) * TieBreakDelta }

// Scheduled reports whether a timer is pending.
func (a *PeriodicAction) Scheduled() bool {
	return a.pending != nil && !a.pending.done
}

// EventPerformed handles transitions of the owning process.
func (a *PeriodicAction) EventPerformed(e *sim.Engine, s sim.Schedulable, _ float64) error {
	p, ok := s.(sim.Process)
	if !ok || p.ID() != a.id || !p.IsUp() {
		return nil
	}

	now := e.RawTime()
	if a.nextAccess < now {
		target := now + a.action.Grace() + a.penalty()
		if sim.SessionEnd(p) <= target {
			// Nudging would cross the session boundary.
			logrus.Warnf("[t=%.6f] periodic action %d/%d: nudge abort (next access %.9f, session end %.9f)",
				now, a.id, a.tieBreaker, a.nextAccess, sim.SessionEnd(p))
			return nil
		}
		a.nextAccess = target
	}

	if a.shouldAccess(p) {
		a.schedule(e)
	}
	return nil
}

// NewTimer sets the next fire time, replacing any pending timer. While
// the process is down the action stays unscheduled until its next login.
func (a *PeriodicAction) NewTimer(t float64) {
	e := a.ref.Get()
	p := e.Process(a.id)
	a.nextAccess = t

	switch {
	case !p.IsUp():
		a.cancel()
	case a.Scheduled():
		if !a.shouldAccess(p) {
			a.cancel()
		} else if a.nextAccess != a.pending.at {
			a.schedule(e)
		}
	case a.shouldAccess(p):
		a.schedule(e)
	}
}

// shouldAccess reports whether the next access falls inside the current
// session.
func (a *PeriodicAction) shouldAccess(p sim.Process) bool {
	return a.nextAccess < sim.SessionEnd(p)
}

func (a *PeriodicAction) cancel() {
	if a.pending != nil {
		a.pending.done = true
		a.pending = nil
	}
}

func (a *PeriodicAction) schedule(e *sim.Engine) {
	a.cancel()
	a.pending = &actionTimer{action: a, at: a.nextAccess}
	e.Schedule(a.pending)
}

// actionTimer is a single pending firing. Cancelled timers stay queued
// and are dropped when popped.
type actionTimer struct {
	action *PeriodicAction
	at     float64
	done   bool
}

func (t *actionTimer) Time() float64       { return t.at }
func (t *actionTimer) Type() sim.EventType { return sim.UnobservedEventType }
func (t *actionTimer) IsExpired() bool     { return t.done }

func (t *actionTimer) Scheduled(e *sim.Engine) error {
	if t.done {
		return nil
	}
	a := t.action
	if !e.Process(a.id).IsUp() {
		panic(&sim.UsageError{Op: "periodic", Msg: fmt.Sprintf("process %d is down and cannot perform timed actions", a.id)})
	}
	t.done = true

	next, err := a.action.Perform(e)
	if err != nil {
		return fmt.Errorf("periodic action %d: %w", a.id, err)
	}
	a.NewTimer(next + a.penalty())
	return nil
}

var _ sim.Observer = (*PeriodicAction)(nil)
