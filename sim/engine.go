// sim/engine.go
package sim

import (
	"context"
	"fmt"
	"math"
	"reflect"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
)

// Clock exposes simulated time to processes and observers.
type Clock interface {
	// RawTime is the current simulated time, burn-in included.
	RawTime() float64
	// Time is the post-burn-in time, or 0 while burning in.
	Time() float64
	// IsBurningIn reports whether RawTime is still below the burn-in.
	IsBurningIn() bool
}

// ctxCheckInterval is how many events Run processes between context
// cancellation checks.
const ctxCheckInterval = 4096

// registration is a live observer binding inside an Engine.
type registration struct {
	binding
	group   int
	unbound bool
}

// Engine owns the clock, the event queue and the process set of a
// single run. It is not safe for concurrent use; independent engines
// share no state.
type Engine struct {
	processes []Process
	queue     *EventQueue

	listeners     map[EventType][]*registration
	registrations []*registration
	permits       int

	burnin        float64
	burninActions []Observer
	burninOver    bool

	rawTime   float64
	live      int
	events    int64
	maxEvents int64
	horizon   float64

	running bool
	done    bool
	stopped bool
	dirty   bool
}

// newEngine is called by EngineBuilder.Build once all inputs are validated.
func newEngine(b *EngineBuilder) *Engine {
	e := &Engine{
		processes:     b.processes,
		queue:         NewEventQueue(),
		listeners:     make(map[EventType][]*registration),
		registrations: make([]*registration, 0, len(b.bindings)),
		permits:       b.extraPermits,
		burnin:        b.burnin,
		burninActions: b.burninActions,
		maxEvents:     b.maxEvents,
		horizon:       b.horizon,
	}

	for _, p := range e.processes {
		if p.IsUp() {
			e.live++
		}
		e.queue.Schedule(p)
	}
	for _, s := range b.preschedule {
		e.Schedule(s)
	}

	groups := make([]Observer, 0)
	for _, bd := range b.bindings {
		r := &registration{binding: bd, group: groupOf(&groups, bd.observer)}
		e.registrations = append(e.registrations, r)
		if bd.isBinding {
			e.permits++
		}
		if bd.listening {
			e.listeners[bd.eventType] = append(e.listeners[bd.eventType], r)
		}
	}

	return e
}

// groupOf returns the index identifying o among the observers seen so
// far, adding it if new. Registrations sharing a group are unbound together.
func groupOf(groups *[]Observer, o Observer) int {
	for i, g := range *groups {
		if sameObserver(g, o) {
			return i
		}
	}
	*groups = append(*groups, o)
	return len(*groups) - 1
}

// sameObserver compares observers without panicking on uncomparable
// dynamic types (such as ObserverFunc).
func sameObserver(a, b Observer) bool {
	ta := reflect.TypeOf(a)
	if ta == nil || ta != reflect.TypeOf(b) || !ta.Comparable() {
		return false
	}
	return a == b
}

// === Clock ===

func (e *Engine) RawTime() float64 { return e.rawTime }

func (e *Engine) Time() float64 { return math.Max(0, e.rawTime-e.burnin) }

func (e *Engine) IsBurningIn() bool { return e.rawTime < e.burnin }

// Burnin returns the configured burn-in duration.
func (e *Engine) Burnin() float64 { return e.burnin }

// === Network ===

// Size returns the number of processes.
func (e *Engine) Size() int { return len(e.processes) }

// Process returns the process with the given id.
func (e *Engine) Process(id int) Process { return e.processes[id] }

// Live returns the number of processes currently up.
func (e *Engine) Live() int { return e.live }

// Events returns the number of Schedulables popped so far.
func (e *Engine) Events() int64 { return e.events }

// Pending returns the number of queued Schedulables.
func (e *Engine) Pending() int { return e.queue.Len() }

// Permits returns the number of binding permits still held.
func (e *Engine) Permits() int { return e.permits }

// IsDone reports whether the run has ended, either because all permits
// were released or because Stop was called.
func (e *Engine) IsDone() bool { return e.done }

// === Scheduling ===

// Schedule inserts s into the event queue. Scheduling strictly before
// the current clock is a usage error.
func (e *Engine) Schedule(s Schedulable) {
	if s.Time() < e.rawTime {
		usagePanic("schedule", "can't schedule event in the past (%g > %g)", e.rawTime, s.Time())
	}
	e.queue.Schedule(s)
}

// Unbound releases the binding registrations of o. Binding observers
// that stop being binding without reporting done, or non-listening
// binding observers, must call it. Unbinding twice is a usage error.
func (e *Engine) Unbound(o Observer) {
	found := false
	for _, r := range e.registrations {
		if !sameObserver(r.observer, o) {
			continue
		}
		if r.unbound {
			usagePanic("unbound", "observer %T already unbound", o)
		}
		found = true
		e.unbind(r)
	}
	if !found {
		usagePanic("unbound", "observer %T is not registered", o)
	}
	e.dirty = true
}

// ReleasePermit gives back one extra permit acquired through
// EngineBuilder.SetExtraPermits.
func (e *Engine) ReleasePermit() {
	e.release()
}

// Stop ends the run after the current event.
func (e *Engine) Stop() {
	e.done = true
}

func (e *Engine) unbind(r *registration) {
	if r.unbound {
		return
	}
	r.unbound = true
	logrus.Debugf("[t=%.6f] unbinding %T from event type %d", e.rawTime, r.observer, r.eventType)
	if r.isBinding {
		e.release()
	}
}

func (e *Engine) release() {
	e.permits--
	if e.permits <= 0 {
		logrus.Debugf("[t=%.6f] all permits released, run complete", e.rawTime)
		e.done = true
	}
}

// unbindGroup unbinds every registration in an observer group.
func (e *Engine) unbindGroup(group int) {
	for _, r := range e.registrations {
		if r.group == group {
			e.unbind(r)
		}
	}
}

// compact drops unbound registrations from the dispatch lists. It must
// not run while a dispatch list is being iterated.
func (e *Engine) compact() {
	e.dirty = false
	for t, regs := range e.listeners {
		e.listeners[t] = slices.DeleteFunc(regs, func(r *registration) bool { return r.unbound })
	}
}

// === Event loop ===

// Run processes events until the queue empties, all permits are
// released, Stop is called, or a stop condition set through
// EngineBuilder.StopAt fires. Usage errors and errors returned by
// Schedulables or observers abort the run and are returned.
func (e *Engine) Run(ctx context.Context) (err error) {
	if err := e.checkCanRun(); err != nil {
		return err
	}
	defer e.recoverUsage(&err)

	e.running = true
	defer func() { e.running = false }()

	for !e.done {
		if e.events%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		ok, err := e.step()
		if err != nil {
			e.done = true
			return err
		}
		if !ok {
			break
		}
	}
	logrus.Debugf("[t=%.6f] simulation ended after %d events", e.rawTime, e.events)
	return nil
}

// Step processes at most n events and returns how many were processed.
func (e *Engine) Step(n int) (processed int, err error) {
	if err := e.checkCanRun(); err != nil {
		return 0, err
	}
	defer e.recoverUsage(&err)

	for processed < n {
		ok, err := e.step()
		if err != nil {
			e.done = true
			return processed, err
		}
		if !ok {
			return processed, nil
		}
		processed++
		if e.done {
			return processed, nil
		}
	}
	return processed, nil
}

func (e *Engine) checkCanRun() error {
	if e.running {
		return &UsageError{Op: "run", Msg: "simulation is already running"}
	}
	if e.done {
		return &UsageError{Op: "run", Msg: "can't step a simulation that's already done"}
	}
	return nil
}

func (e *Engine) recoverUsage(err *error) {
	r := recover()
	if r == nil {
		return
	}
	ue, ok := r.(*UsageError)
	if !ok {
		panic(r)
	}
	e.done = true
	*err = ue
}

// horizonLimit is the raw time past which no event is popped.
func (e *Engine) horizonLimit() float64 {
	return e.burnin + e.horizon
}

// step pops and processes a single Schedulable. It returns false when
// nothing was processed because the queue is empty or a stop condition
// fired.
func (e *Engine) step() (bool, error) {
	if e.stopped {
		return false, nil
	}

	next := e.queue.Peek()
	if next == nil {
		return false, nil
	}
	if limit := e.horizonLimit(); next.Time() > limit {
		// Leaves the clock at the horizon so end-of-run uptimes cover it.
		e.rawTime = math.Max(e.rawTime, limit)
		e.stopped = true
		logrus.Debugf("[t=%.6f] horizon reached", e.rawTime)
		return false, nil
	}
	// Schedulables at +Inf never fire.
	if math.IsInf(next.Time(), 1) {
		return false, nil
	}

	s := e.queue.PopNext()
	if s.Time() < e.rawTime {
		panic(fmt.Sprintf("Clock went backwards: %g < %g", s.Time(), e.rawTime))
	}
	e.rawTime = s.Time()
	e.events++
	logrus.Tracef("[t=%.6f] executing %T (type %d)", e.rawTime, s, s.Type())

	proc, isProc := s.(Process)
	var wasUp bool
	if isProc {
		wasUp = proc.IsUp()
	}

	if err := s.Scheduled(e); err != nil {
		return false, fmt.Errorf("schedulable %T at t=%g: %w", s, e.rawTime, err)
	}

	if isProc && proc.IsUp() != wasUp {
		if proc.IsUp() {
			e.live++
		} else {
			e.live--
		}
	}

	if !e.IsBurningIn() {
		if err := e.dispatch(s); err != nil {
			return false, err
		}
	}

	// Requeued after dispatch so observers get a chance to expire s.
	if !s.IsExpired() {
		e.Schedule(s)
	}

	if e.maxEvents > 0 && e.events >= e.maxEvents {
		e.stopped = true
	}

	return true, nil
}

func (e *Engine) nextShift(s Schedulable) float64 {
	if s.IsExpired() {
		return Expired
	}
	return s.Time()
}

func (e *Engine) dispatch(s Schedulable) error {
	if !e.burninOver {
		e.burninOver = true
		logrus.Debugf("[t=%.6f] burn-in over", e.rawTime)
		for _, a := range e.burninActions {
			if err := a.EventPerformed(e, s, e.nextShift(s)); err != nil {
				return fmt.Errorf("burn-in action %T: %w", a, err)
			}
		}
	}

	if e.dirty {
		e.compact()
	}

	regs := e.listeners[s.Type()]
	for _, r := range regs {
		if r.unbound {
			continue
		}
		if r.observer.IsDone() {
			// Turned done outside its own callback.
			e.unbindGroup(r.group)
			e.dirty = true
			continue
		}
		if err := r.observer.EventPerformed(e, s, e.nextShift(s)); err != nil {
			return fmt.Errorf("observer %T at t=%g: %w", r.observer, e.rawTime, err)
		}
		if r.observer.IsDone() {
			e.unbindGroup(r.group)
			e.dirty = true
		}
	}
	return nil
}
