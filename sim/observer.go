package sim

// Observer receives popped Schedulables of the event types it was
// registered for.
//
// nextShift is the absolute time at which the popped Schedulable fires
// next (for a Process, its next transition), or Expired. IsDone must be
// monotonic: once it reports true the Engine unbinds the observer for
// the rest of the run. Returning an error aborts the run.
type Observer interface {
	EventPerformed(e *Engine, s Schedulable, nextShift float64) error
	IsDone() bool
}

// ObserverFunc adapts a function into an Observer that is never done.
type ObserverFunc func(e *Engine, s Schedulable, nextShift float64) error

func (f ObserverFunc) EventPerformed(e *Engine, s Schedulable, nextShift float64) error {
	return f(e, s, nextShift)
}

func (f ObserverFunc) IsDone() bool { return false }

// binding describes one observer registration.
type binding struct {
	observer  Observer
	eventType EventType
	isBinding bool
	listening bool
}
