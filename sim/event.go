package sim

import "math"

// EventType tags a Schedulable so the Engine can route it to the
// observers registered for that type.
type EventType int

const (
	// ProcessEventType is the type of every Process churn transition.
	ProcessEventType EventType = 0

	// UnobservedEventType is used by internal timers that no observer
	// should ever receive.
	UnobservedEventType EventType = math.MaxInt32
)

// Expired is passed as nextShift to observers when the popped
// Schedulable will not be requeued.
const Expired = -1.0

// Schedulable is a unit of future work. The Engine pops Schedulables in
// non-decreasing Time() order, calls Scheduled, and requeues them unless
// IsExpired reports true afterwards.
type Schedulable interface {
	// Time returns the simulated time at which this Schedulable fires.
	Time() float64
	// Type returns the event type used for observer dispatch.
	Type() EventType
	// Scheduled is invoked once the Schedulable is popped. It may update
	// Time() to have the Engine requeue it.
	Scheduled(e *Engine) error
	// IsExpired reports whether the Schedulable should be dropped after
	// being popped.
	IsExpired() bool
}

// SchedulableFunc adapts a function into a one-shot Schedulable.
type SchedulableFunc struct {
	At    float64
	Event EventType
	Fn    func(e *Engine) error

	done bool
}

func (s *SchedulableFunc) Time() float64   { return s.At }
func (s *SchedulableFunc) Type() EventType { return s.Event }
func (s *SchedulableFunc) IsExpired() bool { return s.done }

func (s *SchedulableFunc) Scheduled(e *Engine) error {
	s.done = true
	if s.Fn == nil {
		return nil
	}
	return s.Fn(e)
}
