package sim

import "math"

// State is the availability state of a Process.
type State int

const (
	Down State = iota
	Up
)

func (s State) String() string {
	if s == Up {
		return "up"
	}
	return "down"
}

// Opposite returns the state a transition leads to.
func (s State) Opposite() State {
	if s == Up {
		return Down
	}
	return Up
}

// Process is a churn-aware simulated host. It is itself the Schedulable
// that produces its own next transition, always of ProcessEventType.
type Process interface {
	Schedulable

	// ID is both the process handle and its index in the Engine.
	ID() int
	State() State
	IsUp() bool
	// Uptime returns the cumulative time spent up as of clock.RawTime().
	// It is exact between transitions and never negative.
	Uptime(clock Clock) float64
	// AsymptoticAvailability returns E[up]/(E[up]+E[down]), or NaN
	// if undefined.
	AsymptoticAvailability() float64

	// Protocol returns the protocol attached at slot.
	Protocol(slot int) any
	// AddProtocol attaches a protocol and returns its slot.
	AddProtocol(protocol any) int
	// AddObserver subscribes an observer to this process's transitions
	// only. Such observers are notified during burn-in too.
	AddObserver(o Observer)
}

// EmpiricalAvailability returns the fraction of raw simulated time p
// spent up, or NaN at time zero.
func EmpiricalAvailability(p Process, clock Clock) float64 {
	if clock.RawTime() == 0 {
		return math.NaN()
	}
	return p.Uptime(clock) / clock.RawTime()
}

// SessionEnd returns the time at which p next changes state, or +Inf if
// it never will.
func SessionEnd(p Process) float64 {
	if p.IsExpired() {
		return math.Inf(1)
	}
	return p.Time()
}

// processBase holds the protocol slot table and per-process observers
// shared by all Process implementations.
type processBase struct {
	protocols []any
	observers []Observer
}

func (b *processBase) Protocol(slot int) any {
	if slot < 0 || slot >= len(b.protocols) {
		usagePanic("protocol", "no protocol at slot %d (have %d)", slot, len(b.protocols))
	}
	return b.protocols[slot]
}

func (b *processBase) AddProtocol(protocol any) int {
	b.protocols = append(b.protocols, protocol)
	return len(b.protocols) - 1
}

func (b *processBase) AddObserver(o Observer) {
	b.observers = append(b.observers, o)
}

func (b *processBase) notifyObservers(e *Engine, p Process, next float64) error {
	for _, o := range b.observers {
		if err := o.EventPerformed(e, p, next); err != nil {
			return err
		}
	}
	return nil
}
