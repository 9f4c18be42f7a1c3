// Package trace provides event-trace recording for churn simulation runs.
// This package has no dependencies on sim/; it stores pure data types.
package trace

// TransitionRecord captures a single process state change.
type TransitionRecord struct {
	Clock     float64 // post-burn-in time
	ProcessID int
	Up        bool    // state entered
	NextShift float64 // absolute raw time of the next transition
}

// TickRecord captures the protocol state counts after a cyclic runner tick.
type TickRecord struct {
	Clock   float64
	Idle    int
	Active  int
	Waiting int
	Done    int
}
