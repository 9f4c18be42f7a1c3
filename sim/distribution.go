package sim

import "math/rand"

// Distribution draws session durations for renewal processes.
// Implementations live in sim/churn.
type Distribution interface {
	// Sample returns the next duration. Non-positive values are a
	// configuration error and abort the run.
	Sample(rng *rand.Rand) float64
	// Expectation returns the mean duration, or NaN if unknown.
	Expectation() float64
}
