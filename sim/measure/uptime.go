package measure

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/churn-sim/sim"
)

// UptimeSnapshot records the uptime of every process when burn-in ends.
// Register it with sim.EngineBuilder.AddBurninAction.
type UptimeSnapshot struct {
	at      float64
	uptimes []float64
}

func NewUptimeSnapshot() *UptimeSnapshot {
	return &UptimeSnapshot{at: math.NaN()}
}

func (u *UptimeSnapshot) EventPerformed(e *sim.Engine, _ sim.Schedulable, _ float64) error {
	if u.Taken() {
		return nil
	}
	u.at = e.RawTime()
	u.uptimes = make([]float64, e.Size())
	for i := range u.uptimes {
		u.uptimes[i] = e.Process(i).Uptime(e)
	}
	logrus.Debugf("[t=%.6f] uptime snapshot of %d processes", u.at, len(u.uptimes))
	return nil
}

func (u *UptimeSnapshot) IsDone() bool { return u.Taken() }

// Taken reports whether burn-in has ended.
func (u *UptimeSnapshot) Taken() bool { return !math.IsNaN(u.at) }

// At returns the raw time of the snapshot, NaN before it is taken.
func (u *UptimeSnapshot) At() float64 { return u.at }

// Uptime returns the uptime process id accumulated since the snapshot.
func (u *UptimeSnapshot) Uptime(e *sim.Engine, id int) float64 {
	if !u.Taken() {
		return math.NaN()
	}
	return e.Process(id).Uptime(e) - u.uptimes[id]
}

// Availability returns the fraction of time since the snapshot process
// id spent up. It is NaN when no time has elapsed.
func (u *UptimeSnapshot) Availability(e *sim.Engine, id int) float64 {
	window := e.RawTime() - u.at
	if !(window > 0) {
		return math.NaN()
	}
	return u.Uptime(e, id) / window
}

// AvailabilityStats summarizes Availability over all processes.
func (u *UptimeSnapshot) AvailabilityStats(e *sim.Engine) *IncrementalStats {
	stats := &IncrementalStats{}
	for i := 0; i < e.Size(); i++ {
		if a := u.Availability(e, i); !math.IsNaN(a) {
			stats.Add(a)
		}
	}
	return stats
}

var _ sim.Observer = (*UptimeSnapshot)(nil)
