package sim

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a Clock pinned at a raw time.
type fakeClock float64

func (c fakeClock) RawTime() float64  { return float64(c) }
func (c fakeClock) Time() float64     { return float64(c) }
func (c fakeClock) IsBurningIn() bool { return false }

func TestRenewalProcess_Uptime_Interpolates(t *testing.T) {
	// GIVEN a process up for 2, down for 3, starting down
	p := NewRenewalProcess(0, newSeqDist(2), newSeqDist(3), Down, nil)

	// WHEN it logs in at t=0
	require.NoError(t, p.Scheduled(nil))

	// THEN uptime grows with the clock inside the session
	assert.True(t, p.IsUp())
	assert.Equal(t, 2.0, p.Time())
	assert.Equal(t, 0.0, p.Uptime(fakeClock(0)))
	assert.InDelta(t, 1.5, p.Uptime(fakeClock(1.5)), 1e-12)

	// WHEN it logs out at t=2
	require.NoError(t, p.Scheduled(nil))

	// THEN uptime stays flat while down
	assert.False(t, p.IsUp())
	assert.Equal(t, 5.0, p.Time())
	assert.Equal(t, 2.0, p.Uptime(fakeClock(4)))

	// WHEN it logs back in at t=5
	require.NoError(t, p.Scheduled(nil))
	assert.InDelta(t, 3.0, p.Uptime(fakeClock(6)), 1e-12)
}

func TestRenewalProcess_UptimeBounds(t *testing.T) {
	// GIVEN a population of random renewal processes
	rng := NewPartitionedRNG(NewSimulationKey(99))
	b := NewEngineBuilder()
	for i := 0; i < 10; i++ {
		initial := Down
		if i%2 == 0 {
			initial = Up
		}
		b.AddProcess(NewRenewalProcess(i, expDist{0.5}, expDist{1.5}, initial, rng.ForSubsystem(SubsystemProcess(i))))
	}

	// WHEN checking every process after every event
	violations := 0
	b.AddObserver(ObserverFunc(func(e *Engine, _ Schedulable, _ float64) error {
		for i := 0; i < e.Size(); i++ {
			u := e.Process(i).Uptime(e)
			if u < 0 || u > e.RawTime()+1e-9 {
				violations++
			}
		}
		return nil
	}), ProcessEventType, false, true)
	b.SetExtraPermits(1)
	b.StopAt(2000, math.Inf(1))
	require.NoError(t, mustBuild(b).Run(context.Background()))

	// THEN 0 <= uptime <= t always holds
	assert.Zero(t, violations)
}

func TestRenewalProcess_NonPositiveSample_IsUsageError(t *testing.T) {
	b := NewEngineBuilder()
	b.AddProcess(NewRenewalProcess(0, newSeqDist(0), newSeqDist(1), Down, nil))
	b.SetExtraPermits(1)
	e := mustBuild(b)

	err := e.Run(context.Background())
	require.Error(t, err)
	assert.True(t, IsUsageError(err))
}

func TestRenewalProcess_AsymptoticAvailability(t *testing.T) {
	p := NewRenewalProcess(0, newSeqDist(2), newSeqDist(3), Down, nil)
	assert.InDelta(t, 0.4, p.AsymptoticAvailability(), 1e-12)
}

func TestRenewalProcess_EmpiricalAvailability_Converges(t *testing.T) {
	// GIVEN a long run of a process with availability 1/3
	rng := NewPartitionedRNG(NewSimulationKey(3))
	p := NewRenewalProcess(0, expDist{1}, expDist{2}, Down, rng.ForSubsystem(SubsystemProcess(0)))
	b := NewEngineBuilder()
	b.AddProcess(p)
	b.SetExtraPermits(1)
	b.StopAt(0, 20000)
	e := mustBuild(b)
	assert.True(t, math.IsNaN(EmpiricalAvailability(p, e)))

	require.NoError(t, e.Run(context.Background()))

	// THEN the empirical availability approaches the asymptotic one
	assert.InDelta(t, p.AsymptoticAvailability(), EmpiricalAvailability(p, e), 0.03)
}

func TestRenewalProcess_ObserversSeeNextTransition(t *testing.T) {
	p := NewRenewalProcess(0, newSeqDist(2), newSeqDist(3), Down, nil)
	rec := &recorder{}
	p.AddObserver(rec)

	b := NewEngineBuilder()
	b.AddProcess(p)
	b.SetBurnin(100)
	b.SetExtraPermits(1)
	e := mustBuild(b)
	_, err := e.Step(2)
	require.NoError(t, err)

	// per-process observers are notified during burn-in too
	assert.Equal(t, []float64{0, 2}, rec.times)
	assert.Equal(t, []float64{2, 5}, rec.shifts)
}

func TestFixedProcess_AnnouncesOnce(t *testing.T) {
	p := NewFixedProcess(0, Up)
	rec := &recorder{}
	p.AddObserver(rec)

	b := NewEngineBuilder()
	b.AddProcess(p)
	b.SetExtraPermits(1)
	e := mustBuild(b)
	require.NoError(t, e.Run(context.Background()))

	assert.Equal(t, []float64{Expired}, rec.shifts)
	assert.True(t, p.IsExpired())
	assert.Equal(t, math.Inf(1), SessionEnd(p))
	assert.Equal(t, 7.0, p.Uptime(fakeClock(7)))
	assert.Equal(t, 1.0, p.AsymptoticAvailability())
}

func TestFixedProcess_Reschedule_IsUsageError(t *testing.T) {
	p := NewFixedProcess(0, Down)
	require.NoError(t, p.Scheduled(nil))

	assert.PanicsWithError(t, "sim: fixed: fixed process 0 can't be rescheduled", func() {
		_ = p.Scheduled(nil)
	})
	assert.Equal(t, 0.0, p.Uptime(fakeClock(7)))
}

func TestProcess_ProtocolSlots(t *testing.T) {
	p := NewFixedProcess(0, Up)
	first := p.AddProtocol("a")
	second := p.AddProtocol("b")

	assert.Equal(t, 0, first)
	assert.Equal(t, 1, second)
	assert.Equal(t, "b", p.Protocol(1))
	assert.Panics(t, func() { p.Protocol(2) })
}

func TestState_Opposite(t *testing.T) {
	assert.Equal(t, Down, Up.Opposite())
	assert.Equal(t, Up, Down.Opposite())
	assert.Equal(t, "up", Up.String())
}
