package protocol

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"

	"github.com/inference-sim/churn-sim/sim"
)

// AntientropyConfig parameterizes an Antientropy instance.
type AntientropyConfig struct {
	// ShortPeriod is used for the first ShortRounds exchanges of every
	// session, LongPeriod afterwards.
	ShortPeriod float64
	LongPeriod  float64
	ShortRounds int
	// InitialDelay is the first nominal exchange time.
	InitialDelay float64
	// Blacklist excludes peers already contacted during the session.
	Blacklist bool
}

// Antientropy is a push exchange run by a PeriodicAction: every period
// the process contacts one live neighbor. It counts the exchanges it
// initiated and those it answered.
type Antientropy struct {
	cfg      AntientropyConfig
	selector PeerSelector
	timer    *PeriodicAction
	slot     int

	shortLeft        int
	sessionBlacklist *bitset.BitSet
	suppressed       bool

	initiated int
	responded int
}

// NewAntientropy creates the protocol for process id.
func NewAntientropy(ref *sim.EngineRef, selector PeerSelector, cfg AntientropyConfig, id, priority int) *Antientropy {
	a := &Antientropy{
		cfg:              cfg,
		selector:         selector,
		shortLeft:        cfg.ShortRounds,
		sessionBlacklist: bitset.New(0),
	}
	a.timer = NewPeriodicAction(ref, a, priority, id, cfg.InitialDelay)
	return a
}

// Attach installs the protocol in p's slot table and subscribes it to
// p's transitions. Every process must attach its instance at the same slot.
func (a *Antientropy) Attach(p sim.Process) {
	a.slot = p.AddProtocol(a)
	p.AddObserver(a)
}

// EventPerformed clears per-session state before handing the transition
// to the timer.
func (a *Antientropy) EventPerformed(e *sim.Engine, s sim.Schedulable, nextShift float64) error {
	a.sessionBlacklist.ClearAll()
	a.shortLeft = a.cfg.ShortRounds
	a.suppressed = false
	return a.timer.EventPerformed(e, s, nextShift)
}

func (a *Antientropy) IsDone() bool { return false }

// Suppress skips exchanges for the rest of the current session. The
// timer keeps running.
func (a *Antientropy) Suppress() { a.suppressed = true }

func (a *Antientropy) Initiated() int         { return a.initiated }
func (a *Antientropy) Responded() int         { return a.responded }
func (a *Antientropy) Timer() *PeriodicAction { return a.timer }

// Perform implements Action.
func (a *Antientropy) Perform(e *sim.Engine) (float64, error) {
	if !a.suppressed {
		if err := a.exchange(e); err != nil {
			return 0, err
		}
	}

	period := a.cfg.LongPeriod
	if a.shortLeft > 0 {
		period = a.cfg.ShortPeriod
	}
	return e.RawTime() + period, nil
}

// Grace implements Action.
func (a *Antientropy) Grace() float64 { return 0 }

func (a *Antientropy) exchange(e *sim.Engine) error {
	// Short rounds count even if no peer can be selected.
	defer func() {
		if a.shortLeft > 0 {
			a.shortLeft--
		}
	}()

	peer, err := a.selector.SelectPeer(e, a.timer.ID(), a.sessionBlacklist)
	if err != nil {
		return err
	}
	if peer == NoSelection {
		return nil
	}
	if a.cfg.Blacklist {
		a.sessionBlacklist.Set(uint(peer))
	}

	other, ok := e.Process(peer).Protocol(a.slot).(*Antientropy)
	if !ok {
		return fmt.Errorf("process %d has no antientropy at slot %d", peer, a.slot)
	}
	a.initiated++
	other.responded++
	return nil
}

var (
	_ sim.Observer = (*Antientropy)(nil)
	_ Action       = (*Antientropy)(nil)
)
