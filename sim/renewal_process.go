package sim

import (
	"fmt"
	"math"
	"math/rand"
)

// uptimeTolerance absorbs floating-point drift between the accumulated
// uptime and the accumulated transition times.
const uptimeTolerance = 1e-9

// RenewalProcess alternates between up and down, drawing each session
// length independently from the distribution of the state it enters.
//
// Uptime is tracked optimistically: the whole up session is added at
// login and the unelapsed part is subtracted when queried. A +Inf
// sample keeps the process in the state it enters for good.
type RenewalProcess struct {
	processBase

	id    int
	up    Distribution
	down  Distribution
	rng   *rand.Rand
	state State

	nextEvent float64
	uptime    float64
	// loginAt is the start of the current session when it never ends.
	loginAt float64
}

// NewRenewalProcess creates a renewal process whose first transition
// happens at time zero, leaving the initial state.
func NewRenewalProcess(id int, up, down Distribution, initial State, rng *rand.Rand) *RenewalProcess {
	return &RenewalProcess{
		id:    id,
		up:    up,
		down:  down,
		rng:   rng,
		state: initial,
	}
}

// === Schedulable ===

func (p *RenewalProcess) Time() float64   { return p.nextEvent }
func (p *RenewalProcess) Type() EventType { return ProcessEventType }
func (p *RenewalProcess) IsExpired() bool { return false }

// Scheduled applies the pending transition and draws the next one.
func (p *RenewalProcess) Scheduled(e *Engine) error {
	var increment float64
	switch p.state {
	case Down:
		increment = p.sample(p.up, Up)
		p.state = Up
		if math.IsInf(increment, 1) {
			p.loginAt = p.nextEvent
		} else {
			// Overestimate, corrected in Uptime.
			p.uptime += increment
		}
	case Up:
		increment = p.sample(p.down, Down)
		p.state = Down
	}

	p.nextEvent += increment

	return p.notifyObservers(e, p, p.nextEvent)
}

func (p *RenewalProcess) sample(d Distribution, entering State) float64 {
	v := d.Sample(p.rng)
	if !(v > 0) {
		usagePanic("renewal", "process %d drew non-positive %s duration %g", p.id, entering, v)
	}
	return v
}

// === Process ===

func (p *RenewalProcess) ID() int        { return p.id }
func (p *RenewalProcess) State() State   { return p.state }
func (p *RenewalProcess) IsUp() bool     { return p.state == Up }
func (p *RenewalProcess) String() string { return fmt.Sprintf("[%d, %s]", p.id, p.state) }

func (p *RenewalProcess) AsymptoticAvailability() float64 {
	up := p.up.Expectation()
	return up / (up + p.down.Expectation())
}

func (p *RenewalProcess) Uptime(clock Clock) float64 {
	if p.IsUp() && math.IsInf(p.nextEvent, 1) {
		return p.uptime + clock.RawTime() - p.loginAt
	}

	delta := 0.0
	if p.IsUp() {
		delta = p.nextEvent - clock.RawTime()
	}

	uptime := p.uptime - delta
	if uptime < 0 {
		if uptime < -uptimeTolerance*math.Max(1, clock.RawTime()) {
			panic(fmt.Sprintf("internal error: process %d has negative uptime %g", p.id, uptime))
		}
		return 0
	}
	return uptime
}
