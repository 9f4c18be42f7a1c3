package sim

import "fmt"

// FixedProcess never changes state. It announces itself once at time
// zero so observers learn about it, and is never rescheduled.
type FixedProcess struct {
	processBase

	id        int
	state     State
	announced bool
}

func NewFixedProcess(id int, state State) *FixedProcess {
	return &FixedProcess{id: id, state: state}
}

func (p *FixedProcess) Time() float64   { return 0 }
func (p *FixedProcess) Type() EventType { return ProcessEventType }
func (p *FixedProcess) IsExpired() bool { return p.announced }

func (p *FixedProcess) Scheduled(e *Engine) error {
	if p.announced {
		usagePanic("fixed", "fixed process %d can't be rescheduled", p.id)
	}
	p.announced = true
	return p.notifyObservers(e, p, Expired)
}

func (p *FixedProcess) ID() int        { return p.id }
func (p *FixedProcess) State() State   { return p.state }
func (p *FixedProcess) IsUp() bool     { return p.state == Up }
func (p *FixedProcess) String() string { return fmt.Sprintf("[%d, %s, fixed]", p.id, p.state) }

func (p *FixedProcess) Uptime(clock Clock) float64 {
	if p.IsUp() {
		return clock.RawTime()
	}
	return 0
}

func (p *FixedProcess) AsymptoticAvailability() float64 {
	if p.IsUp() {
		return 1
	}
	return 0
}

var _ Process = (*FixedProcess)(nil)
var _ Process = (*RenewalProcess)(nil)
