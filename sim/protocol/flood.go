package protocol

import (
	"fmt"
	"math"

	"github.com/bits-and-blooms/bitset"

	"github.com/inference-sim/churn-sim/sim"
	"github.com/inference-sim/churn-sim/sim/topology"
)

// Flood disseminates a single message by push. A reached process is
// Active while it has live uninformed neighbors to contact, Waiting when
// none is up, and Done once all its neighbors are known to have the message.
type Flood struct {
	id       int
	slot     int
	graph    topology.Graph
	selector PeerSelector

	history   *bitset.BitSet
	state     CyclicState
	reachedAt float64
}

func NewFlood(id int, graph topology.Graph, selector PeerSelector) *Flood {
	return &Flood{
		id:        id,
		graph:     graph,
		selector:  selector,
		history:   bitset.New(uint(graph.Size())),
		state:     Idle,
		reachedAt: math.NaN(),
	}
}

// Attach installs the protocol in p's slot table and returns the slot.
func (f *Flood) Attach(p sim.Process) int {
	f.slot = p.AddProtocol(f)
	return f.slot
}

func (f *Flood) State() CyclicState { return f.state }

// Reached reports whether the message got here.
func (f *Flood) Reached() bool { return !math.IsNaN(f.reachedAt) }

// ReachedAt is the post-burn-in time the message arrived, or NaN.
func (f *Flood) ReachedAt() float64 { return f.reachedAt }

// Informed returns the number of processes this one knows have the message.
func (f *Flood) Informed() int { return int(f.history.Count()) }

// Seed marks this process as the source of the message.
func (f *Flood) Seed(e *sim.Engine) error {
	return f.receive(e.Time(), nil)
}

func (f *Flood) NextCycle(e *sim.Engine, p sim.Process) error {
	if f.state == Done || !f.Reached() || !p.IsUp() {
		return nil
	}

	peer, err := f.selector.SelectPeer(e, f.id, f.history)
	if err != nil {
		return err
	}
	if peer == NoSelection {
		f.state = Waiting
		return nil
	}
	f.state = Active

	other, ok := e.Process(peer).Protocol(f.slot).(*Flood)
	if !ok {
		return fmt.Errorf("process %d has no flood at slot %d", peer, f.slot)
	}
	if err := other.receive(e.Time(), f.history); err != nil {
		return err
	}
	f.history.InPlaceUnion(other.history)
	return f.checkDone()
}

func (f *Flood) receive(t float64, history *bitset.BitSet) error {
	if !f.Reached() {
		f.reachedAt = t
		f.history.Set(uint(f.id))
		f.state = Active
	}
	if history != nil {
		f.history.InPlaceUnion(history)
	}
	return f.checkDone()
}

func (f *Flood) checkDone() error {
	if f.state == Done || !f.Reached() {
		return nil
	}
	neighbors, err := f.graph.Neighbors(f.id)
	if err != nil {
		return err
	}
	for _, n := range neighbors {
		if !f.history.Test(uint(n)) {
			return nil
		}
	}
	f.state = Done
	return nil
}

var _ CyclicProtocol = (*Flood)(nil)
