package protocol

import (
	"math/rand"

	"github.com/bits-and-blooms/bitset"

	"github.com/inference-sim/churn-sim/sim"
	"github.com/inference-sim/churn-sim/sim/topology"
)

// NoSelection is returned by a PeerSelector when no peer qualifies.
// It is a normal outcome, not an error.
const NoSelection = -1

// PeerSelector picks a neighbor of id to contact.
type PeerSelector interface {
	// SelectPeer returns a neighbor of id that is up and not in exclude,
	// or NoSelection. exclude may be nil.
	SelectPeer(e *sim.Engine, id int, exclude *bitset.BitSet) (int, error)
}

// RandomSelector picks uniformly among the eligible neighbors.
type RandomSelector struct {
	graph topology.Graph
	rng   *rand.Rand
	buf   []int
}

func NewRandomSelector(graph topology.Graph, rng *rand.Rand) *RandomSelector {
	return &RandomSelector{graph: graph, rng: rng}
}

func (s *RandomSelector) SelectPeer(e *sim.Engine, id int, exclude *bitset.BitSet) (int, error) {
	neighbors, err := s.graph.Neighbors(id)
	if err != nil {
		return NoSelection, err
	}

	s.buf = s.buf[:0]
	for _, n := range neighbors {
		if exclude != nil && exclude.Test(uint(n)) {
			continue
		}
		if e.Process(n).IsUp() {
			s.buf = append(s.buf, n)
		}
	}
	if len(s.buf) == 0 {
		return NoSelection, nil
	}
	return s.buf[s.rng.Intn(len(s.buf))], nil
}
