package sim

import (
	"fmt"
	"hash/fnv"
	"math/rand"
)

// SimulationKey is the seed of one repetition. Equal keys and equal
// configurations give equal transition sequences and final uptimes.
type SimulationKey int64

// NewSimulationKey wraps seed.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// Random streams consumed by a run. Every process and every peer
// selector draws from its own stream, so adding a protocol does not
// shift the churn of the processes it runs on.
const (
	// SubsystemChurn assigns per-process churn parameters (Yao averages,
	// AVT trace shuffling). It is seeded with the key itself.
	SubsystemChurn = "churn"

	// SubsystemTopology draws generated graphs.
	SubsystemTopology = "topology"
)

// SubsystemProcess names the session-length stream of process id.
func SubsystemProcess(id int) string {
	return fmt.Sprintf("process_%d", id)
}

// SubsystemSelector names the peer-selection stream of process id.
func SubsystemSelector(id int) string {
	return fmt.Sprintf("selector_%d", id)
}

// PartitionedRNG hands out one *rand.Rand per named stream, all derived
// from a single SimulationKey. A stream's seed is the key mixed with the
// FNV-1a hash of its name, so streams do not depend on the order in
// which they are first requested. A PartitionedRNG belongs to one run
// and must not be shared between goroutines.
type PartitionedRNG struct {
	key     SimulationKey
	streams map[string]*rand.Rand
}

// NewPartitionedRNG returns an empty stream set for key.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:     key,
		streams: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns the stream called name, creating it on first use.
// Later calls with the same name return the same generator.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	rng, ok := p.streams[name]
	if !ok {
		rng = rand.New(rand.NewSource(p.seedFor(name)))
		p.streams[name] = rng
	}
	return rng
}

func (p *PartitionedRNG) seedFor(name string) int64 {
	if name == SubsystemChurn {
		return int64(p.key)
	}
	h := fnv.New64a()
	h.Write([]byte(name))
	return int64(p.key) ^ int64(h.Sum64())
}

// Key returns the key the streams derive from.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}
