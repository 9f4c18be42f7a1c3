package churn

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"github.com/inference-sim/churn-sim/sim"
)

// Parameters of the shifted Pareto distributions that assign each
// process its average session lengths in the Yao model.
const (
	yaoAlpha      = 3.0
	yaoBetaUptime = 1.0
	yaoBetaDown   = 2.0

	// lteCutoff is the lower truncation point of LTE sessions, in hours.
	lteCutoff = 5.0 / 3600
)

// YaoMode builds the up and down distributions of one process from its
// average session lengths.
type YaoMode struct {
	Name string
	Up   func(li float64) sim.Distribution
	Down func(di float64) sim.Distribution
}

// heavyTailed returns a mode with shifted Pareto sessions whose means
// match the assigned averages.
func heavyTailed(name string, alphaUp, alphaDown float64) YaoMode {
	return YaoMode{
		Name: name,
		Up: func(li float64) sim.Distribution {
			return NewShiftedPareto(alphaUp, (alphaUp-1)*li)
		},
		Down: func(di float64) sim.Distribution {
			return NewShiftedPareto(alphaDown, (alphaDown-1)*di)
		},
	}
}

var yaoModes = map[string]YaoMode{
	"H":  heavyTailed("H", 3.0, 3.0),
	"VH": heavyTailed("VH", 1.5, 1.5),
	"E": {
		Name: "E",
		Up:   func(li float64) sim.Distribution { return NewExponential(1 / li) },
		Down: func(di float64) sim.Distribution { return NewShiftedPareto(3.0, 2.0*di) },
	},
	"TE": {
		Name: "TE",
		Up:   func(li float64) sim.Distribution { return NewExponential(1 / li) },
		Down: func(di float64) sim.Distribution { return NewExponential(1 / di) },
	},
	"LTE": {
		Name: "LTE",
		Up:   func(li float64) sim.Distribution { return NewLTExponential(1/li, lteCutoff) },
		Down: func(di float64) sim.Distribution { return NewLTExponential(1/di, lteCutoff) },
	},
}

// YaoModeNames returns the known mode names, sorted.
func YaoModeNames() []string {
	names := make([]string, 0, len(yaoModes))
	for k := range yaoModes {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// LookupYaoMode returns the preset with the given name (case-insensitive).
func LookupYaoMode(name string) (YaoMode, error) {
	mode, ok := yaoModes[strings.ToUpper(name)]
	if !ok {
		return YaoMode{}, fmt.Errorf("unknown yao mode %q; valid modes: %s", name, strings.Join(YaoModeNames(), ", "))
	}
	return mode, nil
}

// AverageGenerator draws per-process average uptimes (li) and downtimes (di).
type AverageGenerator struct {
	up   *ShiftedPareto
	down *ShiftedPareto
	rng  *rand.Rand
}

// NewYaoAverageGenerator returns the generator of the Yao model: shifted
// Pareto averages with mean 0.5 for uptimes and 1 for downtimes.
func NewYaoAverageGenerator(rng *rand.Rand) *AverageGenerator {
	return &AverageGenerator{
		up:   NewShiftedPareto(yaoAlpha, yaoBetaUptime),
		down: NewShiftedPareto(yaoAlpha, yaoBetaDown),
		rng:  rng,
	}
}

func (g *AverageGenerator) NextLI() float64 { return g.up.Sample(g.rng) }
func (g *AverageGenerator) NextDI() float64 { return g.down.Sample(g.rng) }

// YaoAssignment is the outcome of YaoProcesses: the averages each
// process was assigned and the processes themselves, all initially down.
type YaoAssignment struct {
	LI        []float64
	DI        []float64
	Processes []sim.Process
}

// YaoProcesses creates n renewal processes under the named mode. The
// averages come from the churn subsystem of rng and each process draws
// its sessions from its own subsystem.
func YaoProcesses(mode string, n int, rng *sim.PartitionedRNG) (*YaoAssignment, error) {
	m, err := LookupYaoMode(mode)
	if err != nil {
		return nil, err
	}
	gen := NewYaoAverageGenerator(rng.ForSubsystem(sim.SubsystemChurn))
	a := &YaoAssignment{
		LI: make([]float64, n),
		DI: make([]float64, n),
	}
	for i := 0; i < n; i++ {
		a.LI[i] = gen.NextLI()
		a.DI[i] = gen.NextDI()
	}
	a.Processes = m.Processes(a.LI, a.DI, rng)
	return a, nil
}

// Processes creates one renewal process per (li, di) pair.
func (m YaoMode) Processes(li, di []float64, rng *sim.PartitionedRNG) []sim.Process {
	processes := make([]sim.Process, len(li))
	for i := range li {
		processes[i] = sim.NewRenewalProcess(i, m.Up(li[i]), m.Down(di[i]), sim.Down,
			rng.ForSubsystem(sim.SubsystemProcess(i)))
	}
	return processes
}
