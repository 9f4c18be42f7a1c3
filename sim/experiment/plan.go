package experiment

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/churn-sim/sim"
	"github.com/inference-sim/churn-sim/sim/churn"
	"github.com/inference-sim/churn-sim/sim/measure"
	"github.com/inference-sim/churn-sim/sim/protocol"
	"github.com/inference-sim/churn-sim/sim/topology"
	"github.com/inference-sim/churn-sim/sim/trace"
)

// TickEventType is the event type of the flood runner's ticks.
const TickEventType sim.EventType = 1

// Plan is a validated Spec with its input files loaded. It is read-only
// once prepared and safe to share between concurrent builds.
type Plan struct {
	Spec *Spec

	traces *churn.AVTTraces
	graph  *topology.Static // edge list, nil for generated topologies
}

// Prepare validates spec and loads the files it references.
func Prepare(spec *Spec) (*Plan, error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid experiment spec: %w", err)
	}
	plan := &Plan{Spec: spec}

	if spec.Churn.Mode == "avt" {
		cut := spec.Churn.Cut
		if cut == 0 {
			cut = math.MaxInt64
		}
		traces, err := churn.LoadAVT(spec.Churn.TraceFile, cut)
		if err != nil {
			return nil, err
		}
		plan.traces = traces
	}
	if spec.Topology != nil && spec.Topology.Kind == "edgelist" {
		g, err := topology.LoadEdgeList(spec.Topology.File)
		if err != nil {
			return nil, err
		}
		if g.Size() > spec.Size {
			return nil, fmt.Errorf("edge list has %d vertices but size is %d", g.Size(), spec.Size)
		}
		if g.Size() < spec.Size {
			// Vertices missing from the list are isolated.
			if g, err = g.Grow(spec.Size); err != nil {
				return nil, err
			}
		}
		plan.graph = g
	}
	return plan, nil
}

// SeedFor returns the seed of a repetition.
func (p *Plan) SeedFor(repetition int) int64 {
	return p.Spec.Seed + int64(repetition)
}

// Run is a built, not yet executed, repetition.
type Run struct {
	Repetition int
	Seed       int64
	Engine     *sim.Engine

	snapshot *measure.UptimeSnapshot
	trace    *trace.SimulationTrace
	graph    *topology.Static
	floods   []*protocol.Flood
	runner   *protocol.CyclicProtocolRunner
	exchange []*protocol.Antientropy

	// Vertices connected to the flood source, and the largest hop
	// distance among them.
	reachable    int
	eccentricity int
}

// Build constructs the engine of one repetition.
func (p *Plan) Build(repetition int) (*Run, error) {
	spec := p.Spec
	seed := p.SeedFor(repetition)
	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(seed))
	run := &Run{Repetition: repetition, Seed: seed}

	processes, err := p.processes(rng)
	if err != nil {
		return nil, err
	}

	b := sim.NewEngineBuilder()
	b.AddProcess(processes...)
	b.SetBurnin(spec.Burnin)
	horizon := math.Inf(1)
	if spec.Horizon > 0 {
		horizon = spec.Horizon
	}
	b.StopAt(spec.MaxEvents, horizon)

	run.snapshot = measure.NewUptimeSnapshot()
	b.AddBurninAction(run.snapshot)

	level := trace.TraceLevel(spec.Trace.Level)
	if level.Enabled() {
		run.trace = trace.NewSimulationTrace(trace.TraceConfig{Level: level, MaxRecords: spec.Trace.MaxRecords})
		b.AddObserver(&transitionRecorder{trace: run.trace}, sim.ProcessEventType, false, true)
	}

	if spec.Protocol != nil {
		g, err := p.topology(rng)
		if err != nil {
			return nil, err
		}
		if !g.Connected() {
			logrus.Warnf("repetition %d: %s topology is not connected", repetition, spec.Topology.Kind)
		}
		run.graph = g
		if err := run.wireProtocol(b, spec.Protocol, processes, rng); err != nil {
			return nil, err
		}
	}
	if b.Permits() == 0 {
		// Nothing binds the run; it ends on a stop condition.
		b.SetExtraPermits(1)
	}

	if run.Engine, err = b.Build(); err != nil {
		return nil, fmt.Errorf("building repetition %d: %w", repetition, err)
	}
	logrus.Debugf("repetition %d: %d processes, seed %d", repetition, len(processes), seed)
	return run, nil
}

func (p *Plan) processes(rng *sim.PartitionedRNG) ([]sim.Process, error) {
	c := p.Spec.Churn
	n := p.Spec.Size
	processes := make([]sim.Process, n)

	switch c.Mode {
	case "fixed":
		state := sim.Up
		if c.Initial == "down" {
			state = sim.Down
		}
		for i := range processes {
			processes[i] = sim.NewFixedProcess(i, state)
		}
	case "renewal":
		up, err := churn.NewDistribution(*c.Up)
		if err != nil {
			return nil, fmt.Errorf("churn.up: %w", err)
		}
		down, err := churn.NewDistribution(*c.Down)
		if err != nil {
			return nil, fmt.Errorf("churn.down: %w", err)
		}
		state := sim.Down
		if c.Initial == "up" {
			state = sim.Up
		}
		for i := range processes {
			processes[i] = sim.NewRenewalProcess(i, up, down, state, rng.ForSubsystem(sim.SubsystemProcess(i)))
		}
	case "yao":
		assignment, err := churn.YaoProcesses(c.YaoMode, n, rng)
		if err != nil {
			return nil, err
		}
		processes = assignment.Processes
	case "avt":
		timescale := c.Timescale
		if timescale == 0 {
			timescale = 1
		}
		processes = p.traces.Processes(n, timescale, c.Loop, rng)
	default:
		return nil, fmt.Errorf("unknown churn mode %q", c.Mode)
	}
	return processes, nil
}

func (p *Plan) topology(rng *sim.PartitionedRNG) (*topology.Static, error) {
	t := p.Spec.Topology
	n := p.Spec.Size
	switch t.Kind {
	case "ring":
		return topology.Ring(n, t.Degree)
	case "complete":
		return topology.Complete(n)
	case "gnp":
		return topology.GNP(n, t.Probability, rng.ForSubsystem(sim.SubsystemTopology))
	case "edgelist":
		return p.graph, nil
	default:
		return nil, fmt.Errorf("unknown topology %q", t.Kind)
	}
}

func (r *Run) wireProtocol(b *sim.EngineBuilder, spec *ProtocolSpec, processes []sim.Process, rng *sim.PartitionedRNG) error {
	selector := func(i int) protocol.PeerSelector {
		return protocol.NewRandomSelector(r.graph, rng.ForSubsystem(sim.SubsystemSelector(i)))
	}

	switch spec.Kind {
	case "antientropy":
		cfg := protocol.AntientropyConfig{
			ShortPeriod:  spec.ShortPeriod,
			LongPeriod:   spec.LongPeriod,
			ShortRounds:  spec.ShortRounds,
			InitialDelay: spec.InitialDelay,
			Blacklist:    spec.Blacklist,
		}
		ref := b.Reference()
		r.exchange = make([]*protocol.Antientropy, len(processes))
		for i, proc := range processes {
			priority := 0
			if spec.PrioritySpread > 0 {
				priority = i % spec.PrioritySpread
			}
			r.exchange[i] = protocol.NewAntientropy(ref, selector(i), cfg, i, priority)
			r.exchange[i].Attach(proc)
		}

	case "flood":
		r.floods = make([]*protocol.Flood, len(processes))
		for i, proc := range processes {
			r.floods[i] = protocol.NewFlood(i, r.graph, selector(i))
			r.floods[i].Attach(proc)
		}
		if spec.Pausing {
			pausing := protocol.NewPausingCyclicProtocolRunner(spec.Period, TickEventType, 0)
			pausing.Register(b, true)
			r.runner = pausing.CyclicProtocolRunner
			// The source may have logged in before burn-in ended.
			b.AddBurninAction(sim.ObserverFunc(func(e *sim.Engine, _ sim.Schedulable, _ float64) error {
				pausing.WakeUp(e)
				return nil
			}))
		} else {
			r.runner = protocol.NewCyclicProtocolRunner(spec.Period, TickEventType, 0)
			r.runner.Register(b, true)
		}
		dist, err := r.graph.HopDistances(spec.Source)
		if err != nil {
			return err
		}
		for _, d := range dist {
			if !math.IsInf(d, 1) {
				r.reachable++
				r.eccentricity = max(r.eccentricity, int(d))
			}
		}
		source := r.floods[spec.Source]
		b.AddBurninAction(sim.ObserverFunc(func(e *sim.Engine, _ sim.Schedulable, _ float64) error {
			return source.Seed(e)
		}))
		if r.trace != nil {
			b.AddObserver(&tickRecorder{trace: r.trace, runner: r.runner}, TickEventType, false, true)
		}

	default:
		return fmt.Errorf("unknown protocol %q", spec.Kind)
	}
	return nil
}
