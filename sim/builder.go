package sim

import (
	"fmt"
	"math"
)

// EngineBuilder collects the inputs of a run and builds its Engine.
// A builder can only build a single engine.
type EngineBuilder struct {
	processes     []Process
	bindings      []binding
	burninActions []Observer
	preschedule   []Schedulable
	extraPermits  int
	burnin        float64
	maxEvents     int64
	horizon       float64
	ref           *EngineRef
	used          bool
}

// NewEngineBuilder creates an empty builder with no stop condition
// other than queue exhaustion and permit release.
func NewEngineBuilder() *EngineBuilder {
	return &EngineBuilder{
		processes:     make([]Process, 0),
		bindings:      make([]binding, 0),
		burninActions: make([]Observer, 0),
		preschedule:   make([]Schedulable, 0),
		horizon:       math.Inf(1),
		ref:           &EngineRef{},
	}
}

// AddProcess appends processes. Their ids must match their position.
func (b *EngineBuilder) AddProcess(processes ...Process) {
	b.processes = append(b.processes, processes...)
}

// AddObserver registers an observer for an event type.
//
// Binding observers keep the run alive until they report done or call
// Engine.Unbound. Non-listening observers are never dispatched to by the
// Engine; this is useful for binding observers that get their events
// from other channels, such as per-process observers.
func (b *EngineBuilder) AddObserver(o Observer, eventType EventType, isBinding, listening bool) {
	b.bindings = append(b.bindings, binding{
		observer:  o,
		eventType: eventType,
		isBinding: isBinding,
		listening: listening,
	})
}

// AddBurninAction registers an observer called exactly once, right
// before the first post-burn-in dispatch.
func (b *EngineBuilder) AddBurninAction(o Observer) {
	b.burninActions = append(b.burninActions, o)
}

// Preschedule queues Schedulables before the run starts.
func (b *EngineBuilder) Preschedule(s ...Schedulable) {
	b.preschedule = append(b.preschedule, s...)
}

// SetBurnin sets the burn-in period, during which no observers are
// notified of events.
func (b *EngineBuilder) SetBurnin(burnin float64) {
	b.burnin = burnin
}

// SetExtraPermits sets the number of permits held on top of the binding
// observers. Extra permits are released through Engine.ReleasePermit.
func (b *EngineBuilder) SetExtraPermits(permits int) {
	b.extraPermits = permits
}

// StopAt sets the external stop conditions. maxEvents <= 0 disables the
// event limit; horizon is post-burn-in time, and +Inf disables it.
func (b *EngineBuilder) StopAt(maxEvents int64, horizon float64) {
	b.maxEvents = maxEvents
	b.horizon = horizon
}

// Permits returns the number of permits the engine will start with.
func (b *EngineBuilder) Permits() int {
	count := b.extraPermits
	for _, bd := range b.bindings {
		if bd.isBinding {
			count++
		}
	}
	return count
}

// Reference returns a handle that resolves to the engine once Build
// has been called. Components built before the engine keep the handle
// instead of a pointer to the engine itself.
func (b *EngineBuilder) Reference() *EngineRef {
	return b.ref
}

// Build validates the collected inputs and constructs the Engine.
func (b *EngineBuilder) Build() (*Engine, error) {
	if b.used {
		return nil, fmt.Errorf("this builder can only build one engine")
	}
	for i, p := range b.processes {
		if p == nil {
			return nil, fmt.Errorf("process %d is nil", i)
		}
		if p.ID() != i {
			return nil, fmt.Errorf("process at index %d has id %d; ids must be contiguous and match their index", i, p.ID())
		}
	}
	if b.burnin < 0 || math.IsNaN(b.burnin) {
		return nil, fmt.Errorf("burn-in must be non-negative, got %g", b.burnin)
	}
	if b.extraPermits < 0 {
		return nil, fmt.Errorf("extra permits must be non-negative, got %d", b.extraPermits)
	}
	if b.horizon <= 0 || math.IsNaN(b.horizon) {
		return nil, fmt.Errorf("horizon must be positive, got %g", b.horizon)
	}
	if b.Permits() == 0 {
		return nil, fmt.Errorf("at least one binding observer or extra permit is required")
	}
	for _, s := range b.preschedule {
		if s.Time() < 0 {
			return nil, fmt.Errorf("prescheduled %T has negative time %g", s, s.Time())
		}
	}

	b.used = true
	e := newEngine(b)
	b.ref.engine = e
	return e, nil
}

// EngineRef is a late-bound handle to an Engine.
type EngineRef struct {
	engine *Engine
}

// Get returns the engine. Calling it before Build is a usage error.
func (r *EngineRef) Get() *Engine {
	if r.engine == nil {
		usagePanic("reference", "engine not built yet")
	}
	return r.engine
}

// Built reports whether the referenced engine exists.
func (r *EngineRef) Built() bool {
	return r.engine != nil
}
