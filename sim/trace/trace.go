package trace

// TraceLevel controls the verbosity of event tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelTransitions captures every post-burn-in process transition.
	TraceLevelTransitions TraceLevel = "transitions"
	// TraceLevelFull adds one record per cyclic runner tick.
	TraceLevelFull TraceLevel = "full"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:        true,
	TraceLevelTransitions: true,
	TraceLevelFull:        true,
	"":                    true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// Enabled reports whether level records anything.
func (l TraceLevel) Enabled() bool {
	return l != TraceLevelNone && l != ""
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
	// MaxRecords caps each record list; 0 means unbounded.
	MaxRecords int
}

// SimulationTrace collects event records during a run.
type SimulationTrace struct {
	Config      TraceConfig
	Transitions []TransitionRecord
	Ticks       []TickRecord
	Dropped     int
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		Config:      config,
		Transitions: make([]TransitionRecord, 0),
		Ticks:       make([]TickRecord, 0),
	}
}

func (st *SimulationTrace) full(n int) bool {
	return st.Config.MaxRecords > 0 && n >= st.Config.MaxRecords
}

// RecordTransition appends a process transition record.
func (st *SimulationTrace) RecordTransition(record TransitionRecord) {
	if st.full(len(st.Transitions)) {
		st.Dropped++
		return
	}
	st.Transitions = append(st.Transitions, record)
}

// RecordTick appends a runner tick record. Ignored below TraceLevelFull.
func (st *SimulationTrace) RecordTick(record TickRecord) {
	if st.Config.Level != TraceLevelFull {
		return
	}
	if st.full(len(st.Ticks)) {
		st.Dropped++
		return
	}
	st.Ticks = append(st.Ticks, record)
}
