package experiment

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/inference-sim/churn-sim/sim/churn"
	"github.com/inference-sim/churn-sim/sim/trace"
)

// Spec is the top-level experiment configuration.
// Loaded from YAML via LoadSpec(path).
type Spec struct {
	Seed        int64         `yaml:"seed"`
	Size        int           `yaml:"size"`
	Burnin      float64       `yaml:"burnin"`
	Horizon     float64       `yaml:"horizon,omitempty"`    // post-burn-in; 0 = unlimited
	MaxEvents   int64         `yaml:"max_events,omitempty"` // 0 = unlimited
	Repetitions int           `yaml:"repetitions,omitempty"`
	Churn       ChurnSpec     `yaml:"churn"`
	Topology    *TopologySpec `yaml:"topology,omitempty"`
	Protocol    *ProtocolSpec `yaml:"protocol,omitempty"`
	Trace       TraceSpec     `yaml:"trace,omitempty"`
}

// ChurnSpec selects how processes come and go.
type ChurnSpec struct {
	Mode string `yaml:"mode"` // fixed, renewal, yao or avt

	// fixed and renewal
	Initial string          `yaml:"initial,omitempty"` // up or down; fixed defaults to up, renewal to down
	Up      *churn.DistSpec `yaml:"up,omitempty"`
	Down    *churn.DistSpec `yaml:"down,omitempty"`

	// yao
	YaoMode string `yaml:"yao_mode,omitempty"`

	// avt
	TraceFile string  `yaml:"trace_file,omitempty"`
	Cut       int64   `yaml:"cut,omitempty"`       // 0 = keep everything
	Timescale float64 `yaml:"timescale,omitempty"` // default 1
	Loop      bool    `yaml:"loop,omitempty"`
}

// TopologySpec selects the overlay the protocols run on.
type TopologySpec struct {
	Kind        string  `yaml:"kind"` // ring, gnp, complete or edgelist
	Degree      int     `yaml:"degree,omitempty"`
	Probability float64 `yaml:"probability,omitempty"`
	File        string  `yaml:"file,omitempty"`
}

// ProtocolSpec selects the protocol run by every process.
type ProtocolSpec struct {
	Kind string `yaml:"kind"` // antientropy or flood

	// antientropy
	ShortPeriod    float64 `yaml:"short_period,omitempty"`
	LongPeriod     float64 `yaml:"long_period,omitempty"`
	ShortRounds    int     `yaml:"short_rounds,omitempty"`
	InitialDelay   float64 `yaml:"initial_delay,omitempty"`
	Blacklist      bool    `yaml:"blacklist,omitempty"`
	PrioritySpread int     `yaml:"priority_spread,omitempty"` // process i gets priority i mod spread

	// flood
	Period  float64 `yaml:"period,omitempty"`
	Source  int     `yaml:"source,omitempty"`
	Pausing bool    `yaml:"pausing,omitempty"`
}

// TraceSpec configures event tracing.
type TraceSpec struct {
	Level      string `yaml:"level,omitempty"`
	MaxRecords int    `yaml:"max_records,omitempty"`
}

// Valid value registries.
var (
	validChurnModes = map[string]bool{
		"fixed": true, "renewal": true, "yao": true, "avt": true,
	}
	validTopologies = map[string]bool{
		"ring": true, "gnp": true, "complete": true, "edgelist": true,
	}
	validProtocols = map[string]bool{
		"antientropy": true, "flood": true,
	}
	validInitialStates = map[string]bool{
		"": true, "up": true, "down": true,
	}
)

// LoadSpec reads and parses a YAML experiment specification file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadSpec(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading experiment spec: %w", err)
	}
	return ParseSpec(data)
}

// ParseSpec parses a YAML experiment specification.
func ParseSpec(data []byte) (*Spec, error) {
	var spec Spec
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&spec); err != nil {
		return nil, fmt.Errorf("parsing experiment spec: %w", err)
	}
	return &spec, nil
}

// Validate checks that all fields in the spec are valid.
func (s *Spec) Validate() error {
	if s.Size <= 0 {
		return fmt.Errorf("size must be positive, got %d", s.Size)
	}
	if err := validateFiniteNonNegative("burnin", s.Burnin); err != nil {
		return err
	}
	if err := validateFiniteNonNegative("horizon", s.Horizon); err != nil {
		return err
	}
	if s.MaxEvents < 0 {
		return fmt.Errorf("max_events must be non-negative, got %d", s.MaxEvents)
	}
	if s.Repetitions < 0 {
		return fmt.Errorf("repetitions must be non-negative, got %d", s.Repetitions)
	}
	if err := s.Churn.validate(); err != nil {
		return err
	}
	if s.Protocol != nil {
		if s.Topology == nil {
			return fmt.Errorf("protocol %q needs a topology", s.Protocol.Kind)
		}
		if err := s.Topology.validate(s.Size); err != nil {
			return err
		}
		if err := s.Protocol.validate(s.Size); err != nil {
			return err
		}
	}
	if !trace.IsValidTraceLevel(s.Trace.Level) {
		return fmt.Errorf("unknown trace level %q; valid: none, transitions, full", s.Trace.Level)
	}
	if s.Trace.MaxRecords < 0 {
		return fmt.Errorf("trace.max_records must be non-negative, got %d", s.Trace.MaxRecords)
	}
	if s.Horizon == 0 && s.MaxEvents == 0 && !s.terminates() {
		return fmt.Errorf("%s churn with %s never runs out of events; set horizon or max_events", s.Churn.Mode, s.protocolKind())
	}
	return nil
}

// terminates reports whether a run ends on its own: without churn the
// only recurring work is a pausing flood, which pauses for good once no
// process can make progress.
func (s *Spec) terminates() bool {
	if s.Churn.Mode != "fixed" {
		return false
	}
	return s.Protocol == nil || (s.Protocol.Kind == "flood" && s.Protocol.Pausing)
}

func (s *Spec) protocolKind() string {
	if s.Protocol == nil {
		return "no protocol"
	}
	return s.Protocol.Kind
}

// RepetitionCount returns the number of runs, at least one.
func (s *Spec) RepetitionCount() int {
	if s.Repetitions < 1 {
		return 1
	}
	return s.Repetitions
}

func (c *ChurnSpec) validate() error {
	if !validChurnModes[c.Mode] {
		return fmt.Errorf("unknown churn mode %q; valid: fixed, renewal, yao, avt", c.Mode)
	}
	if !validInitialStates[c.Initial] {
		return fmt.Errorf("unknown initial state %q; valid: up, down", c.Initial)
	}
	switch c.Mode {
	case "renewal":
		if c.Up == nil || c.Down == nil {
			return fmt.Errorf("renewal churn needs both up and down distributions")
		}
		if _, err := churn.NewDistribution(*c.Up); err != nil {
			return fmt.Errorf("churn.up: %w", err)
		}
		if _, err := churn.NewDistribution(*c.Down); err != nil {
			return fmt.Errorf("churn.down: %w", err)
		}
	case "yao":
		if _, err := churn.LookupYaoMode(c.YaoMode); err != nil {
			return fmt.Errorf("churn.yao_mode: %w", err)
		}
	case "avt":
		if c.TraceFile == "" {
			return fmt.Errorf("avt churn needs trace_file")
		}
		if c.Timescale < 0 || math.IsNaN(c.Timescale) || math.IsInf(c.Timescale, 0) {
			return fmt.Errorf("timescale must be positive and finite, got %g", c.Timescale)
		}
		if c.Cut < 0 {
			return fmt.Errorf("cut must be non-negative, got %d", c.Cut)
		}
	}
	return nil
}

func (t *TopologySpec) validate(size int) error {
	if !validTopologies[t.Kind] {
		return fmt.Errorf("unknown topology %q; valid: ring, gnp, complete, edgelist", t.Kind)
	}
	switch t.Kind {
	case "ring":
		if t.Degree < 1 || 2*t.Degree >= size {
			return fmt.Errorf("ring degree must be in [1, %d), got %d", (size+1)/2, t.Degree)
		}
	case "gnp":
		if t.Probability < 0 || t.Probability > 1 || math.IsNaN(t.Probability) {
			return fmt.Errorf("gnp probability must be in [0, 1], got %g", t.Probability)
		}
	case "edgelist":
		if t.File == "" {
			return fmt.Errorf("edgelist topology needs file")
		}
	}
	return nil
}

func (p *ProtocolSpec) validate(size int) error {
	if !validProtocols[p.Kind] {
		return fmt.Errorf("unknown protocol %q; valid: antientropy, flood", p.Kind)
	}
	switch p.Kind {
	case "antientropy":
		if err := validateFinitePositive("protocol.long_period", p.LongPeriod); err != nil {
			return err
		}
		if p.ShortRounds > 0 {
			if err := validateFinitePositive("protocol.short_period", p.ShortPeriod); err != nil {
				return err
			}
		}
		if p.ShortRounds < 0 || p.PrioritySpread < 0 {
			return fmt.Errorf("short_rounds and priority_spread must be non-negative")
		}
		if err := validateFiniteNonNegative("protocol.initial_delay", p.InitialDelay); err != nil {
			return err
		}
	case "flood":
		if err := validateFinitePositive("protocol.period", p.Period); err != nil {
			return err
		}
		if p.Source < 0 || p.Source >= size {
			return fmt.Errorf("flood source must be in [0, %d), got %d", size, p.Source)
		}
	}
	return nil
}

func validateFinitePositive(name string, v float64) error {
	if !(v > 0) || math.IsInf(v, 0) {
		return fmt.Errorf("%s must be positive and finite, got %g", name, v)
	}
	return nil
}

func validateFiniteNonNegative(name string, v float64) error {
	if !(v >= 0) || math.IsInf(v, 0) {
		return fmt.Errorf("%s must be non-negative and finite, got %g", name, v)
	}
	return nil
}
