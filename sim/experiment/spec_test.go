package experiment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/churn-sim/sim/churn"
	"github.com/inference-sim/churn-sim/sim/internal/testutil"
)

const antientropySpec = `
seed: 7
size: 20
burnin: 50
horizon: 500
repetitions: 3
churn:
  mode: renewal
  up: {type: exponential, params: {mean: 3}}
  down: {type: exponential, params: {mean: 1}}
topology:
  kind: ring
  degree: 2
protocol:
  kind: antientropy
  short_period: 1
  long_period: 5
  short_rounds: 2
  initial_delay: 1
  blacklist: true
  priority_spread: 3
trace:
  level: transitions
`

func TestParseSpec_FullSpec(t *testing.T) {
	spec, err := ParseSpec([]byte(antientropySpec))
	require.NoError(t, err)

	assert.Equal(t, int64(7), spec.Seed)
	assert.Equal(t, 20, spec.Size)
	assert.Equal(t, 3, spec.RepetitionCount())
	assert.Equal(t, "renewal", spec.Churn.Mode)
	require.NotNil(t, spec.Churn.Up)
	assert.Equal(t, churn.DistSpec{Type: "exponential", Params: map[string]float64{"mean": 3}}, *spec.Churn.Up)
	require.NotNil(t, spec.Topology)
	assert.Equal(t, 2, spec.Topology.Degree)
	require.NotNil(t, spec.Protocol)
	assert.Equal(t, 5.0, spec.Protocol.LongPeriod)
	assert.True(t, spec.Protocol.Blacklist)
	assert.Equal(t, "transitions", spec.Trace.Level)
	assert.NoError(t, spec.Validate())
}

func TestParseSpec_UnknownField_Rejected(t *testing.T) {
	// GIVEN a spec with a typo
	_, err := ParseSpec([]byte("seed: 1\nsize: 3\nhorizn: 10\n"))

	// THEN strict parsing rejects it
	assert.Error(t, err)
}

func TestLoadSpec_File(t *testing.T) {
	path := testutil.WriteFile(t, "exp.yaml", antientropySpec)

	spec, err := LoadSpec(path)
	require.NoError(t, err)
	assert.Equal(t, 20, spec.Size)

	_, err = LoadSpec(testutil.MissingFile(t, "missing.yaml"))
	assert.Error(t, err)
}

func validSpec() *Spec {
	return &Spec{
		Size:    10,
		Horizon: 100,
		Churn: ChurnSpec{
			Mode: "renewal",
			Up:   &churn.DistSpec{Type: "exponential", Params: map[string]float64{"mean": 2}},
			Down: &churn.DistSpec{Type: "exponential", Params: map[string]float64{"mean": 1}},
		},
		Topology: &TopologySpec{Kind: "ring", Degree: 1},
		Protocol: &ProtocolSpec{Kind: "flood", Period: 1},
	}
}

func TestSpec_Validate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *Spec)
		want   string
	}{
		{"zero size", func(s *Spec) { s.Size = 0 }, "size"},
		{"negative burnin", func(s *Spec) { s.Burnin = -1 }, "burnin"},
		{"negative max events", func(s *Spec) { s.MaxEvents = -1 }, "max_events"},
		{"unknown churn", func(s *Spec) { s.Churn.Mode = "bursty" }, "churn mode"},
		{"missing down", func(s *Spec) { s.Churn.Down = nil }, "up and down"},
		{"bad distribution", func(s *Spec) { s.Churn.Up = &churn.DistSpec{Type: "exponential"} }, "churn.up"},
		{"unknown yao mode", func(s *Spec) { s.Churn = ChurnSpec{Mode: "yao", YaoMode: "X"} }, "yao_mode"},
		{"avt without file", func(s *Spec) { s.Churn = ChurnSpec{Mode: "avt"} }, "trace_file"},
		{"bad initial", func(s *Spec) { s.Churn.Initial = "sideways" }, "initial"},
		{"protocol without topology", func(s *Spec) { s.Topology = nil }, "topology"},
		{"ring too dense", func(s *Spec) { s.Topology.Degree = 5 }, "ring degree"},
		{"bad gnp", func(s *Spec) { s.Topology = &TopologySpec{Kind: "gnp", Probability: 2} }, "probability"},
		{"edgelist without file", func(s *Spec) { s.Topology = &TopologySpec{Kind: "edgelist"} }, "file"},
		{"unknown protocol", func(s *Spec) { s.Protocol.Kind = "gossip" }, "protocol"},
		{"flood without period", func(s *Spec) { s.Protocol.Period = 0 }, "protocol.period"},
		{"flood source out of range", func(s *Spec) { s.Protocol.Source = 10 }, "source"},
		{"antientropy without period", func(s *Spec) { s.Protocol = &ProtocolSpec{Kind: "antientropy"} }, "long_period"},
		{"bad trace level", func(s *Spec) { s.Trace.Level = "verbose" }, "trace level"},
		{"endless run", func(s *Spec) { s.Horizon = 0 }, "never runs out"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSpec()
			tt.mutate(s)
			err := s.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSpec_Validate_TerminatingRunNeedsNoHorizon(t *testing.T) {
	// GIVEN fixed processes and a pausing flood
	s := &Spec{
		Size:     4,
		Churn:    ChurnSpec{Mode: "fixed"},
		Topology: &TopologySpec{Kind: "complete"},
		Protocol: &ProtocolSpec{Kind: "flood", Period: 1, Pausing: true},
	}

	// THEN no stop condition is required
	assert.NoError(t, s.Validate())

	// AND a non-pausing runner could tick forever
	s.Protocol.Pausing = false
	assert.Error(t, s.Validate())
}
