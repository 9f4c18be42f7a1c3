package cmd

import (
	"math"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/churn-sim/sim/churn"
	"github.com/inference-sim/churn-sim/sim/measure"
)

// --- churn-sim avt ---

var (
	avtPath string
	avtCut  int64
)

// avtStats describes an AVT file before it is replayed.
type avtStats struct {
	Traces       int         `yaml:"traces"`
	End          int64       `yaml:"end"`
	Sessions     sampleStats `yaml:"sessions_per_trace"`
	SessionLen   sampleStats `yaml:"session_length"`
	Availability sampleStats `yaml:"availability"`
}

type sampleStats struct {
	Mean float64 `yaml:"mean"`
	Std  float64 `yaml:"std"`
	Min  float64 `yaml:"min"`
	Max  float64 `yaml:"max"`
}

func numbers(s *measure.IncrementalStats) sampleStats {
	return sampleStats{Mean: s.Mean(), Std: s.StdDev(), Min: s.Min(), Max: s.Max()}
}

// summarizeAVT computes per-trace session statistics. Availability is
// measured over [0, End).
func summarizeAVT(traces *churn.AVTTraces) avtStats {
	var sessions, lengths, availability measure.IncrementalStats
	for _, id := range traces.IDs() {
		events := traces.Traces[id]
		up := int64(0)
		for i := 0; i+1 < len(events); i += 2 {
			up += events[i+1] - events[i]
			lengths.Add(float64(events[i+1] - events[i]))
		}
		sessions.Add(float64(len(events) / 2))
		if traces.End > 0 {
			availability.Add(float64(up) / float64(traces.End))
		}
	}
	return avtStats{
		Traces:       len(traces.Traces),
		End:          traces.End,
		Sessions:     numbers(&sessions),
		SessionLen:   numbers(&lengths),
		Availability: numbers(&availability),
	}
}

var avtCmd = &cobra.Command{
	Use:   "avt",
	Short: "Summarize an AVT availability trace",
	Long:  "Decode an AVT availability trace the way the avt churn mode does and print per-trace session statistics as YAML.",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel(logLevel)
		cut := avtCut
		if cut <= 0 {
			cut = math.MaxInt64
		}
		traces, err := churn.LoadAVT(avtPath, cut)
		if err != nil {
			logrus.Fatalf("AVT decoding failed: %v", err)
		}
		if err := writeYAML(os.Stdout, summarizeAVT(traces)); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

func init() {
	avtCmd.Flags().StringVar(&avtPath, "file", "", "Path to AVT trace file")
	avtCmd.Flags().Int64Var(&avtCut, "cut", 0, "Drop sessions starting at or after this time (0 = keep all)")
	avtCmd.Flags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	_ = avtCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(avtCmd)
}
