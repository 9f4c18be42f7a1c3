package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/inference-sim/churn-sim/sim/experiment"
)

var (
	// CLI flags for the run command
	configPath  string // Experiment spec YAML
	seed        int64  // Overrides the spec seed when set
	repetitions int    // Overrides the spec repetitions when set
	workers     int    // Concurrent repetitions (0 = NumCPU)
	logLevel    string // Log verbosity level
	traceLevel  string // Overrides the spec trace level when set
	summaryOnly bool   // Print only the batch summary
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "churn-sim",
	Short: "Discrete-event simulator for protocols under churn",
}

// batchOutput is the YAML document printed by the run command.
type batchOutput struct {
	Runs    []*experiment.RunResult  `yaml:"runs,omitempty"`
	Summary *experiment.BatchSummary `yaml:"summary"`
}

// runCmd executes every repetition of an experiment spec
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run an experiment spec",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel(logLevel)

		spec, err := experiment.LoadSpec(configPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		applyOverrides(cmd, spec)

		startTime := time.Now()
		logrus.Infof("Starting %d repetitions of %d processes (seed %d, burn-in %g, horizon %g)",
			spec.RepetitionCount(), spec.Size, spec.Seed, spec.Burnin, spec.Horizon)

		summary, err := runExperiment(cmd.Context(), spec, workers, os.Stdout, summaryOnly)
		if err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}
		logrus.Infof("Simulation complete in %v: availability %.4f ± %.4f over %d runs",
			time.Since(startTime), summary.Availability.Mean, summary.Availability.HalfWidth, summary.Runs)
	},
}

func setLogLevel(name string) {
	level, err := logrus.ParseLevel(name)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", name)
	}
	logrus.SetLevel(level)
}

// applyOverrides copies the flags the user set explicitly into spec.
func applyOverrides(cmd *cobra.Command, spec *experiment.Spec) {
	if cmd.Flags().Changed("seed") {
		logrus.Infof("CLI --seed %d overrides spec seed %d", seed, spec.Seed)
		spec.Seed = seed
	}
	if cmd.Flags().Changed("repetitions") {
		spec.Repetitions = repetitions
	}
	if cmd.Flags().Changed("trace") {
		spec.Trace.Level = traceLevel
	}
}

// runExperiment prepares spec, runs every repetition and writes the
// results to w as YAML.
func runExperiment(ctx context.Context, spec *experiment.Spec, workers int, w io.Writer, summaryOnly bool) (*experiment.BatchSummary, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	plan, err := experiment.Prepare(spec)
	if err != nil {
		return nil, err
	}
	results, err := experiment.RunBatch(ctx, plan, workers)
	if err != nil {
		return nil, err
	}
	out := batchOutput{Summary: experiment.Summarize(results)}
	if !summaryOnly {
		out.Runs = results
	}
	if err := writeYAML(w, out); err != nil {
		return nil, err
	}
	return out.Summary, nil
}

// writeYAML marshals v to YAML and writes it to w.
func writeYAML(w io.Writer, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("YAML marshal failed: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	runCmd.Flags().StringVar(&configPath, "config", "", "Path to experiment spec YAML")
	_ = runCmd.MarkFlagRequired("config")
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Base seed (overrides the spec)")
	runCmd.Flags().IntVar(&repetitions, "repetitions", 1, "Number of repetitions (overrides the spec)")
	runCmd.Flags().IntVar(&workers, "workers", 0, "Repetitions run concurrently (0 = number of CPUs)")
	runCmd.Flags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.Flags().StringVar(&traceLevel, "trace", "none", "Trace level (none, transitions, full; overrides the spec)")
	runCmd.Flags().BoolVar(&summaryOnly, "summary-only", false, "Print only the batch summary")

	// Attach `run` as a subcommand to `root`
	rootCmd.AddCommand(runCmd)
}
