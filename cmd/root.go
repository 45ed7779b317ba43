package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/abr-sim/abr-sim/sim"
)

var (
	// Shared CLI flags
	seed       int64  // Seed controlling all simulation randomness
	logLevel   string // Log verbosity level
	configPath string // YAML config file (transition matrix, states, sweep defaults)
	numSteps   int    // Segments per trace; 0 = use config value
	runs       int    // Monte Carlo trials; 0 = use config value

	// `run` flags
	segmentLength float64 // Segment length in seconds for the single-config run
	smoothWindow  int     // Smoothing window for the single-config run

	// `sweep` flags
	outputPath string // Result table destination
	workers    int    // Sweep cells simulated concurrently
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "abrsim",
	Short: "Monte Carlo simulator for adaptive-bitrate streaming over Markov channels",
}

// setupLogging applies the --log flag before any command runs.
func setupLogging() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// resolveInt prefers a flag value over the config value when the flag is set.
func resolveInt(flagVal, cfgVal int) int {
	if flagVal > 0 {
		return flagVal
	}
	return cfgVal
}

// runCmd samples one trace, replays it once, then runs a Monte Carlo batch
// for the same configuration and prints the summary statistics.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one playback simulation plus a Monte Carlo batch",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		cfg, err := LoadSimConfig(configPath)
		if err != nil {
			logrus.Fatalf("Failed to load config: %v", err)
		}

		steps := resolveInt(numSteps, cfg.Defaults.NumSteps)
		trials := resolveInt(runs, cfg.Defaults.Runs)
		playbackCfg := sim.PlaybackConfig{SegmentLength: segmentLength, SmoothWindow: smoothWindow}
		key := sim.NewSimulationKey(seed)

		logrus.Infof("Starting simulation: %d states, %d steps, segment_length=%gs, smooth_window=%d",
			len(cfg.States), steps, segmentLength, smoothWindow)

		trace, err := sim.SampleTrace(steps, cfg.P, cfg.States, sim.NewPartitionedRNG(key).ForSubsystem("demo_trace"))
		if err != nil {
			logrus.Fatalf("Trace sampling failed: %v", err)
		}
		preview := trace
		if len(preview) > 20 {
			preview = preview[:20]
		}
		fmt.Printf("Throughput trace (first %d steps): %v\n", len(preview), []float64(preview))

		outcome, err := sim.Simulate(trace, playbackCfg)
		if err != nil {
			logrus.Fatalf("Playback simulation failed: %v", err)
		}
		fmt.Printf("Average chosen bitrate: %.1f kbps\n", outcome.AvgBitrate)
		fmt.Printf("Total rebuffer time:    %.1f seconds\n", outcome.TotalStall)

		outcomes, err := sim.RunTrials(cfg.P, cfg.States, steps, playbackCfg, trials, key.Derive("montecarlo"))
		if err != nil {
			logrus.Fatalf("Monte Carlo run failed: %v", err)
		}
		stats, err := sim.SummarizeOutcomes(outcomes)
		if err != nil {
			logrus.Fatalf("Monte Carlo aggregation failed: %v", err)
		}
		fmt.Printf("=== Monte Carlo summary (n=%d) ===\n", trials)
		fmt.Printf("Avg bitrate: %.1f ± %.1f kbps\n", stats.MeanBitrate, stats.SDBitrate)
		fmt.Printf("Rebuffer   : %.1f ± %.1f sec\n", stats.MeanStall, stats.SDStall)
	},
}

// sweepCmd runs the full parameter sweep and writes the result table.
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run the full parameter sweep and write the result table",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		cfg, err := LoadSimConfig(configPath)
		if err != nil {
			logrus.Fatalf("Failed to load config: %v", err)
		}

		sweepCfg := sim.SweepConfig{
			Matrix:         cfg.P,
			States:         cfg.States,
			NumSteps:       resolveInt(numSteps, cfg.Defaults.NumSteps),
			SegmentLengths: cfg.Defaults.SegmentLengths,
			SmoothWindows:  cfg.Defaults.SmoothWindows,
			Runs:           resolveInt(runs, cfg.Defaults.Runs),
			Workers:        workers,
			Key:            sim.NewSimulationKey(seed),
		}

		logrus.Infof("Starting sweep: %d segment lengths x %d smoothing windows, %d runs per cell, %d steps per trace",
			len(sweepCfg.SegmentLengths), len(sweepCfg.SmoothWindows), sweepCfg.Runs, sweepCfg.NumSteps)
		startTime := time.Now()

		cells, err := sim.Sweep(sweepCfg)
		if err != nil {
			logrus.Fatalf("Sweep failed: %v", err)
		}
		if err := sim.WriteTableFile(outputPath, cells); err != nil {
			logrus.Fatalf("Failed to write result table: %v", err)
		}

		logrus.Infof("Sweep complete: %d cells in %s", len(cells), time.Since(startTime).Round(time.Millisecond))
		fmt.Printf("Wrote %s\n", outputPath)
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", 42, "Seed controlling all simulation randomness")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "YAML config file (falls back to built-in defaults if missing)")
	rootCmd.PersistentFlags().IntVar(&numSteps, "num-steps", 0, "Segments per trace (0 = config value)")
	rootCmd.PersistentFlags().IntVar(&runs, "runs", 0, "Monte Carlo trials per configuration (0 = config value)")

	runCmd.Flags().Float64Var(&segmentLength, "segment-length", 2.0, "Segment length in seconds")
	runCmd.Flags().IntVar(&smoothWindow, "smooth-window", 3, "Trailing samples averaged for quality selection")

	sweepCmd.Flags().StringVar(&outputPath, "output", "sweep_results.csv", "Result table output path")
	sweepCmd.Flags().IntVar(&workers, "workers", 1, "Sweep cells simulated concurrently (1 = sequential)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(sweepCmd)
}
