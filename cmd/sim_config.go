package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	sim "github.com/abr-sim/abr-sim/sim"
)

// SweepDefaults holds the sweep dimensions from the config file.
type SweepDefaults struct {
	NumSteps       int       `yaml:"num_steps"`
	SegmentLengths []float64 `yaml:"segment_lengths"`
	SmoothWindows  []int     `yaml:"smooth_windows"`
	Runs           int       `yaml:"runs"`
}

// SimConfig represents the full config.yaml structure: the transition
// matrix, the throughput states, and the default sweep dimensions.
type SimConfig struct {
	P        sim.TransitionMatrix `yaml:"P"`
	States   sim.StateSet         `yaml:"states"`
	Defaults SweepDefaults        `yaml:"defaults"`
}

// DefaultSimConfig returns the built-in 3-state chain used when no config
// file is present: a slow/steady/fast channel at 500/1000/2000 kbps.
func DefaultSimConfig() *SimConfig {
	return &SimConfig{
		P: sim.TransitionMatrix{
			{0.7, 0.2, 0.1},
			{0.1, 0.8, 0.1},
			{0.1, 0.3, 0.6},
		},
		States: sim.StateSet{500, 1000, 2000},
		Defaults: SweepDefaults{
			NumSteps:       150,
			SegmentLengths: []float64{2.0, 4.0, 6.0},
			SmoothWindows:  []int{1, 3, 5, 7},
			Runs:           100,
		},
	}
}

// LoadSimConfig reads and parses the YAML simulation config. A missing file
// falls back to the built-in default chain; fields absent from the file are
// filled from the same defaults. Malformed content is an error, not a
// fallback. Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadSimConfig(path string) (*SimConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logrus.Warnf("config file %s not found, using built-in default parameters", path)
			return DefaultSimConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg SimConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	fillDefaults(&cfg)
	return &cfg, nil
}

// fillDefaults replaces absent config sections with the built-in defaults.
// Only zero-valued fields are filled; anything the file sets is kept as-is
// so that validation, not this loader, rejects bad values.
func fillDefaults(cfg *SimConfig) {
	def := DefaultSimConfig()
	if len(cfg.P) == 0 {
		cfg.P = def.P
	}
	if len(cfg.States) == 0 {
		cfg.States = def.States
	}
	if cfg.Defaults.NumSteps == 0 {
		cfg.Defaults.NumSteps = def.Defaults.NumSteps
	}
	if len(cfg.Defaults.SegmentLengths) == 0 {
		cfg.Defaults.SegmentLengths = def.Defaults.SegmentLengths
	}
	if len(cfg.Defaults.SmoothWindows) == 0 {
		cfg.Defaults.SmoothWindows = def.Defaults.SmoothWindows
	}
	if cfg.Defaults.Runs == 0 {
		cfg.Defaults.Runs = def.Defaults.Runs
	}
}
