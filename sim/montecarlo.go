package sim

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// RunTrials runs trials independent Monte Carlo playback simulations for a
// single configuration. Each trial samples a fresh throughput trace from
// its own RNG stream derived from key, then replays it with cfg. Trials
// share no mutable state; outcome i is the same no matter how many trials
// run or in what order streams are consumed.
//
// trials == 1 is accepted here; aggregation layers that need a sample
// standard deviation must reject it (see SummarizeOutcomes).
func RunTrials(matrix TransitionMatrix, states StateSet, numSteps int, cfg PlaybackConfig, trials int, key SimulationKey) ([]PlaybackOutcome, error) {
	if trials < 1 {
		return nil, fmt.Errorf("%w: trials must be >= 1, got %d", ErrConfiguration, trials)
	}
	if numSteps < 0 {
		return nil, fmt.Errorf("%w: num_steps must be non-negative, got %d", ErrConfiguration, numSteps)
	}
	if err := matrix.Validate(states); err != nil {
		return nil, err
	}
	if err := states.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	prng := NewPartitionedRNG(key)
	outcomes := make([]PlaybackOutcome, 0, trials)
	for t := 0; t < trials; t++ {
		trace, err := SampleTrace(numSteps, matrix, states, prng.ForSubsystem(SubsystemTrial(t)))
		if err != nil {
			return nil, err
		}
		outcome, err := Simulate(trace, cfg)
		if err != nil {
			return nil, err
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

// OutcomeStats is the mean / sample-standard-deviation reduction of a batch
// of playback outcomes.
type OutcomeStats struct {
	MeanBitrate float64
	SDBitrate   float64
	MeanStall   float64
	SDStall     float64
}

// SummarizeOutcomes reduces a batch of outcomes to mean and Bessel-corrected
// sample standard deviation (divisor n-1) of bitrate and stall time.
// At least two outcomes are required.
func SummarizeOutcomes(outcomes []PlaybackOutcome) (OutcomeStats, error) {
	if len(outcomes) < 2 {
		return OutcomeStats{}, fmt.Errorf("%w: need at least 2 outcomes for a sample standard deviation, got %d", ErrInsufficientSamples, len(outcomes))
	}

	bitrates := make([]float64, len(outcomes))
	stalls := make([]float64, len(outcomes))
	for i, o := range outcomes {
		bitrates[i] = o.AvgBitrate
		stalls[i] = o.TotalStall
	}
	return OutcomeStats{
		MeanBitrate: stat.Mean(bitrates, nil),
		SDBitrate:   stat.StdDev(bitrates, nil),
		MeanStall:   stat.Mean(stalls, nil),
		SDStall:     stat.StdDev(stalls, nil),
	}, nil
}
