package sim

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// SweepConfig describes a full parameter sweep: the chain, the grid
// dimensions, and how many Monte Carlo trials to run per cell.
type SweepConfig struct {
	Matrix         TransitionMatrix
	States         StateSet
	NumSteps       int       // segments per trace
	SegmentLengths []float64 // outer sweep dimension
	SmoothWindows  []int     // inner sweep dimension
	Runs           int       // Monte Carlo trials per cell (must be >= 2)
	Workers        int       // cells simulated concurrently; <= 1 means sequential
	Key            SimulationKey
}

// Validate checks the sweep parameters eagerly, before any cell runs.
// A single malformed parameter aborts the whole sweep.
func (c SweepConfig) Validate() error {
	if err := c.Matrix.Validate(c.States); err != nil {
		return err
	}
	if err := c.States.Validate(); err != nil {
		return err
	}
	if c.NumSteps <= 0 {
		return fmt.Errorf("%w: num_steps must be positive, got %d", ErrConfiguration, c.NumSteps)
	}
	if len(c.SegmentLengths) == 0 {
		return fmt.Errorf("%w: no segment lengths to sweep", ErrConfiguration)
	}
	if len(c.SmoothWindows) == 0 {
		return fmt.Errorf("%w: no smoothing windows to sweep", ErrConfiguration)
	}
	for _, segLen := range c.SegmentLengths {
		for _, window := range c.SmoothWindows {
			pc := PlaybackConfig{SegmentLength: segLen, SmoothWindow: window}
			if err := pc.Validate(); err != nil {
				return err
			}
		}
	}
	if c.Runs <= 0 {
		return fmt.Errorf("%w: runs must be positive, got %d", ErrConfiguration, c.Runs)
	}
	if c.Runs < 2 {
		return fmt.Errorf("%w: runs must be >= 2 to compute a sample standard deviation, got %d", ErrInsufficientSamples, c.Runs)
	}
	return nil
}

// SweepCell is one row of the result table: a (segment_length,
// smooth_window) configuration plus its aggregated Monte Carlo statistics.
type SweepCell struct {
	SegmentLength float64
	SmoothWindow  int
	MeanBitrate   float64
	SDBitrate     float64
	MeanStall     float64
	SDStall       float64
}

// Sweep enumerates every (segment length, smoothing window) pair, segment
// length outer and smoothing window inner, runs the Monte Carlo trials for
// each, and reduces the outcomes to mean and sample standard deviation of
// bitrate and stall time.
//
// The returned cells always follow the enumeration order, regardless of
// worker completion order: each cell writes into its pre-assigned slot.
// Every cell seeds its trials from a key derived from cfg.Key and the cell
// coordinates, so the output is identical at any worker count.
func Sweep(cfg SweepConfig) ([]SweepCell, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	type job struct {
		index  int
		config PlaybackConfig
	}
	jobs := make([]job, 0, len(cfg.SegmentLengths)*len(cfg.SmoothWindows))
	for _, segLen := range cfg.SegmentLengths {
		for _, window := range cfg.SmoothWindows {
			jobs = append(jobs, job{
				index:  len(jobs),
				config: PlaybackConfig{SegmentLength: segLen, SmoothWindow: window},
			})
		}
	}

	cells := make([]SweepCell, len(jobs))
	runCell := func(j job) error {
		cellKey := cfg.Key.Derive(SubsystemCell(j.config.SegmentLength, j.config.SmoothWindow))
		outcomes, err := RunTrials(cfg.Matrix, cfg.States, cfg.NumSteps, j.config, cfg.Runs, cellKey)
		if err != nil {
			return err
		}
		stats, err := SummarizeOutcomes(outcomes)
		if err != nil {
			return err
		}
		cells[j.index] = SweepCell{
			SegmentLength: j.config.SegmentLength,
			SmoothWindow:  j.config.SmoothWindow,
			MeanBitrate:   stats.MeanBitrate,
			SDBitrate:     stats.SDBitrate,
			MeanStall:     stats.MeanStall,
			SDStall:       stats.SDStall,
		}
		logrus.Debugf("sweep cell done: segment_length=%g smooth_window=%d mean_bitrate=%.1f mean_stall=%.2f",
			j.config.SegmentLength, j.config.SmoothWindow, stats.MeanBitrate, stats.MeanStall)
		return nil
	}

	workers := cfg.Workers
	if workers > len(jobs) {
		workers = len(jobs)
	}
	if workers <= 1 {
		for _, j := range jobs {
			if err := runCell(j); err != nil {
				return nil, err
			}
		}
		return cells, nil
	}

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	done := make(chan struct{})
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			close(done)
		})
	}

	jobCh := make(chan job)
	go func() {
		defer close(jobCh)
		for _, j := range jobs {
			select {
			case jobCh <- j:
			case <-done:
				return
			}
		}
	}()

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobCh {
				if err := runCell(j); err != nil {
					fail(err)
					return
				}
			}
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return cells, nil
}
