package sim

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// PlaybackConfig is one point in the sweep grid.
type PlaybackConfig struct {
	SegmentLength float64 // seconds of content per segment (must be > 0)
	SmoothWindow  int     // trailing samples averaged for quality selection (must be >= 1)
}

// Validate checks the playback parameters.
func (c PlaybackConfig) Validate() error {
	if math.IsNaN(c.SegmentLength) || math.IsInf(c.SegmentLength, 0) || c.SegmentLength <= 0 {
		return fmt.Errorf("%w: segment_length must be positive, got %f", ErrConfiguration, c.SegmentLength)
	}
	if c.SmoothWindow < 1 {
		return fmt.Errorf("%w: smooth_window must be >= 1, got %d", ErrConfiguration, c.SmoothWindow)
	}
	return nil
}

// PlaybackOutcome summarizes one playback simulation of one trace.
type PlaybackOutcome struct {
	AvgBitrate float64 // mean of the per-segment quality decisions (kbps)
	TotalStall float64 // accumulated rebuffer time (seconds)
}

// Simulate replays a throughput trace against the buffer model.
//
// The buffer starts at SegmentLength*SmoothWindow seconds of content, so
// larger smoothing windows are not penalized at start-up. For each segment
// the player selects a quality equal to the smoothed trailing throughput,
// downloads the segment over the instantaneous channel rate, stalls for
// whatever the buffer cannot cover, and then appends SegmentLength seconds
// of content to the buffer.
//
// AvgBitrate is the mean of the quality decisions the heuristic made, not
// of the throughput the channel actually delivered.
func Simulate(trace ThroughputTrace, cfg PlaybackConfig) (PlaybackOutcome, error) {
	if err := cfg.Validate(); err != nil {
		return PlaybackOutcome{}, err
	}

	bufferSec := cfg.SegmentLength * float64(cfg.SmoothWindow)
	totalStall := 0.0
	qualities := make([]float64, len(trace))

	for i, bw := range trace {
		if bw <= 0 {
			return PlaybackOutcome{}, fmt.Errorf("%w: trace sample %d is %f kbps, want > 0", ErrInvalidState, i, bw)
		}
		quality := SmoothedThroughput(trace, i, cfg.SmoothWindow)
		qualities[i] = quality
		downloadTime := quality * cfg.SegmentLength / bw

		if bufferSec >= downloadTime {
			// Download overlaps buffered playback, no stall.
			bufferSec -= downloadTime
		} else {
			// Buffer drains before the segment arrives.
			totalStall += downloadTime - bufferSec
			bufferSec = 0
		}
		bufferSec += cfg.SegmentLength
	}

	outcome := PlaybackOutcome{TotalStall: totalStall}
	if len(qualities) > 0 {
		outcome.AvgBitrate = stat.Mean(qualities, nil)
	}
	return outcome, nil
}
