package sim

import "gonum.org/v1/gonum/stat"

// SmoothedThroughput returns the trailing moving average of the trace at
// idx: the arithmetic mean of trace[max(0, idx-window+1) .. idx] inclusive.
// The window clamps at the start of the trace; there is no look-ahead and
// no wraparound. Pure function of its inputs.
//
// This is the ABR quality-selection heuristic: the bitrate the player would
// pick at idx given the last window throughput samples.
func SmoothedThroughput(trace ThroughputTrace, idx, window int) float64 {
	start := idx - window + 1
	if start < 0 {
		start = 0
	}
	return stat.Mean(trace[start:idx+1], nil)
}
