package sim

import "errors"

var (
	// ErrConfiguration indicates a malformed simulation parameter: a
	// transition matrix that is not row-stochastic, a non-positive segment
	// length, smoothing window, step count, or trial count.
	ErrConfiguration = errors.New("sim: invalid configuration")

	// ErrInvalidState indicates a throughput state that is zero or negative.
	// The playback model divides by instantaneous throughput, so every state
	// must be strictly positive.
	ErrInvalidState = errors.New("sim: invalid throughput state")

	// ErrInsufficientSamples indicates an aggregation that requires a sample
	// standard deviation was requested with fewer than two samples.
	ErrInsufficientSamples = errors.New("sim: insufficient samples")
)
