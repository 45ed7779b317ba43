// Package sim provides the simulation core for adaptive-bitrate streaming
// performance modeling.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - chain.go: Markov-chain throughput trace sampling
//   - playback.go: smoothed-throughput quality selection and buffer/stall accounting
//   - montecarlo.go: independent seeded trials for one configuration
//   - sweep.go: the (segment length x smoothing window) parameter-sweep driver
//
// # Reproducibility
//
// All randomness flows through explicitly seeded sources (rng.go). A
// SimulationKey derives isolated per-cell and per-trial streams, so a sweep
// produces bit-for-bit identical result tables for the same seed at any
// worker count.
//
// # Results
//
// Sweep produces one SweepCell per configuration; table.go renders the cells
// as the CSV schema consumed by downstream heatmap and tradeoff tooling.
package sim
