package sim

import (
	"fmt"
	"math"
	"math/rand"
)

// RowSumTolerance is the allowed deviation of a transition matrix row sum
// from 1.
const RowSumTolerance = 1e-6

// TransitionMatrix is a square row-stochastic matrix. Entry [i][j] is the
// probability of moving from state i to state j in one step.
type TransitionMatrix [][]float64

// StateSet is the ordered sequence of throughput values (kbps), one per
// chain state, index-aligned with the transition matrix rows and columns.
// All states must be strictly positive: playback divides segment download
// time by instantaneous throughput.
type StateSet []float64

// ThroughputTrace is an ordered sequence of throughput samples (kbps), one
// per simulated segment interval. A trace is owned by a single Monte Carlo
// trial and never mutated after creation.
type ThroughputTrace []float64

// Validate checks that the matrix is square, index-aligned with states, has
// only finite non-negative entries, and that every row sums to 1 within
// RowSumTolerance.
func (m TransitionMatrix) Validate(states StateSet) error {
	if len(m) == 0 {
		return fmt.Errorf("%w: transition matrix is empty", ErrConfiguration)
	}
	if len(m) != len(states) {
		return fmt.Errorf("%w: transition matrix has %d rows for %d states", ErrConfiguration, len(m), len(states))
	}
	for i, row := range m {
		if len(row) != len(states) {
			return fmt.Errorf("%w: transition matrix row %d has %d columns, want %d", ErrConfiguration, i, len(row), len(states))
		}
		sum := 0.0
		for j, p := range row {
			if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
				return fmt.Errorf("%w: transition matrix entry [%d][%d] = %f, want a probability in [0,1]", ErrConfiguration, i, j, p)
			}
			sum += p
		}
		if math.Abs(sum-1.0) > RowSumTolerance {
			return fmt.Errorf("%w: transition matrix row %d sums to %v, want 1 within %g", ErrConfiguration, i, sum, RowSumTolerance)
		}
	}
	return nil
}

// Validate checks that every state is a finite, strictly positive throughput.
func (s StateSet) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("%w: state set is empty", ErrConfiguration)
	}
	for i, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return fmt.Errorf("%w: state %d is %f kbps, want > 0", ErrInvalidState, i, v)
		}
	}
	return nil
}

// SampleTrace draws a throughput trace of numSteps samples from the Markov
// chain. The chain starts in state 0, emits the current state's throughput,
// then transitions by walking the current row's cumulative probabilities
// against a uniform draw in [0,1). Intervals are half-open: the chain moves
// to the first state whose cumulative probability strictly exceeds the draw.
//
// The only side effect is consuming draws from rng.
func SampleTrace(numSteps int, matrix TransitionMatrix, states StateSet, rng *rand.Rand) (ThroughputTrace, error) {
	if numSteps < 0 {
		return nil, fmt.Errorf("%w: num_steps must be non-negative, got %d", ErrConfiguration, numSteps)
	}
	if err := matrix.Validate(states); err != nil {
		return nil, err
	}

	trace := make(ThroughputTrace, 0, numSteps)
	current := 0
	for step := 0; step < numSteps; step++ {
		trace = append(trace, states[current])
		current = nextState(matrix[current], current, rng.Float64())
	}
	return trace, nil
}

// nextState walks the row's cumulative probabilities and returns the first
// state whose cumulative sum strictly exceeds r. If floating-point error
// leaves the row summing below 1 and r lands in the uncovered tail, the
// chain stays in the current state.
func nextState(row []float64, current int, r float64) int {
	cum := 0.0
	for j, p := range row {
		cum += p
		if r < cum {
			return j
		}
	}
	return current
}
