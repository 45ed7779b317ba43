package sim

import (
	"fmt"
	"hash/fnv"
	"math/rand"
)

// === SimulationKey ===

// SimulationKey uniquely identifies a reproducible simulation run.
// Two sweeps with the same SimulationKey and identical configuration
// MUST produce bit-for-bit identical result tables.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// Derive returns a child key for the named subsystem:
// key XOR fnv1a64(name). Derivation is pure and order-independent, so
// parallel sweep workers can derive cell keys without coordination.
func (k SimulationKey) Derive(name string) SimulationKey {
	return SimulationKey(int64(k) ^ fnv1a64(name))
}

// === Subsystem Names ===

// SubsystemCell returns the RNG subsystem name for one sweep cell.
// Every (segment length, smoothing window) pair gets its own stream family
// so cells stay reproducible regardless of execution order.
func SubsystemCell(segmentLength float64, smoothWindow int) string {
	return fmt.Sprintf("cell_%g_%d", segmentLength, smoothWindow)
}

// SubsystemTrial returns the RNG subsystem name for Monte Carlo trial n.
func SubsystemTrial(n int) string {
	return fmt.Sprintf("trial_%d", n)
}

// === PartitionedRNG ===

// PartitionedRNG provides deterministic, isolated RNG instances per subsystem.
//
// Derivation formula: masterSeed XOR fnv1a64(subsystemName). Draws from one
// subsystem never advance another, which is what keeps Monte Carlo trials
// independent of each other and of trial count.
//
// Thread-safety: NOT thread-safe. Each sweep worker derives its own
// PartitionedRNG from a cell key instead of sharing one.
type PartitionedRNG struct {
	key        SimulationKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a SimulationKey.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named subsystem.
// The same subsystem name always returns the same *rand.Rand instance (cached).
// Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}
	rng := rand.New(rand.NewSource(int64(p.key.Derive(name))))
	p.subsystems[name] = rng
	return rng
}

// Key returns the SimulationKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
