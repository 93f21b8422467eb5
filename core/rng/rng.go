// Package rng centralizes random seeding for the optimization pipeline.
// Every stochastic stage draws from a phase-derived sub-seed of one root
// seed, so stages stay independently reproducible without shared global
// RNG state.
package rng

import (
	"encoding/binary"
	"hash/fnv"
	"math/rand"
	"os"
	"strconv"
)

// DefaultSeed is used when neither an explicit seed nor an environment
// override is provided.
const DefaultSeed int64 = 2025

var envKeys = []string{"RAKEFLOW_SEED", "LOGISTICS_SEED"}

// Resolve picks the root seed: explicit argument first, then environment
// variables, then DefaultSeed. Zero means "not set".
func Resolve(seed int64) int64 {
	if seed != 0 {
		return seed
	}
	for _, key := range envKeys {
		if v := os.Getenv(key); v != "" {
			if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
				return parsed
			}
		}
	}
	return DefaultSeed
}

// Source derives deterministic per-phase RNGs from one root seed.
type Source struct {
	root int64
}

// New creates a Source from a resolved root seed.
func New(root int64) Source {
	return Source{root: Resolve(root)}
}

// Root returns the resolved root seed.
func (s Source) Root() int64 { return s.root }

// PhaseSeed derives a stable sub-seed for the named pipeline phase.
func (s Source) PhaseSeed(phase string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(phase))
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(s.root))
	_, _ = h.Write(buf[:])
	derived := int64(h.Sum64() & 0x7fffffffffffffff)
	if derived == 0 {
		derived = s.root
	}
	return derived
}

// Phase returns a fresh rand.Rand seeded for the named phase. Each call
// returns an independent generator positioned at the start of the sequence.
func (s Source) Phase(phase string) *rand.Rand {
	return rand.New(rand.NewSource(s.PhaseSeed(phase)))
}
