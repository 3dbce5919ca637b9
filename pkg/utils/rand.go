package utils

import (
	"math/rand"
	"time"
)

// RandSource is an explicit pseudo-random source. Each search run owns one,
// so a run with a fixed seed is replayable.
type RandSource struct {
	seed int64
	rng  *rand.Rand
}

// NewRandSource creates a new random source with the given seed.
// A zero seed is replaced by the current time.
func NewRandSource(seed int64) *RandSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandSource{
		seed: seed,
		rng:  rand.New(rand.NewSource(seed)),
	}
}

// Seed returns the seed the source was created with
func (r *RandSource) Seed() int64 {
	return r.seed
}

// Float64 returns a random float64 in [0.0, 1.0)
func (r *RandSource) Float64() float64 {
	return r.rng.Float64()
}

// Intn returns a random int in [0, n)
func (r *RandSource) Intn(n int) int {
	return r.rng.Intn(n)
}

// IntRange returns a random int in [min, max]
func (r *RandSource) IntRange(min, max int) int {
	if max <= min {
		return min
	}
	return min + r.rng.Intn(max-min+1)
}

// UniformFloat64 returns a uniformly distributed random number in [min, max].
// The result is clamped so rounding never leaves the interval.
func (r *RandSource) UniformFloat64(min, max float64) float64 {
	if max <= min {
		return min
	}
	return ClampFloat64(min+r.rng.Float64()*(max-min), min, max)
}

// Child derives an independent source from this one. Used to hand each
// parallel worker its own deterministic stream.
func (r *RandSource) Child() *RandSource {
	seed := r.rng.Int63()
	if seed == 0 {
		seed = 1
	}
	return NewRandSource(seed)
}
