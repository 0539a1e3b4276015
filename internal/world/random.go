package world

import (
	"hash/fnv"
	"math"
	"math/rand"
)

// DefaultSeed seeds deterministic RNG streams when callers supply none.
const DefaultSeed = "duskfall"

// DeterministicSeedValue hashes a root seed plus a stream label into a stable
// non-zero seed value.
func DeterministicSeedValue(rootSeed, label string) int64 {
	hasher := fnv.New64a()
	hasher.Write([]byte(rootSeed))
	hasher.Write([]byte{0})
	hasher.Write([]byte(label))
	sum := hasher.Sum64()
	if sum == 0 {
		sum = 1
	}
	return int64(sum)
}

// NewDeterministicRNG builds an isolated RNG stream for the given label so
// probability paths replay identically under one root seed.
func NewDeterministicRNG(rootSeed, label string) *rand.Rand {
	return rand.New(rand.NewSource(DeterministicSeedValue(rootSeed, label)))
}

func RandomFloat(rng *rand.Rand) float64 {
	if rng == nil {
		return rand.New(rand.NewSource(DeterministicSeedValue(DefaultSeed, "world"))).Float64()
	}
	return rng.Float64()
}

func RandomAngle(rng *rand.Rand) float64 {
	return RandomFloat(rng) * 2 * math.Pi
}

func RandomDistance(rng *rand.Rand, min, max float64) float64 {
	if max <= min {
		return min
	}
	return min + RandomFloat(rng)*(max-min)
}
