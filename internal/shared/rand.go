package shared

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Rand is a goroutine-safe pseudo-random source seeded once per process.
// A fixed seed makes persona and bait-reply choices reproducible in tests.
type Rand struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRand returns a source seeded with seed, or with the wall clock when seed is 0.
func NewRand(seed uint64) *Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Rand{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// IntN returns a value in [0, n). It returns 0 when n <= 0.
func (r *Rand) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.IntN(n)
}

// Pick returns a uniformly chosen element of items, or the zero value when empty.
func Pick[T any](r *Rand, items []T) T {
	var zero T
	if len(items) == 0 {
		return zero
	}
	return items[r.IntN(len(items))]
}
