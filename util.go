package main

import (
	"crypto/rand"
	"sync/atomic"
)

// Clamp restricts v to [min, max]
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// randFloat returns a random float64 in [0, 1). Xorshift is plenty for
// serve angles; the state is advanced with a CAS so concurrent match
// goroutines can serve at the same time.
var randSrc atomic.Uint64

func randFloat() float64 {
	for {
		old := randSrc.Load()
		x := old
		x ^= x << 13
		x ^= x >> 7
		x ^= x << 17
		if x == 0 {
			x = 1
		}
		if randSrc.CompareAndSwap(old, x) {
			return float64(x%10000) / 10000.0
		}
	}
}

func init() {
	// Seed from crypto/rand
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	var seed uint64
	for i, v := range b {
		seed |= uint64(v) << (uint(i) * 8)
	}
	if seed == 0 {
		seed = 1
	}
	randSrc.Store(seed)
}
