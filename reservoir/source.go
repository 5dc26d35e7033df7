package reservoir

import (
	"math/rand"
	"time"
)

// Source is the random-bit generator contract every sampler in this package
// requires: a uniform 64-bit integer on demand, and a uniform float64 in
// [0, 1). *math/rand.Rand satisfies this directly.
//
// A Source passed into a constructor is always borrowed — the sampler never
// assumes it may outlive or exclusively mutate it. Pass nil to have the
// sampler create and own a private, nondeterministically seeded generator.
type Source interface {
	Uint64() uint64
	Float64() float64
}

func defaultSource() Source {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

func sourceOrDefault(src Source) Source {
	if src == nil {
		return defaultSource()
	}
	return src
}

// uniformIntn draws a uniform integer in [0, n). n must be positive.
func uniformIntn(src Source, n int) int {
	if n <= 1 {
		return 0
	}
	return int(uniformUint64n(src, uint64(n)))
}

// uniformUint64n draws a uniform uint64 in [0, bound). bound must be
// positive. Kept in uint64 space throughout so callers with a weight sum
// that doesn't fit in int (e.g. a uint64 running total) never narrow it.
func uniformUint64n(src Source, bound uint64) uint64 {
	if bound <= 1 {
		return 0
	}
	// Rejection sampling against the bias a plain modulo reduction would
	// introduce: threshold is 2^64 mod bound, computed via uint64 wraparound
	// to avoid overflowing the constant.
	threshold := -bound % bound
	for {
		v := src.Uint64()
		if v >= threshold {
			return v % bound
		}
	}
}

// uniformOpen01 draws a uniform float64 strictly in (0, 1), rejecting the
// zero endpoint so that ln(u) is always finite.
func uniformOpen01(src Source) float64 {
	for {
		u := src.Float64()
		if u > 0 {
			return u
		}
	}
}
