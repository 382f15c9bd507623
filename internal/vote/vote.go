// Package vote implements the SimHash bit-voting accumulator.
//
// An Accumulator holds one signed counter per output bit. Each hashed
// feature casts a weighted vote on every bit: +w where the hash bit is 1,
// -w where it is 0. Sign collapses the counters back into a fingerprint.
//
// An Accumulator is NOT safe for concurrent use. It is owned by exactly one
// accumulation scope (a whole stream, or the block currently in progress)
// and is Reset between scopes rather than reallocated.
package vote

import intbits "github.com/tamirms/streamsim/internal/bits"

// Accumulator is the per-bit counter vector.
type Accumulator struct {
	counts []int64
}

// New returns a zeroed accumulator for bitlen output bits.
// bitlen must be a positive multiple of 8.
func New(bitlen int) *Accumulator {
	return &Accumulator{counts: make([]int64, bitlen)}
}

// Len returns the number of counters (the fingerprint bit length).
func (a *Accumulator) Len() int {
	return len(a.counts)
}

// Add folds one hashed feature into the counters with weight w.
// sum is the feature hash as a big-endian integer of Len()/8 bytes.
func (a *Accumulator) Add(sum []byte, w int64) {
	last := len(sum) - 1
	for j, c := range sum {
		base := (last - j) * 8
		for k := 0; k < 8; k++ {
			if c&(1<<k) != 0 {
				a.counts[base+k] += w
			} else {
				a.counts[base+k] -= w
			}
		}
	}
}

// Sign writes the fingerprint into dst (Len()/8 bytes, big-endian): bit i is
// set iff counter i is strictly positive. A zero counter yields 0.
func (a *Accumulator) Sign(dst []byte) {
	clear(dst)
	for i, s := range a.counts {
		if s > 0 {
			intbits.SetBit(dst, i)
		}
	}
}

// Reset zeroes every counter for reuse by the next scope.
func (a *Accumulator) Reset() {
	clear(a.counts)
}
