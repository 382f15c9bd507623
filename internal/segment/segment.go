// Package segment routes feature votes to fixed-size byte blocks of a
// single forward pass over a stream.
//
// # Lifecycle
//
// A Segmenter is created once per stream and driven feature by feature:
//
//  1. For each feature: Advance(end, consumed, emit) routes the feature's
//     end offset to its block, closing every block before it.
//  2. If the feature carries weight: Vote(sum, w).
//  3. At end of input: Finish(consumed, emit).
//
// The block in progress owns the only counter vector. When a feature routes
// to a later block, the current block is finalized and the index advances
// one at a time until it reaches the target, so memory stays at one
// Accumulator no matter how many blocks the stream spans. Blocks that never
// received a vote are skipped silently.
//
// # Thread Safety
//
// A Segmenter is NOT safe for concurrent use.
package segment

import "github.com/tamirms/streamsim/internal/vote"

// Closed describes one finalized block. Sign is only valid for the
// duration of the emit callback that receives it.
type Closed struct {
	Index int64
	Start int64
	End   int64 // exclusive
	Sign  []byte
}

// Segmenter is the block state machine.
type Segmenter struct {
	blockSize int64
	acc       *vote.Accumulator
	current   int64 // block index in progress
	touched   bool  // whether the current block has received a vote
	sign      []byte
}

// New returns a segmenter over blockSize-byte blocks that accumulates into
// acc. acc must be zeroed.
func New(blockSize int64, acc *vote.Accumulator) *Segmenter {
	return &Segmenter{
		blockSize: blockSize,
		acc:       acc,
		sign:      make([]byte, acc.Len()/8),
	}
}

// Advance routes a feature whose last byte is at offset end. consumed is the
// number of stream bytes read so far. Every block before end's block is
// finalized, in order, before Advance returns.
func (s *Segmenter) Advance(end, consumed int64, emit func(Closed)) {
	target := end / s.blockSize
	for s.current < target {
		s.finalize(consumed, emit)
		s.current++
	}
}

// Vote adds one weighted feature hash to the block in progress.
func (s *Segmenter) Vote(sum []byte, w int64) {
	s.acc.Add(sum, w)
	s.touched = true
}

// Finish finalizes the block in progress at end of input.
func (s *Segmenter) Finish(consumed int64, emit func(Closed)) {
	s.finalize(consumed, emit)
}

// finalize emits the current block if it was touched and resets the
// counters for the next block.
func (s *Segmenter) finalize(consumed int64, emit func(Closed)) {
	if !s.touched {
		return
	}
	s.acc.Sign(s.sign)
	start := s.current * s.blockSize
	emit(Closed{
		Index: s.current,
		Start: start,
		End:   min(consumed, start+s.blockSize),
		Sign:  s.sign,
	})
	s.acc.Reset()
	s.touched = false
}
