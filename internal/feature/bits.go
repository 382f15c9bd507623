package feature

import intbits "github.com/tamirms/streamsim/internal/bits"

// MaxBitWindow is the largest supported bit window.
const MaxBitWindow = 512

// Bits emits windows of nbits consecutive stream bits (most significant bit
// of each byte first) starting at bit offsets 0, step, 2*step, ... Each window
// is emitted as a right-aligned big-endian integer of (nbits+7)/8 bytes.
type Bits struct {
	nbits int
	step  int64

	consumed int64  // bytes pushed so far
	next     int64  // bit offset where the next window starts
	base     int64  // bit offset of pend[0]
	pend     []byte // bytes that may still contribute to a window

	out []byte
}

// NewBits returns a bit-window extractor. nbits must be in [1, MaxBitWindow]
// and step at least 1.
func NewBits(nbits, step int) *Bits {
	return &Bits{
		nbits: nbits,
		step:  int64(step),
		pend:  make([]byte, 0, nbits/8+2),
		out:   make([]byte, (nbits+7)/8),
	}
}

// Push implements Extractor.
func (x *Bits) Push(b byte, off int64, emit Emit) {
	start := x.consumed * 8
	x.consumed++
	if start+8 <= x.next {
		// Skipped entirely by a step larger than the window.
		return
	}
	if len(x.pend) == 0 {
		x.base = start
	}
	x.pend = append(x.pend, b)

	for x.base+int64(len(x.pend))*8 >= x.next+int64(x.nbits) {
		intbits.ExtractRange(x.out, x.pend, int(x.next-x.base), x.nbits)
		emit(x.out, off)
		x.next += x.step

		drop := min(int((x.next-x.base)/8), len(x.pend))
		if drop > 0 {
			x.pend = x.pend[:copy(x.pend, x.pend[drop:])]
			x.base += int64(drop) * 8
		}
	}
}

// Flush implements Extractor. Incomplete windows are not emitted.
func (x *Bits) Flush(Emit) {}
