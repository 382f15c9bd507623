package feature

// Bytes emits sliding windows of n raw bytes. Every full window is eligible;
// only eligible windows 0, step, 2*step, ... (counted from the first full
// window) are emitted.
type Bytes struct {
	n      int
	step   int
	ring   []byte
	head   int // next write position in ring
	filled int
	since  int // eligible windows since the last emitted one, mod step
	out    []byte
}

// NewBytes returns a byte n-gram extractor. n and step must be at least 1.
func NewBytes(n, step int) *Bytes {
	return &Bytes{
		n:    n,
		step: step,
		ring: make([]byte, n),
		out:  make([]byte, n),
	}
}

// Push implements Extractor.
func (x *Bytes) Push(b byte, off int64, emit Emit) {
	x.ring[x.head] = b
	x.head++
	if x.head == x.n {
		x.head = 0
	}
	if x.filled < x.n {
		x.filled++
		if x.filled < x.n {
			return
		}
	}

	if x.since == 0 {
		// Oldest byte sits at head once the ring is full.
		k := copy(x.out, x.ring[x.head:])
		copy(x.out[k:], x.ring[:x.head])
		emit(x.out, off)
	}
	x.since++
	if x.since == x.step {
		x.since = 0
	}
}

// Flush implements Extractor. Byte windows complete on Push, so there is
// nothing left to emit.
func (x *Bytes) Flush(Emit) {}
