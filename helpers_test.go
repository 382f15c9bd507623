package streamsim

import (
	"context"
	"encoding/binary"
	"hash/fnv"
	"io"
	"math/rand/v2"
	"testing"
)

const (
	testSeed1 = 0x1234567890ABCDEF
	testSeed2 = 0xFEDCBA9876543210
)

// newTestRNG returns a PCG seeded from the test name, so every test draws a
// stable but distinct sequence.
func newTestRNG(t testing.TB) *rand.Rand {
	t.Helper()
	h := fnv.New128a()
	h.Write([]byte(t.Name()))
	sum := h.Sum(nil)
	s1 := binary.LittleEndian.Uint64(sum[:8])
	s2 := binary.LittleEndian.Uint64(sum[8:])
	return rand.New(rand.NewPCG(testSeed1^s1, testSeed2^s2))
}

// fillFromRNG fills buf with pseudo-random bytes from rng.
func fillFromRNG(rng *rand.Rand, buf []byte) {
	for i := 0; i+8 <= len(buf); i += 8 {
		binary.LittleEndian.PutUint64(buf[i:], rng.Uint64())
	}
	if tail := len(buf) % 8; tail > 0 {
		v := rng.Uint64()
		start := len(buf) - tail
		for j := 0; j < tail; j++ {
			buf[start+j] = byte(v >> (j * 8))
		}
	}
}

// mustEngine builds an engine or fails the test.
func mustEngine(t testing.TB, opts ...Option) *Engine {
	t.Helper()
	eng, err := New(opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return eng
}

// collectBlocks drains eng.Blocks over r.
func collectBlocks(t testing.TB, eng *Engine, r io.Reader) []Block {
	t.Helper()
	var out []Block
	for blk, err := range eng.Blocks(context.Background(), r) {
		if err != nil {
			t.Fatalf("Blocks: %v", err)
		}
		out = append(out, blk)
	}
	return out
}

// trackingReader serves data in reads of at most max bytes and records how
// much was read and how often it was closed.
type trackingReader struct {
	data   []byte
	max    int
	read   int
	closes int
	err    error // returned once data is exhausted, io.EOF when nil
}

func (r *trackingReader) Read(p []byte) (int, error) {
	if r.read == len(r.data) {
		if r.err != nil {
			return 0, r.err
		}
		return 0, io.EOF
	}
	n := min(len(p), len(r.data)-r.read)
	if r.max > 0 {
		n = min(n, r.max)
	}
	copy(p, r.data[r.read:r.read+n])
	r.read += n
	return n, nil
}

func (r *trackingReader) Close() error {
	r.closes++
	return nil
}
