package bits

import (
	"encoding/binary"
	"hash/fnv"
	"math/big"
	"math/rand/v2"
	"testing"
)

// Named seeds for deterministic reproduction.
const (
	testSeed1 = 0x1234567890ABCDEF
	testSeed2 = 0xFEDCBA9876543210
)

func newTestRNG(t testing.TB) *rand.Rand {
	t.Helper()
	h := fnv.New128a()
	h.Write([]byte(t.Name()))
	sum := h.Sum(nil)
	s1 := binary.LittleEndian.Uint64(sum[:8])
	s2 := binary.LittleEndian.Uint64(sum[8:])
	return rand.New(rand.NewPCG(testSeed1^s1, testSeed2^s2))
}

func randomBytes(rng *rand.Rand, n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(rng.Uint32())
	}
	return b
}

// TestHammingMatchesBigInt cross-checks Hamming against math/big XOR + bit
// counting for widths that exercise both the 8-byte and the tail loop.
func TestHammingMatchesBigInt(t *testing.T) {
	rng := newTestRNG(t)
	for _, width := range []int{1, 7, 8, 9, 16, 24, 33, 64} {
		for iter := 0; iter < 200; iter++ {
			a := randomBytes(rng, width)
			b := randomBytes(rng, width)

			x := new(big.Int).Xor(new(big.Int).SetBytes(a), new(big.Int).SetBytes(b))
			want := 0
			for i := 0; i < x.BitLen(); i++ {
				want += int(x.Bit(i))
			}
			if got := Hamming(a, b); got != want {
				t.Fatalf("width %d iter %d: Hamming=%d, want %d", width, iter, got, want)
			}
		}
	}
}

func TestHammingSelfIsZero(t *testing.T) {
	rng := newTestRNG(t)
	for _, width := range []int{0, 8, 16, 17} {
		a := randomBytes(rng, width)
		if got := Hamming(a, a); got != 0 {
			t.Errorf("width %d: Hamming(a, a) = %d, want 0", width, got)
		}
	}
}

func TestOnesCount(t *testing.T) {
	tests := []struct {
		in   []byte
		want int
	}{
		{nil, 0},
		{[]byte{0xff}, 8},
		{[]byte{0x01, 0x80}, 2},
		{[]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x0f}, 68},
	}
	for _, tt := range tests {
		if got := OnesCount(tt.in); got != tt.want {
			t.Errorf("OnesCount(%x) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

// TestBitOrdering pins the bit numbering: bit 0 is the least significant bit
// of the last byte, matching big.Int.Bit on the same bytes.
func TestBitOrdering(t *testing.T) {
	rng := newTestRNG(t)
	b := randomBytes(rng, 16)
	n := new(big.Int).SetBytes(b)
	for i := 0; i < 128; i++ {
		if Bit(b, i) != (n.Bit(i) == 1) {
			t.Fatalf("Bit(%d) disagrees with big.Int", i)
		}
	}

	out := make([]byte, 2)
	SetBit(out, 0)
	SetBit(out, 15)
	if out[0] != 0x80 || out[1] != 0x01 {
		t.Errorf("SetBit produced %x, want 8001", out)
	}
}

func TestExtractRange(t *testing.T) {
	src := []byte{0b1011_0011, 0b0101_1100}
	tests := []struct {
		name string
		off  int
		n    int
		want []byte
	}{
		{"whole first byte", 0, 8, []byte{0xb3}},
		{"nibble", 4, 4, []byte{0x03}},
		{"straddle", 6, 4, []byte{0b1101}},
		{"single bit", 15, 1, []byte{0}},
		{"twelve bits", 2, 12, []byte{0b1100, 0b1101_0111}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := make([]byte, (tt.n+7)/8)
			for i := range dst {
				dst[i] = 0xaa // must be overwritten
			}
			ExtractRange(dst, src, tt.off, tt.n)
			for i := range dst {
				if dst[i] != tt.want[i] {
					t.Fatalf("ExtractRange(off=%d, n=%d) = %08b, want %08b", tt.off, tt.n, dst, tt.want)
				}
			}
		})
	}
}
