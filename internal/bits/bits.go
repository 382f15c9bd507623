// Package bits provides low-level bit manipulation primitives over
// big-endian byte strings.
package bits

import (
	"encoding/binary"
	"math/bits"
)

// OnesCount returns the number of set bits in b.
func OnesCount(b []byte) int {
	n := 0
	for len(b) >= 8 {
		n += bits.OnesCount64(binary.LittleEndian.Uint64(b))
		b = b[8:]
	}
	for _, c := range b {
		n += bits.OnesCount8(c)
	}
	return n
}

// Hamming returns popcount(a XOR b). Both slices must have the same length;
// the caller is responsible for checking.
func Hamming(a, b []byte) int {
	b = b[:len(a)]
	n := 0
	for len(a) >= 8 {
		n += bits.OnesCount64(binary.LittleEndian.Uint64(a) ^ binary.LittleEndian.Uint64(b))
		a, b = a[8:], b[8:]
	}
	for i := range a {
		n += bits.OnesCount8(a[i] ^ b[i])
	}
	return n
}

// Bit reports bit i of the big-endian integer stored in b, where bit 0 is
// the least significant bit of the last byte.
func Bit(b []byte, i int) bool {
	return b[len(b)-1-i/8]&(1<<(i%8)) != 0
}

// SetBit sets bit i of the big-endian integer stored in b.
func SetBit(b []byte, i int) {
	b[len(b)-1-i/8] |= 1 << (i % 8)
}

// ExtractRange copies the n bits of src starting at bit offset off (bit 0 is
// the most significant bit of src[0]) into dst as a right-aligned big-endian
// integer. dst must hold exactly (n+7)/8 bytes; it is fully overwritten.
func ExtractRange(dst, src []byte, off, n int) {
	clear(dst)
	// Walk the source bits from last to first so each lands at its final
	// position in the right-aligned destination.
	for k := 0; k < n; k++ {
		pos := off + n - 1 - k
		if src[pos/8]&(0x80>>(pos%8)) != 0 {
			dst[len(dst)-1-k/8] |= 1 << (k % 8)
		}
	}
}
