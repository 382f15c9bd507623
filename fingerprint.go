package streamsim

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"math/big"

	streamerrors "github.com/tamirms/streamsim/errors"
	intbits "github.com/tamirms/streamsim/internal/bits"
)

// Fingerprint is a fixed-width SimHash value.
//
// It is stored as BitLen()/8 big-endian bytes. Bit i is the i-th least
// significant bit of that integer, so bit 0 is the low bit of the last byte.
// The zero value is an empty, zero-width fingerprint.
//
// Fingerprints are immutable and safe to share between goroutines.
type Fingerprint struct {
	b []byte
}

// newFingerprint copies sum into a new Fingerprint.
func newFingerprint(sum []byte) Fingerprint {
	return Fingerprint{b: bytes.Clone(sum)}
}

// FingerprintFromBytes builds a fingerprint from a big-endian byte string.
// The bit length is 8*len(b). b is copied.
func FingerprintFromBytes(b []byte) Fingerprint {
	return newFingerprint(b)
}

// ParseHex parses the fixed-width hex form produced by Hex. The bit length
// is four times the number of hex digits and must be a multiple of 8.
func ParseHex(s string) (Fingerprint, error) {
	if len(s) == 0 || len(s)%2 != 0 {
		return Fingerprint{}, fmt.Errorf("%w: hex length %d", streamerrors.ErrInvalidFingerprint, len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("%w: %w", streamerrors.ErrInvalidFingerprint, err)
	}
	return Fingerprint{b: b}, nil
}

// BitLen returns the fingerprint width in bits.
func (f Fingerprint) BitLen() int {
	return len(f.b) * 8
}

// Bytes returns a copy of the big-endian representation.
func (f Fingerprint) Bytes() []byte {
	return bytes.Clone(f.b)
}

// Bit reports whether bit i is set. It panics if i is out of range.
func (f Fingerprint) Bit(i int) bool {
	if i < 0 || i >= f.BitLen() {
		panic(fmt.Sprintf("streamsim: bit %d out of range [0, %d)", i, f.BitLen()))
	}
	return intbits.Bit(f.b, i)
}

// Hex returns the lowercase hex form, zero padded to BitLen()/4 digits.
func (f Fingerprint) Hex() string {
	return hex.EncodeToString(f.b)
}

// String returns Hex().
func (f Fingerprint) String() string {
	return f.Hex()
}

// BigInt returns the fingerprint as a non-negative integer.
func (f Fingerprint) BigInt() *big.Int {
	return new(big.Int).SetBytes(f.b)
}

// Equal reports whether f and g have the same width and bits.
func (f Fingerprint) Equal(g Fingerprint) bool {
	return bytes.Equal(f.b, g.b)
}

// Distance returns the Hamming distance between f and g.
func (f Fingerprint) Distance(g Fingerprint) (int, error) {
	return Distance(f, g)
}

// MarshalText implements encoding.TextMarshaler using the hex form.
func (f Fingerprint) MarshalText() ([]byte, error) {
	return []byte(f.Hex()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Fingerprint) UnmarshalText(text []byte) error {
	parsed, err := ParseHex(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Distance returns popcount(a XOR b), the number of differing bit
// positions. Smaller distances mean more similar inputs. Fingerprints of
// different widths cannot be compared and yield ErrBitLenMismatch.
func Distance(a, b Fingerprint) (int, error) {
	if len(a.b) != len(b.b) {
		return 0, fmt.Errorf("%w: %d vs %d bits", streamerrors.ErrBitLenMismatch, a.BitLen(), b.BitLen())
	}
	return intbits.Hamming(a.b, b.b), nil
}

// Block is the fingerprint of one fixed-size byte range of a stream.
type Block struct {
	Index       int64       // block number, Start / block size
	Start       int64       // first byte offset
	End         int64       // one past the last byte offset
	Fingerprint Fingerprint
}

// Len returns the number of stream bytes the block covers.
func (b Block) Len() int64 {
	return b.End - b.Start
}

// Record is one item produced by a Stream. In whole-stream mode the single
// record has a nil Block; in block mode Block is set and Fingerprint equals
// Block.Fingerprint.
type Record struct {
	Fingerprint Fingerprint
	Block       *Block
}
