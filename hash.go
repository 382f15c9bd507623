package streamsim

import (
	"encoding/binary"
	"fmt"
	"hash"
	"io"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/spaolacci/murmur3"
	"github.com/zeebo/xxh3"
	"golang.org/x/crypto/blake2b"

	streamerrors "github.com/tamirms/streamsim/errors"
)

// HashAlgorithm identifies the function that maps a feature to a BitLen-bit
// pseudorandom integer.
type HashAlgorithm uint16

const (
	// HashBLAKE2b uses BLAKE2b with a BitLen/8-byte digest. Widths above 512
	// bits use the BLAKE2Xb extendable-output variant. This is the default
	// and the only algorithm whose fingerprints are portable to other
	// BLAKE2b-based SimHash implementations.
	HashBLAKE2b HashAlgorithm = 0

	// HashXXH3 uses XXH3-128, expanded to BitLen bits in counter mode.
	HashXXH3 HashAlgorithm = 1

	// HashMurmur3 uses MurmurHash3 x64 128-bit, expanded in counter mode.
	HashMurmur3 HashAlgorithm = 2

	// HashXXHash uses XXH64, expanded in counter mode.
	HashXXHash HashAlgorithm = 3
)

var hashNames = map[HashAlgorithm]string{
	HashBLAKE2b: "blake2b",
	HashXXH3:    "xxh3",
	HashMurmur3: "murmur3",
	HashXXHash:  "xxhash",
}

// String returns the algorithm name.
func (a HashAlgorithm) String() string {
	if name, ok := hashNames[a]; ok {
		return name
	}
	return "unknown"
}

// ParseHashAlgorithm parses an algorithm name as returned by String.
func ParseHashAlgorithm(s string) (HashAlgorithm, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for a, name := range hashNames {
		if name == want {
			return a, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", streamerrors.ErrUnknownHash, s)
}

// featureHasher fills dst with the hash of feature, read as a big-endian
// integer of len(dst) bytes. Implementations keep scratch state and are
// NOT safe for concurrent use; each stream creates its own.
type featureHasher interface {
	Sum(dst, feature []byte)
}

// newFeatureHasher returns the hasher for algo producing size-byte sums.
func newFeatureHasher(algo HashAlgorithm, size int) (featureHasher, error) {
	switch algo {
	case HashBLAKE2b:
		if size <= blake2b.Size {
			h, err := blake2b.New(size, nil)
			if err != nil {
				return nil, fmt.Errorf("init blake2b: %w", err)
			}
			return &blake2bHasher{h: h}, nil
		}
		x, err := blake2b.NewXOF(uint32(size), nil)
		if err != nil {
			return nil, fmt.Errorf("init blake2xb: %w", err)
		}
		return &blake2xbHasher{x: x}, nil
	case HashXXH3:
		return xxh3Hasher{}, nil
	case HashMurmur3:
		return murmur3Hasher{}, nil
	case HashXXHash:
		return &xxhashHasher{d: xxhash.New()}, nil
	default:
		return nil, streamerrors.ErrUnknownHash
	}
}

type blake2bHasher struct {
	h hash.Hash
}

func (b *blake2bHasher) Sum(dst, feature []byte) {
	b.h.Reset()
	b.h.Write(feature)
	b.h.Sum(dst[:0])
}

type blake2xbHasher struct {
	x blake2b.XOF
}

func (b *blake2xbHasher) Sum(dst, feature []byte) {
	b.x.Reset()
	b.x.Write(feature)
	// Reading exactly the configured output length cannot fail.
	_, _ = io.ReadFull(b.x, dst)
}

// The counter-mode hashers fill dst block by block, seeding block k with k,
// and truncate the last block to fit.

type xxh3Hasher struct{}

func (xxh3Hasher) Sum(dst, feature []byte) {
	var block [16]byte
	for k := 0; k*16 < len(dst); k++ {
		h := xxh3.Hash128Seed(feature, uint64(k))
		binary.BigEndian.PutUint64(block[0:8], h.Hi)
		binary.BigEndian.PutUint64(block[8:16], h.Lo)
		copy(dst[k*16:], block[:])
	}
}

type murmur3Hasher struct{}

func (murmur3Hasher) Sum(dst, feature []byte) {
	var block [16]byte
	for k := 0; k*16 < len(dst); k++ {
		h1, h2 := murmur3.Sum128WithSeed(feature, uint32(k))
		binary.BigEndian.PutUint64(block[0:8], h1)
		binary.BigEndian.PutUint64(block[8:16], h2)
		copy(dst[k*16:], block[:])
	}
}

type xxhashHasher struct {
	d *xxhash.Digest
}

func (x *xxhashHasher) Sum(dst, feature []byte) {
	var block, counter [8]byte
	for k := 0; k*8 < len(dst); k++ {
		binary.BigEndian.PutUint64(counter[:], uint64(k))
		x.d.Reset()
		x.d.Write(counter[:])
		x.d.Write(feature)
		binary.BigEndian.PutUint64(block[:], x.d.Sum64())
		copy(dst[k*8:], block[:])
	}
}
