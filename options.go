package streamsim

import (
	"io"
	"log/slog"

	streamerrors "github.com/tamirms/streamsim/errors"
	"github.com/tamirms/streamsim/internal/feature"
)

const (
	// DefaultBitLen is the default fingerprint width in bits.
	DefaultBitLen = 128

	// DefaultNGram is the default token/byte n-gram size.
	DefaultNGram = 7

	// DefaultBitWindow is the default bit-window length for ModeBits.
	DefaultBitWindow = 64

	// DefaultChunkSize is the default read size. It never affects output.
	DefaultChunkSize = 1 << 20
)

// Option is a functional option for configuring an Engine.
type Option func(*config)

type config struct {
	mode      Mode
	bitlen    int
	ngram     int
	step      int
	nbits     int
	stepBits  int
	blockSize int64 // 0 = whole-stream mode
	chunkSize int
	hash      HashAlgorithm
	weigher   Weigher
	logger    *slog.Logger
}

func defaultConfig() *config {
	return &config{
		mode:      ModeBytes,
		bitlen:    DefaultBitLen,
		ngram:     DefaultNGram,
		step:      1,
		nbits:     DefaultBitWindow,
		stepBits:  1,
		chunkSize: DefaultChunkSize,
		hash:      HashBLAKE2b,
		weigher:   unitWeight{},
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// validate rejects configurations before any stream is touched.
func (c *config) validate() error {
	if c.bitlen <= 0 || c.bitlen%8 != 0 {
		return streamerrors.ErrInvalidBitLen
	}
	if c.ngram < 1 {
		return streamerrors.ErrInvalidNGram
	}
	if c.step < 1 {
		return streamerrors.ErrInvalidStep
	}
	if c.nbits < 1 || c.nbits > feature.MaxBitWindow || c.stepBits < 1 {
		return streamerrors.ErrInvalidBitWindow
	}
	if c.blockSize < 0 {
		return streamerrors.ErrInvalidBlockSize
	}
	if c.chunkSize <= 0 {
		return streamerrors.ErrInvalidChunkSize
	}
	if _, ok := modeNames[c.mode]; !ok {
		return streamerrors.ErrUnknownMode
	}
	if _, ok := hashNames[c.hash]; !ok {
		return streamerrors.ErrUnknownHash
	}
	return nil
}

// WithMode selects the feature mode. Default is ModeBytes.
func WithMode(m Mode) Option {
	return func(c *config) {
		c.mode = m
	}
}

// WithBitLen sets the fingerprint width. It must be a positive multiple of 8.
func WithBitLen(bits int) Option {
	return func(c *config) {
		c.bitlen = bits
	}
}

// WithNGram sets the token n-gram size (ModeText) or byte n-gram size
// (ModeBytes). It must be at least 1.
func WithNGram(n int) Option {
	return func(c *config) {
		c.ngram = n
	}
}

// WithStep keeps only every step-th byte n-gram window in ModeBytes,
// counting from the first full window. It must be at least 1.
func WithStep(step int) Option {
	return func(c *config) {
		c.step = step
	}
}

// WithBitWindow sets the window length and slide step, both in bits, for
// ModeBits.
func WithBitWindow(nbits, stepBits int) Option {
	return func(c *config) {
		c.nbits = nbits
		c.stepBits = stepBits
	}
}

// WithBlockSize switches the engine to block mode: one fingerprint per
// size-byte block of the stream. Zero restores whole-stream mode.
// Use ParseSize to build size from strings such as "64K" or "4MiB".
func WithBlockSize(size int64) Option {
	return func(c *config) {
		c.blockSize = size
	}
}

// WithChunkSize sets how many bytes are read from the source at a time.
// It bounds memory and never changes the output.
func WithChunkSize(n int) Option {
	return func(c *config) {
		c.chunkSize = n
	}
}

// WithHashAlgorithm selects the feature hash. Default is HashBLAKE2b.
func WithHashAlgorithm(a HashAlgorithm) Option {
	return func(c *config) {
		c.hash = a
	}
}

// WithWeigher sets the per-feature weight. A nil Weigher restores the
// default constant weight of 1.
func WithWeigher(w Weigher) Option {
	return func(c *config) {
		if w == nil {
			w = unitWeight{}
		}
		c.weigher = w
	}
}

// WithLogger sets the logger used for debug-level stream diagnostics.
// The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// Weigher assigns a non-negative weight to a feature. A weight of 0 skips
// the feature entirely.
//
// Weights are integers. Only their ratios affect the fingerprint, so
// fractional weights are expressed by scaling them all by a common factor
// (for example 0.25, 1.5 and 2 become 1, 6 and 8) and rounding.
//
// Weigh must not retain feature; the slice is reused after Weigh returns.
type Weigher interface {
	Weigh(feature []byte) uint32
}

// WeigherFunc adapts a function to the Weigher interface.
type WeigherFunc func(feature []byte) uint32

// Weigh implements Weigher.
func (f WeigherFunc) Weigh(feature []byte) uint32 {
	return f(feature)
}

type unitWeight struct{}

func (unitWeight) Weigh([]byte) uint32 { return 1 }
