package streamsim

import (
	"bytes"
	"context"
	"io"
	"iter"

	streamerrors "github.com/tamirms/streamsim/errors"
)

// Engine computes SimHash fingerprints over streams.
//
// Usage (whole stream):
//
//	eng, err := streamsim.New(streamsim.WithMode(streamsim.ModeText), streamsim.WithNGram(3))
//	if err != nil { return err }
//	fp, err := eng.Fingerprint(ctx, r)
//
// Usage (one fingerprint per block):
//
//	eng, err := streamsim.New(streamsim.WithBlockSize(1 << 20))
//	if err != nil { return err }
//	for blk, err := range eng.Blocks(ctx, f) {
//	    if err != nil { return err }
//	    fmt.Println(blk.Index, blk.Start, blk.End, blk.Fingerprint)
//	}
//
// An Engine holds only validated configuration. It is safe for concurrent
// use; every stream it opens owns its own buffers and counters.
type Engine struct {
	cfg config
}

// New validates opts and returns an Engine. Configuration errors are
// reported here, before any source is read.
func New(opts ...Option) (*Engine, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	// Surface hasher construction errors now rather than per stream.
	if _, err := newFeatureHasher(cfg.hash, cfg.bitlen/8); err != nil {
		return nil, err
	}
	return &Engine{cfg: *cfg}, nil
}

// Mode returns the configured feature mode.
func (e *Engine) Mode() Mode {
	return e.cfg.mode
}

// BitLen returns the fingerprint width in bits.
func (e *Engine) BitLen() int {
	return e.cfg.bitlen
}

// BlockSize returns the block size in bytes, or 0 in whole-stream mode.
func (e *Engine) BlockSize() int64 {
	return e.cfg.blockSize
}

// HashAlgorithm returns the configured feature hash.
func (e *Engine) HashAlgorithm() HashAlgorithm {
	return e.cfg.hash
}

// Open starts a lazy fingerprinting pass over r using the engine's mode:
// per-block records when a block size is configured, otherwise a single
// whole-stream record.
//
// If r implements io.Closer the stream takes ownership of it and closes it
// exactly once: when the stream is exhausted, fails, or is closed.
func (e *Engine) Open(ctx context.Context, r io.Reader) *Stream {
	return newStream(ctx, &e.cfg, r, e.cfg.blockSize)
}

// Fingerprint returns the whole-stream fingerprint of r, ignoring any
// configured block size. r is closed if it implements io.Closer.
func (e *Engine) Fingerprint(ctx context.Context, r io.Reader) (Fingerprint, error) {
	s := newStream(ctx, &e.cfg, r, 0)
	defer s.Close()
	if !s.Next() {
		return Fingerprint{}, s.Err()
	}
	fp := s.Record().Fingerprint
	// Drain so a deferred close error surfaces.
	for s.Next() {
	}
	return fp, s.Err()
}

// Sum returns the whole-stream fingerprint of an in-memory input.
func (e *Engine) Sum(data []byte) Fingerprint {
	// A bytes.Reader cannot fail and the context is never cancelled.
	fp, _ := e.Fingerprint(context.Background(), bytes.NewReader(data))
	return fp
}

// Blocks yields the per-block fingerprints of r in increasing index order.
// The engine must have been built WithBlockSize. Breaking out of the loop
// releases r.
func (e *Engine) Blocks(ctx context.Context, r io.Reader) iter.Seq2[Block, error] {
	return func(yield func(Block, error) bool) {
		if e.cfg.blockSize <= 0 {
			if c, ok := r.(io.Closer); ok {
				c.Close()
			}
			yield(Block{}, streamerrors.ErrInvalidBlockSize)
			return
		}
		for rec, err := range e.Open(ctx, r).All() {
			if err != nil {
				yield(Block{}, err)
				return
			}
			if !yield(*rec.Block, nil) {
				return
			}
		}
	}
}
