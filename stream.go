package streamsim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"

	"github.com/dustin/go-humanize"

	streamerrors "github.com/tamirms/streamsim/errors"
	"github.com/tamirms/streamsim/internal/feature"
	"github.com/tamirms/streamsim/internal/segment"
	"github.com/tamirms/streamsim/internal/vote"
)

// Stream is a single-pass, pull-based sequence of fingerprint records.
//
// Usage:
//
//	s := eng.Open(ctx, src)
//	defer s.Close()
//	for s.Next() {
//	    rec := s.Record()
//	    ...
//	}
//	if err := s.Err(); err != nil { return err }
//
// Each call to Next reads from the source only when its chunk buffer is
// exhausted, and returns as soon as one record is ready, so consuming a
// prefix of the sequence reads only a prefix of the source. A Stream cannot
// be restarted.
//
// A Stream is NOT safe for concurrent use.
type Stream struct {
	ctx    context.Context
	src    io.Reader
	closer io.Closer // nil when src is not an io.Closer
	logger *slog.Logger

	buf      []byte
	pos, n   int
	consumed int64
	drained  bool  // source returned io.EOF or an error
	readErr  error // deferred until buffered bytes are processed

	ext     feature.Extractor
	hasher  featureHasher
	weigher Weigher
	sum     []byte
	acc     *vote.Accumulator
	seg     *segment.Segmenter // nil in whole-stream mode
	emit    feature.Emit
	onBlock func(segment.Closed)

	ready    []Record
	rec      Record
	err      error
	done     bool
	closed   bool
	aborted  bool // Close was called before the stream finished
	features int64
	blocks   int64
}

func newStream(ctx context.Context, cfg *config, r io.Reader, blockSize int64) *Stream {
	// Validated by New; cannot fail here.
	h, _ := newFeatureHasher(cfg.hash, cfg.bitlen/8)

	s := &Stream{
		ctx:     ctx,
		src:     r,
		logger:  cfg.logger,
		buf:     make([]byte, cfg.chunkSize),
		ext:     newExtractor(cfg),
		hasher:  h,
		weigher: cfg.weigher,
		sum:     make([]byte, cfg.bitlen/8),
		acc:     vote.New(cfg.bitlen),
	}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}
	if blockSize > 0 {
		s.seg = segment.New(blockSize, s.acc)
	}
	s.emit = s.onFeature
	s.onBlock = s.closeBlock

	s.logger.Debug("stream opened",
		"mode", cfg.mode.String(),
		"bitlen", cfg.bitlen,
		"hash", cfg.hash.String(),
		"block_size", blockSize,
		"chunk_size", humanize.IBytes(uint64(cfg.chunkSize)))
	return s
}

// Next advances to the next record. It returns false when the stream is
// exhausted, has failed, or has been closed; Err distinguishes the cases.
func (s *Stream) Next() bool {
	for {
		if len(s.ready) > 0 {
			s.rec = s.ready[0]
			s.ready = s.ready[1:]
			return true
		}
		if s.done {
			if s.aborted && s.err == nil {
				s.err = streamerrors.ErrStreamClosed
			}
			return false
		}
		if s.pos < s.n {
			s.process()
			continue
		}
		if s.drained {
			if s.readErr != nil {
				s.fail(s.readErr)
				return false
			}
			s.finish()
			continue
		}
		s.fill()
	}
}

// Record returns the record produced by the last successful Next.
func (s *Stream) Record() Record {
	return s.rec
}

// Err returns the first error encountered, or nil. Read failures wrap
// errors.ErrSource; cancellation returns the context's error.
func (s *Stream) Err() error {
	return s.err
}

// Close abandons the stream and releases the source. It is safe to call
// more than once and after the stream is exhausted. Calling Next on a
// stream closed early sets Err to errors.ErrStreamClosed.
func (s *Stream) Close() error {
	if !s.done {
		s.aborted = true
	}
	s.done = true
	s.ready = nil
	return s.release()
}

// All returns the remaining records as an iterator. The stream is closed
// when iteration ends, including on an early break. A failure is yielded
// once as the final element.
func (s *Stream) All() iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		defer s.Close()
		for s.Next() {
			if !yield(s.rec, nil) {
				return
			}
		}
		if s.err != nil {
			yield(Record{}, s.err)
		}
	}
}

// fill reads the next chunk. The context is checked before every read.
func (s *Stream) fill() {
	if s.ctx != nil {
		if err := s.ctx.Err(); err != nil {
			s.drained, s.readErr = true, err
			return
		}
	}
	n, err := s.src.Read(s.buf)
	s.pos, s.n = 0, n
	switch {
	case err == io.EOF:
		s.drained = true
	case err != nil:
		s.drained = true
		s.readErr = fmt.Errorf("%w: read: %w", streamerrors.ErrSource, err)
	}
}

// process feeds buffered bytes to the extractor until a record is ready or
// the buffer is exhausted.
func (s *Stream) process() {
	for s.pos < s.n && len(s.ready) == 0 {
		b := s.buf[s.pos]
		off := s.consumed
		s.pos++
		s.consumed++
		s.ext.Push(b, off, s.emit)
	}
}

// onFeature routes, weighs, hashes and votes one feature. Routing happens
// before weighing, so a zero-weight feature can still close earlier blocks.
func (s *Stream) onFeature(f []byte, end int64) {
	s.features++
	if s.seg != nil {
		s.seg.Advance(end, s.consumed, s.onBlock)
	}
	w := s.weigher.Weigh(f)
	if w == 0 {
		return
	}
	s.hasher.Sum(s.sum, f)
	if s.seg != nil {
		s.seg.Vote(s.sum, int64(w))
	} else {
		s.acc.Add(s.sum, int64(w))
	}
}

func (s *Stream) closeBlock(c segment.Closed) {
	s.blocks++
	blk := &Block{
		Index:       c.Index,
		Start:       c.Start,
		End:         c.End,
		Fingerprint: newFingerprint(c.Sign),
	}
	s.ready = append(s.ready, Record{Fingerprint: blk.Fingerprint, Block: blk})
}

// finish flushes the extractor, finalizes the last scope and releases the
// source. Records produced here are still returned by Next.
func (s *Stream) finish() {
	s.ext.Flush(s.emit)
	if s.seg != nil {
		s.seg.Finish(s.consumed, s.onBlock)
	} else {
		s.acc.Sign(s.sum)
		s.ready = append(s.ready, Record{Fingerprint: newFingerprint(s.sum)})
	}
	s.done = true
	s.logger.Debug("stream finished",
		"bytes", s.consumed,
		"size", humanize.IBytes(uint64(s.consumed)),
		"features", s.features,
		"blocks", s.blocks)
	if err := s.release(); err != nil {
		s.err = err
	}
}

func (s *Stream) fail(err error) {
	s.done = true
	s.ready = nil
	s.err = errors.Join(err, s.release())
	s.logger.Debug("stream failed", "bytes", s.consumed, "error", err)
}

// release closes the source once.
func (s *Stream) release() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.closer == nil {
		return nil
	}
	if err := s.closer.Close(); err != nil {
		return fmt.Errorf("%w: close: %w", streamerrors.ErrSource, err)
	}
	return nil
}
