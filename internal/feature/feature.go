// Package feature turns a byte stream into a sequence of SimHash features.
//
// Extractors are pushed one byte at a time together with the byte's stream
// offset, and report each completed feature with the offset of the byte
// that completed it. Because nothing depends on how the caller batches its
// reads, every extractor produces the same features for the same bytes
// regardless of read chunking.
//
// Feature slices passed to Emit are owned by the extractor and are only
// valid until Emit returns.
package feature

// Emit receives one completed feature and the stream offset of the feature's
// last byte.
type Emit func(feature []byte, end int64)

// Extractor is the common interface of all feature modes.
//
// An Extractor is NOT safe for concurrent use; each stream owns its own.
type Extractor interface {
	// Push consumes the byte at stream offset off and calls emit for every
	// feature it completes.
	Push(b byte, off int64, emit Emit)

	// Flush completes whatever the end of input completes. Partial n-gram
	// windows are never emitted.
	Flush(emit Emit)
}
