// Package errors defines all exported error sentinels for the streamsim library.
//
// This is the single source of truth for error values. The top-level
// streamsim package, the source opener and the internal packages all import
// from here, so errors.Is checks work across package boundaries.
package errors

import "errors"

// Configuration errors, returned by streamsim.New before any source is read.
var (
	ErrInvalidNGram     = errors.New("streamsim: ngram size must be at least 1")
	ErrInvalidStep      = errors.New("streamsim: step must be at least 1")
	ErrInvalidBitLen    = errors.New("streamsim: bit length must be a positive multiple of 8")
	ErrInvalidBitWindow = errors.New("streamsim: bit window must be in [1, 512] with step at least 1")
	ErrInvalidBlockSize = errors.New("streamsim: block size must be positive")
	ErrInvalidChunkSize = errors.New("streamsim: chunk size must be positive")
	ErrUnknownMode      = errors.New("streamsim: unknown feature mode")
	ErrUnknownHash      = errors.New("streamsim: unknown hash algorithm")
)

// Parse errors
var (
	ErrInvalidSize        = errors.New("streamsim: invalid size string")
	ErrInvalidFingerprint = errors.New("streamsim: invalid fingerprint encoding")
)

// Stream errors
var (
	ErrSource       = errors.New("streamsim: source i/o failure")
	ErrStreamClosed = errors.New("streamsim: stream is closed")
)

// Comparison errors
var (
	ErrBitLenMismatch = errors.New("streamsim: fingerprint bit lengths differ")
)
