// Package source opens fingerprinting inputs: files, stdin and compressed
// files, and expands command-line path arguments into a list of inputs.
//
// Open returns a forward-only io.ReadCloser. Compression is detected from
// the file name suffix and removed transparently, so the engine always sees
// the decompressed bytes.
package source

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/edsrzf/mmap-go"

	streamerrors "github.com/tamirms/streamsim/errors"
)

// Stdin is the path argument that selects standard input.
const Stdin = "-"

// Option configures Open.
type Option func(*options)

type options struct {
	mmap  bool
	stdin io.Reader
}

// WithMmap reads plain and compressed files through a read-only memory
// mapping instead of read(2) calls.
func WithMmap() Option {
	return func(o *options) {
		o.mmap = true
	}
}

// WithStdin replaces os.Stdin as the reader behind the "-" path.
func WithStdin(r io.Reader) Option {
	return func(o *options) {
		o.stdin = r
	}
}

// Open opens path for sequential reading, decompressing it when its suffix
// names a supported format (see Detect). The path "-" reads standard input,
// which is never closed by the returned reader.
//
// Every error wraps errors.ErrSource.
func Open(path string, opts ...Option) (io.ReadCloser, error) {
	o := options{stdin: os.Stdin}
	for _, opt := range opts {
		opt(&o)
	}

	if path == Stdin {
		return io.NopCloser(o.stdin), nil
	}

	raw, err := openFile(path, o.mmap)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", streamerrors.ErrSource, path, err)
	}
	c := Detect(path)
	if c == None {
		return raw, nil
	}
	rc, err := c.newReader(raw)
	if err != nil {
		return nil, errors.Join(
			fmt.Errorf("%w: %s header of %s: %w", streamerrors.ErrSource, c, path, err),
			raw.Close())
	}
	return rc, nil
}

func openFile(path string, useMmap bool) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !useMmap {
		fadviseSequential(int(f.Fd()), 0, 0)
		return f, nil
	}

	// The mapping outlives the descriptor; close f either way.
	defer f.Close()
	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	}
	if !stat.Mode().IsRegular() {
		return nil, fmt.Errorf("mmap: %s is not a regular file", path)
	}
	if stat.Size() == 0 {
		// Zero-length mappings are rejected by the kernel.
		return io.NopCloser(bytes.NewReader(nil)), nil
	}
	mm, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("mmap: %w", err)
	}
	madviseSequential(mm)
	return &mappedFile{mm: mm, Reader: bytes.NewReader(mm)}, nil
}

// mappedFile reads a read-only mapping and unmaps it on Close.
type mappedFile struct {
	*bytes.Reader
	mm     mmap.MMap
	closed bool
}

func (m *mappedFile) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	m.Reader = bytes.NewReader(nil)
	return m.mm.Unmap()
}
