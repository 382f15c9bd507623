package source

import (
	"compress/bzip2"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"
)

// Compression identifies a container format recognised by Open.
type Compression uint8

const (
	None Compression = iota
	Gzip
	Bzip2
	XZ
	LZMA
	Zstd
)

var compressionNames = map[Compression]string{
	None:  "none",
	Gzip:  "gzip",
	Bzip2: "bzip2",
	XZ:    "xz",
	LZMA:  "lzma",
	Zstd:  "zstd",
}

// String returns the format name.
func (c Compression) String() string {
	if name, ok := compressionNames[c]; ok {
		return name
	}
	return "unknown"
}

// suffixes maps lowercase file name suffixes to formats. Longer suffixes
// come first where one is a suffix of another.
var suffixes = []struct {
	suffix string
	c      Compression
}{
	{".gzip", Gzip},
	{".gz", Gzip},
	{".bzip2", Bzip2},
	{".bz2", Bzip2},
	{".xz", XZ},
	{".lzma", LZMA},
	{".zstd", Zstd},
	{".zst", Zstd},
}

// Detect returns the compression implied by path's suffix, ignoring case.
// Unrecognised suffixes, including none at all, yield None.
func Detect(path string) Compression {
	name := strings.ToLower(filepath.Base(path))
	for _, s := range suffixes {
		if strings.HasSuffix(name, s.suffix) {
			return s.c
		}
	}
	return None
}

// newReader wraps raw in a decompressor. The returned reader closes both.
func (c Compression) newReader(raw io.ReadCloser) (io.ReadCloser, error) {
	switch c {
	case Gzip:
		zr, err := gzip.NewReader(raw)
		if err != nil {
			return nil, err
		}
		return &stacked{Reader: zr, closers: []func() error{zr.Close, raw.Close}}, nil
	case Bzip2:
		return &stacked{Reader: bzip2.NewReader(raw), closers: []func() error{raw.Close}}, nil
	case XZ:
		xr, err := xz.NewReader(raw)
		if err != nil {
			return nil, err
		}
		return &stacked{Reader: xr, closers: []func() error{raw.Close}}, nil
	case LZMA:
		lr, err := lzma.NewReader(raw)
		if err != nil {
			return nil, err
		}
		return &stacked{Reader: lr, closers: []func() error{raw.Close}}, nil
	case Zstd:
		zr, err := zstd.NewReader(raw, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, err
		}
		closeDecoder := func() error {
			zr.Close()
			return nil
		}
		return &stacked{Reader: zr, closers: []func() error{closeDecoder, raw.Close}}, nil
	default:
		return raw, nil
	}
}

// stacked is a decompressing reader over an underlying file. Close runs
// every closer once, outermost first.
type stacked struct {
	io.Reader
	closers []func() error
}

func (s *stacked) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	s.closers = nil
	return errors.Join(errs...)
}
