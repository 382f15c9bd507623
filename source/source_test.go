package source

import (
	"bytes"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"

	streamerrors "github.com/tamirms/streamsim/errors"
)

var payload = []byte(strings.Repeat("the same payload, compressed several ways\n", 200))

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func compress(t *testing.T, c Compression, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	var w io.WriteCloser
	var err error
	switch c {
	case Gzip:
		w = gzip.NewWriter(&buf)
	case Zstd:
		w, err = zstd.NewWriter(&buf)
	case XZ:
		w, err = xz.NewWriter(&buf)
	case LZMA:
		w, err = lzma.NewWriter(&buf)
	default:
		t.Fatalf("no writer for %s", c)
	}
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func readAll(t *testing.T, path string, opts ...Option) []byte {
	t.Helper()
	rc, err := Open(path, opts...)
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	return got
}

func TestDetect(t *testing.T) {
	tests := map[string]Compression{
		"a.txt":          None,
		"noext":          None,
		"a.gz":           Gzip,
		"A.TXT.GZ":       Gzip,
		"a.tar.gzip":     Gzip,
		"a.bz2":          Bzip2,
		"a.bzip2":        Bzip2,
		"a.xz":           XZ,
		"a.lzma":         LZMA,
		"a.zst":          Zstd,
		"a.zstd":         Zstd,
		"dir.gz/file":    None,
		"archive.gz.bak": None,
	}
	for path, want := range tests {
		assert.Equal(t, want, Detect(path), path)
	}
}

func TestOpenRoundTrip(t *testing.T) {
	dir := t.TempDir()
	for _, c := range []Compression{Gzip, Zstd, XZ, LZMA} {
		for _, useMmap := range []bool{false, true} {
			name := "payload." + c.String()
			path := writeFile(t, dir, name, compress(t, c, payload))
			var opts []Option
			if useMmap {
				opts = append(opts, WithMmap())
			}
			assert.Equal(t, payload, readAll(t, path, opts...), "%s mmap=%v", c, useMmap)
		}
	}
}

func TestOpenBzip2(t *testing.T) {
	blob, err := hex.DecodeString("425a6839314159265359a4534a50000003d9800010400010001664d0902000229813686a100001c3dc58f1dc8e1380fc5dc914e14242914d2940")
	require.NoError(t, err)
	path := writeFile(t, t.TempDir(), "hello.bz2", blob)
	assert.Equal(t, "hello bzip2 world\n", string(readAll(t, path)))
}

func TestOpenPlain(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "plain.bin", payload)
	assert.Equal(t, payload, readAll(t, path))
	assert.Equal(t, payload, readAll(t, path, WithMmap()))

	empty := writeFile(t, dir, "empty.bin", nil)
	assert.Empty(t, readAll(t, empty, WithMmap()))
}

func TestOpenMappedCloseIsIdempotent(t *testing.T) {
	path := writeFile(t, t.TempDir(), "m.bin", payload)
	rc, err := Open(path, WithMmap())
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	require.NoError(t, rc.Close())
	n, err := rc.Read(make([]byte, 8))
	assert.Zero(t, n)
	assert.ErrorIs(t, err, io.EOF)
}

func TestOpenStdin(t *testing.T) {
	rc, err := Open(Stdin, WithStdin(strings.NewReader("from stdin")))
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "from stdin", string(got))
	assert.NoError(t, rc.Close())
}

func TestOpenErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Open(filepath.Join(dir, "missing.txt"))
	assert.ErrorIs(t, err, streamerrors.ErrSource)
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := writeFile(t, dir, "bad.gz", []byte("not gzip at all"))
	_, err = Open(bad)
	assert.ErrorIs(t, err, streamerrors.ErrSource)

	_, err = Open(dir, WithMmap())
	assert.ErrorIs(t, err, streamerrors.ErrSource)
}

func TestExpand(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.txt", []byte("b"))
	writeFile(t, dir, "a.txt", []byte("a"))
	writeFile(t, dir, "c.log", []byte("c"))
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	writeFile(t, sub, "d.txt", []byte("d"))

	t.Run("flat", func(t *testing.T) {
		got, err := Expand([]string{dir}, false)
		require.NoError(t, err)
		assert.Equal(t, []string{
			filepath.Join(dir, "a.txt"),
			filepath.Join(dir, "b.txt"),
			filepath.Join(dir, "c.log"),
		}, got)
	})
	t.Run("recursive", func(t *testing.T) {
		got, err := Expand([]string{dir}, true)
		require.NoError(t, err)
		assert.Equal(t, []string{
			filepath.Join(dir, "a.txt"),
			filepath.Join(dir, "b.txt"),
			filepath.Join(dir, "c.log"),
			filepath.Join(sub, "d.txt"),
		}, got)
	})
	t.Run("glob and passthrough", func(t *testing.T) {
		file := filepath.Join(dir, "c.log")
		got, err := Expand([]string{"-", filepath.Join(dir, "*.txt"), file, filepath.Join(dir, "*.none")}, false)
		require.NoError(t, err)
		assert.Equal(t, []string{
			"-",
			filepath.Join(dir, "a.txt"),
			filepath.Join(dir, "b.txt"),
			file,
		}, got)
	})
	t.Run("bad pattern", func(t *testing.T) {
		_, err := Expand([]string{filepath.Join(dir, "[")}, false)
		assert.ErrorIs(t, err, streamerrors.ErrSource)
	})
}
