// Package format renders fingerprint records as tab-separated or JSON lines.
package format

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/tamirms/streamsim"
)

// Entry is one output line: a record plus the input it came from.
type Entry struct {
	Path   string
	Mode   streamsim.Mode
	Record streamsim.Record
}

// Writer serialises entries. Implementations buffer; call Flush when done.
type Writer interface {
	Write(Entry) error
	Flush() error
}

// TSV writes
//
//	hex <TAB> bitlen <TAB> mode <TAB> path
//
// for whole-stream records, and appends
//
//	<TAB> block=N <TAB> [start,end)
//
// for block records.
type TSV struct {
	w   *bufio.Writer
	buf []byte
}

// NewTSV returns a TSV writer on w.
func NewTSV(w io.Writer) *TSV {
	return &TSV{w: bufio.NewWriter(w)}
}

// Write implements Writer.
func (t *TSV) Write(e Entry) error {
	fp := e.Record.Fingerprint
	b := t.buf[:0]
	b = append(b, fp.Hex()...)
	b = append(b, '\t')
	b = strconv.AppendInt(b, int64(fp.BitLen()), 10)
	b = append(b, '\t')
	b = append(b, e.Mode.String()...)
	b = append(b, '\t')
	b = append(b, e.Path...)
	if blk := e.Record.Block; blk != nil {
		b = append(b, "\tblock="...)
		b = strconv.AppendInt(b, blk.Index, 10)
		b = append(b, "\t["...)
		b = strconv.AppendInt(b, blk.Start, 10)
		b = append(b, ',')
		b = strconv.AppendInt(b, blk.End, 10)
		b = append(b, ')')
	}
	b = append(b, '\n')
	t.buf = b
	_, err := t.w.Write(b)
	return err
}

// Flush implements Writer.
func (t *TSV) Flush() error {
	return t.w.Flush()
}

// JSON writes one object per line. Whole-stream records carry the keys
// path, simhash_hex, bitlen and mode; block records carry path, block,
// start, end, bitlen, mode and simhash_hex.
type JSON struct {
	w   *bufio.Writer
	enc *json.Encoder
}

// NewJSON returns a JSON-lines writer on w. Non-ASCII and HTML characters
// in paths are written verbatim.
func NewJSON(w io.Writer) *JSON {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	return &JSON{w: bw, enc: enc}
}

type wholeLine struct {
	Path   string `json:"path"`
	Hex    string `json:"simhash_hex"`
	BitLen int    `json:"bitlen"`
	Mode   string `json:"mode"`
}

type blockLine struct {
	Path   string `json:"path"`
	Block  int64  `json:"block"`
	Start  int64  `json:"start"`
	End    int64  `json:"end"`
	BitLen int    `json:"bitlen"`
	Mode   string `json:"mode"`
	Hex    string `json:"simhash_hex"`
}

// Write implements Writer.
func (j *JSON) Write(e Entry) error {
	fp := e.Record.Fingerprint
	var v any
	if blk := e.Record.Block; blk != nil {
		v = blockLine{
			Path:   e.Path,
			Block:  blk.Index,
			Start:  blk.Start,
			End:    blk.End,
			BitLen: fp.BitLen(),
			Mode:   e.Mode.String(),
			Hex:    fp.Hex(),
		}
	} else {
		v = wholeLine{Path: e.Path, Hex: fp.Hex(), BitLen: fp.BitLen(), Mode: e.Mode.String()}
	}
	if err := j.enc.Encode(v); err != nil {
		return fmt.Errorf("encode %s: %w", e.Path, err)
	}
	return nil
}

// Flush implements Writer.
func (j *JSON) Flush() error {
	return j.w.Flush()
}
