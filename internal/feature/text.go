package feature

import (
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// tokenSep joins the tokens of a token n-gram.
const tokenSep = ' '

// Text emits case-folded word tokens, or n-grams of consecutive tokens
// joined by a single space when n > 1.
//
// Input is decoded as UTF-8 incrementally, so a rune split across two reads
// decodes the same as an unsplit one. Invalid bytes are dropped without
// ending the current token. Word runes are letters, numbers and '_'.
//
// Tokens are classified again after case folding, so a rune whose lower
// case form contains a non-word rune splits the token: "İstanbul" folds to
// "i\u0307stanbul" and yields "i" and "stanbul".
type Text struct {
	n     int
	caser cases.Caser

	pend  [utf8.UTFMax]byte // undecoded bytes of the current rune
	npend int

	tok    []byte  // raw bytes of the token being scanned
	tokEnd int64   // offset of the token's last byte
	runes  []int   // end index in tok of each rune
	ends   []int64 // stream offset of each rune's last byte

	part []byte // folded sub-token while splitting

	// window holds the previous n-1 folded tokens as a ring.
	window [][]byte
	whead  int
	wcount int

	out []byte
}

// NewText returns a text extractor. n <= 1 emits single tokens.
func NewText(n int) *Text {
	x := &Text{
		n:     n,
		caser: cases.Lower(language.Und),
	}
	if n > 1 {
		x.window = make([][]byte, n-1)
	}
	return x
}

// Push implements Extractor.
func (x *Text) Push(b byte, off int64, emit Emit) {
	x.pend[x.npend] = b
	x.npend++
	for x.npend > 0 && utf8.FullRune(x.pend[:x.npend]) {
		r, size := utf8.DecodeRune(x.pend[:x.npend])
		if r != utf8.RuneError || size > 1 {
			// The rune's last byte precedes the bytes still pending.
			x.scan(r, x.pend[:size], off-int64(x.npend-size), emit)
		}
		x.npend = copy(x.pend[:], x.pend[size:x.npend])
	}
}

// Flush implements Extractor. A trailing incomplete rune is dropped and the
// last token, if any, is completed.
func (x *Text) Flush(emit Emit) {
	x.npend = 0
	x.endToken(emit)
}

func (x *Text) scan(r rune, enc []byte, last int64, emit Emit) {
	if isWord(r) {
		x.tok = append(x.tok, enc...)
		x.tokEnd = last
		x.runes = append(x.runes, len(x.tok))
		x.ends = append(x.ends, last)
		return
	}
	x.endToken(emit)
}

func isWord(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

func allWord(b []byte) bool {
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if !isWord(r) {
			return false
		}
		b = b[size:]
	}
	return true
}

func (x *Text) endToken(emit Emit) {
	if len(x.tok) == 0 {
		return
	}
	folded := x.caser.Bytes(x.tok)
	if allWord(folded) {
		x.pushToken(folded, x.tokEnd, emit)
	} else {
		x.split(emit)
	}
	x.tok = x.tok[:0]
	x.runes = x.runes[:0]
	x.ends = x.ends[:0]
}

// split folds the current token rune by rune and emits its word runs, each
// ending at the offset of the last raw rune it draws from.
func (x *Text) split(emit Emit) {
	x.part = x.part[:0]
	var partEnd int64
	start := 0
	for i, end := range x.runes {
		folded := x.caser.Bytes(x.tok[start:end])
		start = end
		for len(folded) > 0 {
			r, size := utf8.DecodeRune(folded)
			if isWord(r) {
				x.part = append(x.part, folded[:size]...)
				partEnd = x.ends[i]
			} else if len(x.part) > 0 {
				x.pushToken(x.part, partEnd, emit)
				x.part = x.part[:0]
			}
			folded = folded[size:]
		}
	}
	if len(x.part) > 0 {
		x.pushToken(x.part, partEnd, emit)
		x.part = x.part[:0]
	}
}

// pushToken emits folded, or the n-gram it completes, at offset end.
func (x *Text) pushToken(folded []byte, end int64, emit Emit) {
	if x.n <= 1 {
		emit(folded, end)
		return
	}

	size := len(x.window)
	if x.wcount == size {
		x.out = x.out[:0]
		for i := 0; i < size; i++ {
			x.out = append(x.out, x.window[(x.whead+i)%size]...)
			x.out = append(x.out, tokenSep)
		}
		x.out = append(x.out, folded...)
		emit(x.out, end)
	} else {
		x.wcount++
	}
	// Overwrite the oldest slot; whead then points at the new oldest.
	x.window[x.whead] = append(x.window[x.whead][:0], folded...)
	x.whead = (x.whead + 1) % size
}
