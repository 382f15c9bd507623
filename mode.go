package streamsim

import (
	"fmt"
	"strings"

	streamerrors "github.com/tamirms/streamsim/errors"
	"github.com/tamirms/streamsim/internal/feature"
)

// Mode identifies how a stream is split into features.
type Mode uint8

const (
	// ModeBytes hashes sliding byte n-grams. This is the default.
	ModeBytes Mode = iota

	// ModeText hashes case-folded word tokens or token n-grams.
	ModeText

	// ModeBits hashes sliding bit windows.
	ModeBits
)

var modeNames = map[Mode]string{
	ModeBytes: "bytes",
	ModeText:  "text",
	ModeBits:  "bits",
}

// String returns the mode name.
func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return "unknown"
}

// ParseMode parses a mode name ("bytes", "text" or "bits").
func ParseMode(s string) (Mode, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for m, name := range modeNames {
		if name == want {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", streamerrors.ErrUnknownMode, s)
}

// newExtractor builds the feature extractor for one stream.
func newExtractor(c *config) feature.Extractor {
	switch c.mode {
	case ModeText:
		return feature.NewText(c.ngram)
	case ModeBits:
		return feature.NewBits(c.nbits, c.stepBits)
	default:
		return feature.NewBytes(c.ngram, c.step)
	}
}
