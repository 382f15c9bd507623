package streamsim

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/dustin/go-humanize"

	streamerrors "github.com/tamirms/streamsim/errors"
)

var sizePattern = regexp.MustCompile(`(?i)^\s*(\d+(?:\.\d+)?)\s*([kmgt]?i?b?)\s*$`)

// iecUnits maps every accepted unit spelling to its IEC form. Plain K, KB and
// KiB all mean 1024.
var iecUnits = map[string]string{
	"": "B", "b": "B",
	"k": "KiB", "kb": "KiB", "kib": "KiB",
	"m": "MiB", "mb": "MiB", "mib": "MiB",
	"g": "GiB", "gb": "GiB", "gib": "GiB",
	"t": "TiB", "tb": "TiB", "tib": "TiB",
}

// ParseSize parses sizes such as "64K", "1M", "4MiB", "2G" or "1.5MB" into
// bytes. Units are case-insensitive and always binary. Fractional results
// are truncated toward zero.
func ParseSize(s string) (int64, error) {
	m := sizePattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", streamerrors.ErrInvalidSize, s)
	}
	unit, ok := iecUnits[strings.ToLower(m[2])]
	if !ok {
		return 0, fmt.Errorf("%w: unit in %q", streamerrors.ErrInvalidSize, s)
	}
	n, err := humanize.ParseBytes(m[1] + " " + unit)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", streamerrors.ErrInvalidSize, s, err)
	}
	if n > math.MaxInt64 {
		return 0, fmt.Errorf("%w: %q overflows", streamerrors.ErrInvalidSize, s)
	}
	return int64(n), nil
}

// FormatSize renders n bytes with binary units, e.g. "1.0 MiB".
func FormatSize(n int64) string {
	if n < 0 {
		return "-" + humanize.IBytes(uint64(-n))
	}
	return humanize.IBytes(uint64(n))
}
