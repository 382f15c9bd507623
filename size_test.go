package streamsim

import (
	"errors"
	"testing"

	streamerrors "github.com/tamirms/streamsim/errors"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"64K", 65536},
		{"1M", 1048576},
		{"4MiB", 4194304},
		{"0", 0},
		{"512", 512},
		{"512b", 512},
		{"2G", 2 << 30},
		{"1t", 1 << 40},
		{"1.5MB", 1572864},
		{"1.5kib", 1536},
		{"  16 kb  ", 16384},
		{"0.3k", 307},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSize(tt.in)
			if err != nil {
				t.Fatalf("ParseSize(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseSize(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseSizeRejects(t *testing.T) {
	for _, in := range []string{"", "7xyz", "K", "-1K", "1.K", "1 ki", "1e3", "1 pb", "1,024"} {
		if _, err := ParseSize(in); !errors.Is(err, streamerrors.ErrInvalidSize) {
			t.Errorf("ParseSize(%q) error = %v, want ErrInvalidSize", in, err)
		}
	}
}

func TestFormatSize(t *testing.T) {
	if got := FormatSize(1 << 20); got != "1.0 MiB" {
		t.Errorf("FormatSize(1MiB) = %q", got)
	}
	if got := FormatSize(512); got != "512 B" {
		t.Errorf("FormatSize(512) = %q", got)
	}
}
