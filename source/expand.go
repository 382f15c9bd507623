package source

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	streamerrors "github.com/tamirms/streamsim/errors"
)

// Expand turns command-line path arguments into the list of inputs to
// fingerprint, in argument order:
//
//   - "-" passes through as standard input.
//   - A directory yields its regular files, lexically sorted; with
//     recursive, files in subdirectories too (walk order).
//   - An existing file passes through unchanged.
//   - Anything else is treated as a glob pattern whose regular-file
//     matches are yielded in lexical order. Unmatched patterns yield
//     nothing.
func Expand(paths []string, recursive bool) ([]string, error) {
	var out []string
	for _, p := range paths {
		if p == Stdin {
			out = append(out, p)
			continue
		}
		info, err := os.Stat(p)
		switch {
		case err == nil && info.IsDir():
			files, err := listDir(p, recursive)
			if err != nil {
				return nil, fmt.Errorf("%w: list %s: %w", streamerrors.ErrSource, p, err)
			}
			out = append(out, files...)
		case err == nil:
			out = append(out, p)
		default:
			matches, gerr := filepath.Glob(p)
			if gerr != nil {
				return nil, fmt.Errorf("%w: pattern %q: %w", streamerrors.ErrSource, p, gerr)
			}
			slices.Sort(matches)
			for _, m := range matches {
				if isRegular(m) {
					out = append(out, m)
				}
			}
		}
	}
	return out, nil
}

func listDir(dir string, recursive bool) ([]string, error) {
	if !recursive {
		entries, err := os.ReadDir(dir) // sorted by name
		if err != nil {
			return nil, err
		}
		var out []string
		for _, e := range entries {
			if e.Type().IsRegular() {
				out = append(out, filepath.Join(dir, e.Name()))
			}
		}
		return out, nil
	}
	var out []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			out = append(out, path)
		}
		return nil
	})
	return out, err
}

func isRegular(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
