// Command simhash prints SimHash fingerprints of files, directories and
// standard input, one per input or one per fixed-size block.
//
// Usage:
//
//	simhash [flags] paths...
//	simhash compare [flags] paths...
//	simhash distance HEX HEX
//	simhash config sample
//
// Output is tab-separated (hex, bitlen, mode, path[, block=N, [start,end)])
// or, with --json, one JSON object per line.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := newRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "simhash: %v\n", err)
		}
		stop()
		os.Exit(1)
	}
}
