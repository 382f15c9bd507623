package main

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/tamirms/streamsim"
)

type pairDistance struct {
	a, b     string
	distance int
	bitlen   int
}

func newCompareCommand(ctx *commandContext) *cobra.Command {
	var threshold int

	cmd := &cobra.Command{
		Use:   "compare [flags] paths...",
		Short: "Print pairwise Hamming distances between whole-input fingerprints",
		Long: `Fingerprint every input as a whole (--block-size is ignored) and print a
table of pairwise Hamming distances, most similar first. Similarity is
1 - distance/bitlen.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := ctx.engine(streamsim.WithBlockSize(0))
			if err != nil {
				return err
			}
			paths, err := ctx.inputs(args)
			if err != nil {
				return err
			}
			if len(paths) < 2 {
				return fmt.Errorf("compare needs at least two inputs, got %d", len(paths))
			}

			names := make([]string, 0, len(paths))
			fps := make([]streamsim.Fingerprint, 0, len(paths))
			err = eng.Batch(cmd.Context(), paths, ctx.opener(cmd, false), ctx.cfg.Jobs, func(r streamsim.Result) error {
				if r.Err != nil {
					return fmt.Errorf("%s: %w", r.Name, r.Err)
				}
				if !r.Done {
					names = append(names, r.Name)
					fps = append(fps, r.Record.Fingerprint)
				}
				return nil
			})
			if err != nil {
				return err
			}

			pairs := comparePairs(names, fps, threshold)
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderPairs(pairs))
			fmt.Fprintf(out, "%s pairs over %s inputs\n",
				humanize.Comma(int64(len(pairs))), humanize.Comma(int64(len(names))))
			return nil
		},
	}
	cmd.Flags().IntVar(&threshold, "max-distance", -1, "only list pairs at most this far apart (-1 lists all)")
	return cmd
}

// renderPairs draws the distance table, numbers right-aligned.
func renderPairs(pairs []pairDistance) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"A", "B", "Distance", "Similarity"})
	for _, p := range pairs {
		sim := 100 * (1 - float64(p.distance)/float64(p.bitlen))
		tw.AppendRow(table.Row{p.a, p.b, p.distance, humanize.FormatFloat("#.##", sim) + "%"})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	return tw.Render()
}

// comparePairs returns every pair i < j within threshold (negative means
// no limit), sorted by distance and then input order.
func comparePairs(names []string, fps []streamsim.Fingerprint, threshold int) []pairDistance {
	var pairs []pairDistance
	for i := range fps {
		for j := i + 1; j < len(fps); j++ {
			// Widths match: one engine produced every fingerprint.
			d, _ := fps[i].Distance(fps[j])
			if threshold >= 0 && d > threshold {
				continue
			}
			pairs = append(pairs, pairDistance{a: names[i], b: names[j], distance: d, bitlen: fps[i].BitLen()})
		}
	}
	slices.SortStableFunc(pairs, func(x, y pairDistance) int {
		return cmp.Compare(x.distance, y.distance)
	})
	return pairs
}
