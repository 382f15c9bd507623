package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tamirms/streamsim"
)

func newDistanceCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "distance HEX HEX",
		Short:       "Print the Hamming distance between two hex fingerprints",
		Args:        cobra.ExactArgs(2),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := streamsim.ParseHex(args[0])
			if err != nil {
				return err
			}
			b, err := streamsim.ParseHex(args[1])
			if err != nil {
				return err
			}
			d, err := streamsim.Distance(a, b)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), d)
			return nil
		},
	}
}
