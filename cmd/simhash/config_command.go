package main

import (
	"github.com/spf13/cobra"

	"github.com/tamirms/streamsim/internal/config"
)

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "config",
		Short:       "Configuration helpers",
		Annotations: map[string]string{"skipConfigLoad": "true"},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "sample",
		Short: "Print a TOML configuration file holding the defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sample, err := config.Sample()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(sample)
			return err
		},
	})
	return cmd
}
