package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MarioArnt/azure-ad-jwt-lite/version"
)

func newVersionCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if asJSON {
				return writeJSON(a.out, version.Get())
			}
			_, err := fmt.Fprintf(a.out, "%s %s\n", serviceName, version.String())
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}
