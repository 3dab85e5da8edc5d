package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MarioArnt/azure-ad-jwt-lite/discovery"
)

func newKeysCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Fetch the discovery key set and list its key ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			vc := a.cfg.Verifier
			hc, err := vc.TLS.HTTPClient(vc.HTTPTimeout)
			if err != nil {
				return err
			}
			client := discovery.NewClient(
				discovery.WithHTTPClient(hc),
				discovery.WithLogger(a.log.WithComponent("discovery")),
				discovery.WithMetrics(a.metrics),
			)
			ks, err := client.Fetch(cmd.Context(), discovery.Request{
				URL:        vc.DiscoveryURL,
				MaxRetries: vc.MaxRetries,
				Backoff:    vc.RetryBackoff,
			})
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(a.out, ks)
			}
			for _, k := range ks.Keys {
				fmt.Fprintf(a.out, "%s\t%s\t%s\n", k.KeyID, k.KeyType, k.Use)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full key set as JSON")
	return cmd
}
