package cmd

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"chatdesk/config"
	"chatdesk/discovery"
)

func newDiscoverCommand() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Browse the local network for message backends",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := config.LoadOrCreate()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			backends, err := discovery.Browse(commandContext(cmd), discovery.Config{
				Service:     cfg.DiscoveryService,
				ScanTimeout: timeout,
			})
			if err != nil {
				return err
			}
			if len(backends) == 0 {
				return discovery.ErrNoBackend
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tURL\tVERSION")
			for _, backend := range backends {
				version := "-"
				if backend.Version > 0 {
					version = strconv.Itoa(backend.Version)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", backend.Name, backend.BaseURL(), version)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", discovery.DefaultScanTimeout, "how long to listen for announcements")
	return cmd
}
