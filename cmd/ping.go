package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the Resy API accepts the configured credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd)
			defer cancel()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.client.Ping(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "resy API reachable, credentials accepted")
			return nil
		},
	}
}
