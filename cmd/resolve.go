package cmd

import (
	"strings"

	"github.com/spf13/cobra"
)

func newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <name or url>",
		Short: "Resolve a restaurant name or Resy URL to a venue",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd)
			defer cancel()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			v, err := a.resolver(a.cfg.DefaultPartySize).Resolve(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			renderVenue(cmd.OutOrStdout(), v)
			return nil
		},
	}
}
