package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLoginCmd() *cobra.Command {
	var force bool

	c := &cobra.Command{
		Use:   "login",
		Short: "Sign in through the browser and save the session",
		Long: "Opens the Resy login page and waits for you to finish signing in. " +
			"The browser session is saved so later runs skip this step.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd)
			defer cancel()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if force {
				if err := a.store.Reset(ctx); err != nil {
					return fmt.Errorf("reset session: %w", err)
				}
			}

			page, err := a.driver().Open(ctx)
			if err != nil {
				return fmt.Errorf("open browser: %w", err)
			}
			defer page.Close()

			st, err := a.store.LoadOrCreate(ctx, page)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "session ready (%d bytes)\n", len(st))
			return nil
		},
	}
	c.Flags().BoolVar(&force, "force", false, "discard the saved session and log in again")
	return c
}
