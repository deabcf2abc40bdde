package cmd

import (
	"fmt"
	"io"

	"github.com/example/resy-booker/internal/booker"
	"github.com/spf13/cobra"
)

func newBookCmd() *cobra.Command {
	var f requestFlags

	c := &cobra.Command{
		Use:   "book",
		Short: "Find a slot and book it through the browser",
		Long: "Resolves the venue, scans its availability and books one slot. " +
			"Missing flags are prompted for; without --time or --first each slot is offered in turn.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd)
			defer cancel()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			req, err := f.request(a, true)
			if err != nil {
				return err
			}
			choose := f.chooser()
			if choose == nil {
				choose = confirmEachSlot()
			}
			out, err := a.booker(req.PartySize).Run(ctx, req, choose)
			if err != nil {
				return err
			}
			return report(cmd.OutOrStdout(), out)
		},
	}
	f.bind(c)
	f.bindChoice(c)
	return c
}

// report prints the outcome; only a failed checkout is an error.
func report(w io.Writer, out booker.Outcome) error {
	if len(out.Slots) > 0 {
		renderSlots(w, out.Venue, out.Slots)
	}
	if out.Kind == booker.OutcomeFailed {
		return fmt.Errorf("%s (attempt %s)", out, out.Attempt.ID)
	}
	fmt.Fprintln(w, out)
	return nil
}
