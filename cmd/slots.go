package cmd

import (
	"fmt"

	"github.com/example/resy-booker/internal/booker"
	"github.com/spf13/cobra"
)

func newSlotsCmd() *cobra.Command {
	var f requestFlags

	c := &cobra.Command{
		Use:   "slots",
		Short: "List the time slots a venue offers for a date and party size",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd)
			defer cancel()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			req, err := f.request(a, false)
			if err != nil {
				return err
			}
			out, err := a.booker(req.PartySize).Slots(ctx, req)
			if err != nil {
				return err
			}
			if out.Kind == booker.OutcomeNoVenue || out.Kind == booker.OutcomeNoSlots {
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			}
			renderSlots(cmd.OutOrStdout(), out.Venue, out.Slots)
			return nil
		},
	}
	f.bind(c)
	_ = c.MarkFlagRequired("venue")
	_ = c.MarkFlagRequired("date")
	return c
}
