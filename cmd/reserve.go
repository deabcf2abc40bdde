package cmd

import (
	"errors"
	"fmt"

	"github.com/example/resy-booker/internal/resy"
	"github.com/spf13/cobra"
)

func newReserveCmd() *cobra.Command {
	var (
		configID  string
		date      string
		partySize int
	)

	c := &cobra.Command{
		Use:   "reserve",
		Short: "Create a reservation directly through the API from a slot config id",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd)
			defer cancel()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			d, err := a.parseDate(date)
			if err != nil {
				return err
			}
			conf, err := a.client.CreateReservation(ctx, configID, a.partySize(partySize), d)
			if errors.Is(err, resy.ErrUndecodedConfirmation) {
				fmt.Fprintf(cmd.OutOrStdout(), "reserved, raw confirmation: %s\n", conf.Raw)
				return err
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reserved reservation_id=%d resy_token=%s\n", conf.ReservationID, conf.ResyToken)
			return nil
		},
	}
	c.Flags().StringVar(&configID, "config-id", "", "slot config id (rgs://...)")
	c.Flags().StringVar(&date, "date", "", "reservation date YYYY-MM-DD")
	c.Flags().IntVar(&partySize, "party-size", 0, "party size (default DEFAULT_PARTY_SIZE)")
	_ = c.MarkFlagRequired("config-id")
	_ = c.MarkFlagRequired("date")
	return c
}
