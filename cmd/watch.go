package cmd

import (
	"fmt"
	"time"

	"github.com/example/resy-booker/internal/watch"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	var (
		f               requestFlags
		daysOut         int
		releaseTime     string
		leadMinutes     int
		windowMinutes   int
		intervalSeconds int
	)

	c := &cobra.Command{
		Use:   "watch",
		Short: "Re-scan a venue inside a release window and book as soon as a slot appears",
		RunE: func(cmd *cobra.Command, args []string) error {
			choose := f.chooser()
			if choose == nil {
				return fmt.Errorf("watch runs unattended: pass --time or --first")
			}

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

			var from, until time.Time
			if releaseTime != "" {
				from, until, err = watch.ReleaseWindow(req.Date, daysOut, releaseTime,
					time.Duration(leadMinutes)*time.Minute, time.Duration(windowMinutes)*time.Minute, a.cfg.TimeLocation())
				if err != nil {
					return err
				}
			} else {
				until = time.Now().Add(time.Duration(windowMinutes) * time.Minute)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "watching %s window_start=%s window_end=%s\n",
				req.Venue, formatWindow(from), until.Format(time.RFC3339))

			b := a.booker(req.PartySize)
			b.Poller = watch.NewPoller(time.Duration(intervalSeconds)*time.Second, until, a.log)
			b.Poller.From = from

			out, err := b.Run(ctx, req, choose)
			if err != nil {
				return err
			}
			return report(cmd.OutOrStdout(), out)
		},
	}
	f.bind(c)
	f.bindChoice(c)
	c.Flags().IntVar(&daysOut, "days-out", 30, "days in advance when slots open")
	c.Flags().StringVar(&releaseTime, "release-time", "", "local release time HH:MM (empty: start now)")
	c.Flags().IntVar(&leadMinutes, "lead-minutes", 5, "start scanning N minutes before release time")
	c.Flags().IntVar(&windowMinutes, "window-minutes", 20, "keep scanning N minutes after release time")
	c.Flags().IntVar(&intervalSeconds, "interval-seconds", 10, "rescan interval seconds")

	_ = c.MarkFlagRequired("venue")
	_ = c.MarkFlagRequired("date")
	return c
}

func formatWindow(t time.Time) string {
	if t.IsZero() {
		return "now"
	}
	return t.Format(time.RFC3339)
}
