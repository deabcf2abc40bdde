package cmd

import (
	"fmt"
	"strings"

	"github.com/example/resy-booker/internal/booker"
	"github.com/spf13/cobra"
)

// requestFlags are shared by the commands that scan a venue.
type requestFlags struct {
	venue     string
	date      string
	partySize int
	times     string
	first     bool
}

func (f *requestFlags) bind(c *cobra.Command) {
	c.Flags().StringVar(&f.venue, "venue", "", "restaurant name or Resy URL")
	c.Flags().StringVar(&f.date, "date", "", "reservation date YYYY-MM-DD")
	c.Flags().IntVar(&f.partySize, "party-size", 0, "party size (default DEFAULT_PARTY_SIZE)")
}

func (f *requestFlags) bindChoice(c *cobra.Command) {
	c.Flags().StringVar(&f.times, "time", "", "comma-separated preferred times in order (HH:MM)")
	c.Flags().BoolVar(&f.first, "first", false, "book the earliest slot without asking")
}

// request fills missing values by prompting when interactive is set.
func (f *requestFlags) request(a *app, interactive bool) (booker.Request, error) {
	var err error
	if f.venue == "" {
		if !interactive {
			return booker.Request{}, fmt.Errorf("--venue is required")
		}
		if f.venue, err = promptVenue(); err != nil {
			return booker.Request{}, err
		}
	}
	if f.date == "" {
		if !interactive {
			return booker.Request{}, fmt.Errorf("--date is required")
		}
		if f.date, err = promptDate(a.cfg.TimeLocation()); err != nil {
			return booker.Request{}, err
		}
	}
	if f.partySize == 0 && interactive {
		if f.partySize, err = promptPartySize(a.cfg.DefaultPartySize); err != nil {
			return booker.Request{}, err
		}
	}
	d, err := a.parseDate(f.date)
	if err != nil {
		return booker.Request{}, err
	}
	return booker.Request{Venue: f.venue, Date: d, PartySize: a.partySize(f.partySize)}, nil
}

// chooser returns nil when the caller must be asked interactively.
func (f *requestFlags) chooser() booker.Chooser {
	switch {
	case strings.TrimSpace(f.times) != "":
		return booker.PreferTimes(splitCSV(f.times))
	case f.first:
		return booker.FirstSlot()
	}
	return nil
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
