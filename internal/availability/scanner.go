// Package availability discovers the time slots a venue offers for one date
// and party size by loading its public booking page.
package availability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/example/resy-booker/internal/browser"
	"github.com/example/resy-booker/internal/logging"
	"github.com/example/resy-booker/internal/resy"
)

var (
	// ErrScanTimeout means the booking page never became interactive. It is
	// distinct from an empty result, which means the page loaded with no slots.
	ErrScanTimeout    = errors.New("booking page never became interactive")
	ErrInvalidRequest = errors.New("invalid availability request")
)

// SlotControls finds the slot buttons on a Resy venue page.
var SlotControls = browser.ControlSelector{
	Control: "button.ReservationButton",
	Label:   ".ReservationButton__time",
}

// Key is the (venue, date, party size) tuple a scan was run for.
type Key struct {
	VenueID   string
	Date      string
	PartySize int
}

func NewKey(v resy.Venue, date time.Time, partySize int) Key {
	return Key{VenueID: v.ID, Date: date.Format(resy.DateLayout), PartySize: partySize}
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%d", k.VenueID, k.Date, k.PartySize)
}

// TimeSlot is one offered time. Ref is only meaningful to the page that
// produced it.
type TimeSlot struct {
	Label string
	Ref   browser.ControlRef
	Key   Key
}

type Scanner struct {
	SiteURL         string
	City            string
	PageLoadTimeout time.Duration
	SlotTimeout     time.Duration
	Selector        browser.ControlSelector
	Location        *time.Location
	Now             func() time.Time
	Logger          *slog.Logger
}

func NewScanner(logger *slog.Logger) *Scanner {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		loc = time.UTC
	}
	return &Scanner{
		SiteURL:         "https://resy.com",
		City:            resy.DefaultLocation,
		PageLoadTimeout: 30 * time.Second,
		SlotTimeout:     10 * time.Second,
		Selector:        SlotControls,
		Location:        loc,
		Now:             time.Now,
		Logger:          logging.Component(logger, "availability"),
	}
}

// BookingURL is the venue page parameterized by date and seats.
func (s *Scanner) BookingURL(v resy.Venue, date time.Time, partySize int) string {
	q := url.Values{}
	q.Set("date", date.Format(resy.DateLayout))
	q.Set("seats", strconv.Itoa(partySize))
	return fmt.Sprintf("%s/cities/%s/venues/%s?%s",
		strings.TrimRight(s.SiteURL, "/"), url.PathEscape(s.City), url.PathEscape(v.Slug), q.Encode())
}

// Validate rejects requests no scan could satisfy.
func (s *Scanner) Validate(v resy.Venue, date time.Time, partySize int) error {
	if v.Slug == "" {
		return fmt.Errorf("%w: venue has no slug", ErrInvalidRequest)
	}
	if partySize < 1 {
		return fmt.Errorf("%w: party size must be >= 1", ErrInvalidRequest)
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	today := now().In(loc).Format(resy.DateLayout)
	if date.Format(resy.DateLayout) < today {
		return fmt.Errorf("%w: date %s is in the past", ErrInvalidRequest, date.Format(resy.DateLayout))
	}
	return nil
}

// Scan loads the booking page and returns the offered slots in display order.
// An empty slice with a nil error means the page loaded but offered nothing.
func (s *Scanner) Scan(ctx context.Context, page browser.Page, v resy.Venue, date time.Time, partySize int) ([]TimeSlot, error) {
	if err := s.Validate(v, date, partySize); err != nil {
		return nil, err
	}
	key := NewKey(v, date, partySize)
	target := s.BookingURL(v, date, partySize)
	log := s.Logger.With(slog.String("venue", v.Slug), slog.String("key", key.String()))

	lctx, cancel := context.WithTimeout(ctx, s.PageLoadTimeout)
	err := page.Navigate(lctx, target)
	cancel()
	if err != nil {
		if browser.IsTimeout(err) {
			log.Warn("booking page load timed out", slog.String("url", target))
			return nil, fmt.Errorf("%w: %s", ErrScanTimeout, target)
		}
		return nil, fmt.Errorf("load booking page: %w", err)
	}

	sctx, cancel := context.WithTimeout(ctx, s.SlotTimeout)
	controls, err := page.Controls(sctx, s.Selector)
	cancel()
	if err != nil {
		if browser.IsTimeout(err) {
			log.Info("no slots rendered", slog.Duration("waited", s.SlotTimeout))
			return []TimeSlot{}, nil
		}
		return nil, fmt.Errorf("read slots: %w", err)
	}

	slots := make([]TimeSlot, 0, len(controls))
	for _, c := range controls {
		slots = append(slots, TimeSlot{Label: c.Label, Ref: c.Ref, Key: key})
	}
	log.Info("slots found", slog.Int("count", len(slots)))
	return slots, nil
}

// Labels returns the slot labels in order.
func Labels(slots []TimeSlot) []string {
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = s.Label
	}
	return out
}
