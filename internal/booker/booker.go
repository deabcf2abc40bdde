// Package booker runs one booking end to end: resolve the venue, open and
// authenticate a browser, scan availability, let the caller choose a slot and
// drive the checkout. The browser is owned here and released exactly once.
package booker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/resy-booker/internal/availability"
	"github.com/example/resy-booker/internal/booking"
	"github.com/example/resy-booker/internal/browser"
	"github.com/example/resy-booker/internal/logging"
	"github.com/example/resy-booker/internal/resy"
	"github.com/example/resy-booker/internal/session"
	"github.com/example/resy-booker/internal/venue"
	"github.com/example/resy-booker/internal/watch"
)

type Kind string

const (
	OutcomeNoVenue   Kind = "no_venue"
	OutcomeNoSlots   Kind = "no_slots"
	OutcomeDeclined  Kind = "declined"
	OutcomeCompleted Kind = "completed"
	OutcomeFailed    Kind = "failed"
)

// Outcome is what the caller gets back from Run.
type Outcome struct {
	Kind  Kind
	Venue resy.Venue
	Slots []availability.TimeSlot
	// Attempt is set for OutcomeCompleted and OutcomeFailed.
	Attempt *booking.Attempt
	// Cause explains OutcomeNoVenue.
	Cause error
}

func (o Outcome) String() string {
	switch o.Kind {
	case OutcomeNoVenue:
		return "venue not found"
	case OutcomeNoSlots:
		return "no slots found"
	case OutcomeDeclined:
		return "no slot chosen"
	case OutcomeCompleted:
		return fmt.Sprintf("booked %s at %s", o.Venue.Name, o.Attempt.Slot.Label)
	case OutcomeFailed:
		return fmt.Sprintf("booking failed: %s", o.Attempt.Failure)
	}
	return string(o.Kind)
}

type Request struct {
	Venue     string
	Date      time.Time
	PartySize int
}

type Resolver interface {
	Resolve(ctx context.Context, input string) (resy.Venue, error)
}

type Scanner interface {
	Scan(ctx context.Context, page browser.Page, v resy.Venue, date time.Time, partySize int) ([]availability.TimeSlot, error)
}

type Sessions interface {
	LoadOrCreate(ctx context.Context, page browser.Page) (session.State, error)
}

type Workflow interface {
	Run(ctx context.Context, page browser.Page, a *booking.Attempt) *booking.Attempt
}

type Booker struct {
	Driver   browser.Driver
	Sessions Sessions
	Resolver Resolver
	Scanner  Scanner
	Workflow Workflow
	// Poller, when set, keeps re-scanning an empty venue until slots appear.
	Poller *watch.Poller
	Logger *slog.Logger
}

func New(d browser.Driver, s Sessions, r Resolver, sc Scanner, wf Workflow, logger *slog.Logger) *Booker {
	return &Booker{
		Driver:   d,
		Sessions: s,
		Resolver: r,
		Scanner:  sc,
		Workflow: wf,
		Logger:   logging.Component(logger, "booker"),
	}
}

// Run books at most one slot. Infrastructure failures (login timeout, page
// never loading, browser crash) are returned as errors; everything else is
// reported through the Outcome.
func (b *Booker) Run(ctx context.Context, req Request, choose Chooser) (Outcome, error) {
	out := Outcome{}
	v, ok, err := b.resolve(ctx, req, &out)
	if !ok {
		return out, err
	}

	err = b.withPage(ctx, func(page browser.Page) error {
		slots, err := b.scan(ctx, page, v, req)
		if err != nil {
			return err
		}
		out.Slots = slots
		if len(slots) == 0 {
			out.Kind = OutcomeNoSlots
			return nil
		}

		slot, picked, err := choose.Choose(ctx, v, slots)
		if err != nil {
			return fmt.Errorf("choose slot: %w", err)
		}
		if !picked {
			out.Kind = OutcomeDeclined
			return nil
		}
		a, err := booking.NewAttempt(v, req.Date, req.PartySize, slot)
		if err != nil {
			return err
		}
		b.log().Info("booking slot",
			slog.String("attempt_id", a.ID),
			slog.String("venue", v.Slug),
			slog.String("slot", slot.Label))

		out.Attempt = b.Workflow.Run(ctx, page, a)
		if out.Attempt.Completed() {
			out.Kind = OutcomeCompleted
		} else {
			out.Kind = OutcomeFailed
		}
		return nil
	})
	if err != nil {
		return out, err
	}
	b.log().Info("run finished", slog.String("outcome", string(out.Kind)), slog.String("venue", v.Slug))
	return out, nil
}

// Slots resolves the venue and lists its availability without booking. A
// venue with slots comes back as OutcomeDeclined.
func (b *Booker) Slots(ctx context.Context, req Request) (Outcome, error) {
	return b.Run(ctx, req, ChooserFunc(func(context.Context, resy.Venue, []availability.TimeSlot) (availability.TimeSlot, bool, error) {
		return availability.TimeSlot{}, false, nil
	}))
}

func (b *Booker) resolve(ctx context.Context, req Request, out *Outcome) (resy.Venue, bool, error) {
	v, err := b.Resolver.Resolve(ctx, req.Venue)
	if err != nil {
		if errors.Is(err, venue.ErrNotFound) {
			out.Kind = OutcomeNoVenue
			out.Cause = err
			b.log().Info("venue not found", slog.String("input", req.Venue), slog.Any("err", err))
			return resy.Venue{}, false, nil
		}
		return resy.Venue{}, false, fmt.Errorf("resolve venue: %w", err)
	}
	out.Venue = v
	return v, true, nil
}

func (b *Booker) scan(ctx context.Context, page browser.Page, v resy.Venue, req Request) ([]availability.TimeSlot, error) {
	once := func(ctx context.Context) ([]availability.TimeSlot, error) {
		return b.Scanner.Scan(ctx, page, v, req.Date, req.PartySize)
	}
	if b.Poller == nil {
		return once(ctx)
	}
	slots, err := b.Poller.Poll(ctx, once)
	if errors.Is(err, watch.ErrWindowClosed) {
		return []availability.TimeSlot{}, nil
	}
	return slots, err
}

// withPage opens a browser, authenticates it and hands it to fn. The page is
// closed exactly once on every path out, panics included.
func (b *Booker) withPage(ctx context.Context, fn func(browser.Page) error) error {
	page, err := b.Driver.Open(ctx)
	if err != nil {
		return fmt.Errorf("open browser: %w", err)
	}
	defer func() {
		if cerr := page.Close(); cerr != nil {
			b.log().Warn("close browser", slog.Any("err", cerr))
		}
	}()

	if _, err := b.Sessions.LoadOrCreate(ctx, page); err != nil {
		return err
	}
	return fn(page)
}

func (b *Booker) log() *slog.Logger {
	if b.Logger == nil {
		return logging.Discard()
	}
	return b.Logger
}
