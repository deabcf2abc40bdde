// Package booking drives the browser from a chosen slot through the
// platform's two-step checkout to a completed or failed attempt.
package booking

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/resy-booker/internal/browser"
	"github.com/example/resy-booker/internal/logging"
)

// Selectors address the embedded checkout surface.
type Selectors struct {
	Frame     string
	Title     string
	TitleText string
	// Book is the primary action; it is clicked twice (reserve, then confirm).
	Book string
	Done []string
}

func DefaultSelectors() Selectors {
	return Selectors{
		Frame:     `iframe[title="Resy - Book Now"]`,
		Title:     "div.WidgetTitle h1",
		TitleText: "Complete Your Reservation",
		Book:      `button[data-test-id="order_summary_page-button-book"]`,
		Done:      []string{"form.BookingForm", "div.BookingConfirmation"},
	}
}

// Event is emitted for every transition, including the one into StateFailed.
type Event struct {
	AttemptID string
	From      State
	To        State
	Failure   *Failure
	At        time.Time
}

type Workflow struct {
	StepTimeout time.Duration
	SettleDelay time.Duration
	Selectors   Selectors
	// Sleep waits out the settle delay; tests replace it.
	Sleep    func(ctx context.Context, d time.Duration) error
	Observer func(Event)
	Logger   *slog.Logger
}

func NewWorkflow(logger *slog.Logger) *Workflow {
	return &Workflow{
		StepTimeout: 10 * time.Second,
		SettleDelay: 2 * time.Second,
		Selectors:   DefaultSelectors(),
		Sleep:       sleep,
		Logger:      logging.Component(logger, "booking"),
	}
}

type step struct {
	to        State
	onTimeout Reason
	settle    bool
	run       func(ctx context.Context) error
}

// Run drives a to a terminal state. It never returns an error: every failure
// is recorded on the attempt as StateFailed with a Failure. A terminal
// attempt is returned untouched.
func (w *Workflow) Run(ctx context.Context, page browser.Page, a *Attempt) *Attempt {
	if a.State.Terminal() {
		w.Logger.Warn("attempt already finished", slog.String("attempt_id", a.ID), slog.String("state", string(a.State)))
		return a
	}
	if a.State != StateIdle {
		w.fail(a, a.State, ReasonUnexpectedError, "attempt is not idle")
		return a
	}
	sel := w.Selectors
	var frame browser.Surface

	steps := []step{
		{
			to:        StateSlotSelected,
			onTimeout: ReasonUnexpectedError,
			run: func(ctx context.Context) error {
				return page.ClickControl(ctx, a.Slot.Ref)
			},
		},
		{
			to:        StateConfirmationPanelOpen,
			onTimeout: ReasonPanelTimeout,
			run: func(ctx context.Context) error {
				f, err := page.Frame(ctx, sel.Frame)
				if err != nil {
					return err
				}
				if err := f.WaitText(ctx, sel.Title, sel.TitleText); err != nil {
					return err
				}
				frame = f
				return nil
			},
		},
		{
			to:        StateReserveAcknowledged,
			onTimeout: ReasonReserveControlTimeout,
			run: func(ctx context.Context) error {
				return frame.Click(ctx, sel.Book)
			},
		},
		{
			// the checkout re-renders the same control for an explicit confirm
			to:        StateConfirmAcknowledged,
			onTimeout: ReasonConfirmControlTimeout,
			settle:    true,
			run: func(ctx context.Context) error {
				return frame.Click(ctx, sel.Book)
			},
		},
		{
			to:        StateCompleted,
			onTimeout: ReasonCompletionTimeout,
			run: func(ctx context.Context) error {
				_, err := frame.WaitAny(ctx, sel.Done...)
				return err
			},
		},
	}

	for _, s := range steps {
		if !w.transition(ctx, a, s) {
			break
		}
	}
	return a
}

func (w *Workflow) transition(ctx context.Context, a *Attempt, s step) (ok bool) {
	from := a.State
	defer func() {
		if r := recover(); r != nil {
			w.fail(a, from, ReasonUnexpectedError, fmt.Sprintf("panic: %v", r))
			ok = false
		}
	}()

	if s.settle && w.SettleDelay > 0 {
		sleepFn := w.Sleep
		if sleepFn == nil {
			sleepFn = sleep
		}
		if err := sleepFn(ctx, w.SettleDelay); err != nil {
			w.fail(a, from, ReasonUnexpectedError, err.Error())
			return false
		}
	}

	sctx, cancel := context.WithTimeout(ctx, w.StepTimeout)
	defer cancel()
	if err := s.run(sctx); err != nil {
		reason := ReasonUnexpectedError
		if browser.IsTimeout(err) {
			reason = s.onTimeout
		}
		w.fail(a, from, reason, err.Error())
		return false
	}

	a.State = s.to
	a.Trace = append(a.Trace, s.to)
	w.Logger.Info("booking transition",
		slog.String("attempt_id", a.ID),
		slog.String("from", string(from)),
		slog.String("to", string(s.to)),
		slog.String("slot", a.Slot.Label))
	w.emit(Event{AttemptID: a.ID, From: from, To: s.to, At: time.Now()})
	return true
}

func (w *Workflow) fail(a *Attempt, from State, reason Reason, detail string) {
	f := &Failure{Reason: reason, From: from, Detail: detail}
	a.State = StateFailed
	a.Failure = f
	a.Trace = append(a.Trace, StateFailed)
	w.Logger.Warn("booking failed",
		slog.String("attempt_id", a.ID),
		slog.String("from", string(from)),
		slog.String("reason", string(reason)),
		slog.String("detail", detail),
		slog.String("slot", a.Slot.Label))
	w.emit(Event{AttemptID: a.ID, From: from, To: StateFailed, Failure: f, At: time.Now()})
}

func (w *Workflow) emit(e Event) {
	if w.Observer != nil {
		w.Observer(e)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
