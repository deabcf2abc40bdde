package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/resy-booker/internal/availability"
	"github.com/example/resy-booker/internal/browser"
	"github.com/example/resy-booker/internal/browser/browsertest"
	"github.com/example/resy-booker/internal/logging"
	"github.com/example/resy-booker/internal/resy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const venuePage = "https://resy.com/cities/orlando-fl/venues/edoboy?date=2025-06-01&seats=2"

var (
	edoboy = resy.Venue{ID: "58848", Slug: "edoboy", Name: "Edoboy"}
	june1  = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	sel    = DefaultSelectors()
)

type fixture struct {
	page    *browsertest.Page
	frame   *browsertest.Surface
	attempt *Attempt
	slept   []time.Duration
	events  []Event
	wf      *Workflow
}

// newFixture scripts a checkout that renders every step up to, but not
// including, stall. An empty stall renders the whole flow.
func newFixture(t *testing.T, stall State) *fixture {
	t.Helper()
	f := &fixture{page: browsertest.NewPage()}
	f.frame = f.page.NewFrame(sel.Frame)

	slot := browser.Control{Label: "18:00", Ref: "ref-1800"}
	f.page.Slots[venuePage] = []browser.Control{slot}
	require.NoError(t, f.page.Navigate(context.Background(), venuePage))

	f.page.OnClickControl = func(browser.ControlRef) {
		if stall == StateConfirmationPanelOpen {
			return
		}
		f.page.Show(sel.Frame)
		f.frame.Show(sel.Title, sel.TitleText)
		if stall != StateReserveAcknowledged {
			f.frame.Show(sel.Book)
		}
	}
	f.frame.OnClick[sel.Book] = func(n int) {
		switch {
		case n == 1 && stall == StateConfirmAcknowledged:
			f.frame.Hide(sel.Book)
		case n == 2 && stall != StateCompleted:
			f.frame.Show("div.BookingConfirmation")
		}
	}

	a, err := NewAttempt(edoboy, june1, 2, availability.TimeSlot{
		Label: slot.Label,
		Ref:   slot.Ref,
		Key:   availability.NewKey(edoboy, june1, 2),
	})
	require.NoError(t, err)
	f.attempt = a

	f.wf = NewWorkflow(logging.Discard())
	f.wf.StepTimeout = 20 * time.Millisecond
	f.wf.Sleep = func(_ context.Context, d time.Duration) error {
		f.slept = append(f.slept, d)
		return nil
	}
	f.wf.Observer = func(e Event) { f.events = append(f.events, e) }
	return f
}

func (f *fixture) run() *Attempt {
	return f.wf.Run(context.Background(), f.page, f.attempt)
}

func TestRunHappyPathVisitsEveryState(t *testing.T) {
	f := newFixture(t, "")
	a := f.run()

	require.True(t, a.Completed(), "failure: %v", a.Failure)
	assert.Nil(t, a.Failure)
	assert.Equal(t, []State{
		StateIdle,
		StateSlotSelected,
		StateConfirmationPanelOpen,
		StateReserveAcknowledged,
		StateConfirmAcknowledged,
		StateCompleted,
	}, a.Trace)
	assert.Equal(t, 2, f.frame.Clicks(sel.Book))
	assert.Equal(t, []time.Duration{2 * time.Second}, f.slept)
	require.Len(t, f.events, 5)
	assert.Equal(t, StateIdle, f.events[0].From)
	assert.Equal(t, StateCompleted, f.events[4].To)
	for _, e := range f.events {
		assert.Equal(t, a.ID, e.AttemptID)
	}
}

func TestRunMapsEachTimeoutToItsReason(t *testing.T) {
	tests := []struct {
		stall  State
		reason Reason
		from   State
	}{
		{StateConfirmationPanelOpen, ReasonPanelTimeout, StateSlotSelected},
		{StateReserveAcknowledged, ReasonReserveControlTimeout, StateConfirmationPanelOpen},
		{StateConfirmAcknowledged, ReasonConfirmControlTimeout, StateReserveAcknowledged},
		{StateCompleted, ReasonCompletionTimeout, StateConfirmAcknowledged},
	}
	for _, tt := range tests {
		t.Run(string(tt.reason), func(t *testing.T) {
			f := newFixture(t, tt.stall)
			a := f.run()

			assert.Equal(t, StateFailed, a.State)
			require.NotNil(t, a.Failure)
			assert.Equal(t, tt.reason, a.Failure.Reason)
			assert.Equal(t, tt.from, a.Failure.From)
			assert.Equal(t, tt.from, a.Trace[len(a.Trace)-2])
			assert.Equal(t, StateFailed, a.Trace[len(a.Trace)-1])
			assert.NotContains(t, a.Trace, tt.stall)

			last := f.events[len(f.events)-1]
			assert.Equal(t, StateFailed, last.To)
			assert.Equal(t, tt.reason, last.Failure.Reason)
		})
	}
}

func TestRunPanelNeedsTitleText(t *testing.T) {
	f := newFixture(t, "")
	f.page.OnClickControl = func(browser.ControlRef) {
		f.page.Show(sel.Frame)
		f.frame.Show(sel.Title, "Something went wrong")
	}
	a := f.run()
	require.NotNil(t, a.Failure)
	assert.Equal(t, ReasonPanelTimeout, a.Failure.Reason)
}

func TestRunNeverClicksBookWithoutPanel(t *testing.T) {
	f := newFixture(t, StateConfirmationPanelOpen)
	f.frame.Show(sel.Book)
	a := f.run()

	assert.Equal(t, ReasonPanelTimeout, a.Failure.Reason)
	assert.Zero(t, f.frame.Clicks(sel.Book))
}

func TestRunSlotClickErrorIsUnexpected(t *testing.T) {
	f := newFixture(t, "")
	f.page.Fail["ref-1800"] = errors.New("node detached")
	a := f.run()

	require.NotNil(t, a.Failure)
	assert.Equal(t, ReasonUnexpectedError, a.Failure.Reason)
	assert.Equal(t, StateIdle, a.Failure.From)
	assert.Contains(t, a.Failure.Detail, "node detached")
	assert.Equal(t, []State{StateIdle, StateFailed}, a.Trace)
}

func TestRunRecoversPanicAsUnexpected(t *testing.T) {
	f := newFixture(t, "")
	f.frame.Panic[sel.Book] = "stale handle"
	a := f.run()

	require.NotNil(t, a.Failure)
	assert.Equal(t, ReasonUnexpectedError, a.Failure.Reason)
	assert.Equal(t, StateConfirmationPanelOpen, a.Failure.From)
	assert.Contains(t, a.Failure.Detail, "stale handle")
}

func TestRunCancelledDuringSettle(t *testing.T) {
	f := newFixture(t, "")
	f.wf.Sleep = func(context.Context, time.Duration) error { return context.Canceled }
	a := f.run()

	require.NotNil(t, a.Failure)
	assert.Equal(t, ReasonUnexpectedError, a.Failure.Reason)
	assert.Equal(t, StateReserveAcknowledged, a.Failure.From)
	assert.Equal(t, 1, f.frame.Clicks(sel.Book))
}

func TestRunCancelledWhileWaitingForPanel(t *testing.T) {
	f := newFixture(t, StateConfirmationPanelOpen)
	f.wf.StepTimeout = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)
	a := f.wf.Run(ctx, f.page, f.attempt)

	require.NotNil(t, a.Failure)
	assert.Equal(t, ReasonUnexpectedError, a.Failure.Reason)
	assert.Equal(t, StateSlotSelected, a.Failure.From)
	assert.Contains(t, a.Failure.Detail, "canceled")
}

func TestRunLeavesFinishedAttemptAlone(t *testing.T) {
	f := newFixture(t, "")
	a := f.run()
	require.True(t, a.Completed())
	trace := append([]State(nil), a.Trace...)
	events := len(f.events)

	again := f.wf.Run(context.Background(), f.page, a)
	assert.Same(t, a, again)
	assert.True(t, again.Completed())
	assert.Nil(t, again.Failure)
	assert.Equal(t, trace, again.Trace)
	assert.Equal(t, events, len(f.events))
	assert.Equal(t, 2, f.frame.Clicks(sel.Book))
}

func TestRunLeavesFailedAttemptAlone(t *testing.T) {
	f := newFixture(t, StateConfirmationPanelOpen)
	a := f.run()
	require.Equal(t, ReasonPanelTimeout, a.Failure.Reason)

	again := f.wf.Run(context.Background(), f.page, a)
	assert.Equal(t, ReasonPanelTimeout, again.Failure.Reason)
	assert.Equal(t, StateSlotSelected, again.Failure.From)
}

func TestRunRejectsAttemptStuckMidway(t *testing.T) {
	f := newFixture(t, "")
	f.attempt.State = StateReserveAcknowledged

	a := f.run()
	assert.Equal(t, StateFailed, a.State)
	assert.Equal(t, ReasonUnexpectedError, a.Failure.Reason)
	assert.Zero(t, f.frame.Clicks(sel.Book))
}

func TestNewAttemptRejectsForeignSlot(t *testing.T) {
	slot := availability.TimeSlot{Label: "18:00", Ref: "r", Key: availability.NewKey(edoboy, june1, 4)}
	_, err := NewAttempt(edoboy, june1, 2, slot)
	assert.ErrorIs(t, err, ErrSlotMismatch)

	_, err = NewAttempt(resy.Venue{}, june1, 2, slot)
	assert.ErrorIs(t, err, ErrSlotMismatch)

	slot.Key = availability.NewKey(edoboy, june1, 2)
	a, err := NewAttempt(edoboy, june1, 2, slot)
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, StateIdle, a.State)
}

func TestSleepHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleep(ctx, time.Hour), context.Canceled)
	assert.NoError(t, sleep(context.Background(), time.Millisecond))
}
