package booking

import (
	"errors"
	"fmt"
	"time"

	"github.com/example/resy-booker/internal/availability"
	"github.com/example/resy-booker/internal/resy"
	"github.com/google/uuid"
)

type State string

const (
	StateIdle                  State = "idle"
	StateSlotSelected          State = "slot_selected"
	StateConfirmationPanelOpen State = "confirmation_panel_open"
	StateReserveAcknowledged   State = "reserve_acknowledged"
	StateConfirmAcknowledged   State = "confirm_acknowledged"
	StateCompleted             State = "completed"
	StateFailed                State = "failed"
)

func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

type Reason string

const (
	ReasonPanelTimeout          Reason = "panel_timeout"
	ReasonReserveControlTimeout Reason = "reserve_control_timeout"
	ReasonConfirmControlTimeout Reason = "confirm_control_timeout"
	ReasonCompletionTimeout     Reason = "completion_timeout"
	ReasonUnexpectedError       Reason = "unexpected_error"
)

// Failure records why and where an attempt stopped.
type Failure struct {
	Reason Reason
	// From is the last state reached before the failing transition.
	From   State
	Detail string
}

func (f Failure) String() string {
	if f.Detail == "" {
		return fmt.Sprintf("%s (after %s)", f.Reason, f.From)
	}
	return fmt.Sprintf("%s (after %s): %s", f.Reason, f.From, f.Detail)
}

var ErrSlotMismatch = errors.New("slot was not scanned for this venue, date and party size")

// Attempt is one try at booking one slot. Only Workflow mutates it.
type Attempt struct {
	ID        string
	Venue     resy.Venue
	Date      time.Time
	PartySize int
	Slot      availability.TimeSlot

	State   State
	Failure *Failure
	// Trace lists every state entered, starting with StateIdle.
	Trace []State
}

// NewAttempt refuses a slot drawn from a scan of a different
// (venue, date, party size) tuple.
func NewAttempt(v resy.Venue, date time.Time, partySize int, slot availability.TimeSlot) (*Attempt, error) {
	if v.ID == "" {
		return nil, fmt.Errorf("%w: venue is unresolved", ErrSlotMismatch)
	}
	if slot.Ref == "" || slot.Key != availability.NewKey(v, date, partySize) {
		return nil, fmt.Errorf("%w: slot %q key %s", ErrSlotMismatch, slot.Label, slot.Key)
	}
	return &Attempt{
		ID:        uuid.NewString(),
		Venue:     v,
		Date:      date,
		PartySize: partySize,
		Slot:      slot,
		State:     StateIdle,
		Trace:     []State{StateIdle},
	}, nil
}

func (a *Attempt) Completed() bool { return a.State == StateCompleted }
