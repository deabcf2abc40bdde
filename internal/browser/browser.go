// Package browser is the port the booking engine drives a live browser through.
//
// A Page is an exclusively owned handle: whoever opens it closes it, and no
// other code keeps a reference once it is closed. Every blocking call takes a
// context and returns an error wrapping ErrTimeout when the context deadline
// expires before the awaited element renders.
package browser

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrTimeout     = errors.New("browser wait timed out")
	ErrClosed      = errors.New("browser page closed")
	ErrUnknownRef  = errors.New("unknown control reference")
	ErrNoSuchFrame = errors.New("embedded frame not found")
)

// ControlRef identifies one control found by Page.Controls. It is opaque
// outside the adapter that produced it.
type ControlRef string

// Control is a clickable element discovered on a page.
type Control struct {
	Label string
	Ref   ControlRef
}

// ControlSelector describes how to find a family of controls and their labels.
type ControlSelector struct {
	Control string
	Label   string
}

// Surface is anything the engine can wait on and click in: a page or an
// embedded frame.
type Surface interface {
	WaitVisible(ctx context.Context, selector string) error
	// WaitText waits for an element matching selector whose text contains text.
	WaitText(ctx context.Context, selector, text string) error
	Click(ctx context.Context, selector string) error
	// WaitAny returns the first of selectors to render.
	WaitAny(ctx context.Context, selectors ...string) (string, error)
}

// Page is a top-level browser tab.
type Page interface {
	Surface
	Navigate(ctx context.Context, url string) error
	// Controls waits for at least one control to render and returns all of
	// them in display order.
	Controls(ctx context.Context, sel ControlSelector) ([]Control, error)
	ClickControl(ctx context.Context, ref ControlRef) error
	// Frame waits for an embedded frame matching selector and returns its surface.
	Frame(ctx context.Context, selector string) (Surface, error)
	// CaptureState serializes the authentication state (cookies) of the browser.
	CaptureState(ctx context.Context) ([]byte, error)
	RestoreState(ctx context.Context, state []byte) error
	// Close releases the page and the browser process behind it.
	Close() error
}

// Driver opens pages on a real or fake browser.
type Driver interface {
	Open(ctx context.Context) (Page, error)
}

// IsTimeout reports whether err came from a bounded wait that expired.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded)
}

// WrapWait converts a deadline expiry into ErrTimeout for the given selector.
// Cancellation is not a timeout and keeps wrapping context.Canceled.
func WrapWait(ctx context.Context, selector string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
		return fmt.Errorf("%s: %w", selector, context.Canceled)
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", ErrTimeout, selector)
	}
	return fmt.Errorf("%s: %w", selector, err)
}
