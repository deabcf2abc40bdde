// Package browsertest provides a scripted in-memory browser.Page for tests.
//
// Elements are just selectors that are either rendered or not. A wait on a
// selector that is not rendered blocks until the context ends, so callers
// must always bound waits with a deadline. Hooks let a test render new
// elements in response to clicks and navigation.
package browsertest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/example/resy-booker/internal/browser"
)

// Surface is a fake page or embedded frame.
type Surface struct {
	mu      sync.Mutex
	visible map[string]string
	clicks  map[string]int
	calls   *[]string

	// OnClick runs after a click on the selector; n is the click count so far.
	OnClick map[string]func(n int)
	// Fail makes any operation on the selector return the error.
	Fail map[string]error
	// Panic makes any operation on the selector panic with the value.
	Panic map[string]any
}

func newSurface(calls *[]string) *Surface {
	return &Surface{
		visible: make(map[string]string),
		clicks:  make(map[string]int),
		calls:   calls,
		OnClick: make(map[string]func(int)),
		Fail:    make(map[string]error),
		Panic:   make(map[string]any),
	}
}

// Show renders selector with optional text.
func (s *Surface) Show(selector string, text ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visible[selector] = strings.Join(text, " ")
}

func (s *Surface) Hide(selector string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.visible, selector)
}

// Clicks returns how many times selector was clicked.
func (s *Surface) Clicks(selector string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clicks[selector]
}

func (s *Surface) record(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	*s.calls = append(*s.calls, fmt.Sprintf(format, args...))
}

func (s *Surface) check(selector string) error {
	s.mu.Lock()
	p, hasPanic := s.Panic[selector]
	err := s.Fail[selector]
	s.mu.Unlock()
	if hasPanic {
		panic(p)
	}
	return err
}

func (s *Surface) lookup(selector string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.visible[selector]
	return t, ok
}

func (s *Surface) wait(ctx context.Context, selector string, ok func() bool) error {
	if err := s.check(selector); err != nil {
		return err
	}
	if ok() {
		return nil
	}
	<-ctx.Done()
	return browser.WrapWait(ctx, selector, ctx.Err())
}

func (s *Surface) WaitVisible(ctx context.Context, selector string) error {
	s.record("wait %s", selector)
	return s.wait(ctx, selector, func() bool {
		_, ok := s.lookup(selector)
		return ok
	})
}

func (s *Surface) WaitText(ctx context.Context, selector, text string) error {
	s.record("wait-text %s %q", selector, text)
	return s.wait(ctx, selector, func() bool {
		t, ok := s.lookup(selector)
		return ok && strings.Contains(t, text)
	})
}

func (s *Surface) Click(ctx context.Context, selector string) error {
	if err := s.WaitVisible(ctx, selector); err != nil {
		return err
	}
	s.record("click %s", selector)
	s.mu.Lock()
	s.clicks[selector]++
	n := s.clicks[selector]
	hook := s.OnClick[selector]
	s.mu.Unlock()
	if hook != nil {
		hook(n)
	}
	return nil
}

func (s *Surface) WaitAny(ctx context.Context, selectors ...string) (string, error) {
	s.record("wait-any %s", strings.Join(selectors, ", "))
	for _, sel := range selectors {
		if err := s.check(sel); err != nil {
			return "", err
		}
		if _, ok := s.lookup(sel); ok {
			return sel, nil
		}
	}
	<-ctx.Done()
	return "", browser.WrapWait(ctx, strings.Join(selectors, ", "), ctx.Err())
}

// Page is a fake browser.Page.
type Page struct {
	*Surface

	calls []string

	// Slots maps a navigated URL to the controls rendered there.
	Slots map[string][]browser.Control
	// Frames maps an iframe selector to its surface; the frame is only
	// reachable once the selector is shown on the page.
	Frames map[string]*Surface
	// NavigateErr is returned by every Navigate call when set.
	NavigateErr error
	// OnNavigate runs after each successful navigation.
	OnNavigate func(url string)
	// OnClickControl runs after a slot control is clicked.
	OnClickControl func(ref browser.ControlRef)

	mu       sync.Mutex
	url      string
	state    []byte
	restored []byte
	closed   int
}

func NewPage() *Page {
	p := &Page{
		Slots:  make(map[string][]browser.Control),
		Frames: make(map[string]*Surface),
	}
	p.Surface = newSurface(&p.calls)
	return p
}

// NewFrame creates a surface registered under selector.
func (p *Page) NewFrame(selector string) *Surface {
	f := newSurface(&p.calls)
	p.Frames[selector] = f
	return f
}

// Calls returns the operations recorded so far, frames included.
func (p *Page) Calls() []string {
	p.Surface.mu.Lock()
	defer p.Surface.mu.Unlock()
	return append([]string(nil), p.calls...)
}

func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	p.record("navigate %s", url)
	if p.NavigateErr != nil {
		return p.NavigateErr
	}
	p.mu.Lock()
	p.url = url
	p.mu.Unlock()
	if p.OnNavigate != nil {
		p.OnNavigate(url)
	}
	return nil
}

func (p *Page) Controls(ctx context.Context, sel browser.ControlSelector) ([]browser.Control, error) {
	p.record("controls %s", sel.Control)
	if err := p.check(sel.Control); err != nil {
		return nil, err
	}
	cs := p.Slots[p.URL()]
	if len(cs) > 0 {
		return append([]browser.Control(nil), cs...), nil
	}
	<-ctx.Done()
	return nil, browser.WrapWait(ctx, sel.Control, ctx.Err())
}

func (p *Page) ClickControl(ctx context.Context, ref browser.ControlRef) error {
	p.record("click-control %s", ref)
	if err := p.check(string(ref)); err != nil {
		return err
	}
	found := false
	for _, c := range p.Slots[p.URL()] {
		if c.Ref == ref {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: %s", browser.ErrUnknownRef, ref)
	}
	if p.OnClickControl != nil {
		p.OnClickControl(ref)
	}
	return nil
}

func (p *Page) Frame(ctx context.Context, selector string) (browser.Surface, error) {
	if err := p.WaitVisible(ctx, selector); err != nil {
		return nil, err
	}
	f, ok := p.Frames[selector]
	if !ok {
		return nil, fmt.Errorf("%w: %s", browser.ErrNoSuchFrame, selector)
	}
	return f, nil
}

// SetState sets what CaptureState returns.
func (p *Page) SetState(state []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = state
}

func (p *Page) CaptureState(ctx context.Context) ([]byte, error) {
	p.record("capture-state")
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]byte(nil), p.state...), nil
}

func (p *Page) RestoreState(ctx context.Context, state []byte) error {
	p.record("restore-state")
	p.mu.Lock()
	defer p.mu.Unlock()
	p.restored = append([]byte(nil), state...)
	return nil
}

// Restored returns the last state passed to RestoreState.
func (p *Page) Restored() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.restored
}

func (p *Page) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed++
	return nil
}

// Closed returns how many times Close was called.
func (p *Page) Closed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Driver hands out one prepared page.
type Driver struct {
	Page    *Page
	OpenErr error
	opened  int
}

func (d *Driver) Open(ctx context.Context) (browser.Page, error) {
	if d.OpenErr != nil {
		return nil, d.OpenErr
	}
	d.opened++
	return d.Page, nil
}

// Opened returns how many pages were handed out.
func (d *Driver) Opened() int { return d.opened }
