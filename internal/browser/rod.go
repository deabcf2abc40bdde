package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// RodDriver launches a local Chromium through go-rod.
type RodDriver struct {
	Headless bool
	// Bin overrides the browser binary; empty lets rod find or download one.
	Bin    string
	Width  int
	Height int
	Logger *slog.Logger
}

func (d RodDriver) Open(ctx context.Context) (Page, error) {
	l := launcher.New().Headless(d.Headless).Context(ctx)
	if d.Bin != "" {
		l = l.Bin(d.Bin)
	}
	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	pg, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = b.Close()
		l.Kill()
		return nil, fmt.Errorf("open page: %w", err)
	}
	w, h := d.Width, d.Height
	if w == 0 || h == 0 {
		w, h = 1920, 1080
	}
	if err := pg.SetViewport(&proto.EmulationSetDeviceMetricsOverride{Width: w, Height: h}); err != nil {
		_ = b.Close()
		l.Kill()
		return nil, fmt.Errorf("set viewport: %w", err)
	}

	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("browser launched", slog.String("control_url", u), slog.Bool("headless", d.Headless))
	return &rodPage{rodSurface: rodSurface{page: pg}, browser: b, launcher: l, logger: logger}, nil
}

type rodSurface struct {
	page *rod.Page
}

func (s rodSurface) element(ctx context.Context, selector string) (*rod.Element, error) {
	el, err := s.page.Context(ctx).Element(selector)
	if err != nil {
		return nil, WrapWait(ctx, selector, err)
	}
	return el, nil
}

func (s rodSurface) WaitVisible(ctx context.Context, selector string) error {
	el, err := s.element(ctx, selector)
	if err != nil {
		return err
	}
	return WrapWait(ctx, selector, el.Context(ctx).WaitVisible())
}

func (s rodSurface) WaitText(ctx context.Context, selector, text string) error {
	_, err := s.page.Context(ctx).ElementR(selector, regexp.QuoteMeta(text))
	return WrapWait(ctx, selector, err)
}

func (s rodSurface) Click(ctx context.Context, selector string) error {
	el, err := s.element(ctx, selector)
	if err != nil {
		return err
	}
	el = el.Context(ctx)
	if err := el.WaitVisible(); err != nil {
		return WrapWait(ctx, selector, err)
	}
	return WrapWait(ctx, selector, el.Click(proto.InputMouseButtonLeft, 1))
}

func (s rodSurface) WaitAny(ctx context.Context, selectors ...string) (string, error) {
	var matched string
	rc := s.page.Context(ctx).Race()
	for _, sel := range selectors {
		sel := sel
		rc = rc.Element(sel).Handle(func(*rod.Element) error {
			matched = sel
			return nil
		})
	}
	if _, err := rc.Do(); err != nil {
		return "", WrapWait(ctx, fmt.Sprint(selectors), err)
	}
	return matched, nil
}

type rodPage struct {
	rodSurface
	browser  *rod.Browser
	launcher *launcher.Launcher
	logger   *slog.Logger

	lastControls ControlSelector
	closeOnce    sync.Once
	closeErr     error
}

func (p *rodPage) Navigate(ctx context.Context, url string) error {
	pg := p.page.Context(ctx)
	if err := pg.Navigate(url); err != nil {
		return WrapWait(ctx, url, err)
	}
	return WrapWait(ctx, url, pg.WaitLoad())
}

func (p *rodPage) Controls(ctx context.Context, sel ControlSelector) ([]Control, error) {
	if _, err := p.element(ctx, sel.Control); err != nil {
		return nil, err
	}
	html, err := p.page.Context(ctx).HTML()
	if err != nil {
		return nil, WrapWait(ctx, sel.Control, err)
	}
	p.lastControls = sel
	return ParseControls(html, sel)
}

func (p *rodPage) ClickControl(ctx context.Context, ref ControlRef) error {
	if i, ok := refIndex(ref); ok {
		if p.lastControls.Control == "" {
			return ErrUnknownRef
		}
		els, err := p.page.Context(ctx).Elements(p.lastControls.Control)
		if err != nil {
			return WrapWait(ctx, string(ref), err)
		}
		if i >= len(els) {
			return fmt.Errorf("%w: %s", ErrUnknownRef, ref)
		}
		return WrapWait(ctx, string(ref), els[i].Context(ctx).Click(proto.InputMouseButtonLeft, 1))
	}
	return p.Click(ctx, string(ref))
}

func (p *rodPage) Frame(ctx context.Context, selector string) (Surface, error) {
	el, err := p.element(ctx, selector)
	if err != nil {
		return nil, err
	}
	fr, err := el.Context(ctx).Frame()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNoSuchFrame, selector, err)
	}
	return rodSurface{page: fr}, nil
}

// CaptureState saves the browser's cookies and the localStorage of the
// current origin. A page whose storage cannot be read still yields cookies.
func (p *rodPage) CaptureState(ctx context.Context) ([]byte, error) {
	cookies, err := p.browser.Context(ctx).GetCookies()
	if err != nil {
		return nil, fmt.Errorf("read cookies: %w", err)
	}
	st := storageState{Cookies: cookies}

	var o originStorage
	res, err := p.page.Context(ctx).Eval(captureStorageJS)
	if err == nil {
		err = res.Value.Unmarshal(&o)
	}
	switch {
	case err != nil:
		p.logger.Debug("localStorage not captured", slog.Any("err", err))
	case o.usable():
		st.Origins = append(st.Origins, o)
	}
	p.logger.Debug("session captured", slog.Int("cookies", len(cookies)), slog.Any("origins", originNames(st.Origins)))
	return json.Marshal(st)
}

func (p *rodPage) RestoreState(ctx context.Context, state []byte) error {
	st, err := decodeState(state)
	if err != nil {
		return err
	}
	if err := p.browser.Context(ctx).SetCookies(proto.CookiesToParams(st.Cookies)); err != nil {
		return fmt.Errorf("restore cookies: %w", err)
	}
	if js, ok := restoreScript(st.Origins); ok {
		if _, err := p.page.Context(ctx).EvalOnNewDocument(js); err != nil {
			return fmt.Errorf("restore localStorage: %w", err)
		}
	}
	return nil
}

// Close is safe to call more than once; only the first call releases anything.
func (p *rodPage) Close() error {
	p.closeOnce.Do(func() {
		p.closeErr = p.browser.Close()
		p.launcher.Kill()
		p.logger.Debug("browser closed")
	})
	return p.closeErr
}
