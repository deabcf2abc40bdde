// Package session persists the authenticated browser state between runs and
// falls back to a human-driven login when none is stored.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/resy-booker/internal/browser"
	"github.com/example/resy-booker/internal/logging"
)

const (
	DefaultLoginURL     = "https://resy.com/login"
	DefaultLoginMarker  = `div[data-test-id="user-menu"]`
	DefaultLoginTimeout = 5 * time.Minute
)

// ErrAuthTimeout means the login marker never appeared. A human has to retry.
var ErrAuthTimeout = errors.New("interactive login timed out")

// State is the opaque serialized browser authentication state.
type State []byte

// Persister stores the single session this process manages.
type Persister interface {
	Load(ctx context.Context) (State, bool, error)
	Save(ctx context.Context, st State) error
	Clear(ctx context.Context) error
}

type Store struct {
	Persister    Persister
	LoginURL     string
	LoginMarker  string
	LoginTimeout time.Duration
	Logger       *slog.Logger
}

func NewStore(p Persister, logger *slog.Logger) *Store {
	return &Store{
		Persister:    p,
		LoginURL:     DefaultLoginURL,
		LoginMarker:  DefaultLoginMarker,
		LoginTimeout: DefaultLoginTimeout,
		Logger:       logging.Component(logger, "session"),
	}
}

// LoadOrCreate restores a persisted session into page without contacting the
// platform, or blocks on an interactive login when nothing is persisted.
func (s *Store) LoadOrCreate(ctx context.Context, page browser.Page) (State, error) {
	st, ok, err := s.Persister.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if ok {
		if err := page.RestoreState(ctx, st); err != nil {
			return nil, fmt.Errorf("restore session: %w", err)
		}
		s.Logger.Info("session restored", slog.Int("bytes", len(st)))
		return st, nil
	}
	s.Logger.Info("no saved session, interactive login required")
	return s.Login(ctx, page)
}

// Login opens the login page and waits, bounded by LoginTimeout, for a human
// to finish signing in. The captured state is persisted before returning.
func (s *Store) Login(ctx context.Context, page browser.Page) (State, error) {
	timeout := s.LoginTimeout
	if timeout <= 0 {
		timeout = DefaultLoginTimeout
	}
	lctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := page.Navigate(lctx, s.LoginURL); err != nil {
		if browser.IsTimeout(err) {
			return nil, ErrAuthTimeout
		}
		return nil, fmt.Errorf("open login page: %w", err)
	}
	s.Logger.Info("waiting for login in browser", slog.Duration("timeout", timeout))
	if err := page.WaitVisible(lctx, s.LoginMarker); err != nil {
		if browser.IsTimeout(err) {
			return nil, ErrAuthTimeout
		}
		return nil, fmt.Errorf("wait for login: %w", err)
	}

	raw, err := page.CaptureState(ctx)
	if err != nil {
		return nil, fmt.Errorf("capture session: %w", err)
	}
	st := State(raw)
	if err := s.Persister.Save(ctx, st); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	s.Logger.Info("login complete, session saved", slog.Int("bytes", len(st)))
	return st, nil
}

// Reset forgets the persisted session so the next run logs in again.
func (s *Store) Reset(ctx context.Context) error {
	return s.Persister.Clear(ctx)
}
