// Package watch re-runs an availability scan on an interval until slots
// appear or the watch window closes.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/resy-booker/internal/availability"
	"github.com/example/resy-booker/internal/logging"
)

var ErrWindowClosed = errors.New("watch window closed without slots")

// ScanFunc runs one scan. An availability.ErrScanTimeout is treated as a
// transient empty result; any other error stops the watch.
type ScanFunc func(ctx context.Context) ([]availability.TimeSlot, error)

type Poller struct {
	Interval time.Duration
	// From delays the first scan; zero starts immediately.
	From time.Time
	// Until closes the window; zero means run until ctx ends.
	Until  time.Time
	Now    func() time.Time
	Logger *slog.Logger
}

func NewPoller(interval time.Duration, until time.Time, logger *slog.Logger) *Poller {
	return &Poller{
		Interval: interval,
		Until:    until,
		Now:      time.Now,
		Logger:   logging.Component(logger, "watch"),
	}
}

// Poll scans immediately, then once per Interval.
func (p *Poller) Poll(ctx context.Context, scan ScanFunc) ([]availability.TimeSlot, error) {
	interval := p.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	now := p.Now
	if now == nil {
		now = time.Now
	}
	log := p.Logger
	if log == nil {
		log = logging.Discard()
	}

	if wait := p.From.Sub(now()); !p.From.IsZero() && wait > 0 {
		log.Info("waiting for watch window", slog.Time("from", p.From), slog.Duration("wait", wait))
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	t := time.NewTicker(interval)
	defer t.Stop()

	for round := 1; ; round++ {
		slots, err := scan(ctx)
		switch {
		case errors.Is(err, availability.ErrScanTimeout):
			log.Warn("scan timed out, will retry", slog.Int("round", round))
		case err != nil:
			return nil, err
		case len(slots) > 0:
			log.Info("slots appeared", slog.Int("round", round), slog.Int("count", len(slots)))
			return slots, nil
		default:
			log.Debug("no slots yet", slog.Int("round", round))
		}

		if !p.Until.IsZero() && !now().Before(p.Until) {
			log.Info("watch window closed", slog.Int("rounds", round), slog.Time("until", p.Until))
			return nil, ErrWindowClosed
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
		}
	}
}

// ReleaseWindow brackets the moment slots for date are released: daysOut days
// earlier at release (HH:MM in loc). The window opens lead before that moment
// and closes length after it.
func ReleaseWindow(date time.Time, daysOut int, release string, lead, length time.Duration, loc *time.Location) (start, end time.Time, err error) {
	if loc == nil {
		loc = time.UTC
	}
	if release == "" {
		release = "00:00"
	}
	openDay := date.AddDate(0, 0, -daysOut).Format("2006-01-02")
	openAt, err := time.ParseInLocation("2006-01-02 15:04", openDay+" "+release, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid release time %q (want HH:MM): %w", release, err)
	}
	return openAt.Add(-lead), openAt.Add(length), nil
}
