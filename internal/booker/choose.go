package booker

import (
	"context"
	"strings"
	"time"

	"github.com/example/resy-booker/internal/availability"
	"github.com/example/resy-booker/internal/resy"
)

// Chooser picks exactly one slot, or declines with ok=false.
type Chooser interface {
	Choose(ctx context.Context, v resy.Venue, slots []availability.TimeSlot) (slot availability.TimeSlot, ok bool, err error)
}

type ChooserFunc func(ctx context.Context, v resy.Venue, slots []availability.TimeSlot) (availability.TimeSlot, bool, error)

func (f ChooserFunc) Choose(ctx context.Context, v resy.Venue, slots []availability.TimeSlot) (availability.TimeSlot, bool, error) {
	return f(ctx, v, slots)
}

// FirstSlot takes the earliest offered slot.
func FirstSlot() Chooser {
	return ChooserFunc(func(_ context.Context, _ resy.Venue, slots []availability.TimeSlot) (availability.TimeSlot, bool, error) {
		if len(slots) == 0 {
			return availability.TimeSlot{}, false, nil
		}
		return slots[0], true, nil
	})
}

// PreferTimes takes the first slot matching a preferred time, trying the
// preferences in order. Times compare by hour and minute, so "18:15",
// "18:15:00" and "6:15 PM" are the same preference.
func PreferTimes(times []string) Chooser {
	prefs := parseTimes(times)
	return ChooserFunc(func(_ context.Context, _ resy.Venue, slots []availability.TimeSlot) (availability.TimeSlot, bool, error) {
		for _, want := range prefs {
			for _, s := range slots {
				if got, ok := clock(s.Label); ok && got == want {
					return s, true, nil
				}
			}
		}
		return availability.TimeSlot{}, false, nil
	})
}

func parseTimes(times []string) []string {
	var out []string
	for _, t := range times {
		for _, p := range strings.Split(t, ",") {
			if c, ok := clock(p); ok {
				out = append(out, c)
			}
		}
	}
	return out
}

var clockLayouts = []string{"15:04", "15:04:05", "3:04 PM", "3:04PM", "3:04 pm", "3:04pm"}

// clock normalizes a slot label to HH:MM.
func clock(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04"), true
		}
	}
	return "", false
}
