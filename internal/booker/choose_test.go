package booker

import (
	"context"
	"testing"

	"github.com/example/resy-booker/internal/availability"
	"github.com/example/resy-booker/internal/resy"
	"github.com/stretchr/testify/assert"
)

func slots(labels ...string) []availability.TimeSlot {
	out := make([]availability.TimeSlot, len(labels))
	for i, l := range labels {
		out[i] = availability.TimeSlot{Label: l}
	}
	return out
}

func TestPreferTimesHonoursPreferenceOrder(t *testing.T) {
	c := PreferTimes([]string{"20:30:00", "18:15"})
	s, ok, err := c.Choose(context.Background(), resy.Venue{}, slots("6:00 PM", "6:15 PM", "8:30 PM"))
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "8:30 PM", s.Label)
}

func TestPreferTimesAcceptsCommaList(t *testing.T) {
	c := PreferTimes([]string{"21:00, 18:15"})
	s, ok, _ := c.Choose(context.Background(), resy.Venue{}, slots("18:00", "18:15"))
	assert.True(t, ok)
	assert.Equal(t, "18:15", s.Label)
}

func TestPreferTimesDeclinesWhenNothingMatches(t *testing.T) {
	_, ok, err := PreferTimes([]string{"bogus", "22:00"}).Choose(context.Background(), resy.Venue{}, slots("18:00"))
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestFirstSlot(t *testing.T) {
	s, ok, _ := FirstSlot().Choose(context.Background(), resy.Venue{}, slots("18:00", "19:00"))
	assert.True(t, ok)
	assert.Equal(t, "18:00", s.Label)

	_, ok, _ = FirstSlot().Choose(context.Background(), resy.Venue{}, nil)
	assert.False(t, ok)
}

func TestClock(t *testing.T) {
	for in, want := range map[string]string{
		"18:15":    "18:15",
		"18:15:00": "18:15",
		"6:15 PM":  "18:15",
		" 6:15pm ": "18:15",
		"12:00 AM": "00:00",
	} {
		got, ok := clock(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := clock("Dining Room")
	assert.False(t, ok)
}
