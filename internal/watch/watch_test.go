package watch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/resy-booker/internal/availability"
	"github.com/example/resy-booker/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scripted(results ...[]availability.TimeSlot) (ScanFunc, *int) {
	calls := 0
	return func(context.Context) ([]availability.TimeSlot, error) {
		i := calls
		calls++
		if i < len(results) {
			return results[i], nil
		}
		return nil, nil
	}, &calls
}

func TestPollReturnsFirstNonEmptyScan(t *testing.T) {
	want := []availability.TimeSlot{{Label: "18:00"}}
	scan, calls := scripted(nil, []availability.TimeSlot{}, want)

	p := NewPoller(time.Millisecond, time.Time{}, logging.Discard())
	got, err := p.Poll(context.Background(), scan)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, 3, *calls)
}

func TestPollStopsWhenWindowCloses(t *testing.T) {
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	now := start
	scan, calls := scripted()
	wrapped := func(ctx context.Context) ([]availability.TimeSlot, error) {
		now = now.Add(time.Minute)
		return scan(ctx)
	}

	p := NewPoller(time.Millisecond, start.Add(3*time.Minute), logging.Discard())
	p.Now = func() time.Time { return now }
	_, err := p.Poll(context.Background(), wrapped)
	assert.ErrorIs(t, err, ErrWindowClosed)
	assert.Equal(t, 3, *calls)
}

func TestPollToleratesScanTimeout(t *testing.T) {
	n := 0
	scan := func(context.Context) ([]availability.TimeSlot, error) {
		n++
		if n == 1 {
			return nil, availability.ErrScanTimeout
		}
		return []availability.TimeSlot{{Label: "19:00"}}, nil
	}
	got, err := NewPoller(time.Millisecond, time.Time{}, nil).Poll(context.Background(), scan)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestPollStopsOnHardError(t *testing.T) {
	boom := errors.New("browser crashed")
	scan := func(context.Context) ([]availability.TimeSlot, error) { return nil, boom }
	_, err := NewPoller(time.Millisecond, time.Time{}, nil).Poll(context.Background(), scan)
	assert.ErrorIs(t, err, boom)
}

func TestPollHonoursContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	scan, _ := scripted()
	_, err := NewPoller(5*time.Millisecond, time.Time{}, nil).Poll(ctx, scan)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPollWaitsForWindowStart(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	scan, calls := scripted()
	p := NewPoller(time.Millisecond, time.Time{}, nil)
	p.From = time.Now().Add(time.Hour)

	_, err := p.Poll(ctx, scan)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, *calls)
}

func TestReleaseWindow(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	date := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	start, end, err := ReleaseWindow(date, 30, "09:00", 5*time.Minute, 20*time.Minute, ny)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Date(2025, 6, 1, 8, 55, 0, 0, ny), start, 0)
	assert.WithinDuration(t, time.Date(2025, 6, 1, 9, 20, 0, 0, ny), end, 0)

	_, _, err = ReleaseWindow(date, 30, "9am", 0, 0, ny)
	assert.Error(t, err)
}
