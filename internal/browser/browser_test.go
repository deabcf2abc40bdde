package browser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWrapWaitDeadlineIsTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	err := WrapWait(ctx, "div.slot", ctx.Err())
	assert.ErrorIs(t, err, ErrTimeout)
	assert.True(t, IsTimeout(err))
}

func TestWrapWaitCancelIsNotTimeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WrapWait(ctx, "div.slot", ctx.Err())
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsTimeout(err))

	// rod reports its own error once the context is gone
	err = WrapWait(ctx, "div.slot", errors.New("websocket closed"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsTimeout(err))
}

func TestWrapWaitPassesOtherErrors(t *testing.T) {
	boom := errors.New("node detached")
	err := WrapWait(context.Background(), "div.slot", boom)
	assert.ErrorIs(t, err, boom)
	assert.False(t, IsTimeout(err))
	assert.NoError(t, WrapWait(context.Background(), "div.slot", nil))
}
