package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestWaitForSlot_RefusalBeforeDeadlineIsDeadlineExceeded(t *testing.T) {
	limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
	require.True(t, limiter.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	started := time.Now()
	err := waitForSlot(ctx, limiter)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NoError(t, ctx.Err(), "the limiter refuses without waiting out the deadline")
	assert.Less(t, time.Since(started), 500*time.Millisecond)
}

func TestWaitForSlot_AdmitsWithinBurst(t *testing.T) {
	limiter := rate.NewLimiter(rate.Every(time.Hour), 2)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	assert.NoError(t, waitForSlot(ctx, limiter))
	assert.NoError(t, waitForSlot(ctx, limiter))
}

func TestWaitForSlot_CancelledContextIsNotATimeout(t *testing.T) {
	limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
	require.True(t, limiter.Allow())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := waitForSlot(ctx, limiter)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, context.DeadlineExceeded)
}
