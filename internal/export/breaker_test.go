package export

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrowserBreaker_Transitions(t *testing.T) {
	now := time.Unix(1000, 0)
	b := newBrowserBreaker(2, time.Minute)
	b.now = func() time.Time { return now }

	require.True(t, b.allow())
	b.failure()
	assert.Equal(t, breakerClosed, b.state)
	b.failure()
	assert.Equal(t, breakerOpen, b.state)
	assert.False(t, b.allow())

	now = now.Add(time.Minute)
	assert.True(t, b.allow(), "probe after cooldown")
	assert.Equal(t, breakerHalfOpen, b.state)
	assert.False(t, b.allow(), "only one probe")

	b.failure()
	assert.Equal(t, breakerOpen, b.state)

	now = now.Add(2 * time.Minute)
	require.True(t, b.allow())
	b.success()
	assert.Equal(t, breakerClosed, b.state)
	assert.Zero(t, b.failures)
}

func TestExport_BreakerOpensAfterFailures(t *testing.T) {
	browser := &fakeBrowser{err: errors.New("chrome gone")}
	exp := New(Options{Enabled: true, RatePerMinute: 600, Burst: 10, FailureThreshold: 2, BreakerCooldown: time.Hour}, browser)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := exp.Export(ctx, "c", []byte("x"), FormatPNG, 10, 10)
		assert.EqualError(t, err, "chrome gone")
	}
	_, err := exp.Export(ctx, "c", []byte("x"), FormatPNG, 10, 10)
	assert.ErrorIs(t, err, ErrBrowserUnavailable)
	assert.EqualValues(t, 2, browser.calls.Load())

	// html never touches the browser
	_, err = exp.Export(ctx, "c", []byte("x"), FormatHTML, 10, 10)
	assert.NoError(t, err)
}

func TestBrowserBreaker_AbandonedProbeReleasesSlot(t *testing.T) {
	now := time.Unix(1000, 0)
	b := newBrowserBreaker(1, time.Minute)
	b.now = func() time.Time { return now }

	b.failure()
	now = now.Add(time.Minute)
	require.True(t, b.allow())
	b.abandon()
	assert.Equal(t, breakerOpen, b.state)
	assert.True(t, b.allow(), "cooldown already elapsed")
	assert.Equal(t, breakerHalfOpen, b.state)

	b.success()
	b.abandon()
	assert.Equal(t, breakerClosed, b.state, "abandon only affects a probe")
}

func TestExport_CancelledProbeDoesNotWedgeBreaker(t *testing.T) {
	now := time.Unix(1000, 0)
	browser := &fakeBrowser{err: errors.New("chrome gone")}
	exp := New(Options{Enabled: true, RatePerMinute: 600, Burst: 10, FailureThreshold: 1, BreakerCooldown: time.Millisecond}, browser)
	exp.breaker.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := exp.Export(ctx, "c", []byte("x"), FormatPNG, 10, 10)
	require.EqualError(t, err, "chrome gone")

	now = now.Add(time.Second)
	browser.err = context.Canceled
	_, err = exp.Export(ctx, "c", []byte("x"), FormatPNG, 10, 10)
	require.ErrorIs(t, err, context.Canceled)

	browser.err = nil
	art, err := exp.Export(ctx, "c", []byte("x"), FormatPNG, 10, 10)
	require.NoError(t, err)
	assert.Equal(t, "c.png", art.Filename)
	assert.Equal(t, breakerClosed, exp.breaker.state)
}
