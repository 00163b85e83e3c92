package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time            { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func TestWindow_Allow(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	w := NewWindow(2, time.Minute)
	w.now = clock.now

	require.True(t, w.Allow())
	clock.advance(10 * time.Second)
	require.True(t, w.Allow())
	require.False(t, w.Allow())
	require.Equal(t, 2, w.InFlight())

	// first hit leaves the window at t+60s
	clock.advance(49 * time.Second)
	require.False(t, w.Allow())
	clock.advance(time.Second)
	require.True(t, w.Allow())
	require.False(t, w.Allow())

	ok, wait := w.reserve()
	require.False(t, ok)
	require.Equal(t, 10*time.Second, wait)
}

func TestWindow_Disabled(t *testing.T) {
	w := NewWindow(0, time.Minute)
	for i := 0; i < 100; i++ {
		require.True(t, w.Allow())
	}
}

func TestWindow_Wait(t *testing.T) {
	w := NewWindow(1, 50*time.Millisecond)
	require.NoError(t, w.Wait(context.Background()))
	start := time.Now()
	require.NoError(t, w.Wait(context.Background()))
	require.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, w.Wait(ctx), context.DeadlineExceeded)
}

func TestClientLimiter(t *testing.T) {
	l := NewClientLimiter(1, 2, time.Minute)
	require.True(t, l.Allow("10.0.0.1"))
	require.True(t, l.Allow("10.0.0.1"))
	require.False(t, l.Allow("10.0.0.1"))
	// separate bucket per client
	require.True(t, l.Allow("10.0.0.2"))

	unlimited := NewClientLimiter(0, 0, time.Minute)
	for i := 0; i < 50; i++ {
		require.True(t, unlimited.Allow("x"))
	}
}
