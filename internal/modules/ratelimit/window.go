package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/gammazero/deque"
)

// Window allows at most limit events in any trailing window. Admitted
// timestamps are kept oldest first so expiry only ever looks at the front.
type Window struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	hits   deque.Deque[time.Time]
	now    func() time.Time
}

// NewWindow returns a limiter; limit <= 0 or window <= 0 disables limiting.
func NewWindow(limit int, window time.Duration) *Window {
	return &Window{limit: limit, window: window, now: time.Now}
}

func (w *Window) disabled() bool {
	return w.limit <= 0 || w.window <= 0
}

// reserve admits an event if possible, otherwise reports how long until the
// oldest event leaves the window.
func (w *Window) reserve() (bool, time.Duration) {
	if w.disabled() {
		return true, 0
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	now := w.now()
	for w.hits.Len() > 0 && !now.Before(w.hits.Front().Add(w.window)) {
		w.hits.PopFront()
	}
	if w.hits.Len() < w.limit {
		w.hits.PushBack(now)
		return true, 0
	}
	return false, w.hits.Front().Add(w.window).Sub(now)
}

func (w *Window) Allow() bool {
	ok, _ := w.reserve()
	return ok
}

// Wait blocks until an event is admitted or ctx is done.
func (w *Window) Wait(ctx context.Context) error {
	for {
		ok, wait := w.reserve()
		if ok {
			return nil
		}
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

// InFlight is the number of events currently inside the window.
func (w *Window) InFlight() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	now := w.now()
	n := 0
	for i := 0; i < w.hits.Len(); i++ {
		if now.Before(w.hits.At(i).Add(w.window)) {
			n++
		}
	}
	return n
}
