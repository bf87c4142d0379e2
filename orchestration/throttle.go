package orchestration

import (
	"sync"
	"time"
)

// DefaultUpdateInterval is the minimum gap between streamed updates.
const DefaultUpdateInterval = 50 * time.Millisecond

// Throttle forwards at most one value per interval. Values arriving in
// between are coalesced: only the latest is kept, and Flush delivers it.
// Delivery happens on the caller's goroutine, under the throttle's lock,
// so the callback sees values in order.
type Throttle[T any] struct {
	mu       sync.Mutex
	interval time.Duration
	now      func() time.Time
	deliver  func(T)

	last    time.Time
	latest  T
	pending bool
}

// NewThrottle creates a throttle around deliver. A nil deliver discards
// every value.
func NewThrottle[T any](interval time.Duration, deliver func(T)) *Throttle[T] {
	if deliver == nil {
		deliver = func(T) {}
	}
	return &Throttle[T]{interval: interval, now: time.Now, deliver: deliver}
}

// Update offers v. It is delivered immediately if the interval has passed
// since the last delivery, otherwise it is held.
func (t *Throttle[T]) Update(v T) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.latest = v
	t.pending = true
	if now := t.now(); t.last.IsZero() || now.Sub(t.last) >= t.interval {
		t.emit(now)
	}
}

// Flush delivers the held value, if any.
func (t *Throttle[T]) Flush() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.pending {
		t.emit(t.now())
	}
}

func (t *Throttle[T]) emit(now time.Time) {
	t.deliver(t.latest)
	t.last = now
	t.pending = false
}
