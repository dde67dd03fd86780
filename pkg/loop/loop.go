// Package loop provides a cooperative, single-threaded event loop with
// one-shot timers and an idle signal, and a deferred work queue that drains
// one item per idle tick.
//
// Everything scheduled on a Loop runs on the goroutine that calls Tick (or
// Run). Post is the only method that may be called from other goroutines.
package loop

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// IdleSignal is a recurring callback source invoked when the host is not
// busy. *Loop implements it.
type IdleSignal interface {
	OnIdle(fn func()) (cancel func())
}

// Loop is a cooperative event loop.
type Loop struct {
	mu     sync.Mutex
	posted []func()
	timers []*Timer
	idle   []*idleHandler
	wake   chan struct{}

	now func() time.Time
	log *slog.Logger
}

type idleHandler struct {
	fn        func()
	cancelled bool
}

// Timer is a one-shot callback scheduled with After.
type Timer struct {
	loop    *Loop
	due     time.Time
	fn      func()
	stopped bool
}

// Option configures a Loop.
type Option func(*Loop)

// WithLogger sets the logger used for recovered panics.
func WithLogger(log *slog.Logger) Option {
	return func(l *Loop) { l.log = log }
}

// WithClock replaces time.Now, which is useful for driving timers in tests.
func WithClock(now func() time.Time) Option {
	return func(l *Loop) { l.now = now }
}

// New creates an idle loop.
func New(opts ...Option) *Loop {
	l := &Loop{
		wake: make(chan struct{}, 1),
		now:  time.Now,
		log:  slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Now returns the loop's clock reading.
func (l *Loop) Now() time.Time {
	return l.now()
}

// Post schedules fn to run on the loop during the next tick. It is safe to
// call from any goroutine.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.posted = append(l.posted, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// After schedules fn to run once on the loop after d has elapsed.
func (l *Loop) After(d time.Duration, fn func()) *Timer {
	t := &Timer{loop: l, due: l.now().Add(d), fn: fn}
	l.mu.Lock()
	l.timers = append(l.timers, t)
	l.mu.Unlock()
	return t
}

// Stop cancels the timer. It reports whether the timer was still pending.
func (t *Timer) Stop() bool {
	l := t.loop
	l.mu.Lock()
	defer l.mu.Unlock()
	if t.stopped {
		return false
	}
	t.stopped = true
	for i, other := range l.timers {
		if other == t {
			l.timers = append(l.timers[:i], l.timers[i+1:]...)
			return true
		}
	}
	return false
}

// OnIdle registers fn to be called on every tick that had no posted work.
// The returned cancel function is idempotent.
func (l *Loop) OnIdle(fn func()) (cancel func()) {
	h := &idleHandler{fn: fn}
	l.mu.Lock()
	l.idle = append(l.idle, h)
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if h.cancelled {
			return
		}
		h.cancelled = true
		for i, other := range l.idle {
			if other == h {
				l.idle = append(l.idle[:i], l.idle[i+1:]...)
				break
			}
		}
	}
}

// IdleHandlers returns the number of registered idle handlers.
func (l *Loop) IdleHandlers() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.idle)
}

// Tick runs one iteration: posted work first, then timers due at now, then
// the idle handlers if nothing was posted. It reports whether any posted
// work or timer ran.
func (l *Loop) Tick(now time.Time) bool {
	l.mu.Lock()
	posted := l.posted
	l.posted = nil

	var due []*Timer
	pending := l.timers[:0]
	for _, t := range l.timers {
		if !t.due.After(now) {
			t.stopped = true
			due = append(due, t)
		} else {
			pending = append(pending, t)
		}
	}
	l.timers = pending
	l.mu.Unlock()

	for _, fn := range posted {
		l.safeCall("posted", fn)
	}
	for _, t := range due {
		l.safeCall("timer", t.fn)
	}
	if len(posted) > 0 || len(due) > 0 {
		return true
	}

	// Handlers may cancel themselves or register others while running.
	l.mu.Lock()
	handlers := make([]*idleHandler, len(l.idle))
	copy(handlers, l.idle)
	l.mu.Unlock()

	for _, h := range handlers {
		l.mu.Lock()
		cancelled := h.cancelled
		l.mu.Unlock()
		if !cancelled {
			l.safeCall("idle", h.fn)
		}
	}
	return false
}

// Run ticks the loop every interval, and immediately after a Post, until
// ctx is cancelled.
func (l *Loop) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		case <-l.wake:
		}
		l.Tick(l.now())
	}
}

func (l *Loop) safeCall(kind string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("loop callback panicked", "kind", kind, "panic", fmt.Sprint(r))
		}
	}()
	fn()
}
