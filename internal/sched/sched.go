// Package sched provides owned, cancellable timer handles.
//
// Both the pointer tracker and the drag detector hang their periodic work
// off a Scheduler instead of keeping raw time.Ticker fields. Stopping a
// Timer returned by this package guarantees the callback will not fire
// again after Stop returns, which makes teardown ordering testable.
package sched

import (
	"sync"
	"time"
)

// Timer is a handle to scheduled work.
type Timer interface {
	// Stop cancels the timer. After Stop returns, the callback will not
	// be invoked again. Stop is idempotent.
	Stop()
}

// Scheduler schedules repeating and one-shot callbacks.
type Scheduler interface {
	// Every invokes fn repeatedly with the given period until the
	// returned Timer is stopped.
	Every(d time.Duration, fn func()) Timer

	// After invokes fn once after the given delay unless the returned
	// Timer is stopped first.
	After(d time.Duration, fn func()) Timer

	// Now returns the scheduler's notion of the current time.
	Now() time.Time
}

// New returns a Scheduler backed by the wall clock.
func New() Scheduler {
	return &wallScheduler{}
}

type wallScheduler struct{}

func (s *wallScheduler) Now() time.Time {
	return time.Now()
}

func (s *wallScheduler) Every(d time.Duration, fn func()) Timer {
	t := &wallTimer{done: make(chan struct{})}
	go func() {
		ticker := time.NewTicker(d)
		defer ticker.Stop()
		for {
			select {
			case <-t.done:
				return
			case <-ticker.C:
				// Re-check after waking so a Stop that raced the tick
				// wins and the callback stays silent.
				select {
				case <-t.done:
					return
				default:
				}
				fn()
			}
		}
	}()
	return t
}

func (s *wallScheduler) After(d time.Duration, fn func()) Timer {
	t := &wallTimer{done: make(chan struct{})}
	go func() {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-t.done:
			return
		case <-timer.C:
			select {
			case <-t.done:
				return
			default:
			}
			fn()
		}
	}()
	return t
}

type wallTimer struct {
	once sync.Once
	done chan struct{}
}

// Stop is safe to call from within the timer's own callback, so it does
// not join the timer goroutine. A callback already past its done-check
// when Stop is called concurrently may still complete; callers that need
// a hard fence re-check their own state under lock before emitting.
func (t *wallTimer) Stop() {
	t.once.Do(func() {
		close(t.done)
	})
}
