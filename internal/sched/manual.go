package sched

import (
	"sort"
	"sync"
	"time"
)

// Manual is a deterministic Scheduler for tests. Time only moves when
// Advance is called; due callbacks run synchronously on the advancing
// goroutine, in deadline order.
type Manual struct {
	mu     sync.Mutex
	now    time.Time
	nextID int
	timers []*manualTimer
}

// NewManual creates a Manual scheduler starting at the given time.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) Every(d time.Duration, fn func()) Timer {
	return m.add(d, fn, true)
}

func (m *Manual) After(d time.Duration, fn func()) Timer {
	return m.add(d, fn, false)
}

func (m *Manual) add(d time.Duration, fn func(), repeat bool) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	t := &manualTimer{
		owner:  m,
		id:     m.nextID,
		at:     m.now.Add(d),
		period: d,
		fn:     fn,
		repeat: repeat,
	}
	m.timers = append(m.timers, t)
	return t
}

// Advance moves time forward by d, firing every due callback in order.
// Repeating timers fire once per elapsed period.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	for {
		t := m.nextDue(target)
		if t == nil {
			break
		}
		m.now = t.at
		fn := t.fn
		if t.repeat {
			t.at = t.at.Add(t.period)
		} else {
			t.stopped = true
		}
		// Release the lock while running the callback so it can
		// schedule or stop timers.
		m.mu.Unlock()
		fn()
		m.mu.Lock()
	}
	m.now = target
	m.mu.Unlock()
}

// nextDue returns the earliest unstopped timer due at or before target.
// Caller holds mu.
func (m *Manual) nextDue(target time.Time) *manualTimer {
	live := m.timers[:0]
	for _, t := range m.timers {
		if !t.stopped {
			live = append(live, t)
		}
	}
	m.timers = live
	sort.SliceStable(m.timers, func(i, j int) bool {
		if m.timers[i].at.Equal(m.timers[j].at) {
			return m.timers[i].id < m.timers[j].id
		}
		return m.timers[i].at.Before(m.timers[j].at)
	})
	for _, t := range m.timers {
		if !t.at.After(target) {
			return t
		}
	}
	return nil
}

// Pending returns the number of live timers.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

type manualTimer struct {
	owner   *Manual
	id      int
	at      time.Time
	period  time.Duration
	fn      func()
	repeat  bool
	stopped bool
}

func (t *manualTimer) Stop() {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	t.stopped = true
}
