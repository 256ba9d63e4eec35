// Package dragdetect decides when an external file drag is in
// progress. It has no reliable native "drag started" signal to lean
// on: the detector activates optimistically on an upstream cue (a
// pointer shake), polls the clipboard for file signatures, and ends
// the session on a fixed timeout. A wrong guess costs at most one
// timeout window.
package dragdetect

import (
	"sync"
	"time"

	"dragwatch/internal/clipboard"
	"dragwatch/internal/logging"
	"dragwatch/internal/metrics"
	"dragwatch/internal/sched"
)

const (
	// DefaultPollInterval is how often an active session probes the
	// clipboard.
	DefaultPollInterval = 100 * time.Millisecond

	// DefaultSessionTimeout bounds an optimistic session. Without a
	// refresh, drag-end fires when it elapses.
	DefaultSessionTimeout = 3000 * time.Millisecond
)

// Phase is the detector's session state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseOptimisticallyActive
)

func (p Phase) String() string {
	if p == PhaseOptimisticallyActive {
		return "optimistically-active"
	}
	return "idle"
}

// Prober is the clipboard capability the detector polls.
type Prober interface {
	Check() clipboard.ProbeResult
}

// Session summarizes one optimistic activation.
type Session struct {
	ActivatedAt time.Time `json:"activated_at"`
	Refreshes   int       `json:"refreshes"`
	ProbeHits   int       `json:"probe_hits"`
}

// Unsubscribe removes a previously registered callback. Safe to call
// more than once.
type Unsubscribe func()

type startSub struct {
	id int
	fn func()
}

type endSub struct {
	id int
	fn func(Session)
}

type fileSub struct {
	id int
	fn func([]string)
}

// Detector runs the optimistic-timeout strategy. All callbacks fire
// synchronously on the goroutine that triggered them; none fire after
// Stop or Destroy returns.
type Detector struct {
	probe Prober
	sch   sched.Scheduler
	log   *logging.Logger
	mset  *metrics.Set

	poll    time.Duration
	timeout time.Duration

	mu        sync.Mutex
	started   bool
	destroyed bool
	phase     Phase
	session   Session

	// generation invalidates stale timer callbacks across refreshes
	// and deactivations.
	generation    uint64
	pollTimer     sched.Timer
	deadlineTimer sched.Timer

	nextSubID int
	startSubs []startSub
	endSubs   []endSub
	fileSubs  []fileSub
}

// Option configures a Detector.
type Option func(*Detector)

// WithScheduler substitutes the timer source. Tests use a manual
// scheduler.
func WithScheduler(s sched.Scheduler) Option {
	return func(d *Detector) { d.sch = s }
}

// WithMetrics wires detector counters into a metric set.
func WithMetrics(m *metrics.Set) Option {
	return func(d *Detector) { d.mset = m }
}

// WithIntervals overrides the poll interval and session timeout.
// Non-positive values keep the defaults.
func WithIntervals(poll, timeout time.Duration) Option {
	return func(d *Detector) {
		if poll > 0 {
			d.poll = poll
		}
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// SetIntervals updates the poll interval and session timeout. Running
// timers are left alone; new values apply to the next activation or
// refresh. Non-positive values are ignored.
func (d *Detector) SetIntervals(poll, timeout time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if poll > 0 {
		d.poll = poll
	}
	if timeout > 0 {
		d.timeout = timeout
	}
}

// NewDetector creates an idle, stopped detector.
func NewDetector(probe Prober, log *logging.Logger, opts ...Option) *Detector {
	d := &Detector{
		probe:   probe,
		sch:     sched.New(),
		log:     log.WithComponent("dragdetect"),
		poll:    DefaultPollInterval,
		timeout: DefaultSessionTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start makes the detector accept activation requests. Redundant calls
// are logged no-ops.
func (d *Detector) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.destroyed {
		d.log.Warn("start after destroy ignored")
		return
	}
	if d.started {
		d.log.Warn("already started")
		return
	}
	d.started = true
	d.log.Info("started", "poll_interval", d.poll, "session_timeout", d.timeout)
}

// Stop ends any active session without emitting drag-end and rejects
// further activations until Start. Safe to call repeatedly.
func (d *Detector) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.started {
		return
	}
	d.started = false
	d.deactivateLocked()
	d.log.Info("stopped")
}

// Destroy stops the detector and drops all subscriptions. Safe to call
// repeatedly; the detector cannot be restarted afterwards.
func (d *Detector) Destroy() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.destroyed {
		return
	}
	d.destroyed = true
	d.started = false
	d.deactivateLocked()
	d.startSubs = nil
	d.endSubs = nil
	d.fileSubs = nil
}

// deactivateLocked cancels timers and returns to Idle. Emits nothing.
func (d *Detector) deactivateLocked() {
	d.generation++
	if d.pollTimer != nil {
		d.pollTimer.Stop()
		d.pollTimer = nil
	}
	if d.deadlineTimer != nil {
		d.deadlineTimer.Stop()
		d.deadlineTimer = nil
	}
	d.phase = PhaseIdle
	if d.mset != nil {
		d.mset.Dragging.Set(0)
	}
}

// ActivateOptimistically enters (or refreshes) an optimistic drag
// session. The first transition into the active phase emits one
// drag-start; repeated calls while active extend the deadline without
// re-emitting. Ignored unless the detector is started.
func (d *Detector) ActivateOptimistically() {
	d.mu.Lock()
	if !d.started {
		d.log.Warn("activation while stopped ignored")
		d.mu.Unlock()
		return
	}

	now := d.sch.Now()
	fresh := d.phase == PhaseIdle

	if fresh {
		d.phase = PhaseOptimisticallyActive
		d.session = Session{ActivatedAt: now}
		d.generation++
		gen := d.generation
		d.pollTimer = d.sch.Every(d.poll, func() { d.pollTick(gen) })
		d.deadlineTimer = d.sch.After(d.timeout, func() { d.deadlineElapsed(gen) })
		if d.mset != nil {
			d.mset.ActivationsTotal.Inc()
			d.mset.DragSessionsTotal.Inc()
			d.mset.Dragging.Set(1)
		}
		d.log.Debug("session activated")
	} else {
		// Refresh: rearm the deadline only. The poll ticker keeps its
		// cadence, so the old generation must stay valid for it.
		d.session.Refreshes++
		if d.deadlineTimer != nil {
			d.deadlineTimer.Stop()
		}
		gen := d.generation
		d.deadlineTimer = d.sch.After(d.timeout, func() { d.deadlineElapsed(gen) })
		if d.mset != nil {
			d.mset.ActivationsTotal.Inc()
		}
		d.log.Debug("session refreshed", "refreshes", d.session.Refreshes)
	}

	var starts []startSub
	if fresh {
		starts = make([]startSub, len(d.startSubs))
		copy(starts, d.startSubs)
	}
	d.mu.Unlock()

	for _, sub := range starts {
		sub.fn()
	}
}

// pollTick probes the clipboard once for the session identified by gen.
func (d *Detector) pollTick(gen uint64) {
	d.mu.Lock()
	if gen != d.generation || d.phase != PhaseOptimisticallyActive {
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()

	res := d.probe.Check()
	if !res.HasFileSignature {
		return
	}

	d.mu.Lock()
	if gen != d.generation || d.phase != PhaseOptimisticallyActive {
		d.mu.Unlock()
		return
	}
	d.session.ProbeHits++
	subs := make([]fileSub, len(d.fileSubs))
	copy(subs, d.fileSubs)
	d.mu.Unlock()

	// A positive probe does not end the session; the user may still be
	// mid-drag. Only the deadline ends it.
	for _, sub := range subs {
		sub.fn(res.FilePaths)
	}
}

// deadlineElapsed ends the session identified by gen.
func (d *Detector) deadlineElapsed(gen uint64) {
	d.mu.Lock()
	if gen != d.generation || d.phase != PhaseOptimisticallyActive {
		d.mu.Unlock()
		return
	}
	done := d.session
	d.deactivateLocked()
	subs := make([]endSub, len(d.endSubs))
	copy(subs, d.endSubs)
	d.mu.Unlock()

	d.log.Debug("session timed out",
		"refreshes", done.Refreshes, "probe_hits", done.ProbeHits)
	for _, sub := range subs {
		sub.fn(done)
	}
}

// CheckNow runs one synchronous probe outside the polling loop. It
// never changes the session phase.
func (d *Detector) CheckNow() bool {
	return d.probe.Check().HasFileSignature
}

// IsDraggingFiles reports whether an optimistic session is active.
func (d *Detector) IsDraggingFiles() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.phase == PhaseOptimisticallyActive
}

// CurrentPhase returns the session phase.
func (d *Detector) CurrentPhase() Phase {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.phase
}

// CurrentSession returns a snapshot of the active (or last) session.
func (d *Detector) CurrentSession() Session {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.session
}

// OnDragStart subscribes to session activation. Subscribers run
// synchronously, in subscription order.
func (d *Detector) OnDragStart(fn func()) Unsubscribe {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextSubID++
	id := d.nextSubID
	d.startSubs = append(d.startSubs, startSub{id: id, fn: fn})
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		for i, sub := range d.startSubs {
			if sub.id == id {
				d.startSubs = append(d.startSubs[:i], d.startSubs[i+1:]...)
				return
			}
		}
	}
}

// OnDragEnd subscribes to session timeout.
func (d *Detector) OnDragEnd(fn func(Session)) Unsubscribe {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextSubID++
	id := d.nextSubID
	d.endSubs = append(d.endSubs, endSub{id: id, fn: fn})
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		for i, sub := range d.endSubs {
			if sub.id == id {
				d.endSubs = append(d.endSubs[:i], d.endSubs[i+1:]...)
				return
			}
		}
	}
}

// OnFilesDetected subscribes to positive probes during a session.
// Paths are deduplicated in discovery order and may be empty when a
// signature had no extractable path.
func (d *Detector) OnFilesDetected(fn func([]string)) Unsubscribe {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextSubID++
	id := d.nextSubID
	d.fileSubs = append(d.fileSubs, fileSub{id: id, fn: fn})
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		for i, sub := range d.fileSubs {
			if sub.id == id {
				d.fileSubs = append(d.fileSubs[:i], d.fileSubs[i+1:]...)
				return
			}
		}
	}
}
