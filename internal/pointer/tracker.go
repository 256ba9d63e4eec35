package pointer

import (
	"errors"
	"sync"
	"time"

	"dragwatch/internal/logging"
	"dragwatch/internal/metrics"
	"dragwatch/internal/sched"
)

// defaultAccountingInterval is the default performance accounting
// cadence.
const defaultAccountingInterval = 1000 * time.Millisecond

// ErrAlreadyTracking is returned by Start when the tracker is already
// running. Non-fatal: the call is a logged no-op.
var ErrAlreadyTracking = errors.New("tracker already running")

// Unsubscribe removes a subscription when called. Safe to call more
// than once.
type Unsubscribe func()

type positionSub struct {
	id int
	fn func(Sample)
}

type errorSub struct {
	id int
	fn func(error)
}

// Tracker owns the sampling lifecycle for one pointer source.
type Tracker struct {
	mu sync.Mutex

	source Source
	sch    sched.Scheduler
	log    *logging.Logger
	mset   *metrics.Set

	active      bool
	destroyed   bool
	accInterval time.Duration
	accTimer    sched.Timer
	acc         *accumulator

	lastSample Sample
	hasSample  bool

	nextSubID int
	posSubs   []positionSub
	errSubs   []errorSub
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithScheduler overrides the wall-clock scheduler.
func WithScheduler(s sched.Scheduler) Option {
	return func(t *Tracker) { t.sch = s }
}

// WithMetrics wires sample counters into a metric set.
func WithMetrics(m *metrics.Set) Option {
	return func(t *Tracker) { t.mset = m }
}

// WithAccountingInterval overrides the accounting cadence.
func WithAccountingInterval(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.accInterval = d
		}
	}
}

// NewTracker creates a Tracker bound to the given source.
func NewTracker(source Source, log *logging.Logger, opts ...Option) *Tracker {
	t := &Tracker{
		source:      source,
		sch:         sched.New(),
		log:         log.WithComponent("tracker"),
		accInterval: defaultAccountingInterval,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.acc = newAccumulator(t.sch.Now())
	return t
}

// Start begins tracking: installs the source hook and arms the
// accounting tick. A second Start while running is a logged no-op that
// returns ErrAlreadyTracking; it never creates a second ticker.
func (t *Tracker) Start() error {
	t.mu.Lock()
	if t.destroyed {
		t.mu.Unlock()
		return errors.New("tracker destroyed")
	}
	if t.active {
		t.mu.Unlock()
		t.log.Warn("start ignored: already tracking")
		return ErrAlreadyTracking
	}
	t.active = true
	t.acc = newAccumulator(t.sch.Now())
	t.accTimer = t.sch.Every(t.accInterval, t.accountingTick)
	t.mu.Unlock()

	if err := t.source.Start(t); err != nil {
		t.mu.Lock()
		t.active = false
		if t.accTimer != nil {
			t.accTimer.Stop()
			t.accTimer = nil
		}
		t.mu.Unlock()
		t.log.Error("source start failed", "error", err)
		return err
	}

	t.log.Info("tracking started")
	return nil
}

// Stop tears down accounting and the source hook. Idempotent.
func (t *Tracker) Stop() {
	t.mu.Lock()
	if !t.active {
		t.mu.Unlock()
		return
	}
	t.active = false
	if t.accTimer != nil {
		t.accTimer.Stop()
		t.accTimer = nil
	}
	t.mu.Unlock()

	if err := t.source.Stop(); err != nil {
		t.log.Warn("source stop failed", "error", err)
	}
	t.log.Info("tracking stopped")
}

// Destroy stops tracking and drops all subscriptions. Safe to call
// repeatedly; no callback fires afterwards.
func (t *Tracker) Destroy() {
	t.Stop()

	t.mu.Lock()
	t.destroyed = true
	t.posSubs = nil
	t.errSubs = nil
	t.mu.Unlock()
}

// IsTracking reports whether the tracker is running.
func (t *Tracker) IsTracking() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// CurrentPosition returns the last accepted sample, or a zeroed sample
// stamped with the current time when nothing has been observed yet.
// Never blocks, never fails.
func (t *Tracker) CurrentPosition() Sample {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.hasSample {
		return Sample{Timestamp: t.sch.Now()}
	}
	return t.lastSample
}

// PerformanceMetrics returns the most recent accounting snapshot.
func (t *Tracker) PerformanceMetrics() Metrics {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.acc.snapshot()
}

// OnPosition subscribes to accepted samples. Subscribers run
// synchronously, in subscription order, on the delivery turn.
func (t *Tracker) OnPosition(fn func(Sample)) Unsubscribe {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextSubID++
	id := t.nextSubID
	t.posSubs = append(t.posSubs, positionSub{id: id, fn: fn})
	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		for i, sub := range t.posSubs {
			if sub.id == id {
				t.posSubs = append(t.posSubs[:i], t.posSubs[i+1:]...)
				return
			}
		}
	}
}

// OnError subscribes to tracking-layer failures.
func (t *Tracker) OnError(fn func(error)) Unsubscribe {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextSubID++
	id := t.nextSubID
	t.errSubs = append(t.errSubs, errorSub{id: id, fn: fn})
	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		for i, sub := range t.errSubs {
			if sub.id == id {
				t.errSubs = append(t.errSubs[:i], t.errSubs[i+1:]...)
				return
			}
		}
	}
}

// HandleSample ingests one raw event from the source. Non-finite
// coordinates are dropped with a warning and do not touch the position
// or the counters. Implements Sink.
func (t *Tracker) HandleSample(x, y float64, buttons ButtonMask) {
	sample := Sample{X: x, Y: y, Timestamp: t.sch.Now(), Buttons: buttons}
	if !sample.Valid() {
		t.log.Warn("dropping sample with non-finite coordinates", "x", x, "y", y)
		if t.mset != nil {
			t.mset.SamplesDroppedTotal.Inc()
		}
		return
	}

	t.mu.Lock()
	if !t.active {
		t.mu.Unlock()
		return
	}
	// Timestamps are monotonic non-decreasing per tracker.
	if t.hasSample && sample.Timestamp.Before(t.lastSample.Timestamp) {
		sample.Timestamp = t.lastSample.Timestamp
	}
	t.lastSample = sample
	t.hasSample = true
	t.acc.record()
	subs := make([]positionSub, len(t.posSubs))
	copy(subs, t.posSubs)
	t.mu.Unlock()

	if t.mset != nil {
		t.mset.SamplesTotal.Inc()
	}
	for _, sub := range subs {
		sub.fn(sample)
	}
}

// HandleError forwards a source failure to error subscribers. Never
// terminates the process. Implements Sink.
func (t *Tracker) HandleError(err error) {
	t.mu.Lock()
	if !t.active {
		t.mu.Unlock()
		return
	}
	subs := make([]errorSub, len(t.errSubs))
	copy(subs, t.errSubs)
	t.mu.Unlock()

	t.log.Error("tracking error", "error", err)
	for _, sub := range subs {
		sub.fn(err)
	}
}

// accountingTick runs on the fixed cadence, with or without samples.
func (t *Tracker) accountingTick() {
	t.mu.Lock()
	if !t.active {
		t.mu.Unlock()
		return
	}
	m := t.acc.tick(t.sch.Now())
	t.mu.Unlock()

	if t.mset != nil {
		t.mset.SampleHz.Set(m.SampleHz)
		t.mset.MemoryBytes.Set(float64(m.MemoryBytes))
	}
	t.log.Debug("accounting tick", "sample_hz", m.SampleHz, "memory_bytes", m.MemoryBytes)
}
