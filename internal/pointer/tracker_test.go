package pointer

import (
	"errors"
	"math"
	"testing"
	"time"

	"dragwatch/internal/logging"
	"dragwatch/internal/metrics"
	"dragwatch/internal/sched"
)

func testLogger(t *testing.T) *logging.Logger {
	t.Helper()
	l, err := logging.New(&logging.Config{Level: logging.LevelError, Output: "stderr"})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}
	return l
}

func newTestTracker(t *testing.T) (*Tracker, *SimulatedSource, *sched.Manual) {
	t.Helper()
	source := NewSimulatedSource()
	clock := sched.NewManual(time.Unix(1000, 0))
	tracker := NewTracker(source, testLogger(t), WithScheduler(clock))
	return tracker, source, clock
}

func TestStartStopLifecycle(t *testing.T) {
	tracker, _, _ := newTestTracker(t)

	if tracker.IsTracking() {
		t.Error("should not track before Start")
	}
	if err := tracker.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !tracker.IsTracking() {
		t.Error("should track after Start")
	}

	tracker.Stop()
	if tracker.IsTracking() {
		t.Error("should not track after Stop")
	}

	// Stop is idempotent.
	tracker.Stop()
}

func TestDoubleStartIsLoggedNoOp(t *testing.T) {
	tracker, source, clock := newTestTracker(t)

	if err := tracker.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := tracker.Start(); !errors.Is(err, ErrAlreadyTracking) {
		t.Errorf("second Start: got %v, want ErrAlreadyTracking", err)
	}
	if !tracker.IsTracking() {
		t.Error("double Start must not stop tracking")
	}

	// Only one accounting ticker may exist: one tick per 1000 ms window.
	for i := 0; i < 50; i++ {
		source.Emit(1, 1, 0)
	}
	clock.Advance(1000 * time.Millisecond)
	if hz := tracker.PerformanceMetrics().SampleHz; hz != 50.0 {
		t.Errorf("SampleHz = %g, want 50 (a second ticker would have split the window)", hz)
	}
}

func TestNonFiniteSamplesDropped(t *testing.T) {
	tracker, source, clock := newTestTracker(t)
	if err := tracker.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	var received []Sample
	tracker.OnPosition(func(s Sample) { received = append(received, s) })

	source.Emit(10, 20, ButtonLeft)

	for _, bad := range [][2]float64{
		{math.NaN(), 5},
		{5, math.NaN()},
		{math.Inf(1), 5},
		{5, math.Inf(-1)},
		{math.NaN(), math.NaN()},
	} {
		source.Emit(bad[0], bad[1], 0)
	}

	pos := tracker.CurrentPosition()
	if pos.X != 10 || pos.Y != 20 {
		t.Errorf("position moved on invalid input: %+v", pos)
	}
	if len(received) != 1 {
		t.Errorf("subscribers saw %d samples, want 1", len(received))
	}

	// Dropped samples must not count toward frequency.
	clock.Advance(1000 * time.Millisecond)
	if hz := tracker.PerformanceMetrics().SampleHz; hz != 1.0 {
		t.Errorf("SampleHz = %g, want 1", hz)
	}
}

func TestCurrentPositionBeforeFirstSample(t *testing.T) {
	tracker, _, clock := newTestTracker(t)

	pos := tracker.CurrentPosition()
	if pos.X != 0 || pos.Y != 0 {
		t.Errorf("expected zeroed position, got %+v", pos)
	}
	if !pos.Timestamp.Equal(clock.Now()) {
		t.Errorf("expected current time %v, got %v", clock.Now(), pos.Timestamp)
	}
}

func TestTimestampsMonotonic(t *testing.T) {
	tracker, source, clock := newTestTracker(t)
	if err := tracker.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	var stamps []time.Time
	tracker.OnPosition(func(s Sample) { stamps = append(stamps, s.Timestamp) })

	source.Emit(1, 1, 0)
	clock.Advance(10 * time.Millisecond)
	source.Emit(2, 2, 0)
	clock.Advance(10 * time.Millisecond)
	source.Emit(3, 3, 0)

	for i := 1; i < len(stamps); i++ {
		if stamps[i].Before(stamps[i-1]) {
			t.Errorf("timestamp regressed at %d: %v < %v", i, stamps[i], stamps[i-1])
		}
	}
}

func TestSubscribersNotifiedInOrder(t *testing.T) {
	tracker, source, _ := newTestTracker(t)
	if err := tracker.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	var order []string
	tracker.OnPosition(func(Sample) { order = append(order, "first") })
	tracker.OnPosition(func(Sample) { order = append(order, "second") })

	source.Emit(1, 1, 0)

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("unexpected notification order: %v", order)
	}
}

func TestUnsubscribe(t *testing.T) {
	tracker, source, _ := newTestTracker(t)
	if err := tracker.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	calls := 0
	unsub := tracker.OnPosition(func(Sample) { calls++ })

	source.Emit(1, 1, 0)
	unsub()
	source.Emit(2, 2, 0)
	unsub() // second call is harmless

	if calls != 1 {
		t.Errorf("expected 1 call after unsubscribe, got %d", calls)
	}
}

func TestErrorForwardedNotFatal(t *testing.T) {
	tracker, source, _ := newTestTracker(t)
	if err := tracker.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	var got error
	tracker.OnError(func(err error) { got = err })

	source.EmitError(errors.New("hook lost"))

	if got == nil || got.Error() != "hook lost" {
		t.Errorf("error not forwarded: %v", got)
	}
	if !tracker.IsTracking() {
		t.Error("error event must not stop tracking")
	}
}

func TestAccountingTickWithoutSamples(t *testing.T) {
	tracker, _, clock := newTestTracker(t)
	if err := tracker.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	clock.Advance(1000 * time.Millisecond)
	m := tracker.PerformanceMetrics()
	if m.SampleHz != 0 {
		t.Errorf("SampleHz = %g, want 0", m.SampleHz)
	}
	if m.UpdatedAt.IsZero() {
		t.Error("tick did not run with zero samples")
	}
	if m.CPUPercent != 0 {
		t.Errorf("CPUPercent = %g, must stay 0", m.CPUPercent)
	}
}

func TestCounterResetsEachTick(t *testing.T) {
	tracker, source, clock := newTestTracker(t)
	if err := tracker.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	for i := 0; i < 30; i++ {
		source.Emit(1, 1, 0)
	}
	clock.Advance(1000 * time.Millisecond)
	if hz := tracker.PerformanceMetrics().SampleHz; hz != 30.0 {
		t.Fatalf("first window SampleHz = %g, want 30", hz)
	}

	clock.Advance(1000 * time.Millisecond)
	if hz := tracker.PerformanceMetrics().SampleHz; hz != 0.0 {
		t.Errorf("second window SampleHz = %g, want 0 (counter must reset)", hz)
	}
}

func TestDestroySilencesEverything(t *testing.T) {
	tracker, source, clock := newTestTracker(t)
	if err := tracker.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	events := 0
	tracker.OnPosition(func(Sample) { events++ })
	tracker.OnError(func(error) { events++ })

	tracker.Destroy()
	tracker.Destroy() // must be safe to repeat

	source.Emit(1, 1, 0)
	source.EmitError(errors.New("late"))
	clock.Advance(5 * time.Second)

	if events != 0 {
		t.Errorf("%d events fired after Destroy", events)
	}
	if clock.Pending() != 0 {
		t.Errorf("%d timers still pending after Destroy", clock.Pending())
	}
	if err := tracker.Start(); err == nil {
		t.Error("Start after Destroy should fail")
	}
}

func TestMetricsWiring(t *testing.T) {
	reg := metrics.NewRegistry()
	mset := metrics.NewSet(reg)

	source := NewSimulatedSource()
	clock := sched.NewManual(time.Unix(1000, 0))
	tracker := NewTracker(source, testLogger(t), WithScheduler(clock), WithMetrics(mset))
	if err := tracker.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	source.Emit(1, 1, 0)
	source.Emit(math.NaN(), 1, 0)
	clock.Advance(1000 * time.Millisecond)

	snap := reg.Snapshot()
	if snap["dragwatch_samples_total"] != 1 {
		t.Errorf("samples_total = %g", snap["dragwatch_samples_total"])
	}
	if snap["dragwatch_samples_dropped_total"] != 1 {
		t.Errorf("samples_dropped_total = %g", snap["dragwatch_samples_dropped_total"])
	}
	if snap["dragwatch_sample_hz"] != 1 {
		t.Errorf("sample_hz = %g", snap["dragwatch_sample_hz"])
	}
}

func TestSimulatedSourceStopsDelivery(t *testing.T) {
	tracker, source, _ := newTestTracker(t)
	if err := tracker.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	count := 0
	tracker.OnPosition(func(Sample) { count++ })

	source.Emit(1, 1, 0)
	if err := source.Stop(); err != nil {
		t.Fatalf("source Stop: %v", err)
	}
	source.Emit(2, 2, 0)

	if count != 1 {
		t.Errorf("source delivered after Stop: %d events", count)
	}
}

func TestStartFailsWhenSourceFails(t *testing.T) {
	clock := sched.NewManual(time.Unix(0, 0))
	tracker := NewTracker(failingSource{}, testLogger(t), WithScheduler(clock))

	if err := tracker.Start(); err == nil {
		t.Fatal("expected Start to fail")
	}
	if tracker.IsTracking() {
		t.Error("tracker active after failed Start")
	}
	if clock.Pending() != 0 {
		t.Errorf("%d timers leaked after failed Start", clock.Pending())
	}
}

type failingSource struct{}

func (failingSource) Start(Sink) error          { return ErrSourceUnavailable }
func (failingSource) Stop() error               { return nil }
func (failingSource) Available() (bool, string) { return false, "always fails" }
