package dragdetect

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dragwatch/internal/clipboard"
	"dragwatch/internal/logging"
	"dragwatch/internal/metrics"
	"dragwatch/internal/sched"
)

// fakeProber serves a fixed probe result and counts calls.
type fakeProber struct {
	mu     sync.Mutex
	result clipboard.ProbeResult
	calls  int
}

func (p *fakeProber) Check() clipboard.ProbeResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.result
}

func (p *fakeProber) set(res clipboard.ProbeResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.result = res
}

func (p *fakeProber) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func newTestDetector(t *testing.T, opts ...Option) (*Detector, *fakeProber, *sched.Manual) {
	t.Helper()
	log, err := logging.New(&logging.Config{Level: logging.LevelError, Output: "stderr"})
	require.NoError(t, err)

	probe := &fakeProber{}
	clock := sched.NewManual(time.Unix(5000, 0))
	det := NewDetector(probe, log, append([]Option{WithScheduler(clock)}, opts...)...)
	det.Start()
	return det, probe, clock
}

func TestActivationEmitsOneDragStart(t *testing.T) {
	det, _, _ := newTestDetector(t)

	starts := 0
	det.OnDragStart(func() { starts++ })

	det.ActivateOptimistically()
	assert.Equal(t, 1, starts)
	assert.True(t, det.IsDraggingFiles())

	// Re-activation while active must not re-emit.
	det.ActivateOptimistically()
	det.ActivateOptimistically()
	assert.Equal(t, 1, starts)
	assert.Equal(t, 2, det.CurrentSession().Refreshes)
}

func TestDragEndAtTimeout(t *testing.T) {
	det, _, clock := newTestDetector(t)

	var ends []Session
	det.OnDragEnd(func(s Session) { ends = append(ends, s) })

	det.ActivateOptimistically()

	clock.Advance(2999 * time.Millisecond)
	assert.Empty(t, ends, "drag-end before the deadline")
	assert.True(t, det.IsDraggingFiles())

	clock.Advance(1 * time.Millisecond)
	require.Len(t, ends, 1)
	assert.False(t, det.IsDraggingFiles())
	assert.Equal(t, PhaseIdle, det.CurrentPhase())
}

func TestRefreshExtendsDeadline(t *testing.T) {
	det, _, clock := newTestDetector(t)

	ends := 0
	det.OnDragEnd(func(Session) { ends++ })

	det.ActivateOptimistically()
	clock.Advance(2000 * time.Millisecond)

	// Refresh at t+2000: the deadline moves to t+5000.
	det.ActivateOptimistically()
	clock.Advance(2999 * time.Millisecond)
	assert.Zero(t, ends, "refresh did not extend the deadline")

	clock.Advance(1 * time.Millisecond)
	assert.Equal(t, 1, ends)
}

func TestPollEmitsFilesDetected(t *testing.T) {
	det, probe, clock := newTestDetector(t)

	var detected [][]string
	det.OnFilesDetected(func(paths []string) { detected = append(detected, paths) })

	probe.set(clipboard.ProbeResult{
		HasFileSignature: true,
		FilePaths:        []string{"file:///a.txt"},
	})

	det.ActivateOptimistically()
	clock.Advance(100 * time.Millisecond)

	require.Len(t, detected, 1)
	assert.Equal(t, []string{"file:///a.txt"}, detected[0])

	// A positive probe never ends the session.
	assert.True(t, det.IsDraggingFiles())

	clock.Advance(100 * time.Millisecond)
	assert.Len(t, detected, 2, "each poll tick reports independently")
}

func TestPollCadence(t *testing.T) {
	det, probe, clock := newTestDetector(t)

	det.ActivateOptimistically()
	clock.Advance(1000 * time.Millisecond)

	// 10 poll ticks in the first second.
	assert.Equal(t, 10, probe.callCount())
}

func TestSessionEndsDespitePositiveProbes(t *testing.T) {
	det, probe, clock := newTestDetector(t)

	probe.set(clipboard.ProbeResult{HasFileSignature: true})

	ends := 0
	det.OnDragEnd(func(Session) { ends++ })

	det.ActivateOptimistically()
	clock.Advance(3000 * time.Millisecond)

	assert.Equal(t, 1, ends, "only the timeout ends the session")
	sess := det.CurrentSession()
	assert.NotZero(t, sess.ProbeHits)
}

func TestStopSilencesTimers(t *testing.T) {
	det, probe, clock := newTestDetector(t)

	events := 0
	det.OnDragEnd(func(Session) { events++ })
	det.OnFilesDetected(func([]string) { events++ })

	probe.set(clipboard.ProbeResult{HasFileSignature: true})
	det.ActivateOptimistically()
	det.Stop()

	before := probe.callCount()
	clock.Advance(10 * time.Second)

	assert.Zero(t, events, "events fired after Stop")
	assert.Equal(t, before, probe.callCount(), "polls continued after Stop")
	assert.False(t, det.IsDraggingFiles())
}

func TestDestroySilencesEverything(t *testing.T) {
	det, _, clock := newTestDetector(t)

	events := 0
	det.OnDragStart(func() { events++ })
	det.OnDragEnd(func(Session) { events++ })

	det.ActivateOptimistically()
	events = 0

	det.Destroy()
	det.Destroy() // repeat-safe

	clock.Advance(10 * time.Second)
	det.ActivateOptimistically() // destroyed: ignored

	assert.Zero(t, events)
	assert.Zero(t, clock.Pending(), "timers left pending after Destroy")
}

func TestActivationRequiresStart(t *testing.T) {
	det, _, _ := newTestDetector(t)
	det.Stop()

	starts := 0
	det.OnDragStart(func() { starts++ })

	det.ActivateOptimistically()
	assert.Zero(t, starts)
	assert.False(t, det.IsDraggingFiles())
}

func TestRedundantStartStop(t *testing.T) {
	det, _, _ := newTestDetector(t)

	det.Start() // logged no-op
	det.Stop()
	det.Stop() // no-op

	det.Start()
	starts := 0
	det.OnDragStart(func() { starts++ })
	det.ActivateOptimistically()
	assert.Equal(t, 1, starts, "detector must accept activations after restart")
}

func TestCheckNowIsPhaseNeutral(t *testing.T) {
	det, probe, _ := newTestDetector(t)

	probe.set(clipboard.ProbeResult{HasFileSignature: true})
	assert.True(t, det.CheckNow())
	assert.Equal(t, PhaseIdle, det.CurrentPhase(), "CheckNow changed the phase")

	det.ActivateOptimistically()
	probe.set(clipboard.ProbeResult{})
	assert.False(t, det.CheckNow())
	assert.Equal(t, PhaseOptimisticallyActive, det.CurrentPhase())
}

func TestUnsubscribe(t *testing.T) {
	det, _, _ := newTestDetector(t)

	starts := 0
	unsub := det.OnDragStart(func() { starts++ })
	unsub()
	unsub() // second call is harmless

	det.ActivateOptimistically()
	assert.Zero(t, starts)
}

func TestCustomIntervals(t *testing.T) {
	det, probe, clock := newTestDetector(t, WithIntervals(50*time.Millisecond, 220*time.Millisecond))

	ends := 0
	det.OnDragEnd(func(Session) { ends++ })

	det.ActivateOptimistically()
	clock.Advance(220 * time.Millisecond)

	assert.Equal(t, 1, ends)
	assert.Equal(t, 4, probe.callCount(), "expected one poll per 50 ms until the deadline")
}

func TestSetIntervalsAppliesToNextSession(t *testing.T) {
	det, _, clock := newTestDetector(t)

	ends := 0
	det.OnDragEnd(func(Session) { ends++ })

	det.SetIntervals(50*time.Millisecond, 500*time.Millisecond)

	det.ActivateOptimistically()
	clock.Advance(499 * time.Millisecond)
	assert.Equal(t, 0, ends)
	clock.Advance(1 * time.Millisecond)
	assert.Equal(t, 1, ends)
}

func TestMetricsWiring(t *testing.T) {
	reg := metrics.NewRegistry()
	mset := metrics.NewSet(reg)

	det, _, clock := newTestDetector(t, WithMetrics(mset))

	det.ActivateOptimistically()
	snap := reg.Snapshot()
	assert.Equal(t, 1.0, snap["dragwatch_activations_total"])
	assert.Equal(t, 1.0, snap["dragwatch_drag_sessions_total"])
	assert.Equal(t, 1.0, snap["dragwatch_dragging"])

	det.ActivateOptimistically() // refresh counts as an activation, not a session
	snap = reg.Snapshot()
	assert.Equal(t, 2.0, snap["dragwatch_activations_total"])
	assert.Equal(t, 1.0, snap["dragwatch_drag_sessions_total"])

	clock.Advance(5 * time.Second)
	snap = reg.Snapshot()
	assert.Equal(t, 0.0, snap["dragwatch_dragging"])
}

func TestContinuousProbe(t *testing.T) {
	probe := &fakeProber{}
	cont := NewContinuousProbe(probe)

	assert.False(t, cont.IsDraggingFiles())

	probe.set(clipboard.ProbeResult{
		HasFileSignature: true,
		FilePaths:        []string{"file:///x"},
	})
	assert.True(t, cont.IsDraggingFiles())
	assert.Equal(t, []string{"file:///x"}, cont.Check().FilePaths)
}
