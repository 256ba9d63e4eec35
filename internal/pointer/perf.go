package pointer

import (
	"runtime"
	"time"
)

// Metrics is a snapshot of tracker performance, recomputed once per
// accounting interval.
type Metrics struct {
	// SampleHz is samples accepted since the previous tick divided by
	// elapsed seconds; 0 when no time elapsed.
	SampleHz float64

	// MemoryBytes is the process heap in use at the tick.
	MemoryBytes uint64

	// CPUPercent is reported but not measured; it stays 0.
	CPUPercent float64

	// UpdatedAt is when this snapshot was computed.
	UpdatedAt time.Time
}

// accumulator converts raw sample counts into per-interval Metrics.
// Accounting is deliberately decoupled from sample arrival: ingestion is
// bursty and possibly very high frequency, the tick is fixed-rate and
// cheap, and dividing by a full interval avoids near-zero elapsed times.
type accumulator struct {
	eventsSinceTick uint64
	lastTick        time.Time
	latest          Metrics
}

func newAccumulator(now time.Time) *accumulator {
	return &accumulator{
		lastTick: now,
		latest:   Metrics{UpdatedAt: now},
	}
}

// record counts one accepted sample.
func (a *accumulator) record() {
	a.eventsSinceTick++
}

// tick recomputes the metrics snapshot and resets the interval counter.
// Runs on the accounting cadence even when no samples arrived.
func (a *accumulator) tick(now time.Time) Metrics {
	elapsed := now.Sub(a.lastTick)

	hz := 0.0
	if elapsed > 0 {
		hz = float64(a.eventsSinceTick) * float64(time.Second) / float64(elapsed)
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	a.latest = Metrics{
		SampleHz:    hz,
		MemoryBytes: ms.HeapInuse,
		CPUPercent:  0,
		UpdatedAt:   now,
	}
	a.eventsSinceTick = 0
	a.lastTick = now
	return a.latest
}

// snapshot returns the most recent metrics without recomputing.
func (a *accumulator) snapshot() Metrics {
	return a.latest
}
