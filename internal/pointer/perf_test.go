package pointer

import (
	"testing"
	"time"
)

func TestAccumulatorFrequency(t *testing.T) {
	start := time.Unix(100, 0)
	acc := newAccumulator(start)

	for i := 0; i < 50; i++ {
		acc.record()
	}

	m := acc.tick(start.Add(1000 * time.Millisecond))
	if m.SampleHz != 50.0 {
		t.Errorf("SampleHz = %g, want 50", m.SampleHz)
	}
	if m.MemoryBytes == 0 {
		t.Error("MemoryBytes should reflect heap usage")
	}
}

func TestAccumulatorZeroElapsed(t *testing.T) {
	start := time.Unix(100, 0)
	acc := newAccumulator(start)
	acc.record()

	// Same instant: no division fault, frequency is defined as 0.
	m := acc.tick(start)
	if m.SampleHz != 0 {
		t.Errorf("SampleHz = %g, want 0 for zero elapsed", m.SampleHz)
	}
}

func TestAccumulatorNegativeElapsed(t *testing.T) {
	start := time.Unix(100, 0)
	acc := newAccumulator(start)
	acc.record()

	m := acc.tick(start.Add(-time.Second))
	if m.SampleHz != 0 {
		t.Errorf("SampleHz = %g, want 0 for negative elapsed", m.SampleHz)
	}
}

func TestAccumulatorFractionalWindow(t *testing.T) {
	start := time.Unix(100, 0)
	acc := newAccumulator(start)

	for i := 0; i < 25; i++ {
		acc.record()
	}

	m := acc.tick(start.Add(500 * time.Millisecond))
	if m.SampleHz != 50.0 {
		t.Errorf("SampleHz = %g, want 50 (25 events over half a second)", m.SampleHz)
	}
}

func TestAccumulatorResetsBetweenTicks(t *testing.T) {
	start := time.Unix(100, 0)
	acc := newAccumulator(start)

	acc.record()
	acc.record()
	first := acc.tick(start.Add(time.Second))
	if first.SampleHz != 2 {
		t.Fatalf("first tick = %g", first.SampleHz)
	}

	second := acc.tick(start.Add(2 * time.Second))
	if second.SampleHz != 0 {
		t.Errorf("second tick = %g, counter was not reset", second.SampleHz)
	}
}

func TestSampleValid(t *testing.T) {
	cases := []struct {
		s    Sample
		want bool
	}{
		{Sample{X: 0, Y: 0}, true},
		{Sample{X: -100.5, Y: 2400}, true},
	}
	for _, tc := range cases {
		if got := tc.s.Valid(); got != tc.want {
			t.Errorf("Valid(%+v) = %v", tc.s, got)
		}
	}
}

func TestButtonMask(t *testing.T) {
	m := ButtonLeft | ButtonRight
	if !m.Left() || !m.Right() {
		t.Error("both buttons should read as pressed")
	}
	m &^= ButtonLeft
	if m.Left() {
		t.Error("left should be released")
	}
	if !m.Right() {
		t.Error("right should still be pressed")
	}
}
