// Package pointer provides system-wide pointer tracking.
//
// A Tracker owns the sampling lifecycle: it starts a platform Source
// (the native hook bridge), validates and fans out every sample, and
// keeps fixed-rate performance accounting that runs whether or not
// samples arrive. Platform specifics live behind the Source capability;
// the Tracker itself is platform-free.
package pointer

import (
	"math"
	"time"
)

// ButtonMask is the pressed-button state carried by a sample.
type ButtonMask uint8

// Button bits.
const (
	ButtonLeft ButtonMask = 1 << iota
	ButtonRight
)

// Left reports whether the left button bit is set.
func (m ButtonMask) Left() bool { return m&ButtonLeft != 0 }

// Right reports whether the right button bit is set.
func (m ButtonMask) Right() bool { return m&ButtonRight != 0 }

// Sample is one observed pointer state. Samples are immutable values.
type Sample struct {
	X         float64
	Y         float64
	Timestamp time.Time
	Buttons   ButtonMask
}

// Valid reports whether the coordinates are finite. Samples failing this
// check are dropped at ingestion, never surfaced as errors.
func (s Sample) Valid() bool {
	return !math.IsNaN(s.X) && !math.IsInf(s.X, 0) &&
		!math.IsNaN(s.Y) && !math.IsInf(s.Y, 0)
}
