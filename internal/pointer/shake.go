package pointer

import (
	"math"
	"sync"
	"time"
)

// ShakeConfig controls shake gesture detection.
type ShakeConfig struct {
	// MinReversals is how many sharp horizontal direction reversals
	// must land inside Window to count as a shake.
	MinReversals int

	// Window is the rolling window reversals are counted over.
	Window time.Duration

	// MinSpeed is the minimum horizontal speed, in pixels per second,
	// for a reversal to count. Slow wiggles are ignored.
	MinSpeed float64
}

// DefaultShakeConfig returns the tuning used by the daemon.
func DefaultShakeConfig() ShakeConfig {
	return ShakeConfig{
		MinReversals: 3,
		Window:       500 * time.Millisecond,
		MinSpeed:     400,
	}
}

// ShakeDetector watches a sample stream for rapid pointer-direction
// reversals. A shake is the upstream cue that a drag may be starting;
// the host wires the trigger to the drag detector's optimistic
// activation.
type ShakeDetector struct {
	mu  sync.Mutex
	cfg ShakeConfig

	onShake func()

	hasPrev   bool
	prev      Sample
	direction int // -1, 0, +1 horizontal travel direction
	reversals []time.Time
}

// NewShakeDetector creates a detector with the given tuning. Zero-value
// fields fall back to defaults.
func NewShakeDetector(cfg ShakeConfig, onShake func()) *ShakeDetector {
	def := DefaultShakeConfig()
	if cfg.MinReversals <= 0 {
		cfg.MinReversals = def.MinReversals
	}
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.MinSpeed <= 0 {
		cfg.MinSpeed = def.MinSpeed
	}
	return &ShakeDetector{cfg: cfg, onShake: onShake}
}

// Feed consumes one accepted sample. Fires the shake callback
// synchronously when the reversal threshold is crossed, then resets.
func (d *ShakeDetector) Feed(s Sample) {
	d.mu.Lock()

	if !d.hasPrev {
		d.hasPrev = true
		d.prev = s
		d.mu.Unlock()
		return
	}

	dx := s.X - d.prev.X
	dt := s.Timestamp.Sub(d.prev.Timestamp)
	d.prev = s

	if dt <= 0 || dx == 0 {
		d.mu.Unlock()
		return
	}

	speed := math.Abs(dx) / dt.Seconds()
	dir := 1
	if dx < 0 {
		dir = -1
	}

	reversed := d.direction != 0 && dir != d.direction
	d.direction = dir

	if !reversed || speed < d.cfg.MinSpeed {
		d.mu.Unlock()
		return
	}

	d.reversals = append(d.reversals, s.Timestamp)
	cutoff := s.Timestamp.Add(-d.cfg.Window)
	kept := d.reversals[:0]
	for _, at := range d.reversals {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}
	d.reversals = kept

	fire := len(d.reversals) >= d.cfg.MinReversals
	if fire {
		d.reversals = nil
		d.direction = 0
	}
	cb := d.onShake
	d.mu.Unlock()

	if fire && cb != nil {
		cb()
	}
}

// Reset clears accumulated reversal state.
func (d *ShakeDetector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hasPrev = false
	d.direction = 0
	d.reversals = nil
}
