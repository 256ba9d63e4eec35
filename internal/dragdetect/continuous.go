package dragdetect

import "dragwatch/internal/clipboard"

// ContinuousProbe is the stateless strategy: no optimistic session, no
// timers. Each query probes the clipboard at that instant. Suited to
// hosts that already know when a drop happened and only need a yes/no
// check.
type ContinuousProbe struct {
	probe Prober
}

// NewContinuousProbe wraps a clipboard prober.
func NewContinuousProbe(probe Prober) *ContinuousProbe {
	return &ContinuousProbe{probe: probe}
}

// Check runs one synchronous probe and returns the full result.
func (c *ContinuousProbe) Check() clipboard.ProbeResult {
	return c.probe.Check()
}

// IsDraggingFiles reports whether a file signature is on the clipboard
// right now.
func (c *ContinuousProbe) IsDraggingFiles() bool {
	return c.probe.Check().HasFileSignature
}
