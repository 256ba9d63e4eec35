package metrics

// Set holds the metrics the tracking and detection components report.
type Set struct {
	SamplesTotal        *Counter
	SamplesDroppedTotal *Counter
	SampleHz            *Gauge
	MemoryBytes         *Gauge
	ActivationsTotal    *Counter
	ProbeHitsTotal      *Counter
	DragSessionsTotal   *Counter
	Dragging            *Gauge
}

// NewSet creates and registers the dragwatch metric set.
func NewSet(r *Registry) *Set {
	s := &Set{
		SamplesTotal: NewCounter("dragwatch_samples_total",
			"Pointer samples accepted by the tracker", nil),
		SamplesDroppedTotal: NewCounter("dragwatch_samples_dropped_total",
			"Pointer samples rejected for non-finite coordinates", nil),
		SampleHz: NewGauge("dragwatch_sample_hz",
			"Sample frequency over the last accounting interval", nil),
		MemoryBytes: NewGauge("dragwatch_memory_bytes",
			"Process heap bytes at the last accounting tick", nil),
		ActivationsTotal: NewCounter("dragwatch_activations_total",
			"Optimistic drag activations requested", nil),
		ProbeHitsTotal: NewCounter("dragwatch_probe_hits_total",
			"Clipboard probes that found a file signature", nil),
		DragSessionsTotal: NewCounter("dragwatch_drag_sessions_total",
			"Completed optimistic drag sessions", nil),
		Dragging: NewGauge("dragwatch_dragging",
			"1 while a drag session is optimistically active", nil),
	}
	r.MustRegister(
		s.SamplesTotal, s.SamplesDroppedTotal, s.SampleHz, s.MemoryBytes,
		s.ActivationsTotal, s.ProbeHitsTotal, s.DragSessionsTotal, s.Dragging,
	)
	return s
}
