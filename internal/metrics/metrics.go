// Package metrics provides Prometheus-compatible metrics for dragwatch.
//
// Counters and gauges are hand-rolled rather than pulled from a client
// library: the subsystem exposes a handful of values over IPC and has no
// scrape endpoint of its own.
package metrics

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

// MetricType represents the type of metric.
type MetricType int

const (
	// TypeCounter is a monotonically increasing counter.
	TypeCounter MetricType = iota
	// TypeGauge is a value that can go up and down.
	TypeGauge
)

// String returns the string representation of the metric type.
func (t MetricType) String() string {
	switch t {
	case TypeCounter:
		return "counter"
	case TypeGauge:
		return "gauge"
	default:
		return "unknown"
	}
}

// Labels represents metric labels.
type Labels map[string]string

// String returns the Prometheus text representation of labels.
func (l Labels) String() string {
	if len(l) == 0 {
		return ""
	}

	keys := make([]string, 0, len(l))
	for k := range l {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(l))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf(`%s="%s"`, k, l[k]))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// Metric is the interface implemented by all metric types.
type Metric interface {
	Name() string
	Help() string
	Type() MetricType
	FloatValue() float64
	LabelString() string
}

// Counter is a monotonically increasing counter.
type Counter struct {
	name   string
	help   string
	labels Labels
	value  atomic.Uint64
}

// NewCounter creates a new Counter.
func NewCounter(name, help string, labels Labels) *Counter {
	return &Counter{name: name, help: help, labels: labels}
}

// Inc increments the counter by 1.
func (c *Counter) Inc() {
	c.value.Add(1)
}

// Add adds the given value to the counter.
func (c *Counter) Add(v uint64) {
	c.value.Add(v)
}

// Value returns the current value.
func (c *Counter) Value() uint64 {
	return c.value.Load()
}

// Name returns the metric name.
func (c *Counter) Name() string { return c.name }

// Help returns the help text.
func (c *Counter) Help() string { return c.help }

// Type returns the metric type.
func (c *Counter) Type() MetricType { return TypeCounter }

// FloatValue returns the value as a float64.
func (c *Counter) FloatValue() float64 { return float64(c.value.Load()) }

// LabelString returns the label set in text form.
func (c *Counter) LabelString() string { return c.labels.String() }

// Gauge is a value that can go up and down.
type Gauge struct {
	name   string
	help   string
	labels Labels
	bits   atomic.Uint64
}

// NewGauge creates a new Gauge.
func NewGauge(name, help string, labels Labels) *Gauge {
	return &Gauge{name: name, help: help, labels: labels}
}

// Set sets the gauge to the given value.
func (g *Gauge) Set(v float64) {
	g.bits.Store(math.Float64bits(v))
}

// Value returns the current value.
func (g *Gauge) Value() float64 {
	return math.Float64frombits(g.bits.Load())
}

// Name returns the metric name.
func (g *Gauge) Name() string { return g.name }

// Help returns the help text.
func (g *Gauge) Help() string { return g.help }

// Type returns the metric type.
func (g *Gauge) Type() MetricType { return TypeGauge }

// FloatValue returns the value as a float64.
func (g *Gauge) FloatValue() float64 { return g.Value() }

// LabelString returns the label set in text form.
func (g *Gauge) LabelString() string { return g.labels.String() }

// Registry holds a set of metrics.
type Registry struct {
	mu      sync.RWMutex
	metrics []Metric
	byName  map[string]Metric
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Metric)}
}

// Register adds a metric to the registry. Registering the same
// name+labels twice returns the existing metric's slot untouched.
func (r *Registry) Register(m Metric) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := m.Name() + m.LabelString()
	if _, ok := r.byName[key]; ok {
		return fmt.Errorf("metric already registered: %s", key)
	}
	r.byName[key] = m
	r.metrics = append(r.metrics, m)
	return nil
}

// MustRegister registers a metric and panics on conflict.
func (r *Registry) MustRegister(ms ...Metric) {
	for _, m := range ms {
		if err := r.Register(m); err != nil {
			panic(err)
		}
	}
}

// Snapshot returns the current value of every registered metric keyed by
// name+labels. Used by the IPC metrics reply.
func (r *Registry) Snapshot() map[string]float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]float64, len(r.metrics))
	for _, m := range r.metrics {
		out[m.Name()+m.LabelString()] = m.FloatValue()
	}
	return out
}

// WriteText writes the registry in Prometheus text exposition format.
func (r *Registry) WriteText(w io.Writer) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	for _, m := range r.metrics {
		if !seen[m.Name()] {
			seen[m.Name()] = true
			if _, err := fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n",
				m.Name(), m.Help(), m.Name(), m.Type()); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s%s %g\n", m.Name(), m.LabelString(), m.FloatValue()); err != nil {
			return err
		}
	}
	return nil
}

// default registry

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process-wide registry.
func DefaultRegistry() *Registry {
	return defaultRegistry
}
